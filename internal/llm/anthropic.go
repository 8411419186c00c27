// Package llm implements the optional LLM scoring and classification
// capabilities on top of the Anthropic Messages API.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/workflow-cli/internal/classify"
	"github.com/sells-group/workflow-cli/internal/model"
	"github.com/sells-group/workflow-cli/internal/resilience"
	"github.com/sells-group/workflow-cli/internal/scoring"
	"github.com/sells-group/workflow-cli/pkg/anthropic"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-haiku-4-5-20251001"

var (
	_ scoring.LLMScorer      = (*Anthropic)(nil)
	_ classify.LLMClassifier = (*Anthropic)(nil)
)

// Config controls the model and sampling of LLM calls.
type Config struct {
	Model               string
	MaxTokens           int64
	ScoreTemperature    float64
	ClassifyTemperature float64
}

// Anthropic scores leads and classifies tickets with Claude. Transport
// failures and an open circuit are reported as model.ErrLLMUnavailable.
type Anthropic struct {
	client anthropic.Client
	cfg    Config
	policy resilience.Policy
}

// New creates the adapter. The policy normally carries a circuit breaker so
// an unavailable API stops being called for a while.
func New(client anthropic.Client, cfg Config, policy resilience.Policy) *Anthropic {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	return &Anthropic{client: client, cfg: cfg, policy: policy}
}

type leadResponse struct {
	Score             float64  `json:"score"`
	Confidence        float64  `json:"confidence"`
	Priority          string   `json:"priority"`
	Reasoning         string   `json:"reasoning"`
	KeyFactors        []string `json:"key_factors"`
	RecommendedAction string   `json:"recommended_action"`
}

// AnalyzeLead asks the model for an advisory analysis of the lead.
func (a *Anthropic) AnalyzeLead(ctx context.Context, lead model.Lead, enr *model.Enrichment, rubric model.ScoreBreakdown) (*model.LLMAnalysis, error) {
	text, err := a.complete(ctx, "analyze_lead", leadSystemPrompt, leadPrompt(lead, enr, rubric), a.cfg.ScoreTemperature)
	if err != nil {
		return nil, err
	}
	var resp leadResponse
	if err := json.Unmarshal([]byte(cleanJSON(text)), &resp); err != nil {
		return nil, eris.Wrap(err, "llm: parse lead analysis")
	}
	return &model.LLMAnalysis{
		Score:             clamp01(resp.Score),
		Confidence:        clamp01(resp.Confidence),
		Priority:          strings.ToUpper(strings.TrimSpace(resp.Priority)),
		Reasoning:         strings.TrimSpace(resp.Reasoning),
		KeyFactors:        resp.KeyFactors,
		RecommendedAction: strings.TrimSpace(resp.RecommendedAction),
		Model:             a.cfg.Model,
	}, nil
}

type ticketResponse struct {
	IsProductComplaint bool    `json:"is_product_complaint"`
	IsITSupport        bool    `json:"is_it_support"`
	ProductCategory    string  `json:"product_category"`
	ProductName        string  `json:"product_name"`
	Confidence         float64 `json:"confidence"`
	Reasoning          string  `json:"reasoning"`
	Sentiment          string  `json:"sentiment"`
	Urgency            string  `json:"urgency"`
	ComplaintSummary   string  `json:"complaint_summary"`
	SuggestedResponse  string  `json:"suggested_response"`
}

// ClassifyTicket asks the model for a structured classification. The
// classifier coerces the result into the closed category sets.
func (a *Anthropic) ClassifyTicket(ctx context.Context, t model.Ticket, enr *model.Enrichment, rules model.Classification) (*model.Classification, error) {
	text, err := a.complete(ctx, "classify_ticket", ticketSystemPrompt, ticketPrompt(t, enr, rules), a.cfg.ClassifyTemperature)
	if err != nil {
		return nil, err
	}
	var resp ticketResponse
	if err := json.Unmarshal([]byte(cleanJSON(text)), &resp); err != nil {
		return nil, eris.Wrap(err, "llm: parse ticket classification")
	}

	c := &model.Classification{
		ProductCategory:   model.ProductCategory(strings.ToLower(strings.TrimSpace(resp.ProductCategory))),
		ProductName:       strings.TrimSpace(resp.ProductName),
		Confidence:        clamp01(resp.Confidence),
		Sentiment:         resp.Sentiment,
		Urgency:           resp.Urgency,
		Reasoning:         strings.TrimSpace(resp.Reasoning),
		Summary:           strings.TrimSpace(resp.ComplaintSummary),
		SuggestedResponse: strings.TrimSpace(resp.SuggestedResponse),
		Source:            model.SourceLLM,
	}
	switch {
	case resp.IsProductComplaint:
		c.Category = model.CategoryProductComplaint
	case resp.IsITSupport:
		c.Category = model.CategoryITSupport
	default:
		c.Category = model.CategoryGeneral
	}
	return c, nil
}

// complete sends one single-turn request and returns the response text.
func (a *Anthropic) complete(ctx context.Context, operation, system, user string, temperature float64) (string, error) {
	req := anthropic.MessageRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		System:      anthropic.BuildCachedSystemBlocks(system),
		Messages:    []anthropic.Message{{Role: "user", Content: user}},
		Temperature: &temperature,
	}
	resp, err := resilience.Call(ctx, a.policy, operation, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return a.client.CreateMessage(ctx, req)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", eris.Wrap(err, "llm: "+operation)
		}
		zap.L().Warn("llm: request failed", zap.String("operation", operation), zap.Error(err))
		return "", eris.Wrapf(model.ErrLLMUnavailable, "llm: %s: %v", operation, err)
	}
	resp.Usage.LogCost(a.cfg.Model, operation)

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", eris.Errorf("llm: %s: empty response", operation)
	}
	return text, nil
}

func leadPrompt(l model.Lead, enr *model.Enrichment, rubric model.ScoreBreakdown) string {
	var b strings.Builder
	b.WriteString("Score this lead.\n\nLEAD\n")
	fmt.Fprintf(&b, "- Name: %s\n", l.DisplayName())
	fmt.Fprintf(&b, "- Title: %s\n", l.Title)
	fmt.Fprintf(&b, "- Company: %s\n", l.Company)
	fmt.Fprintf(&b, "- Industry: %s\n", l.Industry)
	fmt.Fprintf(&b, "- Employees: %d\n", l.NumberOfEmployees)
	fmt.Fprintf(&b, "- Annual revenue: $%.0f\n", l.AnnualRevenue)
	fmt.Fprintf(&b, "- Lead source: %s\n", l.LeadSource)
	fmt.Fprintf(&b, "- Rating: %s\n", l.Rating)
	fmt.Fprintf(&b, "- Description: %q\n", l.Description)

	b.WriteString("\nERP CONTEXT\n")
	if enr == nil {
		b.WriteString("- No business partner found.\n")
	} else {
		fmt.Fprintf(&b, "- Existing customer: %t\n", enr.IsCustomer())
		fmt.Fprintf(&b, "- Business partner: %s\n", enr.BusinessPartnerID)
		fmt.Fprintf(&b, "- Orders: %d\n", enr.TotalOrders)
		fmt.Fprintf(&b, "- Lifetime revenue: $%.0f\n", enr.TotalRevenue)
		fmt.Fprintf(&b, "- Credit rating: %s\n", enr.CreditRating)
		fmt.Fprintf(&b, "- Account status: %s\n", enr.AccountStatus)
		if enr.LastOrderDate != nil {
			fmt.Fprintf(&b, "- Last order: %s\n", enr.LastOrderDate.Format("2006-01-02"))
		}
	}

	fmt.Fprintf(&b, "\nRUBRIC RESULT\n- Score: %.2f (%d base + %d bonus points)\n", rubric.Score, rubric.BasePoints, rubric.BonusPoints)
	for _, f := range rubric.Factors {
		fmt.Fprintf(&b, "- %s: %d (%s)\n", f.Name, f.Points, f.Value)
	}
	return b.String()
}

func ticketPrompt(t model.Ticket, enr *model.Enrichment, rules model.Classification) string {
	var b strings.Builder
	b.WriteString("Classify this ticket.\n\nTICKET\n")
	fmt.Fprintf(&b, "- Case number: %s\n", t.CaseNumber)
	fmt.Fprintf(&b, "- Subject: %s\n", t.Subject)
	fmt.Fprintf(&b, "- Description:\n%s\n", t.Description)
	fmt.Fprintf(&b, "- Priority: %s\n", t.Priority)
	fmt.Fprintf(&b, "- Origin: %s\n", t.Origin)
	fmt.Fprintf(&b, "- Created: %s\n", t.CreatedDate)

	b.WriteString("\nERP CONTEXT\n")
	if enr == nil {
		b.WriteString("- No order context.\n")
	} else {
		fmt.Fprintf(&b, "- Business partner: %s\n", enr.BusinessPartnerID)
		fmt.Fprintf(&b, "- Has open orders: %t\n", enr.HasOpenOrders())
		fmt.Fprintf(&b, "- Total order value: $%.0f\n", enr.TotalOrderValue())
	}

	fmt.Fprintf(&b, "\nKEYWORD RULES SUGGEST: %s / %s\n", rules.Category, rules.ProductCategory)
	return b.String()
}

// cleanJSON extracts a JSON object from text that may carry markdown code
// fences or surrounding prose.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func clamp01(v float64) float64 {
	switch {
	case v != v || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
