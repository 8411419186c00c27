package classify

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/workflow-cli/internal/model"
)

// ErrNoContent is returned for a ticket without subject and description.
var ErrNoContent = eris.New("classify: ticket has no subject or description")

// LLMClassifier produces a structured classification. Implementations return
// model.ErrLLMUnavailable (or any error) when no verdict can be produced.
type LLMClassifier interface {
	ClassifyTicket(ctx context.Context, ticket model.Ticket, enr *model.Enrichment, rules model.Classification) (*model.Classification, error)
}

// Policy decides which layer wins when rule and LLM categories disagree.
type Policy string

const (
	// PolicyLLM makes the LLM verdict authoritative whenever it is available.
	PolicyLLM Policy = "llm"
	// PolicyRules keeps a matched rule category and borrows the rest from the LLM.
	PolicyRules Policy = "rules"
)

// ParsePolicy accepts "llm", "rules" or empty (llm).
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyLLM:
		return PolicyLLM, nil
	case PolicyRules:
		return PolicyRules, nil
	default:
		return "", eris.Errorf("classify: unknown policy %q", s)
	}
}

// Classifier merges the rule layer with the optional LLM layer.
type Classifier struct {
	llm    LLMClassifier
	policy Policy
}

// New creates a Classifier. llm may be nil.
func New(llm LLMClassifier, policy Policy) *Classifier {
	if policy == "" {
		policy = PolicyLLM
	}
	return &Classifier{llm: llm, policy: policy}
}

// Result is the classifier output plus a degradation note when the LLM was
// requested but could not contribute.
type Result struct {
	Classification model.Classification
	Degraded       string
}

// Classify returns the merged verdict. The only error is ErrNoContent.
func (c *Classifier) Classify(ctx context.Context, t model.Ticket, enr *model.Enrichment, useLLM bool) (Result, error) {
	if !t.HasContent() {
		return Result{}, eris.Wrapf(ErrNoContent, "ticket %s", t.ID)
	}
	rules := Rules(t)
	if !useLLM {
		return Result{Classification: rules}, nil
	}
	if c.llm == nil {
		return degrade(rules, "llm classification not configured"), nil
	}

	verdict, err := c.llm.ClassifyTicket(ctx, t, enr, rules)
	if err != nil || verdict == nil {
		reason := "llm returned no classification"
		if err != nil {
			reason = err.Error()
			if errors.Is(err, model.ErrLLMUnavailable) {
				reason = "llm unavailable"
			}
		}
		zap.L().Warn("classify: llm classification failed, using rules",
			zap.String("ticket_id", t.ID),
			zap.String("reason", reason),
		)
		return degrade(rules, reason), nil
	}

	merged := c.merge(rules, sanitize(*verdict))
	if merged.RuleCategory != merged.Category {
		zap.L().Info("classify: rule and llm categories disagree",
			zap.String("ticket_id", t.ID),
			zap.String("rule_category", string(merged.RuleCategory)),
			zap.String("llm_category", string(verdict.Category)),
			zap.String("routed", string(merged.Category)),
			zap.String("policy", string(c.policy)),
		)
	}
	return Result{Classification: merged}, nil
}

func (c *Classifier) merge(rules, llm model.Classification) model.Classification {
	out := llm
	out.LLMUsed = true
	out.Source = model.SourceLLM
	out.RuleCategory = rules.RuleCategory
	out.RuleProduct = rules.RuleProduct
	out.Factors = rules.Factors
	if out.Summary == "" {
		out.Summary = rules.Summary
	}
	if out.Sentiment == "" {
		out.Sentiment = rules.Sentiment
	}
	if out.Urgency == "" {
		out.Urgency = rules.Urgency
	}

	if c.policy == PolicyRules && rules.Confidence > 0 {
		out.Category = rules.Category
		out.ProductCategory = rules.ProductCategory
		out.Confidence = rules.Confidence
		out.Source = model.SourceRules
		if out.ProductName == "" || rules.Category != model.CategoryProductComplaint {
			out.ProductName = rules.ProductName
		}
	}

	reasoning := rules.Reasoning
	if llm.Reasoning != "" {
		reasoning += "\nAI: " + llm.Reasoning
	}
	out.Reasoning = reasoning
	return out
}

// sanitize coerces an LLM verdict into the closed category sets.
func sanitize(c model.Classification) model.Classification {
	switch c.Category {
	case model.CategoryProductComplaint, model.CategoryITSupport, model.CategoryGeneral:
	default:
		c.Category = model.CategoryGeneral
	}
	switch c.ProductCategory {
	case model.ProductSwitches, model.ProductCables, model.ProductConnectors,
		model.ProductSoftware, model.ProductInfrastructure, model.ProductGeneral, model.ProductNone:
	default:
		c.ProductCategory = model.ProductGeneral
	}
	switch c.Category {
	case model.CategoryProductComplaint:
		if c.ProductCategory == model.ProductNone {
			c.ProductCategory = model.ProductGeneral
		}
	case model.CategoryITSupport:
		c.ProductCategory = model.ProductNone
	case model.CategoryGeneral:
		c.ProductCategory = model.ProductGeneral
	}
	if math.IsNaN(c.Confidence) || c.Confidence < 0 {
		c.Confidence = 0
	}
	if c.Confidence > 1 {
		c.Confidence = 1
	}
	c.Sentiment = strings.ToLower(strings.TrimSpace(c.Sentiment))
	c.Urgency = strings.ToLower(strings.TrimSpace(c.Urgency))
	return c
}

func degrade(c model.Classification, reason string) Result {
	c.Reasoning += " [AI classification unavailable: " + reason + "]"
	return Result{Classification: c, Degraded: reason}
}
