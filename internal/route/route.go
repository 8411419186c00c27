// Package route maps verdicts onto routing decisions. Every decision is a
// pure derivation of its inputs.
package route

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/workflow-cli/internal/model"
	"github.com/sells-group/workflow-cli/internal/rules"
	"github.com/sells-group/workflow-cli/internal/scoring"
)

// Lead thresholds.
const (
	AEThreshold    = 0.75
	SDRThreshold   = 0.45
	EmailThreshold = 0.60
)

// DefaultEscalationRule escalates only critical tickets.
const DefaultEscalationRule = `urgency == "critical"`

// Lead statuses written per owner type.
const (
	StatusWorking   = "Working - Contacted"
	StatusOpen      = "Open - Not Contacted"
	StatusNurturing = "Nurturing"
)

const (
	roleSalesAgent   = "sales_agent"
	roleProduct      = "product_expert"
	roleProductOwner = "product_owner"
	roleServices     = "services_agent"
)

// ErrConfig is the sentinel for missing routing configuration.
var ErrConfig = eris.New("route: invalid configuration")

// Owners holds CRM user or queue ids per routing target.
type Owners struct {
	AE         string
	SDR        string
	Nurture    string
	Escalation string
}

// Recipients holds notification addresses per role.
type Recipients struct {
	SalesAgent    string
	ProductExpert string
	ServicesAgent string
	// ProductOwners overrides ProductExpert per product category.
	ProductOwners map[string]string
}

// Config is the routing table.
type Config struct {
	Owners         Owners
	Recipients     Recipients
	PortalURL      string
	EscalationRule string
}

// Router derives decisions from verdicts.
type Router struct {
	cfg  Config
	eval *rules.ExprEvaluator
}

// New validates the escalation rule and returns a Router. Missing owners or
// recipients are reported by Validate, not here.
func New(cfg Config, eval *rules.ExprEvaluator) (*Router, error) {
	if strings.TrimSpace(cfg.EscalationRule) == "" {
		cfg.EscalationRule = DefaultEscalationRule
	}
	if eval == nil {
		eval = rules.NewExprEvaluator()
	}
	if err := eval.Compile(cfg.EscalationRule, escalationVars(model.Classification{}, model.Ticket{}, nil)); err != nil {
		return nil, eris.Wrapf(ErrConfig, "escalation rule: %v", err)
	}
	return &Router{cfg: cfg, eval: eval}, nil
}

// Validate reports every missing setting the given workflow needs.
func (r *Router) Validate(kind model.WorkflowKind) error {
	var missing []string
	req := func(v, name string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	switch kind {
	case model.KindLead:
		req(r.cfg.Owners.AE, "routing.ae_owner_id")
		req(r.cfg.Owners.SDR, "routing.sdr_owner_id")
		req(r.cfg.Owners.Nurture, "routing.nurture_owner_id")
		req(r.cfg.Recipients.SalesAgent, "email.sales_agent")
	case model.KindTicket:
		req(r.cfg.Recipients.ProductExpert, "email.product_expert")
		req(r.cfg.Recipients.ServicesAgent, "email.services_agent")
		req(r.cfg.PortalURL, "email.it_support_url")
	default:
		return eris.Wrapf(ErrConfig, "unknown workflow kind %q", kind)
	}
	if len(missing) > 0 {
		return eris.Wrapf(ErrConfig, "missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// DecideLead routes a scored lead.
func (r *Router) DecideLead(b model.ScoreBreakdown) model.Decision {
	d := model.Decision{
		Priority:      scoring.PriorityFor(b.Score),
		SendEmail:     b.Score >= EmailThreshold,
		Recipient:     r.cfg.Recipients.SalesAgent,
		RecipientRole: roleSalesAgent,
	}
	switch d.Priority {
	case model.PriorityP1:
		d.Action, d.OwnerType, d.OwnerID, d.LeadStatus = model.ActionAssignOwner, model.OwnerAE, r.cfg.Owners.AE, StatusWorking
	case model.PriorityP2:
		d.Action, d.OwnerType, d.OwnerID, d.LeadStatus = model.ActionAssignOwner, model.OwnerSDR, r.cfg.Owners.SDR, StatusOpen
	default:
		d.Action, d.OwnerType, d.OwnerID, d.LeadStatus = model.ActionNurture, model.OwnerNurture, r.cfg.Owners.Nurture, StatusNurturing
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Score %.2f routes to %s (%s); status %q.", b.Score, d.OwnerType, d.Priority, d.LeadStatus)
	if d.SendEmail {
		fmt.Fprintf(&sb, " Sales agent email scheduled (score >= %.2f).", EmailThreshold)
	} else {
		fmt.Fprintf(&sb, " No sales agent email (score < %.2f).", EmailThreshold)
	}
	if b.LLM != nil && b.LLM.RecommendedAction != "" {
		sb.WriteString(" AI recommends: " + b.LLM.RecommendedAction)
	}
	d.Reason = sb.String()
	return d
}

// DecideTicket routes a classified ticket and evaluates the escalation rule.
func (r *Router) DecideTicket(c model.Classification, t model.Ticket, enr *model.Enrichment) model.Decision {
	d := model.Decision{SendEmail: true, ProductCategory: c.ProductCategory}
	var sb strings.Builder

	switch c.Category {
	case model.CategoryITSupport:
		d.Action = model.ActionEmailServicesAgent
		d.Recipient, d.RecipientRole = r.cfg.Recipients.ServicesAgent, roleServices
		d.PortalURL = r.cfg.PortalURL
		fmt.Fprintf(&sb, "IT support request (confidence %.2f) routes to the services agent with portal %s.", c.Confidence, d.PortalURL)
	case model.CategoryProductComplaint:
		d.Action = model.ActionEmailProductExpert
		d.Recipient, d.RecipientRole = r.productRecipient(c.ProductCategory)
		fmt.Fprintf(&sb, "Product complaint about %s (confidence %.2f) routes to the %s.", c.ProductCategory, c.Confidence, strings.ReplaceAll(d.RecipientRole, "_", " "))
	default:
		d.Action = model.ActionEmailProductExpert
		d.ProductCategory = model.ProductGeneral
		d.Recipient, d.RecipientRole = r.productRecipient(model.ProductGeneral)
		sb.WriteString("General enquiry routes to the product expert with category general.")
	}

	switch {
	case t.IsEscalated:
		sb.WriteString(" Case already escalated.")
	default:
		esc, err := r.eval.Evaluate(r.cfg.EscalationRule, escalationVars(c, t, enr))
		if err != nil {
			fmt.Fprintf(&sb, " Escalation rule failed: %v.", err)
			break
		}
		if esc {
			d.Escalate = true
			d.NewPriority = "High"
			if c.Urgency == "critical" {
				d.NewPriority = "Critical"
			}
			d.EscalationOwner = r.cfg.Owners.Escalation
			fmt.Fprintf(&sb, " Escalate to priority %s (urgency %s, sentiment %s).", d.NewPriority, c.Urgency, c.Sentiment)
		}
	}
	d.Reason = sb.String()
	return d
}

func (r *Router) productRecipient(pc model.ProductCategory) (string, string) {
	if addr := r.cfg.Recipients.ProductOwners[string(pc)]; addr != "" {
		return addr, roleProductOwner
	}
	return r.cfg.Recipients.ProductExpert, roleProduct
}

// EscalationVariables lists the names an escalation rule may reference.
func EscalationVariables() []string {
	vars := escalationVars(model.Classification{}, model.Ticket{}, nil)
	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func escalationVars(c model.Classification, t model.Ticket, enr *model.Enrichment) map[string]any {
	return map[string]any{
		"urgency":          c.Urgency,
		"sentiment":        c.Sentiment,
		"confidence":       c.Confidence,
		"category":         string(c.Category),
		"product_category": string(c.ProductCategory),
		"priority":         t.Priority,
		"has_open_orders":  enr.HasOpenOrders(),
		"is_customer":      enr.IsCustomer(),
	}
}
