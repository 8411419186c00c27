package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/workflow-cli/internal/model"
)

func testConfig() Config {
	return Config{
		Owners: Owners{AE: "005AE", SDR: "005SDR", Nurture: "00GNURTURE", Escalation: "005ESC"},
		Recipients: Recipients{
			SalesAgent:    "sales@example.com",
			ProductExpert: "experts@example.com",
			ServicesAgent: "services@example.com",
			ProductOwners: map[string]string{"cables": "cables@example.com"},
		},
		PortalURL: "https://support.example.com/it",
	}
}

func newRouter(t *testing.T, cfg Config) *Router {
	t.Helper()
	r, err := New(cfg, nil)
	require.NoError(t, err)
	return r
}

func TestDecideLead_Boundaries(t *testing.T) {
	t.Parallel()

	r := newRouter(t, testConfig())
	tests := []struct {
		score    float64
		owner    model.OwnerType
		priority model.Priority
		ownerID  string
		status   string
		email    bool
	}{
		{1.0, model.OwnerAE, model.PriorityP1, "005AE", StatusWorking, true},
		{0.75, model.OwnerAE, model.PriorityP1, "005AE", StatusWorking, true},
		{0.749999, model.OwnerSDR, model.PriorityP2, "005SDR", StatusOpen, true},
		{0.60, model.OwnerSDR, model.PriorityP2, "005SDR", StatusOpen, true},
		{0.599999, model.OwnerSDR, model.PriorityP2, "005SDR", StatusOpen, false},
		{0.45, model.OwnerSDR, model.PriorityP2, "005SDR", StatusOpen, false},
		{0.449999, model.OwnerNurture, model.PriorityP3, "00GNURTURE", StatusNurturing, false},
		{0, model.OwnerNurture, model.PriorityP3, "00GNURTURE", StatusNurturing, false},
	}

	for _, tt := range tests {
		d := r.DecideLead(model.ScoreBreakdown{Score: tt.score})
		assert.Equal(t, tt.owner, d.OwnerType, "score %v", tt.score)
		assert.Equal(t, tt.priority, d.Priority, "score %v", tt.score)
		assert.Equal(t, tt.ownerID, d.OwnerID, "score %v", tt.score)
		assert.Equal(t, tt.status, d.LeadStatus, "score %v", tt.score)
		assert.Equal(t, tt.email, d.SendEmail, "score %v", tt.score)
		assert.NotEmpty(t, d.Reason)
	}

	assert.Equal(t, model.ActionNurture, r.DecideLead(model.ScoreBreakdown{Score: 0.1}).Action)
	assert.Equal(t, model.ActionAssignOwner, r.DecideLead(model.ScoreBreakdown{Score: 0.9}).Action)
}

func TestDecideLead_IncludesRecommendation(t *testing.T) {
	t.Parallel()

	r := newRouter(t, testConfig())
	d := r.DecideLead(model.ScoreBreakdown{Score: 0.8, LLM: &model.LLMAnalysis{RecommendedAction: "Book a demo"}})
	assert.Contains(t, d.Reason, "AI recommends: Book a demo")
	assert.Equal(t, "sales@example.com", d.Recipient)
}

func TestDecideTicket_Routing(t *testing.T) {
	t.Parallel()

	r := newRouter(t, testConfig())

	d := r.DecideTicket(model.Classification{Category: model.CategoryProductComplaint, ProductCategory: model.ProductSwitches}, model.Ticket{}, nil)
	assert.Equal(t, model.ActionEmailProductExpert, d.Action)
	assert.Equal(t, "experts@example.com", d.Recipient)
	assert.Equal(t, model.ProductSwitches, d.ProductCategory)
	assert.True(t, d.SendEmail)
	assert.Empty(t, d.PortalURL)

	d = r.DecideTicket(model.Classification{Category: model.CategoryProductComplaint, ProductCategory: model.ProductCables}, model.Ticket{}, nil)
	assert.Equal(t, "cables@example.com", d.Recipient)
	assert.Equal(t, "product_owner", d.RecipientRole)

	d = r.DecideTicket(model.Classification{Category: model.CategoryITSupport, ProductCategory: model.ProductNone}, model.Ticket{}, nil)
	assert.Equal(t, model.ActionEmailServicesAgent, d.Action)
	assert.Equal(t, "services@example.com", d.Recipient)
	assert.Equal(t, "https://support.example.com/it", d.PortalURL)

	d = r.DecideTicket(model.Classification{Category: model.CategoryGeneral}, model.Ticket{}, nil)
	assert.Equal(t, model.ActionEmailProductExpert, d.Action)
	assert.Equal(t, model.ProductGeneral, d.ProductCategory)
	assert.Equal(t, "experts@example.com", d.Recipient)
}

func TestDecideTicket_Escalation(t *testing.T) {
	t.Parallel()

	r := newRouter(t, testConfig())
	critical := model.Classification{Category: model.CategoryProductComplaint, ProductCategory: model.ProductSwitches, Urgency: "critical"}

	d := r.DecideTicket(critical, model.Ticket{}, nil)
	assert.True(t, d.Escalate)
	assert.Equal(t, "Critical", d.NewPriority)
	assert.Equal(t, "005ESC", d.EscalationOwner)

	d = r.DecideTicket(critical, model.Ticket{IsEscalated: true}, nil)
	assert.False(t, d.Escalate)

	d = r.DecideTicket(model.Classification{Category: model.CategoryGeneral, Urgency: "high"}, model.Ticket{}, nil)
	assert.False(t, d.Escalate)

	cfg := testConfig()
	cfg.EscalationRule = `urgency in ["critical", "high"] && has_open_orders`
	custom := newRouter(t, cfg)
	enr := &model.Enrichment{BusinessPartnerID: "BP1", OpenOrders: 2}
	d = custom.DecideTicket(model.Classification{Category: model.CategoryITSupport, Urgency: "high"}, model.Ticket{}, enr)
	assert.True(t, d.Escalate)
	assert.Equal(t, "High", d.NewPriority)

	d = custom.DecideTicket(model.Classification{Category: model.CategoryITSupport, Urgency: "high"}, model.Ticket{}, nil)
	assert.False(t, d.Escalate)
}

func TestNew_InvalidRule(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.EscalationRule = `urgency + 1`
	_, err := New(cfg, nil)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	r := newRouter(t, testConfig())
	assert.NoError(t, r.Validate(model.KindLead))
	assert.NoError(t, r.Validate(model.KindTicket))

	empty := newRouter(t, Config{})
	err := empty.Validate(model.KindLead)
	require.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "routing.ae_owner_id")
	assert.Contains(t, err.Error(), "email.sales_agent")

	err = empty.Validate(model.KindTicket)
	require.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "email.services_agent")

	assert.Error(t, r.Validate("invoice"))
}

func TestEscalationVariables(t *testing.T) {
	t.Parallel()

	assert.Contains(t, EscalationVariables(), "urgency")
	assert.Contains(t, EscalationVariables(), "has_open_orders")
}
