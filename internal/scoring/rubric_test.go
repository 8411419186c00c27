package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/workflow-cli/internal/model"
)

var asOf = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ctoLead() model.Lead {
	return model.Lead{
		ID:                "00Q000000000001",
		Title:             "CTO",
		Rating:            "Hot",
		AnnualRevenue:     50_000_000,
		NumberOfEmployees: 5000,
		LeadSource:        "Partner Referral",
	}
}

func internLead() model.Lead {
	return model.Lead{
		ID:                "00Q000000000002",
		Title:             "Intern",
		Rating:            "Cold",
		AnnualRevenue:     100_000,
		NumberOfEmployees: 8,
		LeadSource:        "Cold Call",
	}
}

func factor(t *testing.T, b model.ScoreBreakdown, name string) model.Factor {
	t.Helper()
	for _, f := range b.Factors {
		if f.Name == name {
			return f
		}
	}
	require.Failf(t, "factor not found", "%s", name)
	return model.Factor{}
}

func TestRubric_CTOScenario(t *testing.T) {
	t.Parallel()

	b := Rubric(ctoLead(), nil, asOf)

	assert.Equal(t, 30, factor(t, b, "title").Points)
	assert.Equal(t, 22, factor(t, b, "company_size").Points)
	assert.Equal(t, 0, factor(t, b, "industry").Points)
	assert.Equal(t, 18, factor(t, b, "buying_signals").Points)
	assert.Equal(t, 0, b.BonusPoints)
	assert.Equal(t, 70, b.BasePoints)
	assert.GreaterOrEqual(t, b.Score, 0.75)
	assert.Equal(t, model.PriorityP1, PriorityFor(b.Score))
}

func TestRubric_InternScenario(t *testing.T) {
	t.Parallel()

	b := Rubric(internLead(), nil, asOf)

	assert.Equal(t, 3, factor(t, b, "title").Points)
	assert.Equal(t, 1, factor(t, b, "company_size").Points)
	assert.Equal(t, 4, factor(t, b, "buying_signals").Points)
	assert.Less(t, b.Score, 0.45)
	assert.Equal(t, model.PriorityP3, PriorityFor(b.Score))
}

func TestRubric_Deterministic(t *testing.T) {
	t.Parallel()

	lead := ctoLead()
	lead.Description = "Budget approved, project timeline is Q3"
	lead.Industry = "Manufacturing"
	first := Rubric(lead, nil, asOf)
	for i := 0; i < 50; i++ {
		again := Rubric(lead, nil, asOf)
		assert.Equal(t, first.Score, again.Score)
		assert.Equal(t, first.Factors, again.Factors)
		assert.Equal(t, first.Reasoning, again.Reasoning)
	}
}

func TestRubric_Bounds(t *testing.T) {
	t.Parallel()

	lastOrder := asOf.AddDate(0, -1, 0)
	maxed := model.Lead{
		Title:             "Chief Executive Officer",
		Rating:            "Hot",
		AnnualRevenue:     9e12,
		NumberOfEmployees: 1_000_000,
		LeadSource:        "Partner Referral",
		Industry:          "Technology",
		Description:       "budget approved for a project with a firm timeline",
	}
	enr := &model.Enrichment{
		BusinessPartnerID: "BP1000",
		TotalOrders:       40,
		CreditRating:      "A+",
		TotalRevenue:      5_000_000,
		LastOrderDate:     &lastOrder,
	}

	tests := []struct {
		name string
		lead model.Lead
		enr  *model.Enrichment
	}{
		{"empty", model.Lead{}, nil},
		{"negative values", model.Lead{AnnualRevenue: -5, NumberOfEmployees: -10}, nil},
		{"maximum", maxed, enr},
		{"cto", ctoLead(), enr},
		{"intern", internLead(), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := Rubric(tt.lead, tt.enr, asOf)
			assert.GreaterOrEqual(t, b.Score, 0.0)
			assert.LessOrEqual(t, b.Score, 1.0)
		})
	}

	assert.Equal(t, 1.0, Rubric(maxed, enr, asOf).Score)
	assert.Equal(t, 0.0, Rubric(model.Lead{}, nil, asOf).Score)
}

func TestRubric_MissingEnrichmentContributesZero(t *testing.T) {
	t.Parallel()

	b := Rubric(ctoLead(), nil, asOf)
	bonus := factor(t, b, "enrichment_bonus")
	assert.Equal(t, 0, bonus.Points)
	assert.Equal(t, "no enrichment", bonus.Value)

	prospect := &model.Enrichment{BusinessPartnerID: "BP1", AccountStatus: "Prospect"}
	b = Rubric(ctoLead(), prospect, asOf)
	assert.Equal(t, 0, b.BonusPoints)
}

func TestRubric_EnrichmentBonus(t *testing.T) {
	t.Parallel()

	recent := asOf.AddDate(0, -2, 0)
	stale := asOf.AddDate(-2, 0, 0)

	tests := []struct {
		name string
		enr  model.Enrichment
		want int
	}{
		{"customer only", model.Enrichment{BusinessPartnerID: "BP1", TotalOrders: 3}, 8},
		{"active without orders", model.Enrichment{BusinessPartnerID: "BP1", AccountStatus: "Active"}, 8},
		{"credit b", model.Enrichment{BusinessPartnerID: "BP1", TotalOrders: 3, CreditRating: "B"}, 10},
		{"credit a capped", model.Enrichment{BusinessPartnerID: "BP1", TotalOrders: 3, CreditRating: "A"}, 10},
		{"stale order", model.Enrichment{BusinessPartnerID: "BP1", TotalOrders: 3, LastOrderDate: &stale}, 8},
		{"recent order", model.Enrichment{BusinessPartnerID: "BP1", TotalOrders: 3, LastOrderDate: &recent}, 10},
		{"no partner id", model.Enrichment{TotalOrders: 3, CreditRating: "A"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			enr := tt.enr
			assert.Equal(t, tt.want, Rubric(internLead(), &enr, asOf).BonusPoints)
		})
	}
}

func TestTitleFactor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title string
		want  int
	}{
		{"CEO", 30},
		{"Chief Information Officer", 30},
		{"President", 30},
		{"Vice President, Engineering", 25},
		{"SVP Operations", 25},
		{"Director of IT", 18},
		{"Head of Procurement", 18},
		{"IT Manager", 12},
		{"Engineering Manager", 12},
		{"Owner", 10},
		{"Senior Engineer", 8},
		{"Lead Developer", 8},
		{"Network Engineer", 3},
		{"Intern", 3},
		{"Buyer", 5},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, titleFactor(tt.title).Points)
		})
	}
}

func TestSizeFactorClampsToBands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		employees int
		revenue   float64
		want      int
	}{
		{"huge employees", 2_000_000, 0, 25},
		{"huge revenue", 0, 1e15, 25},
		{"revenue wins", 8, 60_000_000, 18},
		{"employees win", 5000, 100_000, 22},
		{"tiny", 3, 1000, 1},
		{"missing", 0, 0, 0},
		{"negative", -1, -1, 0},
		{"boundary 500", 500, 0, 15},
		{"boundary 499", 499, 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, sizeFactor(tt.employees, tt.revenue).Points)
		})
	}
}

func TestRubric_HugeEmployeeCountFromFields(t *testing.T) {
	t.Parallel()

	rec := model.RecordFromFields(model.KindLead, map[string]any{
		"Id":                "00Q000000000009",
		"NumberOfEmployees": 1e20,
	})
	require.NotNil(t, rec.Lead)

	b := Rubric(*rec.Lead, nil, asOf)
	require.NotEmpty(t, b.Factors)
	var size model.Factor
	for _, f := range b.Factors {
		if f.Name == "company_size" {
			size = f
		}
	}
	assert.Equal(t, 25, size.Points)
}

func TestIndustryFactor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 15, industryFactor("Technology").Points)
	assert.Equal(t, 15, industryFactor("Financial Services").Points)
	assert.Equal(t, 12, industryFactor("Manufacturing").Points)
	assert.Equal(t, 10, industryFactor("Energy").Points)
	assert.Equal(t, 8, industryFactor("Transportation").Points)
	assert.Equal(t, 3, industryFactor("Retail").Points)
	assert.Equal(t, 5, industryFactor("Agriculture").Points)
	assert.Equal(t, 0, industryFactor("").Points)
}

func TestSignalFactorCapped(t *testing.T) {
	t.Parallel()

	f := signalFactor("Hot", "Partner Referral", "budget approved project timeline")
	assert.Equal(t, MaxSignalPoints, f.Points)
	assert.Contains(t, f.Value, "keywords=budget,timeline,project,approved")

	assert.Equal(t, 0, signalFactor("", "", "").Points)
	assert.Equal(t, 1, signalFactor("", "Direct Mail", "").Points)
	assert.Equal(t, 4, signalFactor("", "Web", "").Points)
}

func TestPriorityForBoundaries(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.PriorityP1, PriorityFor(0.75))
	assert.Equal(t, model.PriorityP2, PriorityFor(0.749999))
	assert.Equal(t, model.PriorityP2, PriorityFor(0.45))
	assert.Equal(t, model.PriorityP3, PriorityFor(0.449999))
}
