// Package scoring computes the deterministic lead qualification score and
// optionally attaches an advisory LLM analysis.
package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/workflow-cli/internal/keyword"
	"github.com/sells-group/workflow-cli/internal/model"
)

// Group maxima. MaxBasePoints is the normalization divisor; the enrichment
// bonus is added on top and the result is capped at 1.
const (
	MaxTitlePoints    = 30
	MaxSizePoints     = 25
	MaxIndustryPoints = 15
	MaxSignalPoints   = 20
	MaxBonusPoints    = 10
	MaxBasePoints     = MaxTitlePoints + MaxSizePoints + MaxIndustryPoints + MaxSignalPoints

	recentOrderWindow = 183 * 24 * time.Hour
)

type tier struct {
	phrases []string
	points  int
	label   string
}

// Evaluated top to bottom; the first hit wins.
var titleTiers = []tier{
	{[]string{"ceo", "cto", "cio", "cfo", "coo", "ciso", "cmo", "chief"}, 30, "c-level"},
	{[]string{"vice president", "vp", "svp", "evp", "avp"}, 25, "vp"},
	{[]string{"president"}, 30, "c-level"},
	{[]string{"director", "head"}, 18, "director"},
	{[]string{"manager"}, 12, "manager"},
	{[]string{"owner", "founder", "cofounder", "proprietor"}, 10, "owner"},
	{[]string{"senior", "sr", "lead", "principal"}, 8, "senior"},
	{[]string{"intern", "analyst", "coordinator", "engineer", "specialist", "associate", "assistant", "developer", "representative", "technician"}, 3, "individual contributor"},
}

var industryTiers = []tier{
	{[]string{"technology", "software", "information technology", "financial services", "finance", "banking", "healthcare", "health care"}, 15, "high fit"},
	{[]string{"manufacturing", "telecommunications", "telecom"}, 12, "strong fit"},
	{[]string{"energy", "utilities", "utility", "oil"}, 10, "good fit"},
	{[]string{"logistics", "transportation"}, 8, "moderate fit"},
	{[]string{"retail", "consumer"}, 3, "low fit"},
}

var sourceTiers = []tier{
	{[]string{"partner referral", "partner"}, 8, "partner"},
	{[]string{"customer referral", "employee referral", "referral"}, 7, "referral"},
	{[]string{"event", "trade show", "tradeshow", "webinar", "conference", "seminar"}, 6, "event"},
	{[]string{"web", "website", "inbound", "organic"}, 4, "web"},
	{[]string{"advertisement", "ad", "ads", "paid"}, 3, "advertisement"},
	{[]string{"cold call", "purchased list", "list"}, 2, "outbound"},
}

var ratingPoints = map[string]int{"hot": 10, "warm": 6, "cold": 2}

var intentKeywords = []string{"budget", "timeline", "project", "approved"}

type band struct {
	minEmployees int
	minRevenue   float64
	points       int
}

var sizeBands = []band{
	{10000, 500_000_000, 25},
	{5000, 200_000_000, 22},
	{1000, 50_000_000, 18},
	{500, 20_000_000, 15},
	{100, 5_000_000, 10},
	{50, 2_000_000, 6},
	{10, 500_000, 3},
}

// Rubric computes the rule-based breakdown. It is pure: identical inputs
// (including asOf) yield an identical result.
func Rubric(lead model.Lead, enr *model.Enrichment, asOf time.Time) model.ScoreBreakdown {
	factors := []model.Factor{
		titleFactor(lead.Title),
		sizeFactor(lead.NumberOfEmployees, lead.AnnualRevenue),
		industryFactor(lead.Industry),
		signalFactor(lead.Rating, lead.LeadSource, lead.Description),
	}
	base := 0
	for _, f := range factors {
		base += f.Points
	}

	bonus := bonusFactor(enr, asOf)
	factors = append(factors, bonus)

	score := float64(base+bonus.Points) / float64(MaxBasePoints)
	if score > 1 {
		score = 1
	}

	b := model.ScoreBreakdown{
		Score:       score,
		BasePoints:  base,
		BonusPoints: bonus.Points,
		MaxPoints:   MaxBasePoints,
		Factors:     factors,
	}
	b.Reasoning = explain(b)
	return b
}

func titleFactor(title string) model.Factor {
	f := model.Factor{Name: "title", Value: title, Max: MaxTitlePoints}
	txt := keyword.Normalize(title)
	if txt.Empty() {
		return f
	}
	for _, t := range titleTiers {
		if txt.HasAny(t.phrases...) {
			f.Points = t.points
			f.Value = title + " [" + t.label + "]"
			return f
		}
	}
	f.Points = 5
	f.Value = title + " [other]"
	return f
}

func sizeFactor(employees int, revenue float64) model.Factor {
	f := model.Factor{
		Name:  "company_size",
		Value: fmt.Sprintf("%d employees, $%.0f revenue", max(employees, 0), max(revenue, 0)),
		Max:   MaxSizePoints,
	}
	f.Points = max(employeePoints(employees), revenuePoints(revenue))
	return f
}

func employeePoints(n int) int {
	if n <= 0 {
		return 0
	}
	for _, b := range sizeBands {
		if n >= b.minEmployees {
			return b.points
		}
	}
	return 1
}

func revenuePoints(r float64) int {
	if r <= 0 {
		return 0
	}
	for _, b := range sizeBands {
		if r >= b.minRevenue {
			return b.points
		}
	}
	return 1
}

func industryFactor(industry string) model.Factor {
	f := model.Factor{Name: "industry", Value: industry, Max: MaxIndustryPoints}
	txt := keyword.Normalize(industry)
	if txt.Empty() {
		return f
	}
	for _, t := range industryTiers {
		if txt.HasAny(t.phrases...) {
			f.Points = t.points
			f.Value = industry + " [" + t.label + "]"
			return f
		}
	}
	f.Points = 5
	f.Value = industry + " [other]"
	return f
}

func signalFactor(rating, source, description string) model.Factor {
	f := model.Factor{Name: "buying_signals", Max: MaxSignalPoints}
	var parts []string

	if p, ok := ratingPoints[strings.ToLower(strings.TrimSpace(rating))]; ok {
		f.Points += p
		parts = append(parts, fmt.Sprintf("rating=%s(%d)", rating, p))
	}

	src := keyword.Normalize(source)
	if !src.Empty() {
		p, label := 1, "other"
		for _, t := range sourceTiers {
			if src.HasAny(t.phrases...) {
				p, label = t.points, t.label
				break
			}
		}
		f.Points += p
		parts = append(parts, fmt.Sprintf("source=%s[%s](%d)", source, label, p))
	}

	if hits := keyword.Normalize(description).Matches(intentKeywords); len(hits) > 0 {
		f.Points += 2 * len(hits)
		parts = append(parts, fmt.Sprintf("keywords=%s(%d)", strings.Join(hits, ","), 2*len(hits)))
	}

	if f.Points > MaxSignalPoints {
		f.Points = MaxSignalPoints
	}
	f.Value = strings.Join(parts, " ")
	return f
}

func bonusFactor(enr *model.Enrichment, asOf time.Time) model.Factor {
	f := model.Factor{Name: "enrichment_bonus", Max: MaxBonusPoints}
	if !enr.IsCustomer() {
		if enr == nil {
			f.Value = "no enrichment"
		} else {
			f.Value = "not an existing customer"
		}
		return f
	}

	parts := []string{"existing customer"}
	f.Points += 8
	switch strings.ToUpper(strings.TrimSpace(enr.CreditRating)) {
	case "A", "A+", "AA", "AAA":
		f.Points += 5
		parts = append(parts, "credit "+enr.CreditRating)
	case "B", "B+":
		f.Points += 3
		parts = append(parts, "credit "+enr.CreditRating)
	}
	if enr.LastOrderDate != nil && !asOf.IsZero() && asOf.Sub(*enr.LastOrderDate) <= recentOrderWindow {
		f.Points += 2
		parts = append(parts, "recent order")
	}
	if enr.TotalRevenue >= 1_000_000 {
		f.Points += 2
		parts = append(parts, "lifetime revenue >= $1M")
	}
	if f.Points > MaxBonusPoints {
		f.Points = MaxBonusPoints
	}
	f.Value = strings.Join(parts, ", ")
	return f
}

// PriorityFor maps a score onto the routing priority bands.
func PriorityFor(score float64) model.Priority {
	switch {
	case score >= 0.75:
		return model.PriorityP1
	case score >= 0.45:
		return model.PriorityP2
	default:
		return model.PriorityP3
	}
}

func explain(b model.ScoreBreakdown) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[VERDICT: %s] Lead scores %.2f (%d base + %d bonus of %d):",
		PriorityFor(b.Score), b.Score, b.BasePoints, b.BonusPoints, b.MaxPoints)
	for i, f := range b.Factors {
		fmt.Fprintf(&sb, " %d. %s=%d/%d", i+1, f.Name, f.Points, f.Max)
		if f.Value != "" {
			fmt.Fprintf(&sb, " (%s)", f.Value)
		}
		if i < len(b.Factors)-1 {
			sb.WriteString(";")
		}
	}
	return sb.String()
}
