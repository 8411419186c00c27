// Package classify triages support tickets into product complaints, IT
// support requests or general enquiries.
package classify

import (
	"fmt"
	"strings"

	"github.com/sells-group/workflow-cli/internal/keyword"
	"github.com/sells-group/workflow-cli/internal/model"
)

// RuleConfidence is the confidence assigned to any rule-layer match.
const RuleConfidence = 0.6

type productRule struct {
	category model.ProductCategory
	phrases  []string
}

// Order matters for ties: the first category with the most hits wins.
var productRules = []productRule{
	{model.ProductSwitches, []string{"switch", "ethernet switch", "managed switch", "hirschmann", "poe", "vlan", "spider", "octopus"}},
	{model.ProductCables, []string{"cable", "cabling", "fiber", "fibre", "copper", "patch cord", "wire", "coax"}},
	{model.ProductConnectors, []string{"connector", "rj45", "terminal", "plug", "jack", "patch panel", "lumberg", "m12", "keystone"}},
	{model.ProductSoftware, []string{"firmware", "software", "hios", "driver", "license", "configuration tool"}},
	{model.ProductInfrastructure, []string{"rack", "cabinet", "enclosure", "pdu", "data center", "raceway", "tray"}},
}

// Generic defect language; counts as a product hit without naming a category.
var complaintPhrases = []string{
	"defective", "broken", "faulty", "malfunction", "damaged", "not working",
	"stopped working", "reboots", "rma", "warranty", "return", "failure",
}

var itPhrases = []string{
	"password reset", "reset password", "portal access", "login", "log in", "sign in",
	"account locked", "locked out", "vpn", "portal", "website", "password",
	"account", "mfa", "two factor", "access request",
}

var brands = map[string]string{"hirschmann": "Hirschmann", "lumberg": "Lumberg", "belden": "Belden"}

type levelRule struct {
	level   string
	phrases []string
}

// First matching level wins.
var urgencyRules = []levelRule{
	{"critical", []string{"outage", "production down", "line down", "down", "emergency", "safety", "critical"}},
	{"high", []string{"urgent", "asap", "immediately", "reboots", "not working", "stopped working", "failing"}},
	{"low", []string{"question", "inquiry", "enquiry", "how do i", "information"}},
}

var sentimentRules = []levelRule{
	{"angry", []string{"unacceptable", "furious", "angry", "ridiculous", "worst", "outrageous"}},
	{"frustrated", []string{"frustrated", "frustrating", "again", "still", "disappointed", "annoyed"}},
	{"positive", []string{"thanks", "thank you", "great", "appreciate"}},
}

// Rules classifies a ticket with keyword matching only. It is pure and never
// fails; a ticket without any hit is general with confidence 0.
func Rules(t model.Ticket) model.Classification {
	txt := keyword.Normalize(t.Subject, t.Description)

	var (
		bestCat   = model.ProductNone
		bestHits  []string
		factors   []model.Factor
		productN  int
		brandName string
	)
	for _, r := range productRules {
		hits := txt.Matches(r.phrases)
		productN += len(hits)
		if len(hits) > len(bestHits) {
			bestCat, bestHits = r.category, hits
		}
		if len(hits) > 0 {
			factors = append(factors, model.Factor{Name: string(r.category), Value: strings.Join(hits, ","), Points: len(hits)})
		}
	}
	defects := txt.Matches(complaintPhrases)
	productN += len(defects)
	if len(defects) > 0 {
		factors = append(factors, model.Factor{Name: "defect", Value: strings.Join(defects, ","), Points: len(defects)})
	}
	itHits := txt.Matches(itPhrases)
	if len(itHits) > 0 {
		factors = append(factors, model.Factor{Name: "it_support", Value: strings.Join(itHits, ","), Points: len(itHits)})
	}
	for _, w := range txt.Words() {
		if b, ok := brands[w]; ok {
			brandName = b
			break
		}
	}

	c := model.Classification{
		Source:    model.SourceRules,
		Sentiment: firstLevel(txt, sentimentRules, "neutral"),
		Urgency:   urgency(txt, t.Priority),
		Factors:   factors,
	}

	switch {
	case len(itHits) > productN:
		c.Category = model.CategoryITSupport
		c.ProductCategory = model.ProductNone
		c.Confidence = RuleConfidence
		c.Reasoning = fmt.Sprintf("Rules: IT support keywords (%s) outweigh product keywords (%d).", strings.Join(itHits, ", "), productN)
	case productN > 0:
		c.Category = model.CategoryProductComplaint
		c.ProductCategory = bestCat
		if bestCat == model.ProductNone {
			c.ProductCategory = model.ProductGeneral
		}
		c.ProductName = brandName
		c.Confidence = RuleConfidence
		c.Reasoning = fmt.Sprintf("Rules: product complaint in category %s (%s).", c.ProductCategory, strings.Join(append(append([]string(nil), bestHits...), defects...), ", "))
	default:
		c.Category = model.CategoryGeneral
		c.ProductCategory = model.ProductGeneral
		c.Reasoning = "Rules: no product or IT keywords matched; defaulting to general."
	}
	c.RuleCategory = c.Category
	c.RuleProduct = c.ProductCategory
	c.Summary = summarize(t)
	return c
}

func urgency(txt keyword.Text, priority string) string {
	priority = strings.TrimSpace(priority)
	if strings.EqualFold(priority, "critical") {
		return "critical"
	}
	u := firstLevel(txt, urgencyRules, "medium")
	if u == "medium" && strings.EqualFold(priority, "high") {
		return "high"
	}
	return u
}

func firstLevel(txt keyword.Text, rules []levelRule, fallback string) string {
	for _, r := range rules {
		if txt.HasAny(r.phrases...) {
			return r.level
		}
	}
	return fallback
}

func summarize(t model.Ticket) string {
	s := strings.TrimSpace(t.Subject)
	if s == "" {
		s = strings.TrimSpace(t.Description)
	}
	if r := []rune(s); len(r) > 140 {
		s = string(r[:137]) + "..."
	}
	return s
}
