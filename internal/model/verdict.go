package model

import "slices"

// Factor is one contribution to a verdict, kept in evaluation order for the
// audit trail.
type Factor struct {
	Name   string `json:"name"`
	Value  string `json:"value,omitempty"`
	Points int    `json:"points"`
	Max    int    `json:"max"`
}

// LLMAnalysis is the structured, advisory output of the LLM lead analysis.
// It never changes the routed score.
type LLMAnalysis struct {
	Score             float64  `json:"score"`
	Confidence        float64  `json:"confidence"`
	Priority          string   `json:"priority,omitempty"`
	Reasoning         string   `json:"reasoning"`
	KeyFactors        []string `json:"key_factors,omitempty"`
	RecommendedAction string   `json:"recommended_action,omitempty"`
	Model             string   `json:"model,omitempty"`
}

// ScoreBreakdown is the lead verdict.
type ScoreBreakdown struct {
	Score       float64      `json:"score"`
	BasePoints  int          `json:"base_points"`
	BonusPoints int          `json:"enrichment_bonus"`
	MaxPoints   int          `json:"max_points"`
	Factors     []Factor     `json:"factors"`
	Reasoning   string       `json:"reasoning"`
	LLM         *LLMAnalysis `json:"llm,omitempty"`
	LLMUsed     bool         `json:"llm_used"`
}

// Clone returns a copy that shares no slices or pointers with s.
func (s ScoreBreakdown) Clone() ScoreBreakdown {
	out := s
	out.Factors = slices.Clone(s.Factors)
	if s.LLM != nil {
		llm := *s.LLM
		llm.KeyFactors = slices.Clone(s.LLM.KeyFactors)
		out.LLM = &llm
	}
	return out
}

// Confidence returns the LLM confidence when available, else 1 for the
// deterministic rubric.
func (s ScoreBreakdown) Confidence() float64 {
	if s.LLM != nil {
		return s.LLM.Confidence
	}
	return 1
}

// Category is the top-level ticket classification.
type Category string

const (
	CategoryProductComplaint Category = "product_complaint"
	CategoryITSupport        Category = "it_support"
	CategoryGeneral          Category = "general"
)

// ProductCategory sub-routes product complaints.
type ProductCategory string

const (
	ProductSwitches       ProductCategory = "switches"
	ProductCables         ProductCategory = "cables"
	ProductConnectors     ProductCategory = "connectors"
	ProductSoftware       ProductCategory = "software"
	ProductInfrastructure ProductCategory = "infrastructure"
	ProductGeneral        ProductCategory = "general"
	ProductNone           ProductCategory = "none"
)

// ClassificationSource records which layer produced the routed category.
type ClassificationSource string

const (
	SourceRules ClassificationSource = "rules"
	SourceLLM   ClassificationSource = "llm"
)

// Classification is the ticket verdict.
type Classification struct {
	Category          Category             `json:"category"`
	ProductCategory   ProductCategory      `json:"product_category"`
	ProductName       string               `json:"product_name,omitempty"`
	Confidence        float64              `json:"confidence"`
	Sentiment         string               `json:"sentiment,omitempty"`
	Urgency           string               `json:"urgency,omitempty"`
	Reasoning         string               `json:"reasoning"`
	Summary           string               `json:"summary,omitempty"`
	SuggestedResponse string               `json:"suggested_response,omitempty"`
	Source            ClassificationSource `json:"source"`
	Factors           []Factor             `json:"factors,omitempty"`
	RuleCategory      Category             `json:"rule_category"`
	RuleProduct       ProductCategory      `json:"rule_product_category"`
	LLMUsed           bool                 `json:"llm_used"`
}

// Clone returns a copy that shares no slices with c.
func (c Classification) Clone() Classification {
	out := c
	out.Factors = slices.Clone(c.Factors)
	return out
}

// ClassificationPhase is the ticket state machine derived from the run state.
type ClassificationPhase string

const (
	PhaseUnclassified ClassificationPhase = "unclassified"
	PhaseClassified   ClassificationPhase = "classified"
	PhaseTerminal     ClassificationPhase = "terminal"
)
