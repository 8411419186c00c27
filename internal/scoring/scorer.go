package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/workflow-cli/internal/model"
)

// LLMScorer produces an independent, advisory analysis of a lead. It returns
// model.ErrLLMUnavailable (or any error) when no analysis can be produced.
type LLMScorer interface {
	AnalyzeLead(ctx context.Context, lead model.Lead, enr *model.Enrichment, rubric model.ScoreBreakdown) (*model.LLMAnalysis, error)
}

// Scorer combines the deterministic rubric with the optional LLM analysis.
type Scorer struct {
	llm LLMScorer
}

// New creates a Scorer. llm may be nil.
func New(llm LLMScorer) *Scorer {
	return &Scorer{llm: llm}
}

// Result is the scorer output plus a degradation note when the LLM was
// requested but could not contribute.
type Result struct {
	Breakdown model.ScoreBreakdown
	Degraded  string
}

// Score computes the breakdown. The returned Score is always the rubric
// score; the LLM only adds explanation.
func (s *Scorer) Score(ctx context.Context, lead model.Lead, enr *model.Enrichment, asOf time.Time, useLLM bool) Result {
	b := Rubric(lead, enr, asOf)
	if !useLLM {
		return Result{Breakdown: b}
	}
	if s.llm == nil {
		return degrade(b, "llm scoring not configured")
	}

	analysis, err := s.llm.AnalyzeLead(ctx, lead, enr, b)
	if err != nil || analysis == nil {
		reason := "llm returned no analysis"
		if err != nil {
			reason = err.Error()
			if errors.Is(err, model.ErrLLMUnavailable) {
				reason = "llm unavailable"
			}
		}
		zap.L().Warn("scoring: llm analysis failed, using rubric only",
			zap.String("lead_id", lead.ID),
			zap.String("reason", reason),
		)
		return degrade(b, reason)
	}

	a := *analysis
	a.KeyFactors = append([]string(nil), analysis.KeyFactors...)
	b.LLM = &a
	b.LLMUsed = true
	b.Reasoning = mergeReasoning(b.Reasoning, a)

	if d := a.Score - b.Score; d > 0.15 || d < -0.15 {
		zap.L().Info("scoring: llm score diverges from rubric",
			zap.String("lead_id", lead.ID),
			zap.Float64("rubric_score", b.Score),
			zap.Float64("llm_score", a.Score),
		)
	}
	return Result{Breakdown: b}
}

func degrade(b model.ScoreBreakdown, reason string) Result {
	b.Reasoning += " [AI analysis unavailable: " + reason + "]"
	return Result{Breakdown: b, Degraded: reason}
}

func mergeReasoning(rubric string, a model.LLMAnalysis) string {
	var sb strings.Builder
	sb.WriteString(rubric)
	if a.Reasoning != "" {
		fmt.Fprintf(&sb, "\nAI analysis (confidence %.2f): %s", a.Confidence, a.Reasoning)
	}
	if len(a.KeyFactors) > 0 {
		sb.WriteString("\nKey factors: " + strings.Join(a.KeyFactors, "; "))
	}
	if a.RecommendedAction != "" {
		sb.WriteString("\nRecommended action: " + a.RecommendedAction)
	}
	return sb.String()
}
