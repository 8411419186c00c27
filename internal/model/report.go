package model

import "time"

// Report is the structured result every run returns, including failed ones.
type Report struct {
	RunID          string          `json:"run_id"`
	Kind           WorkflowKind    `json:"workflow_kind"`
	Status         Status          `json:"status"`
	Identifier     string          `json:"input_identifier,omitempty"`
	RecordID       string          `json:"record_id,omitempty"`
	Record         *Record         `json:"record,omitempty"`
	Enrichment     *Enrichment     `json:"enrichment,omitempty"`
	Score          *ScoreBreakdown `json:"score,omitempty"`
	Classification *Classification `json:"classification,omitempty"`
	Decision       *Decision       `json:"decision,omitempty"`
	Actions        []ActionResult  `json:"action_log"`
	Reasoning      string          `json:"reasoning,omitempty"`
	LLMUsed        bool            `json:"llm_used"`
	ErrorKind      ErrorKind       `json:"error_kind,omitempty"`
	FailureReason  string          `json:"failure_reason,omitempty"`
	Notes          []Note          `json:"notes,omitempty"`
	StartedAt      time.Time       `json:"started_at"`
	FinishedAt     time.Time       `json:"finished_at"`
	DurationMs     int64           `json:"duration_ms"`
}

// FailedActions returns the number of failed entries in the action log.
func (r *Report) FailedActions() int {
	n := 0
	for _, a := range r.Actions {
		if a.Failed() {
			n++
		}
	}
	return n
}

// Snapshot builds the caller-facing report from the current state.
func (s *WorkflowState) Snapshot(finishedAt time.Time) *Report {
	r := &Report{
		RunID:          s.RunID,
		Kind:           s.Kind,
		Status:         s.Status(),
		Identifier:     s.Identifier,
		Record:         s.Record(),
		Enrichment:     s.Enrichment(),
		Score:          s.Score(),
		Classification: s.Classification(),
		Decision:       s.Decision(),
		Actions:        s.log.Entries(),
		Reasoning:      s.Reasoning(),
		Notes:          s.Notes(),
		StartedAt:      s.StartedAt,
		FinishedAt:     finishedAt,
		DurationMs:     finishedAt.Sub(s.StartedAt).Milliseconds(),
	}
	if r.Record != nil {
		r.RecordID = r.Record.ID()
	}
	switch {
	case r.Score != nil:
		r.LLMUsed = r.Score.LLMUsed
	case r.Classification != nil:
		r.LLMUsed = r.Classification.LLMUsed
	}
	if f := s.Failure(); f != nil {
		r.ErrorKind = f.Kind
		r.FailureReason = f.Message
	}
	return r
}
