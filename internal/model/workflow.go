// Package model defines the shared state, records and verdicts that flow
// through a single workflow run.
package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// WorkflowKind selects which decision workflow a run executes.
type WorkflowKind string

const (
	KindLead   WorkflowKind = "lead_qualification"
	KindTicket WorkflowKind = "ticket_triage"
)

// ParseKind accepts the canonical kind names plus the short CLI aliases.
func ParseKind(s string) (WorkflowKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lead", "leads", string(KindLead):
		return KindLead, nil
	case "ticket", "tickets", "case", "complaint", string(KindTicket):
		return KindTicket, nil
	default:
		return "", eris.Errorf("model: unknown workflow kind %q", s)
	}
}

// Short returns the alias used in CLI arguments and URLs.
func (k WorkflowKind) Short() string {
	switch k {
	case KindLead:
		return "lead"
	case KindTicket:
		return "ticket"
	default:
		return string(k)
	}
}

// Status is the lifecycle state of a run.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ErrorKind classifies the conditions a run can report.
type ErrorKind string

const (
	ErrFetchFailure          ErrorKind = "fetch_failure"
	ErrEnrichmentAbsent      ErrorKind = "enrichment_absent"
	ErrScoringDegraded       ErrorKind = "scoring_degraded"
	ErrActionFailure         ErrorKind = "action_failure"
	ErrConfiguration         ErrorKind = "configuration_error"
	ErrClassificationFailure ErrorKind = "classification_failure"
	ErrInternal              ErrorKind = "internal_error"
)

// Note is a non-fatal condition observed during a run.
type Note struct {
	Kind    ErrorKind `json:"kind"`
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
}

var (
	// ErrFieldAlreadySet is returned when a stage tries to overwrite state
	// populated by an earlier stage.
	ErrFieldAlreadySet = eris.New("model: field already set")

	// ErrStatusRegression is returned for a backward or repeated terminal
	// status transition.
	ErrStatusRegression = eris.New("model: status cannot move backward")

	// ErrLLMUnavailable signals that the optional LLM capability could not
	// produce a result. Callers fall back to rule-only behaviour.
	ErrLLMUnavailable = eris.New("model: llm unavailable")
)
