package model

import (
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// WorkflowState is the single mutable object carried through one run. Each
// field can be populated once; only the action log grows afterwards.
type WorkflowState struct {
	RunID      string
	Kind       WorkflowKind
	Identifier string
	UseLLM     bool
	StartedAt  time.Time

	mu             sync.RWMutex
	status         Status
	record         *Record
	enrichment     *Enrichment
	enrichmentDone bool
	score          *ScoreBreakdown
	classification *Classification
	decision       *Decision
	failure        *Note
	notes          []Note
	log            ActionLog
}

// NewState creates a state in progress.
func NewState(runID string, kind WorkflowKind, identifier string, useLLM bool, startedAt time.Time) *WorkflowState {
	return &WorkflowState{
		RunID:      runID,
		Kind:       kind,
		Identifier: identifier,
		UseLLM:     useLLM,
		StartedAt:  startedAt,
		status:     StatusInProgress,
	}
}

// Status returns the current lifecycle state.
func (s *WorkflowState) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetStatus moves the run forward. Terminal states are final.
func (s *WorkflowState) SetStatus(to Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setStatusLocked(to)
}

func (s *WorkflowState) setStatusLocked(to Status) error {
	if s.status.Terminal() || to == StatusInProgress {
		return eris.Wrapf(ErrStatusRegression, "%s -> %s", s.status, to)
	}
	s.status = to
	return nil
}

// Fail records the fatal condition and moves the run to failed.
func (s *WorkflowState) Fail(kind ErrorKind, stage, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.setStatusLocked(StatusFailed); err != nil {
		return err
	}
	s.failure = &Note{Kind: kind, Stage: stage, Message: reason}
	return nil
}

// Failure returns the fatal condition, if any.
func (s *WorkflowState) Failure() *Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure == nil {
		return nil
	}
	f := *s.failure
	return &f
}

// AddNote records a non-fatal condition.
func (s *WorkflowState) AddNote(kind ErrorKind, stage, msg string) {
	s.mu.Lock()
	s.notes = append(s.notes, Note{Kind: kind, Stage: stage, Message: msg})
	s.mu.Unlock()
}

// Notes returns a copy of the recorded non-fatal conditions.
func (s *WorkflowState) Notes() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Note, len(s.notes))
	copy(out, s.notes)
	return out
}

// SetRecord stores the fetched primary record.
func (s *WorkflowState) SetRecord(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record != nil {
		return eris.Wrap(ErrFieldAlreadySet, "record")
	}
	cp := r.Clone()
	s.record = &cp
	return nil
}

// Record returns the primary record, or nil before fetch.
func (s *WorkflowState) Record() *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.record == nil {
		return nil
	}
	r := s.record.Clone()
	return &r
}

// SetEnrichment stores the enrichment outcome. A nil value records Absent.
func (s *WorkflowState) SetEnrichment(e *Enrichment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enrichmentDone {
		return eris.Wrap(ErrFieldAlreadySet, "enrichment")
	}
	s.enrichmentDone = true
	s.enrichment = e.Clone()
	return nil
}

// Enrichment returns the enrichment, or nil when absent.
func (s *WorkflowState) Enrichment() *Enrichment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.enrichment == nil {
		return nil
	}
	return s.enrichment.Clone()
}

// SetScore stores the lead verdict.
func (s *WorkflowState) SetScore(b ScoreBreakdown) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.score != nil {
		return eris.Wrap(ErrFieldAlreadySet, "score")
	}
	cp := b.Clone()
	s.score = &cp
	return nil
}

// Score returns the lead verdict, or nil.
func (s *WorkflowState) Score() *ScoreBreakdown {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.score == nil {
		return nil
	}
	b := s.score.Clone()
	return &b
}

// SetClassification stores the ticket verdict.
func (s *WorkflowState) SetClassification(c Classification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.classification != nil {
		return eris.Wrap(ErrFieldAlreadySet, "classification")
	}
	cp := c.Clone()
	s.classification = &cp
	return nil
}

// Classification returns the ticket verdict, or nil.
func (s *WorkflowState) Classification() *Classification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.classification == nil {
		return nil
	}
	c := s.classification.Clone()
	return &c
}

// ClassificationPhase derives the ticket state machine position.
func (s *WorkflowState) ClassificationPhase() ClassificationPhase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.classification == nil:
		return PhaseUnclassified
	case s.status.Terminal():
		return PhaseTerminal
	default:
		return PhaseClassified
	}
}

// SetDecision stores the routing decision.
func (s *WorkflowState) SetDecision(d Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.decision != nil {
		return eris.Wrap(ErrFieldAlreadySet, "decision")
	}
	s.decision = &d
	return nil
}

// Decision returns the routing decision, or nil.
func (s *WorkflowState) Decision() *Decision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.decision == nil {
		return nil
	}
	d := *s.decision
	return &d
}

// Log returns the run's append-only action log.
func (s *WorkflowState) Log() *ActionLog {
	return &s.log
}

// Reasoning joins the verdict and decision explanations.
func (s *WorkflowState) Reasoning() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var parts []string
	if s.score != nil && s.score.Reasoning != "" {
		parts = append(parts, s.score.Reasoning)
	}
	if s.classification != nil && s.classification.Reasoning != "" {
		parts = append(parts, s.classification.Reasoning)
	}
	if s.decision != nil && s.decision.Reason != "" {
		parts = append(parts, s.decision.Reason)
	}
	return strings.Join(parts, "\n")
}
