package model

import (
	"sync"
	"time"
)

// DecisionAction is the routed action tag.
type DecisionAction string

const (
	ActionAssignOwner        DecisionAction = "assign_owner"
	ActionNurture            DecisionAction = "nurture"
	ActionEmailProductExpert DecisionAction = "email_product_expert"
	ActionEmailServicesAgent DecisionAction = "email_services_agent"
)

// OwnerType is the lead routing target.
type OwnerType string

const (
	OwnerAE      OwnerType = "AE"
	OwnerSDR     OwnerType = "SDR"
	OwnerNurture OwnerType = "Nurture"
)

// Priority is the lead routing priority.
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

// Decision is created once per run and consumed by the executor.
type Decision struct {
	Action          DecisionAction  `json:"action"`
	OwnerType       OwnerType       `json:"owner_type,omitempty"`
	OwnerID         string          `json:"owner_id,omitempty"`
	Priority        Priority        `json:"priority,omitempty"`
	LeadStatus      string          `json:"lead_status,omitempty"`
	SendEmail       bool            `json:"send_email"`
	Recipient       string          `json:"recipient,omitempty"`
	RecipientRole   string          `json:"recipient_role,omitempty"`
	ProductCategory ProductCategory `json:"product_category,omitempty"`
	PortalURL       string          `json:"portal_url,omitempty"`
	Escalate        bool            `json:"escalate"`
	NewPriority     string          `json:"new_priority,omitempty"`
	EscalationOwner string          `json:"escalation_owner_id,omitempty"`
	Reason          string          `json:"reason"`
}

// Outcome of a single action attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// ActionResult records one attempted side effect.
type ActionResult struct {
	Name    string    `json:"action_name"`
	Outcome Outcome   `json:"outcome"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at"`
}

// Failed reports whether the attempt failed.
func (r ActionResult) Failed() bool { return r.Outcome == OutcomeFailure }

// ActionLog is an append-only, concurrency-safe sequence of ActionResults.
// The zero value is ready to use.
type ActionLog struct {
	mu      sync.RWMutex
	entries []ActionResult
}

// Append adds one result to the end of the log.
func (l *ActionLog) Append(r ActionResult) {
	l.mu.Lock()
	l.entries = append(l.entries, r)
	l.mu.Unlock()
}

// Entries returns a copy of the log in append order.
func (l *ActionLog) Entries() []ActionResult {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ActionResult, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of recorded attempts.
func (l *ActionLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Failures returns the number of failed attempts.
func (l *ActionLog) Failures() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, e := range l.entries {
		if e.Failed() {
			n++
		}
	}
	return n
}
