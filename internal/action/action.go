// Package action executes the side effects named by a routing decision and
// records one ActionResult per attempt.
package action

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/workflow-cli/internal/model"
)

// Action names recorded in the action log.
const (
	AssignOwner        = "sf:assign_owner"
	UpdateStatus       = "sf:update_status"
	CreateTask         = "sf:create_task"
	CreateNote         = "erp:create_note"
	EmailSalesAgent    = "email:sales_agent"
	EmailProductExpert = "email:product_expert"
	EmailServicesAgent = "email:services_agent"
	PostComment        = "sf:post_comment"
	Escalate           = "sf:escalate"
)

// RecordUpdater writes fields on a CRM record.
type RecordUpdater interface {
	UpdateRecord(ctx context.Context, kind model.WorkflowKind, id string, fields map[string]any) error
}

// TaskCreator creates a follow-up task and returns its id.
type TaskCreator interface {
	CreateTask(ctx context.Context, task Task) (string, error)
}

// EmailSender delivers a notification and returns the provider message id.
type EmailSender interface {
	Send(ctx context.Context, recipient, subject, body string) (string, error)
}

// Commenter posts a comment on a support case and returns its id.
type Commenter interface {
	PostComment(ctx context.Context, caseID, body string) (string, error)
}

// NoteWriter attaches a note to an ERP business partner and returns its id.
type NoteWriter interface {
	CreateNote(ctx context.Context, businessPartnerID, subject, body string) (string, error)
}

// Task is a CRM follow-up activity.
type Task struct {
	RecordID    string
	OwnerID     string
	Subject     string
	Description string
	Priority    string
	DueDate     time.Time
}

// Adapters are the capabilities the executor may call. A nil adapter turns
// its actions into "not configured" failures.
type Adapters struct {
	Records  RecordUpdater
	Tasks    TaskCreator
	Email    EmailSender
	Comments Commenter
	Notes    NoteWriter
}

// Executor runs the fixed per-workflow action plan.
type Executor struct {
	adapters Adapters
	now      func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock overrides the clock used for timestamps and due dates.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// New creates an Executor.
func New(a Adapters, opts ...Option) *Executor {
	e := &Executor{adapters: a, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

type step struct {
	name string
	run  func(ctx context.Context) (string, error)
}

// Execute attempts every planned action in order. It never returns early:
// each attempt appends exactly one result to the state's action log.
func (e *Executor) Execute(ctx context.Context, s *model.WorkflowState) {
	var steps []step
	switch s.Kind {
	case model.KindLead:
		steps = e.leadSteps(s)
	case model.KindTicket:
		steps = e.ticketSteps(s)
	}
	for _, st := range steps {
		res := e.attempt(ctx, s.RunID, st)
		s.Log().Append(res)
	}
}

// Plan lists the action names Execute would attempt for a decision.
func Plan(kind model.WorkflowKind, d model.Decision, enr *model.Enrichment) []string {
	switch kind {
	case model.KindLead:
		names := []string{AssignOwner, UpdateStatus, CreateTask}
		if enr != nil && enr.BusinessPartnerID != "" {
			names = append(names, CreateNote)
		}
		if d.SendEmail {
			names = append(names, EmailSalesAgent)
		}
		return names
	case model.KindTicket:
		names := []string{ticketEmailName(d), PostComment}
		if d.Escalate {
			names = append(names, Escalate)
		}
		return names
	default:
		return nil
	}
}

func (e *Executor) attempt(ctx context.Context, runID string, st step) (res model.ActionResult) {
	log := zap.L().With(zap.String("run_id", runID), zap.String("action", st.name))
	defer func() {
		if r := recover(); r != nil {
			log.Error("action: panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			res = model.ActionResult{
				Name:    st.name,
				Outcome: model.OutcomeFailure,
				Detail:  fmt.Sprintf("panic: %v", r),
				At:      e.now(),
			}
		}
	}()

	start := e.now()
	detail, err := st.run(ctx)
	if err != nil {
		log.Warn("action: failed", zap.Error(err), zap.Int64("duration_ms", e.now().Sub(start).Milliseconds()))
		return model.ActionResult{Name: st.name, Outcome: model.OutcomeFailure, Detail: err.Error(), At: e.now()}
	}
	log.Info("action: succeeded", zap.String("detail", detail), zap.Int64("duration_ms", e.now().Sub(start).Milliseconds()))
	return model.ActionResult{Name: st.name, Outcome: model.OutcomeSuccess, Detail: detail, At: e.now()}
}

var errNotConfigured = eris.New("not configured")

func (e *Executor) leadSteps(s *model.WorkflowState) []step {
	rec, dec, score := s.Record(), s.Decision(), s.Score()
	if rec == nil || rec.Lead == nil || dec == nil || score == nil {
		return nil
	}
	lead, enr := *rec.Lead, s.Enrichment()
	a := e.adapters

	steps := []step{
		{AssignOwner, func(ctx context.Context) (string, error) {
			if a.Records == nil {
				return "", errNotConfigured
			}
			if err := a.Records.UpdateRecord(ctx, model.KindLead, lead.ID, map[string]any{"OwnerId": dec.OwnerID}); err != nil {
				return "", err
			}
			return fmt.Sprintf("owner %s (%s)", dec.OwnerID, dec.OwnerType), nil
		}},
		{UpdateStatus, func(ctx context.Context) (string, error) {
			if a.Records == nil {
				return "", errNotConfigured
			}
			if err := a.Records.UpdateRecord(ctx, model.KindLead, lead.ID, map[string]any{"Status": dec.LeadStatus}); err != nil {
				return "", err
			}
			return "status " + dec.LeadStatus, nil
		}},
		{CreateTask, func(ctx context.Context) (string, error) {
			if a.Tasks == nil {
				return "", errNotConfigured
			}
			return a.Tasks.CreateTask(ctx, FollowUpTask(lead, *score, *dec, enr, e.now()))
		}},
	}
	if enr != nil && enr.BusinessPartnerID != "" {
		steps = append(steps, step{CreateNote, func(ctx context.Context) (string, error) {
			if a.Notes == nil {
				return "", errNotConfigured
			}
			subject, body := PartnerNote(lead, *score, *dec)
			return a.Notes.CreateNote(ctx, enr.BusinessPartnerID, subject, body)
		}})
	}
	if dec.SendEmail {
		steps = append(steps, step{EmailSalesAgent, func(ctx context.Context) (string, error) {
			if a.Email == nil {
				return "", errNotConfigured
			}
			subject, body := LeadEmail(lead, *score, *dec, enr)
			return a.Email.Send(ctx, dec.Recipient, subject, body)
		}})
	}
	return steps
}

func (e *Executor) ticketSteps(s *model.WorkflowState) []step {
	rec, dec, cls := s.Record(), s.Decision(), s.Classification()
	if rec == nil || rec.Ticket == nil || dec == nil || cls == nil {
		return nil
	}
	ticket, enr := *rec.Ticket, s.Enrichment()
	a := e.adapters
	emailName := ticketEmailName(*dec)

	steps := []step{
		{emailName, func(ctx context.Context) (string, error) {
			if a.Email == nil {
				return "", errNotConfigured
			}
			subject, body := TicketEmail(ticket, *cls, *dec, enr)
			return a.Email.Send(ctx, dec.Recipient, subject, body)
		}},
		{PostComment, func(ctx context.Context) (string, error) {
			if a.Comments == nil {
				return "", errNotConfigured
			}
			sent := lastOutcome(s.Log(), emailName)
			return a.Comments.PostComment(ctx, ticket.ID, CaseComment(*cls, *dec, sent))
		}},
	}
	if dec.Escalate {
		steps = append(steps, step{Escalate, func(ctx context.Context) (string, error) {
			if a.Records == nil {
				return "", errNotConfigured
			}
			fields := map[string]any{"Priority": dec.NewPriority, "IsEscalated": true}
			if dec.EscalationOwner != "" {
				fields["OwnerId"] = dec.EscalationOwner
			}
			if err := a.Records.UpdateRecord(ctx, model.KindTicket, ticket.ID, fields); err != nil {
				return "", err
			}
			return "priority " + dec.NewPriority, nil
		}})
	}
	return steps
}

func ticketEmailName(d model.Decision) string {
	if d.Action == model.ActionEmailServicesAgent {
		return EmailServicesAgent
	}
	return EmailProductExpert
}

func lastOutcome(log *model.ActionLog, name string) model.Outcome {
	entries := log.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Name == name {
			return entries[i].Outcome
		}
	}
	return ""
}
