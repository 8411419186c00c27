package crm

import (
	"context"
	"fmt"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/workflow-cli/internal/action"
	"github.com/sells-group/workflow-cli/internal/fixture"
	"github.com/sells-group/workflow-cli/internal/model"
	"github.com/sells-group/workflow-cli/internal/pipeline"
)

var (
	_ pipeline.RecordSource = (*Mock)(nil)
	_ action.RecordUpdater  = (*Mock)(nil)
	_ action.TaskCreator    = (*Mock)(nil)
	_ action.Commenter      = (*Mock)(nil)
)

// Mock is an in-memory CRM backed by fixtures. Updates are applied to its
// copy of the records so later fetches observe them.
type Mock struct {
	mu       sync.Mutex
	set      *fixture.Set
	tasks    []action.Task
	comments map[string][]string
	seq      int
}

// NewMock creates a Mock over a copy of set's leads and tickets.
func NewMock(set *fixture.Set) *Mock {
	cp := &fixture.Set{
		Leads:    append([]model.Lead(nil), set.Leads...),
		Tickets:  append([]model.Ticket(nil), set.Tickets...),
		Partners: set.Partners,
	}
	return &Mock{set: cp, comments: map[string][]string{}}
}

// Fetch returns a fixture record by id, or the newest one in status New.
func (m *Mock) Fetch(_ context.Context, kind model.WorkflowKind, id string) (*model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch kind {
	case model.KindLead:
		var (
			l  model.Lead
			ok bool
		)
		if id == "" {
			l, ok = m.set.NewestLead()
		} else {
			l, ok = m.set.Lead(id)
		}
		if !ok {
			return nil, notFound(kind, id)
		}
		return &model.Record{Kind: kind, Lead: &l}, nil
	case model.KindTicket:
		var (
			t  model.Ticket
			ok bool
		)
		if id == "" {
			t, ok = m.set.NewestTicket()
		} else {
			t, ok = m.set.Ticket(id)
		}
		if !ok {
			return nil, notFound(kind, id)
		}
		return &model.Record{Kind: kind, Ticket: &t}, nil
	default:
		return nil, eris.Errorf("crm: unknown workflow kind %q", kind)
	}
}

// UpdateRecord applies the known fields to the stored record.
func (m *Mock) UpdateRecord(_ context.Context, kind model.WorkflowKind, id string, fields map[string]any) error {
	if id == "" {
		return eris.Errorf("crm: %s id is required", objectName(kind))
	}
	if len(fields) == 0 {
		return eris.New("crm: no fields to update")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	switch kind {
	case model.KindLead:
		for i := range m.set.Leads {
			if m.set.Leads[i].ID == id {
				applyLead(&m.set.Leads[i], fields)
				m.logWrite("update", objectName(kind), id)
				return nil
			}
		}
	case model.KindTicket:
		for i := range m.set.Tickets {
			if m.set.Tickets[i].ID == id {
				applyTicket(&m.set.Tickets[i], fields)
				m.logWrite("update", objectName(kind), id)
				return nil
			}
		}
	}
	return notFound(kind, id)
}

// CreateTask stores the task and returns a simulated task id.
func (m *Mock) CreateTask(_ context.Context, t action.Task) (string, error) {
	if t.RecordID == "" {
		return "", eris.New("crm: task related id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, t)
	m.seq++
	id := fmt.Sprintf("00T5g00000Mock%04d", m.seq)
	m.logWrite("create_task", "task", id)
	return id, nil
}

// PostComment stores the comment and returns a simulated comment id.
func (m *Mock) PostComment(_ context.Context, caseID, body string) (string, error) {
	if caseID == "" {
		return "", eris.New("crm: case id is required for comment")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments[caseID] = append(m.comments[caseID], body)
	m.seq++
	id := fmt.Sprintf("00a5g00000Mock%04d", m.seq)
	m.logWrite("post_comment", "case", caseID)
	return id, nil
}

// Tasks returns the tasks created so far.
func (m *Mock) Tasks() []action.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]action.Task(nil), m.tasks...)
}

// Comments returns the comments posted on a case.
func (m *Mock) Comments(caseID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.comments[caseID]...)
}

func (m *Mock) logWrite(op, object, id string) {
	zap.L().Info("crm: mock write",
		zap.String("op", op),
		zap.String("object", object),
		zap.String("id", id),
	)
}

func applyLead(l *model.Lead, fields map[string]any) {
	for k, v := range fields {
		s := fmt.Sprint(v)
		switch k {
		case "OwnerId":
			l.OwnerID = s
		case "Status":
			l.Status = s
		case "Rating":
			l.Rating = s
		case "Description":
			l.Description = s
		}
	}
}

func applyTicket(t *model.Ticket, fields map[string]any) {
	for k, v := range fields {
		switch k {
		case "OwnerId":
			t.OwnerID = fmt.Sprint(v)
		case "Status":
			t.Status = fmt.Sprint(v)
		case "Priority":
			t.Priority = fmt.Sprint(v)
		case "IsEscalated":
			b, _ := v.(bool)
			t.IsEscalated = b
		}
	}
}
