// Package crm adapts Salesforce (or in-memory fixtures) to the record source
// and CRM action interfaces of the workflow engine.
package crm

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/workflow-cli/internal/action"
	"github.com/sells-group/workflow-cli/internal/model"
	"github.com/sells-group/workflow-cli/internal/pipeline"
	"github.com/sells-group/workflow-cli/internal/resilience"
	sf "github.com/sells-group/workflow-cli/pkg/salesforce"
)

var (
	_ pipeline.RecordSource = (*Salesforce)(nil)
	_ action.RecordUpdater  = (*Salesforce)(nil)
	_ action.TaskCreator    = (*Salesforce)(nil)
	_ action.Commenter      = (*Salesforce)(nil)
)

// Salesforce talks to a live org. Every call runs under the policy's retry
// and circuit breaker.
type Salesforce struct {
	client sf.Client
	policy resilience.Policy
}

// NewSalesforce wraps an authenticated client.
func NewSalesforce(client sf.Client, policy resilience.Policy) *Salesforce {
	return &Salesforce{client: client, policy: policy}
}

// Fetch loads a lead or case by id, or the newest one in status New when id
// is empty.
func (s *Salesforce) Fetch(ctx context.Context, kind model.WorkflowKind, id string) (*model.Record, error) {
	switch kind {
	case model.KindLead:
		lead, err := resilience.Call(ctx, s.policy, "fetch_lead", func(ctx context.Context) (*sf.Lead, error) {
			if id == "" {
				return sf.FindNewestLead(ctx, s.client)
			}
			return sf.FindLeadByID(ctx, s.client, id)
		})
		if err != nil {
			return nil, eris.Wrap(err, "crm: fetch lead")
		}
		if lead == nil {
			return nil, notFound(kind, id)
		}
		return &model.Record{Kind: kind, Lead: leadFromSF(*lead)}, nil
	case model.KindTicket:
		c, err := resilience.Call(ctx, s.policy, "fetch_case", func(ctx context.Context) (*sf.Case, error) {
			if id == "" {
				return sf.FindNewestCase(ctx, s.client)
			}
			return sf.FindCaseByID(ctx, s.client, id)
		})
		if err != nil {
			return nil, eris.Wrap(err, "crm: fetch case")
		}
		if c == nil {
			return nil, notFound(kind, id)
		}
		ticket, extra := ticketFromSF(*c)
		return &model.Record{Kind: kind, Ticket: ticket, Extra: extra}, nil
	default:
		return nil, eris.Errorf("crm: unknown workflow kind %q", kind)
	}
}

// UpdateRecord writes fields on the lead or case.
func (s *Salesforce) UpdateRecord(ctx context.Context, kind model.WorkflowKind, id string, fields map[string]any) error {
	_, err := resilience.Call(ctx, s.policy, "update_"+objectName(kind), func(ctx context.Context) (struct{}, error) {
		if kind == model.KindTicket {
			return struct{}{}, sf.UpdateCase(ctx, s.client, id, fields)
		}
		return struct{}{}, sf.UpdateLead(ctx, s.client, id, fields)
	})
	if err != nil {
		return eris.Wrapf(err, "crm: update %s %s", objectName(kind), id)
	}
	zap.L().Debug("crm: record updated",
		zap.String("object", objectName(kind)),
		zap.String("id", id),
		zap.Int("fields", len(fields)),
	)
	return nil
}

// CreateTask creates a follow-up task related to the task's record.
func (s *Salesforce) CreateTask(ctx context.Context, t action.Task) (string, error) {
	task := sf.Task{
		RelatedID:   t.RecordID,
		OwnerID:     t.OwnerID,
		Subject:     t.Subject,
		Description: t.Description,
		Priority:    t.Priority,
	}
	if !t.DueDate.IsZero() {
		task.DueDate = t.DueDate.Format("2006-01-02")
	}
	id, err := resilience.Call(ctx, s.policy, "create_task", func(ctx context.Context) (string, error) {
		return sf.CreateTask(ctx, s.client, task)
	})
	if err != nil {
		return "", eris.Wrap(err, "crm: create task")
	}
	return id, nil
}

// PostComment adds a published comment to a case.
func (s *Salesforce) PostComment(ctx context.Context, caseID, body string) (string, error) {
	id, err := resilience.Call(ctx, s.policy, "post_comment", func(ctx context.Context) (string, error) {
		return sf.CreateCaseComment(ctx, s.client, caseID, body)
	})
	if err != nil {
		return "", eris.Wrap(err, "crm: post comment")
	}
	return id, nil
}

func notFound(kind model.WorkflowKind, id string) error {
	if id == "" {
		return eris.Wrapf(pipeline.ErrNotFound, "no new %s", objectName(kind))
	}
	return eris.Wrapf(pipeline.ErrNotFound, "%s %s", objectName(kind), id)
}

func objectName(kind model.WorkflowKind) string {
	if kind == model.KindTicket {
		return "case"
	}
	return "lead"
}

func leadFromSF(l sf.Lead) *model.Lead {
	return &model.Lead{
		ID:                l.ID,
		Name:              l.Name,
		FirstName:         l.FirstName,
		LastName:          l.LastName,
		Company:           l.Company,
		Email:             l.Email,
		Phone:             l.Phone,
		Title:             l.Title,
		Industry:          l.Industry,
		LeadSource:        l.LeadSource,
		Status:            l.Status,
		Rating:            l.Rating,
		AnnualRevenue:     l.AnnualRevenue,
		NumberOfEmployees: l.NumberOfEmployees,
		Website:           l.Website,
		Description:       l.Description,
		OwnerID:           l.OwnerID,
		CreatedDate:       l.CreatedDate,
	}
}

// ticketFromSF maps a case; fields without a typed home go to extra.
func ticketFromSF(c sf.Case) (*model.Ticket, map[string]any) {
	t := &model.Ticket{
		ID:          c.ID,
		CaseNumber:  c.CaseNumber,
		Subject:     c.Subject,
		Description: c.Description,
		Status:      c.Status,
		Priority:    c.Priority,
		Origin:      c.Origin,
		Type:        c.Type,
		AccountID:   c.AccountID,
		ContactID:   c.ContactID,
		OwnerID:     c.OwnerID,
		CreatedDate: c.CreatedDate,
		IsEscalated: c.IsEscalated,
	}
	extra := map[string]any{}
	if c.Reason != "" {
		extra["Reason"] = c.Reason
	}
	if c.ClosedDate != "" {
		extra["ClosedDate"] = c.ClosedDate
	}
	if c.IsClosed {
		extra["IsClosed"] = true
	}
	if len(extra) == 0 {
		extra = nil
	}
	return t, extra
}

