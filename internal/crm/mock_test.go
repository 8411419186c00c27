package crm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/workflow-cli/internal/action"
	"github.com/sells-group/workflow-cli/internal/fixture"
	"github.com/sells-group/workflow-cli/internal/model"
	"github.com/sells-group/workflow-cli/internal/pipeline"
)

func newMock(t *testing.T) *Mock {
	t.Helper()
	set, err := fixture.Default()
	require.NoError(t, err)
	return NewMock(set)
}

func TestMock_Fetch(t *testing.T) {
	t.Parallel()

	m := newMock(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		kind   model.WorkflowKind
		id     string
		wantID string
	}{
		{"lead by id", model.KindLead, "00Q5g00000MockLd3", "00Q5g00000MockLd3"},
		{"newest lead", model.KindLead, "", "00Q5g00000MockLd1"},
		{"ticket by id", model.KindTicket, "5005g00000MockCs4", "5005g00000MockCs4"},
		{"ticket by case number", model.KindTicket, "00001236", "5005g00000MockCs3"},
		{"newest ticket", model.KindTicket, "", "5005g00000MockCs2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec, err := m.Fetch(ctx, tt.kind, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, rec.ID())
			assert.Equal(t, tt.kind, rec.Kind)
		})
	}
}

func TestMock_FetchUnknownIDIsNotFound(t *testing.T) {
	t.Parallel()

	m := newMock(t)
	_, err := m.Fetch(context.Background(), model.KindLead, "00Qnope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrNotFound))

	_, err = NewMock(&fixture.Set{}).Fetch(context.Background(), model.KindTicket, "")
	assert.True(t, errors.Is(err, pipeline.ErrNotFound))
}

func TestMock_UpdateRecordIsVisible(t *testing.T) {
	t.Parallel()

	m := newMock(t)
	ctx := context.Background()

	require.NoError(t, m.UpdateRecord(ctx, model.KindLead, "00Q5g00000MockLd2", map[string]any{
		"OwnerId": "005AE0000001",
		"Status":  "Working - Contacted",
	}))
	rec, err := m.Fetch(ctx, model.KindLead, "00Q5g00000MockLd2")
	require.NoError(t, err)
	assert.Equal(t, "005AE0000001", rec.Lead.OwnerID)
	assert.Equal(t, "Working - Contacted", rec.Lead.Status)

	require.NoError(t, m.UpdateRecord(ctx, model.KindTicket, "5005g00000MockCs2", map[string]any{
		"Priority":    "Critical",
		"IsEscalated": true,
	}))
	rec, err = m.Fetch(ctx, model.KindTicket, "5005g00000MockCs2")
	require.NoError(t, err)
	assert.Equal(t, "Critical", rec.Ticket.Priority)
	assert.True(t, rec.Ticket.IsEscalated)
}

func TestMock_UpdateDoesNotTouchFixtureSet(t *testing.T) {
	t.Parallel()

	set, err := fixture.Default()
	require.NoError(t, err)
	m := NewMock(set)
	require.NoError(t, m.UpdateRecord(context.Background(), model.KindLead, "00Q5g00000MockLd1", map[string]any{"Status": "Nurturing"}))

	l, _ := set.Lead("00Q5g00000MockLd1")
	assert.Equal(t, "New", l.Status)
}

func TestMock_UpdateRecordErrors(t *testing.T) {
	t.Parallel()

	m := newMock(t)
	ctx := context.Background()

	err := m.UpdateRecord(ctx, model.KindLead, "", map[string]any{"Status": "x"})
	assert.ErrorContains(t, err, "lead id is required")

	err = m.UpdateRecord(ctx, model.KindLead, "00Q5g00000MockLd1", nil)
	assert.ErrorContains(t, err, "no fields to update")

	err = m.UpdateRecord(ctx, model.KindTicket, "500missing", map[string]any{"Priority": "High"})
	assert.True(t, errors.Is(err, pipeline.ErrNotFound))
}

func TestMock_TasksAndComments(t *testing.T) {
	t.Parallel()

	m := newMock(t)
	ctx := context.Background()

	id, err := m.CreateTask(ctx, action.Task{RecordID: "00Q5g00000MockLd1", Subject: "Follow up"})
	require.NoError(t, err)
	assert.Equal(t, "00T5g00000Mock0001", id)

	cid, err := m.PostComment(ctx, "5005g00000MockCs1", "Routed to services")
	require.NoError(t, err)
	assert.Equal(t, "00a5g00000Mock0002", cid)

	require.Len(t, m.Tasks(), 1)
	assert.Equal(t, "Follow up", m.Tasks()[0].Subject)
	assert.Equal(t, []string{"Routed to services"}, m.Comments("5005g00000MockCs1"))

	_, err = m.CreateTask(ctx, action.Task{})
	assert.Error(t, err)
	_, err = m.PostComment(ctx, "", "x")
	assert.Error(t, err)
}

func TestMock_ConcurrentWrites(t *testing.T) {
	t.Parallel()

	m := newMock(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.CreateTask(ctx, action.Task{RecordID: "00Q5g00000MockLd1"})
			_ = m.UpdateRecord(ctx, model.KindLead, "00Q5g00000MockLd1", map[string]any{"Status": "Working"})
		}()
	}
	wg.Wait()
	assert.Len(t, m.Tasks(), 20)
}
