package erp

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/workflow-cli/internal/fixture"
	"github.com/sells-group/workflow-cli/internal/model"
	"github.com/sells-group/workflow-cli/pkg/sap"
)

func TestMock_Enrich(t *testing.T) {
	t.Parallel()

	set, err := fixture.Default()
	require.NoError(t, err)
	m := NewMock(set)
	ctx := context.Background()

	enr, err := m.Enrich(ctx, leadRecord("Acme Corporation"))
	require.NoError(t, err)
	require.NotNil(t, enr)
	assert.Equal(t, "BP0001001", enr.BusinessPartnerID)

	ticket := model.Record{Kind: model.KindTicket, Ticket: &model.Ticket{ID: "500", AccountID: "0015g00000MockAc5"}}
	enr, err = m.Enrich(ctx, ticket)
	require.NoError(t, err)
	require.NotNil(t, enr)
	assert.Equal(t, "BP0005005", enr.BusinessPartnerID)

	enr, err = m.Enrich(ctx, leadRecord("Unknown GmbH"))
	require.NoError(t, err)
	assert.Nil(t, enr)

	enr, err = m.Enrich(ctx, model.Record{})
	require.NoError(t, err)
	assert.Nil(t, enr)
}

func TestMock_CreateNote(t *testing.T) {
	t.Parallel()

	m := NewMock(&fixture.Set{})
	ctx := context.Background()

	id, err := m.CreateNote(ctx, "BP1", "subject", strings.Repeat("x", 3000))
	require.NoError(t, err)
	assert.Equal(t, "NOTE00001", id)

	id, err = m.CreateNote(ctx, "BP2", "second", "")
	require.NoError(t, err)
	assert.Equal(t, "NOTE00002", id)

	notes := m.Notes()
	require.Len(t, notes, 2)
	assert.Len(t, []rune(notes[0].Text), sap.MaxNoteLength)
	assert.Equal(t, "second", notes[1].Text)

	_, err = m.CreateNote(ctx, "", "s", "b")
	assert.Error(t, err)
}
