package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/workflow-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresStore{pool: mock}, mock
}

func reportJSON(t *testing.T, r *model.Report) []byte {
	t.Helper()
	data, err := json.Marshal(r)
	require.NoError(t, err)
	return data
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS workflow_runs`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveReport(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	r := leadReport("run-1", t0, model.StatusCompleted)

	mock.ExpectExec(`INSERT INTO workflow_runs .* ON CONFLICT \(id\) DO UPDATE`).
		WithArgs("run-1", string(model.KindLead), string(model.StatusCompleted), "00Q5g00000Mock01",
			"00Q5g00000Mock01", "", false, 1, pgxmock.AnyArg(), t0, r.FinishedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveReport(context.Background(), r))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveReport_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO workflow_runs`).WillReturnError(errors.New("conn closed"))

	err := s.SaveReport(context.Background(), ticketReport("run-2", t0))
	assert.ErrorContains(t, err, "postgres: save run run-2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveReports_BulkUpsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_workflow_runs"}, runColumns).WillReturnResult(2)
	mock.ExpectExec("DELETE FROM").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("INSERT INTO").WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	err := s.SaveReports(context.Background(), []*model.Report{
		leadReport("run-1", t0, model.StatusCompleted),
		ticketReport("run-2", t0),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveReports_InvalidSkipsDatabase(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	err := s.SaveReports(context.Background(), []*model.Report{{}})
	assert.ErrorContains(t, err, "report has no run id")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	want := leadReport("run-1", t0, model.StatusCompleted)

	mock.ExpectQuery(`SELECT report FROM workflow_runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"report"}).AddRow(reportJSON(t, want)))

	got, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, model.ActionAssignOwner, got.Decision.Action)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT report FROM workflow_runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_CorruptReport(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT report FROM workflow_runs`).
		WithArgs("run-x").
		WillReturnRows(pgxmock.NewRows([]string{"report"}).AddRow([]byte(`{not json`)))

	_, err := s.GetRun(context.Background(), "run-x")
	assert.ErrorContains(t, err, "store: unmarshal report")
}

func TestPostgresStore_ListRuns_Filters(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT report FROM workflow_runs WHERE kind = \$1 AND status = \$2 ORDER BY started_at DESC, id LIMIT \$3 OFFSET \$4`).
		WithArgs(string(model.KindTicket), string(model.StatusFailed), 10, 5).
		WillReturnRows(pgxmock.NewRows([]string{"report"}).
			AddRow(reportJSON(t, ticketReport("run-2", t0))))

	runs, err := s.ListRuns(context.Background(), RunFilter{
		Kind:   model.KindTicket,
		Status: model.StatusFailed,
		Limit:  10,
		Offset: 5,
	})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.ErrFetchFailure, runs[0].ErrorKind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT report FROM workflow_runs ORDER BY started_at DESC, id LIMIT \$1$`).
		WithArgs(DefaultListLimit).
		WillReturnRows(pgxmock.NewRows([]string{"report"}))

	runs, err := s.ListRuns(context.Background(), RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_QueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT report FROM workflow_runs`).WillReturnError(errors.New("timeout"))

	_, err := s.ListRuns(context.Background(), RunFilter{RecordID: "500A"})
	assert.ErrorContains(t, err, "postgres: list runs")
}

func TestPostgresStore_Close(t *testing.T) {
	closed := false
	s := &PostgresStore{closeFn: func() { closed = true }}
	require.NoError(t, s.Close())
	assert.True(t, closed)
}
