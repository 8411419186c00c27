package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/workflow-cli/internal/model"
)

// DefaultSQLitePath is used when no database url is configured.
const DefaultSQLitePath = "workflow_runs.db"

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = DefaultSQLitePath
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS workflow_runs (
	id             TEXT PRIMARY KEY,
	kind           TEXT NOT NULL,
	status         TEXT NOT NULL,
	record_id      TEXT NOT NULL DEFAULT '',
	identifier     TEXT NOT NULL DEFAULT '',
	error_kind     TEXT NOT NULL DEFAULT '',
	llm_used       INTEGER NOT NULL DEFAULT 0,
	failed_actions INTEGER NOT NULL DEFAULT 0,
	report         TEXT NOT NULL,
	started_at     DATETIME NOT NULL,
	finished_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_workflow_runs_kind ON workflow_runs(kind);
CREATE INDEX IF NOT EXISTS idx_workflow_runs_status ON workflow_runs(status);
CREATE INDEX IF NOT EXISTS idx_workflow_runs_record_id ON workflow_runs(record_id);
CREATE INDEX IF NOT EXISTS idx_workflow_runs_started_at ON workflow_runs(started_at);
`

const sqliteUpsert = `INSERT INTO workflow_runs (id, kind, status, record_id, identifier, error_kind, llm_used, failed_actions, report, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	kind = excluded.kind, status = excluded.status, record_id = excluded.record_id,
	identifier = excluded.identifier, error_kind = excluded.error_kind,
	llm_used = excluded.llm_used, failed_actions = excluded.failed_actions,
	report = excluded.report, started_at = excluded.started_at, finished_at = excluded.finished_at`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func sqliteSave(ctx context.Context, ex execer, r *model.Report) error {
	row, err := newRunRow(r)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx, sqliteUpsert,
		row.id, row.kind, row.status, row.recordID, row.identifier, row.errorKind,
		row.llmUsed, row.failedActions, string(row.report), row.startedAt, row.finishedAt,
	)
	return eris.Wrapf(err, "sqlite: save run %s", row.id)
}

func (s *SQLiteStore) SaveReport(ctx context.Context, r *model.Report) error {
	return sqliteSave(ctx, s.db, r)
}

func (s *SQLiteStore) SaveReports(ctx context.Context, rs []*model.Report) error {
	if len(rs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, r := range rs {
		if err := sqliteSave(ctx, tx, r); err != nil {
			return err
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit runs")
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Report, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT report FROM workflow_runs WHERE id = ?`, runID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "%s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return decodeReport([]byte(data))
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Report, error) {
	var (
		where []string
		args  []any
	)
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.RecordID != "" {
		where = append(where, "record_id = ?")
		args = append(args, filter.RecordID)
	}

	query := `SELECT report FROM workflow_runs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY started_at DESC, id LIMIT ?`
	args = append(args, filter.limit())
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Report
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		r, err := decodeReport([]byte(data))
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}
