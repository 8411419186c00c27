package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/workflow-cli/internal/db"
	"github.com/sells-group/workflow-cli/internal/model"
)

const runsTable = "workflow_runs"

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	if connString == "" {
		return nil, eris.New("postgres: database url is required")
	}
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS workflow_runs (
	id             TEXT PRIMARY KEY,
	kind           TEXT NOT NULL,
	status         TEXT NOT NULL,
	record_id      TEXT NOT NULL DEFAULT '',
	identifier     TEXT NOT NULL DEFAULT '',
	error_kind     TEXT NOT NULL DEFAULT '',
	llm_used       BOOLEAN NOT NULL DEFAULT false,
	failed_actions INTEGER NOT NULL DEFAULT 0,
	report         JSONB NOT NULL,
	started_at     TIMESTAMPTZ NOT NULL,
	finished_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_workflow_runs_kind ON workflow_runs(kind);
CREATE INDEX IF NOT EXISTS idx_workflow_runs_status ON workflow_runs(status);
CREATE INDEX IF NOT EXISTS idx_workflow_runs_record_id ON workflow_runs(record_id);
CREATE INDEX IF NOT EXISTS idx_workflow_runs_started_at ON workflow_runs(started_at DESC);
`

const postgresUpsert = `INSERT INTO workflow_runs (id, kind, status, record_id, identifier, error_kind, llm_used, failed_actions, report, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
	kind = EXCLUDED.kind, status = EXCLUDED.status, record_id = EXCLUDED.record_id,
	identifier = EXCLUDED.identifier, error_kind = EXCLUDED.error_kind,
	llm_used = EXCLUDED.llm_used, failed_actions = EXCLUDED.failed_actions,
	report = EXCLUDED.report, started_at = EXCLUDED.started_at, finished_at = EXCLUDED.finished_at`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveReport(ctx context.Context, r *model.Report) error {
	row, err := newRunRow(r)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, postgresUpsert, row.values()...)
	return eris.Wrapf(err, "postgres: save run %s", row.id)
}

// SaveReports upserts the batch through db.BulkUpsert.
func (s *PostgresStore) SaveReports(ctx context.Context, rs []*model.Report) error {
	rows := make([][]any, 0, len(rs))
	for _, r := range rs {
		row, err := newRunRow(r)
		if err != nil {
			return err
		}
		rows = append(rows, row.values())
	}
	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        runsTable,
		Columns:      runColumns,
		ConflictKeys: []string{"id"},
	}, rows)
	return eris.Wrap(err, "postgres: save runs")
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Report, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT report FROM workflow_runs WHERE id = $1`, runID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "%s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return decodeReport(data)
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Report, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Kind != "" {
		where = append(where, "kind = "+arg(string(filter.Kind)))
	}
	if filter.Status != "" {
		where = append(where, "status = "+arg(string(filter.Status)))
	}
	if filter.RecordID != "" {
		where = append(where, "record_id = "+arg(filter.RecordID))
	}

	query := `SELECT report FROM workflow_runs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY started_at DESC, id LIMIT ` + arg(filter.limit())
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var out []model.Report
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r, err := decodeReport(data)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}
