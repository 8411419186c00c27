// Package store persists workflow run reports so past runs can be listed
// and inspected. It sits outside the workflow engine: a run never depends
// on the store succeeding.
package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/workflow-cli/internal/model"
)

// DefaultListLimit caps ListRuns when the filter sets no limit.
const DefaultListLimit = 50

// ErrNotFound is returned by GetRun for an unknown run id.
var ErrNotFound = eris.New("store: run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Kind     model.WorkflowKind `json:"kind,omitempty"`
	Status   model.Status       `json:"status,omitempty"`
	RecordID string             `json:"record_id,omitempty"`
	Limit    int                `json:"limit,omitempty"`
	Offset   int                `json:"offset,omitempty"`
}

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// Store defines the run history interface.
type Store interface {
	// SaveReport inserts or replaces the report with the same run id.
	SaveReport(ctx context.Context, r *model.Report) error
	// SaveReports stores a batch of reports in one transaction.
	SaveReports(ctx context.Context, rs []*model.Report) error
	GetRun(ctx context.Context, runID string) (*model.Report, error)
	// ListRuns returns matching runs, newest first.
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Report, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// Options selects and tunes the backing database.
type Options struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// Open connects to the configured backend and applies migrations.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case DriverSQLite, "":
		s, err = NewSQLite(opts.DatabaseURL)
	case DriverPostgres:
		s, err = NewPostgres(ctx, opts.DatabaseURL, &PoolConfig{MaxConns: opts.MaxConns, MinConns: opts.MinConns})
	case DriverNone:
		return Nop{}, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// runColumns is the column order shared by both backends.
var runColumns = []string{
	"id", "kind", "status", "record_id", "identifier", "error_kind",
	"llm_used", "failed_actions", "report", "started_at", "finished_at",
}

type runRow struct {
	id            string
	kind          string
	status        string
	recordID      string
	identifier    string
	errorKind     string
	llmUsed       bool
	failedActions int
	report        []byte
	startedAt     time.Time
	finishedAt    time.Time
}

func (r runRow) values() []any {
	return []any{
		r.id, r.kind, r.status, r.recordID, r.identifier, r.errorKind,
		r.llmUsed, r.failedActions, r.report, r.startedAt, r.finishedAt,
	}
}

func newRunRow(r *model.Report) (runRow, error) {
	if r == nil || strings.TrimSpace(r.RunID) == "" {
		return runRow{}, eris.New("store: report has no run id")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return runRow{}, eris.Wrapf(err, "store: marshal report %s", r.RunID)
	}
	return runRow{
		id:            r.RunID,
		kind:          string(r.Kind),
		status:        string(r.Status),
		recordID:      r.RecordID,
		identifier:    r.Identifier,
		errorKind:     string(r.ErrorKind),
		llmUsed:       r.LLMUsed,
		failedActions: r.FailedActions(),
		report:        data,
		startedAt:     r.StartedAt.UTC(),
		finishedAt:    r.FinishedAt.UTC(),
	}, nil
}

func decodeReport(data []byte) (*model.Report, error) {
	var r model.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal report")
	}
	return &r, nil
}

// Nop discards reports. It backs the "none" driver.
type Nop struct{}

func (Nop) SaveReport(context.Context, *model.Report) error    { return nil }
func (Nop) SaveReports(context.Context, []*model.Report) error { return nil }
func (Nop) Migrate(context.Context) error                      { return nil }
func (Nop) Close() error                                       { return nil }

func (Nop) GetRun(_ context.Context, runID string) (*model.Report, error) {
	return nil, eris.Wrapf(ErrNotFound, "%s (history disabled)", runID)
}

func (Nop) ListRuns(context.Context, RunFilter) ([]model.Report, error) {
	return nil, nil
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = Nop{}
)
