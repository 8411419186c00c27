package main

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sells-group/workflow-cli/internal/config"
	"github.com/sells-group/workflow-cli/internal/model"
	"github.com/sells-group/workflow-cli/internal/pipeline"
	"github.com/sells-group/workflow-cli/internal/store"
)

// testConfig returns a fully mocked configuration with a sqlite store in a
// temp dir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Salesforce: config.SalesforceConfig{Mode: config.ModeMock},
		SAP:        config.SAPConfig{Mode: config.ModeMock},
		Email: config.EmailConfig{
			Provider:      config.ProviderLog,
			Notification:  "ops@example.com",
			ProductExpert: "experts@example.com",
			ITSupportURL:  "https://support.example.com/it",
		},
		Routing: config.RoutingConfig{
			AEOwnerID:         "005AE0000000001",
			SDROwnerID:        "005SDR000000001",
			NurtureOwnerID:    "005NUR000000001",
			EscalationOwnerID: "005ESC000000001",
		},
		Classify: config.ClassifyConfig{Policy: "llm"},
		Store: store.Options{
			Driver:      store.DriverSQLite,
			DatabaseURL: filepath.Join(t.TempDir(), "runs.db"),
		},
		Batch:  config.BatchConfig{MaxConcurrent: 2},
		Server: config.ServerConfig{Port: 8080},
		Log:    config.LogConfig{Level: "info", Format: "json"},
	}
}

// useConfig installs c as the global config for the duration of the test.
func useConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

// fakeRunner records requests and answers with fn, or a completed report.
type fakeRunner struct {
	mu   sync.Mutex
	reqs []pipeline.Request
	fn   func(pipeline.Request) *model.Report
}

func (f *fakeRunner) Run(_ context.Context, req pipeline.Request) *model.Report {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(req)
	}
	return completedReport(req)
}

func (f *fakeRunner) requests() []pipeline.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pipeline.Request(nil), f.reqs...)
}

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func completedReport(req pipeline.Request) *model.Report {
	id := req.Identifier
	if req.Record != nil && req.Record.ID() != "" {
		id = req.Record.ID()
	}
	return &model.Report{
		RunID:      "run-" + id,
		Kind:       req.Kind,
		Status:     model.StatusCompleted,
		Identifier: req.Identifier,
		RecordID:   id,
		Actions:    []model.ActionResult{},
		StartedAt:  testStart,
		FinishedAt: testStart.Add(120 * time.Millisecond),
		DurationMs: 120,
	}
}

func failedReport(req pipeline.Request, kind model.ErrorKind, reason string) *model.Report {
	rep := completedReport(req)
	rep.RunID = "run-failed-" + req.Identifier
	rep.Status = model.StatusFailed
	rep.ErrorKind = kind
	rep.FailureReason = reason
	if kind == model.ErrFetchFailure {
		rep.RecordID = ""
	}
	return rep
}

func openTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), store.Options{
		Driver:      store.DriverSQLite,
		DatabaseURL: filepath.Join(t.TempDir(), "runs.db"),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}
