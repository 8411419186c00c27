// Package pipeline sequences one workflow run: fetch, enrich, score or
// classify, decide, execute and report.
package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/workflow-cli/internal/action"
	"github.com/sells-group/workflow-cli/internal/classify"
	"github.com/sells-group/workflow-cli/internal/model"
	"github.com/sells-group/workflow-cli/internal/route"
	"github.com/sells-group/workflow-cli/internal/scoring"
)

// Stage names used in logs and notes.
const (
	StageValidate = "validate"
	StageFetch    = "fetch"
	StageEnrich   = "enrich"
	StageScore    = "score"
	StageClassify = "classify"
	StageDecide   = "decide"
	StageExecute  = "execute"
)

// ErrNotFound is returned by a RecordSource when no record matches.
var ErrNotFound = eris.New("pipeline: record not found")

// RecordSource loads the primary record. An empty identifier selects the
// newest unprocessed record.
type RecordSource interface {
	Fetch(ctx context.Context, kind model.WorkflowKind, identifier string) (*model.Record, error)
}

// Enricher looks up secondary business context. A nil result with a nil
// error means the lookup came back absent.
type Enricher interface {
	Enrich(ctx context.Context, rec model.Record) (*model.Enrichment, error)
}

// Validator reports configuration a workflow kind cannot run without.
type Validator interface {
	Validate(kind model.WorkflowKind) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(kind model.WorkflowKind) error

// Validate calls f.
func (f ValidatorFunc) Validate(kind model.WorkflowKind) error { return f(kind) }

// Deps are the stage implementations. Enricher may be nil (always absent).
type Deps struct {
	Source     RecordSource
	Enricher   Enricher
	Scorer     *scoring.Scorer
	Classifier *classify.Classifier
	Router     *route.Router
	Executor   *action.Executor
}

// Request is one invocation of Run. Record, when usable, skips the fetch.
type Request struct {
	Kind       model.WorkflowKind
	Identifier string
	Record     *model.Record
	UseLLM     bool
}

// Engine runs workflows. It holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	deps       Deps
	validators []Validator
	now        func() time.Time
	newID      func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the run clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides run id generation.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithValidator adds a configuration check run before fetch.
func WithValidator(v Validator) Option {
	return func(e *Engine) { e.validators = append(e.validators, v) }
}

// New creates an Engine. The router is always consulted for validation.
func New(deps Deps, opts ...Option) *Engine {
	e := &Engine{
		deps:  deps,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// failure is a stage outcome that ends the run.
type failure struct {
	kind   model.ErrorKind
	reason string
}

// Run executes one workflow and always returns a report; it never panics.
func (e *Engine) Run(ctx context.Context, req Request) *model.Report {
	s := model.NewState(e.newID(), req.Kind, req.Identifier, req.UseLLM, e.now())
	log := zap.L().With(
		zap.String("run_id", s.RunID),
		zap.String("workflow", string(req.Kind)),
		zap.String("identifier", req.Identifier),
	)
	log.Info("pipeline: starting run", zap.Bool("use_llm", req.UseLLM))

	trackStage := func(name string, fn func() *failure) (ok bool) {
		start := time.Now()
		f := func() (f *failure) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("pipeline: stage panicked",
						zap.String("stage", name),
						zap.Any("panic", r),
						zap.ByteString("stack", debug.Stack()),
					)
					f = &failure{kind: model.ErrInternal, reason: fmt.Sprintf("panic: %v", r)}
				}
			}()
			return fn()
		}()
		duration := time.Since(start).Milliseconds()

		if f != nil {
			log.Error("pipeline: stage failed",
				zap.String("stage", name),
				zap.Int64("duration_ms", duration),
				zap.String("error_kind", string(f.kind)),
				zap.String("reason", f.reason),
			)
			if err := s.Fail(f.kind, name, f.reason); err != nil {
				log.Warn("pipeline: record failure", zap.Error(err))
			}
			return false
		}
		log.Info("pipeline: stage complete",
			zap.String("stage", name),
			zap.Int64("duration_ms", duration),
		)
		return true
	}

	stages := []struct {
		name string
		fn   func() *failure
	}{
		{StageValidate, func() *failure { return e.validate(req.Kind) }},
		{StageFetch, func() *failure { return e.fetch(ctx, s, req) }},
		{StageEnrich, func() *failure { return e.enrich(ctx, s) }},
		{verdictStage(req.Kind), func() *failure { return e.verdict(ctx, s) }},
		{StageDecide, func() *failure { return e.decide(s) }},
		{StageExecute, func() *failure { return e.execute(ctx, s) }},
	}
	for _, st := range stages {
		if !trackStage(st.name, st.fn) {
			break
		}
	}

	if s.Status() == model.StatusInProgress {
		if err := s.SetStatus(model.StatusCompleted); err != nil {
			log.Warn("pipeline: complete run", zap.Error(err))
		}
	}
	report := s.Snapshot(e.now())
	log.Info("pipeline: run finished",
		zap.String("status", string(report.Status)),
		zap.Int("actions", len(report.Actions)),
		zap.Int("failed_actions", report.FailedActions()),
		zap.Int64("duration_ms", report.DurationMs),
	)
	return report
}

func verdictStage(kind model.WorkflowKind) string {
	if kind == model.KindTicket {
		return StageClassify
	}
	return StageScore
}

func (e *Engine) validate(kind model.WorkflowKind) *failure {
	if kind != model.KindLead && kind != model.KindTicket {
		return &failure{model.ErrConfiguration, fmt.Sprintf("unknown workflow kind %q", kind)}
	}
	switch {
	case e.deps.Source == nil:
		return &failure{model.ErrConfiguration, "record source not configured"}
	case e.deps.Router == nil:
		return &failure{model.ErrConfiguration, "router not configured"}
	case e.deps.Executor == nil:
		return &failure{model.ErrConfiguration, "action executor not configured"}
	case kind == model.KindLead && e.deps.Scorer == nil:
		return &failure{model.ErrConfiguration, "scorer not configured"}
	case kind == model.KindTicket && e.deps.Classifier == nil:
		return &failure{model.ErrConfiguration, "classifier not configured"}
	}
	for _, v := range append([]Validator{e.deps.Router}, e.validators...) {
		if err := v.Validate(kind); err != nil {
			return &failure{model.ErrConfiguration, err.Error()}
		}
	}
	return nil
}

func (e *Engine) fetch(ctx context.Context, s *model.WorkflowState, req Request) *failure {
	var rec *model.Record
	if req.Record != nil {
		cp := *req.Record
		cp.Kind = req.Kind
		rec = &cp
	}
	if rec == nil || !rec.Usable() {
		id := req.Identifier
		if rec != nil && rec.ID() != "" {
			id = rec.ID()
		}
		fetched, err := e.deps.Source.Fetch(ctx, req.Kind, id)
		if err != nil {
			return &failure{model.ErrFetchFailure, err.Error()}
		}
		rec = fetched
	}
	if rec == nil || (rec.Lead == nil && rec.Ticket == nil) {
		return &failure{model.ErrFetchFailure, ErrNotFound.Error()}
	}
	if (req.Kind == model.KindLead && rec.Lead == nil) || (req.Kind == model.KindTicket && rec.Ticket == nil) {
		return &failure{model.ErrFetchFailure, fmt.Sprintf("record does not match workflow %s", req.Kind)}
	}
	if err := s.SetRecord(*rec); err != nil {
		return &failure{model.ErrInternal, err.Error()}
	}
	return nil
}

func (e *Engine) enrich(ctx context.Context, s *model.WorkflowState) *failure {
	var (
		enr *model.Enrichment
		err error
	)
	if e.deps.Enricher != nil {
		enr, err = e.deps.Enricher.Enrich(ctx, *s.Record())
	}
	switch {
	case e.deps.Enricher == nil:
		s.AddNote(model.ErrEnrichmentAbsent, StageEnrich, "enrichment not configured")
	case err != nil:
		enr = nil
		s.AddNote(model.ErrEnrichmentAbsent, StageEnrich, err.Error())
	case enr == nil:
		s.AddNote(model.ErrEnrichmentAbsent, StageEnrich, "no business partner found")
	}
	if err := s.SetEnrichment(enr); err != nil {
		return &failure{model.ErrInternal, err.Error()}
	}
	return nil
}

func (e *Engine) verdict(ctx context.Context, s *model.WorkflowState) *failure {
	rec, enr := s.Record(), s.Enrichment()
	switch s.Kind {
	case model.KindLead:
		res := e.deps.Scorer.Score(ctx, *rec.Lead, enr, s.StartedAt, s.UseLLM)
		if res.Degraded != "" {
			s.AddNote(model.ErrScoringDegraded, StageScore, res.Degraded)
		}
		if err := s.SetScore(res.Breakdown); err != nil {
			return &failure{model.ErrInternal, err.Error()}
		}
	case model.KindTicket:
		res, err := e.deps.Classifier.Classify(ctx, *rec.Ticket, enr, s.UseLLM)
		if err != nil {
			return &failure{model.ErrClassificationFailure, err.Error()}
		}
		if res.Degraded != "" {
			s.AddNote(model.ErrScoringDegraded, StageClassify, res.Degraded)
		}
		if err := s.SetClassification(res.Classification); err != nil {
			return &failure{model.ErrInternal, err.Error()}
		}
	}
	return nil
}

func (e *Engine) decide(s *model.WorkflowState) *failure {
	var d model.Decision
	switch s.Kind {
	case model.KindLead:
		d = e.deps.Router.DecideLead(*s.Score())
	case model.KindTicket:
		d = e.deps.Router.DecideTicket(*s.Classification(), *s.Record().Ticket, s.Enrichment())
	}
	if err := s.SetDecision(d); err != nil {
		return &failure{model.ErrInternal, err.Error()}
	}
	return nil
}

func (e *Engine) execute(ctx context.Context, s *model.WorkflowState) *failure {
	e.deps.Executor.Execute(ctx, s)
	for _, r := range s.Log().Entries() {
		if r.Failed() {
			s.AddNote(model.ErrActionFailure, StageExecute, r.Name+": "+r.Detail)
		}
	}
	return nil
}
