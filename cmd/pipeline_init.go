package main

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/sells-group/workflow-cli/internal/action"
	"github.com/sells-group/workflow-cli/internal/classify"
	"github.com/sells-group/workflow-cli/internal/config"
	"github.com/sells-group/workflow-cli/internal/crm"
	"github.com/sells-group/workflow-cli/internal/erp"
	"github.com/sells-group/workflow-cli/internal/fixture"
	"github.com/sells-group/workflow-cli/internal/llm"
	"github.com/sells-group/workflow-cli/internal/model"
	"github.com/sells-group/workflow-cli/internal/notify"
	"github.com/sells-group/workflow-cli/internal/pipeline"
	"github.com/sells-group/workflow-cli/internal/route"
	"github.com/sells-group/workflow-cli/internal/rules"
	"github.com/sells-group/workflow-cli/internal/scoring"
	"github.com/sells-group/workflow-cli/internal/store"
	anthropicpkg "github.com/sells-group/workflow-cli/pkg/anthropic"
	"github.com/sells-group/workflow-cli/pkg/resend"
	sfpkg "github.com/sells-group/workflow-cli/pkg/salesforce"
	"github.com/sells-group/workflow-cli/pkg/sap"
)

// workflowRunner executes one workflow run. *pipeline.Engine satisfies it.
type workflowRunner interface {
	Run(ctx context.Context, req pipeline.Request) *model.Report
}

// crmAdapter is everything the engine needs from the CRM.
type crmAdapter interface {
	pipeline.RecordSource
	action.RecordUpdater
	action.TaskCreator
	action.Commenter
}

// erpAdapter is everything the engine needs from the ERP.
type erpAdapter interface {
	pipeline.Enricher
	action.NoteWriter
}

// workflowEnv holds the engine and run history needed by the run, batch,
// schedule and serve commands.
type workflowEnv struct {
	Engine *pipeline.Engine
	Store  store.Store
}

// Close releases resources held by the workflow environment.
func (we *workflowEnv) Close() {
	if we.Store != nil {
		_ = we.Store.Close()
	}
}

// initWorkflow opens the run store, builds the CRM, ERP, notification and
// LLM adapters from cfg and wires the engine. Callers should defer
// env.Close().
func initWorkflow(ctx context.Context) (*workflowEnv, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open run store")
	}

	engine, err := buildEngine(cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &workflowEnv{Engine: engine, Store: st}, nil
}

// buildEngine wires every stage of the engine from c.
func buildEngine(c *config.Config) (*pipeline.Engine, error) {
	var fixtures *fixture.Set
	loadFixtures := func() (*fixture.Set, error) {
		if fixtures != nil {
			return fixtures, nil
		}
		set, err := fixture.Load(c.Fixtures.Path)
		if err != nil {
			return nil, eris.Wrap(err, "load fixtures")
		}
		fixtures = set
		return set, nil
	}

	records, err := initCRM(c, loadFixtures)
	if err != nil {
		return nil, err
	}
	partners, err := initERP(c, loadFixtures)
	if err != nil {
		return nil, err
	}
	sender, err := initNotifier(c)
	if err != nil {
		return nil, err
	}

	var (
		scorerLLM     scoring.LLMScorer
		classifierLLM classify.LLMClassifier
	)
	if a := initLLM(c); a != nil {
		scorerLLM, classifierLLM = a, a
	}

	policy, err := classify.ParsePolicy(c.Classify.Policy)
	if err != nil {
		zap.L().Warn("invalid classify policy, ticket runs will fail validation", zap.Error(err))
		policy = classify.PolicyLLM
	}

	router, err := route.New(c.Route(), rules.NewExprEvaluator())
	if err != nil {
		return nil, eris.Wrap(err, "build router")
	}

	executor := action.New(action.Adapters{
		Records:  records,
		Tasks:    records,
		Email:    sender,
		Comments: records,
		Notes:    partners,
	})

	return pipeline.New(pipeline.Deps{
		Source:     records,
		Enricher:   partners,
		Scorer:     scoring.New(scorerLLM),
		Classifier: classify.New(classifierLLM, policy),
		Router:     router,
		Executor:   executor,
	}, pipeline.WithValidator(pipeline.ValidatorFunc(c.Validate))), nil
}

// initCRM returns the Salesforce adapter in real mode and the fixture-backed
// mock otherwise. An unknown mode falls back to the mock; the per-run
// validator then rejects it.
func initCRM(c *config.Config, fixtures func() (*fixture.Set, error)) (crmAdapter, error) {
	if !strings.EqualFold(c.Salesforce.Mode, config.ModeReal) {
		set, err := fixtures()
		if err != nil {
			return nil, err
		}
		zap.L().Debug("salesforce in mock mode")
		return crm.NewMock(set), nil
	}

	creds := sfpkg.Credentials{
		LoginURL:      c.Salesforce.LoginURL,
		ClientID:      c.Salesforce.ClientID,
		ClientSecret:  c.Salesforce.ClientSecret,
		Username:      c.Salesforce.Username,
		Password:      c.Salesforce.Password,
		SecurityToken: c.Salesforce.SecurityToken,
	}
	if c.Salesforce.KeyPath != "" {
		pemData, err := os.ReadFile(c.Salesforce.KeyPath)
		if err != nil {
			return nil, eris.Wrap(err, "read salesforce JWT private key")
		}
		creds.RSAPem = string(pemData)
	}

	client, err := sfpkg.Connect(creds, sfpkg.WithRateLimit(c.Salesforce.RateLimit))
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}
	return crm.NewSalesforce(client, c.Salesforce.Retry.Policy("salesforce")), nil
}

// initERP returns the SAP OData adapter in real mode and the fixture-backed
// mock otherwise.
func initERP(c *config.Config, fixtures func() (*fixture.Set, error)) (erpAdapter, error) {
	if !strings.EqualFold(c.SAP.Mode, config.ModeReal) {
		set, err := fixtures()
		if err != nil {
			return nil, err
		}
		zap.L().Debug("sap in mock mode")
		return erp.NewMock(set), nil
	}
	if c.SAP.BaseURL == "" {
		return nil, eris.New("init sap: base url is required in real mode (WORKFLOW_SAP_BASE_URL)")
	}

	opts := []sap.Option{sap.WithSAPClient(c.SAP.Client)}
	if c.SAP.Username != "" {
		opts = append(opts, sap.WithBasicAuth(c.SAP.Username, c.SAP.Password))
	}
	if c.SAP.TimeoutSecs > 0 {
		opts = append(opts, sap.WithTimeout(c.SAP.Timeout()))
	}
	return erp.NewSAP(sap.NewClient(c.SAP.BaseURL, opts...), c.SAP.Retry.Policy("sap")), nil
}

// initNotifier selects the notification provider.
func initNotifier(c *config.Config) (action.EmailSender, error) {
	switch strings.ToLower(strings.TrimSpace(c.Email.Provider)) {
	case "", config.ProviderLog:
		return notify.NewLog(), nil
	case config.ProviderResend:
		opts := []resend.Option{resend.WithFrom(c.Email.From)}
		if c.Email.ResendBaseURL != "" {
			opts = append(opts, resend.WithBaseURL(c.Email.ResendBaseURL))
		}
		client := resend.NewClient(c.Email.ResendKey, opts...)
		return notify.NewResend(client, c.Email.From, c.Email.Retry.Policy("resend")), nil
	case config.ProviderSlack:
		var opts []slack.Option
		if c.Slack.APIURL != "" {
			opts = append(opts, slack.OptionAPIURL(c.Slack.APIURL))
		}
		return notify.NewSlack(slack.New(c.Slack.Token, opts...), c.Slack.Channels, c.Slack.Fallback), nil
	default:
		return nil, eris.Errorf("init notifier: unknown email provider %q", c.Email.Provider)
	}
}

// initLLM returns nil when no Anthropic key is configured.
func initLLM(c *config.Config) *llm.Anthropic {
	if c.Anthropic.Key == "" {
		zap.L().Debug("WORKFLOW_ANTHROPIC_KEY not set, llm analysis disabled")
		return nil
	}
	return llm.New(anthropicpkg.NewClient(c.Anthropic.Key), llm.Config{
		Model:               c.Anthropic.Model,
		MaxTokens:           c.Anthropic.MaxTokens,
		ScoreTemperature:    c.Anthropic.ScoreTemperature,
		ClassifyTemperature: c.Anthropic.ClassifyTemperature,
	}, c.Anthropic.Retry.Policy("anthropic"))
}

// saveReport records a finished run. History is best effort: a store
// failure is logged and never changes the run outcome.
func saveReport(ctx context.Context, st store.Store, rep *model.Report) {
	if st == nil || rep == nil {
		return
	}
	if err := st.SaveReport(ctx, rep); err != nil {
		zap.L().Warn("save run report failed",
			zap.String("run_id", rep.RunID),
			zap.Error(err),
		)
	}
}
