// Package config loads workflow settings from config.yaml and WORKFLOW_*
// environment variables.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/workflow-cli/internal/model"
	"github.com/sells-group/workflow-cli/internal/resilience"
	"github.com/sells-group/workflow-cli/internal/route"
	"github.com/sells-group/workflow-cli/internal/store"
)

// Adapter modes.
const (
	ModeMock = "mock"
	ModeReal = "real"
)

// Email providers.
const (
	ProviderLog    = "log"
	ProviderResend = "resend"
	ProviderSlack  = "slack"
)

// ErrInvalid is the sentinel for configuration a workflow cannot run with.
var ErrInvalid = eris.New("config: invalid configuration")

// Config holds the full application configuration.
type Config struct {
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	SAP        SAPConfig        `yaml:"sap" mapstructure:"sap"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Email      EmailConfig      `yaml:"email" mapstructure:"email"`
	Slack      SlackConfig      `yaml:"slack" mapstructure:"slack"`
	Routing    RoutingConfig    `yaml:"routing" mapstructure:"routing"`
	Classify   ClassifyConfig   `yaml:"classify" mapstructure:"classify"`
	Fixtures   FixturesConfig   `yaml:"fixtures" mapstructure:"fixtures"`
	Store      store.Options    `yaml:"store" mapstructure:"store"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Schedule   ScheduleConfig   `yaml:"schedule" mapstructure:"schedule"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// RetryConfig tunes retries and the circuit breaker of one external service.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// Policy builds the resilience policy for service.
func (r RetryConfig) Policy(service string) resilience.Policy {
	return resilience.NewPolicy(service, resilience.Settings{
		MaxAttempts:      r.MaxAttempts,
		InitialBackoffMs: r.InitialBackoffMs,
		FailureThreshold: r.FailureThreshold,
		ResetTimeoutSecs: r.ResetTimeoutSecs,
	})
}

// SalesforceConfig selects the CRM adapter and holds OAuth settings.
type SalesforceConfig struct {
	Mode          string      `yaml:"mode" mapstructure:"mode"`
	ClientID      string      `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret  string      `yaml:"client_secret" mapstructure:"client_secret"`
	Username      string      `yaml:"username" mapstructure:"username"`
	Password      string      `yaml:"password" mapstructure:"password"`
	SecurityToken string      `yaml:"security_token" mapstructure:"security_token"`
	KeyPath       string      `yaml:"key_path" mapstructure:"key_path"`
	LoginURL      string      `yaml:"login_url" mapstructure:"login_url"`
	APIVersion    string      `yaml:"api_version" mapstructure:"api_version"`
	RateLimit     float64     `yaml:"rate_limit" mapstructure:"rate_limit"`
	Retry         RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// SAPConfig selects the ERP adapter and holds OData settings.
type SAPConfig struct {
	Mode        string      `yaml:"mode" mapstructure:"mode"`
	BaseURL     string      `yaml:"base_url" mapstructure:"base_url"`
	Username    string      `yaml:"username" mapstructure:"username"`
	Password    string      `yaml:"password" mapstructure:"password"`
	Client      string      `yaml:"client" mapstructure:"client"`
	TimeoutSecs int         `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retry       RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// Timeout returns the per-request timeout.
func (c SAPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// AnthropicConfig holds Anthropic API settings. An empty key disables the
// LLM capability; runs then degrade to rules.
type AnthropicConfig struct {
	Key                 string      `yaml:"key" mapstructure:"key"`
	Model               string      `yaml:"model" mapstructure:"model"`
	MaxTokens           int64       `yaml:"max_tokens" mapstructure:"max_tokens"`
	ScoreTemperature    float64     `yaml:"score_temperature" mapstructure:"score_temperature"`
	ClassifyTemperature float64     `yaml:"classify_temperature" mapstructure:"classify_temperature"`
	Retry               RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// EmailConfig selects the notification provider and its recipients.
type EmailConfig struct {
	Provider      string            `yaml:"provider" mapstructure:"provider"`
	ResendKey     string            `yaml:"resend_key" mapstructure:"resend_key"`
	ResendBaseURL string            `yaml:"resend_base_url" mapstructure:"resend_base_url"`
	From          string            `yaml:"from" mapstructure:"from"`
	Notification  string            `yaml:"notification" mapstructure:"notification"`
	SalesAgent    string            `yaml:"sales_agent" mapstructure:"sales_agent"`
	ProductExpert string            `yaml:"product_expert" mapstructure:"product_expert"`
	ServicesAgent string            `yaml:"services_agent" mapstructure:"services_agent"`
	ProductOwners map[string]string `yaml:"product_owners" mapstructure:"product_owners"`
	ITSupportURL  string            `yaml:"it_support_url" mapstructure:"it_support_url"`
	Retry         RetryConfig       `yaml:"retry" mapstructure:"retry"`
}

// SlackConfig configures the Slack notification provider.
type SlackConfig struct {
	Token    string            `yaml:"token" mapstructure:"token"`
	Channels map[string]string `yaml:"channels" mapstructure:"channels"`
	Fallback string            `yaml:"fallback_channel" mapstructure:"fallback_channel"`
	APIURL   string            `yaml:"api_url" mapstructure:"api_url"`
}

// RoutingConfig holds CRM owner ids per routing target.
type RoutingConfig struct {
	AEOwnerID         string `yaml:"ae_owner_id" mapstructure:"ae_owner_id"`
	SDROwnerID        string `yaml:"sdr_owner_id" mapstructure:"sdr_owner_id"`
	NurtureOwnerID    string `yaml:"nurture_owner_id" mapstructure:"nurture_owner_id"`
	EscalationOwnerID string `yaml:"escalation_owner_id" mapstructure:"escalation_owner_id"`
}

// ClassifyConfig configures ticket classification.
type ClassifyConfig struct {
	Policy         string `yaml:"policy" mapstructure:"policy"`
	EscalationRule string `yaml:"escalation_rule" mapstructure:"escalation_rule"`
}

// FixturesConfig points mock adapters at a fixture file. Empty uses the
// embedded defaults.
type FixturesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ScheduleConfig configures the polling scheduler. An empty cron spec
// disables that workflow.
type ScheduleConfig struct {
	LeadCron   string `yaml:"lead_cron" mapstructure:"lead_cron"`
	TicketCron string `yaml:"ticket_cron" mapstructure:"ticket_cron"`
	UseLLM     bool   `yaml:"use_llm" mapstructure:"use_llm"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("WORKFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("salesforce.mode", ModeMock)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.api_version", "59.0")
	v.SetDefault("salesforce.rate_limit", 5.0)
	v.SetDefault("salesforce.retry.max_attempts", 3)
	v.SetDefault("salesforce.retry.initial_backoff_ms", 500)
	v.SetDefault("salesforce.retry.failure_threshold", 0)
	v.SetDefault("salesforce.retry.reset_timeout_secs", 30)

	v.SetDefault("sap.mode", ModeMock)
	v.SetDefault("sap.client", "100")
	v.SetDefault("sap.timeout_secs", 30)
	v.SetDefault("sap.retry.max_attempts", 2)
	v.SetDefault("sap.retry.initial_backoff_ms", 500)
	v.SetDefault("sap.retry.failure_threshold", 5)
	v.SetDefault("sap.retry.reset_timeout_secs", 60)

	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.score_temperature", 0.3)
	v.SetDefault("anthropic.classify_temperature", 0.2)
	v.SetDefault("anthropic.retry.max_attempts", 2)
	v.SetDefault("anthropic.retry.initial_backoff_ms", 1000)
	v.SetDefault("anthropic.retry.failure_threshold", 3)
	v.SetDefault("anthropic.retry.reset_timeout_secs", 60)

	v.SetDefault("email.provider", ProviderLog)
	v.SetDefault("email.resend_base_url", "https://api.resend.com")
	v.SetDefault("email.from", "onboarding@resend.dev")
	v.SetDefault("email.it_support_url", "https://support.belden.com/it")
	v.SetDefault("email.retry.max_attempts", 2)
	v.SetDefault("email.retry.initial_backoff_ms", 500)

	// Empty defaults register the keys so WORKFLOW_* env vars bind on Unmarshal.
	for _, key := range []string{
		"salesforce.client_id", "salesforce.client_secret", "salesforce.username",
		"salesforce.password", "salesforce.security_token", "salesforce.key_path",
		"sap.base_url", "sap.username", "sap.password",
		"anthropic.key",
		"email.resend_key", "email.notification", "email.sales_agent",
		"email.product_expert", "email.services_agent",
		"slack.token", "slack.fallback_channel", "slack.api_url",
		"routing.ae_owner_id", "routing.sdr_owner_id", "routing.nurture_owner_id",
		"routing.escalation_owner_id", "classify.escalation_rule", "fixtures.path",
	} {
		v.SetDefault(key, "")
	}

	v.SetDefault("classify.policy", "llm")
	v.SetDefault("store.driver", store.DriverSQLite)
	v.SetDefault("store.database_url", store.DefaultSQLitePath)
	v.SetDefault("batch.max_concurrent", 4)
	v.SetDefault("schedule.lead_cron", "@every 5m")
	v.SetDefault("schedule.ticket_cron", "@every 5m")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Route builds the routing table. Role recipients fall back to the
// notification address; product owners fall back to the product expert.
func (c *Config) Route() route.Config {
	orDefault := func(v, fallback string) string {
		if strings.TrimSpace(v) != "" {
			return v
		}
		return fallback
	}
	owners := make(map[string]string, len(c.Email.ProductOwners))
	for k, v := range c.Email.ProductOwners {
		if strings.TrimSpace(v) != "" {
			owners[strings.ToLower(strings.TrimSpace(k))] = v
		}
	}
	return route.Config{
		Owners: route.Owners{
			AE:         c.Routing.AEOwnerID,
			SDR:        c.Routing.SDROwnerID,
			Nurture:    c.Routing.NurtureOwnerID,
			Escalation: c.Routing.EscalationOwnerID,
		},
		Recipients: route.Recipients{
			SalesAgent:    orDefault(c.Email.SalesAgent, c.Email.Notification),
			ProductExpert: orDefault(c.Email.ProductExpert, c.Email.Notification),
			ServicesAgent: orDefault(c.Email.ServicesAgent, c.Email.Notification),
			ProductOwners: owners,
		},
		PortalURL:      c.Email.ITSupportURL,
		EscalationRule: c.Classify.EscalationRule,
	}
}

// Validate reports adapter settings the workflow kind cannot run without.
// Routing owners and recipients are checked by route.Router.Validate.
func (c *Config) Validate(kind model.WorkflowKind) error {
	if kind != model.KindLead && kind != model.KindTicket {
		return eris.Wrapf(ErrInvalid, "unknown workflow kind %q", kind)
	}
	var problems []string
	add := func(cond bool, msg string) {
		if cond {
			problems = append(problems, msg)
		}
	}

	switch strings.ToLower(c.Salesforce.Mode) {
	case ModeMock:
	case ModeReal:
		add(c.Salesforce.ClientID == "", "salesforce.client_id is required in real mode")
		add(c.Salesforce.Password == "" && c.Salesforce.KeyPath == "" && c.Salesforce.ClientSecret == "",
			"salesforce needs a password, key_path or client_secret in real mode")
	default:
		add(true, "salesforce.mode must be mock or real")
	}

	switch strings.ToLower(c.SAP.Mode) {
	case ModeMock:
	case ModeReal:
		add(c.SAP.BaseURL == "", "sap.base_url is required in real mode")
	default:
		add(true, "sap.mode must be mock or real")
	}

	switch strings.ToLower(c.Email.Provider) {
	case ProviderLog:
	case ProviderResend:
		add(c.Email.ResendKey == "", "email.resend_key is required for the resend provider")
	case ProviderSlack:
		add(c.Slack.Token == "", "slack.token is required for the slack provider")
	default:
		add(true, "email.provider must be log, resend or slack")
	}

	if kind == model.KindTicket {
		switch strings.ToLower(strings.TrimSpace(c.Classify.Policy)) {
		case "", "llm", "rules":
		default:
			add(true, "classify.policy must be llm or rules")
		}
	}

	if len(problems) > 0 {
		return eris.Wrapf(ErrInvalid, "%s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
