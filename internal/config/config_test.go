package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/workflow-cli/internal/model"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ModeMock, cfg.Salesforce.Mode)
	assert.Equal(t, ModeMock, cfg.SAP.Mode)
	assert.Equal(t, "https://login.salesforce.com", cfg.Salesforce.LoginURL)
	assert.InDelta(t, 5.0, cfg.Salesforce.RateLimit, 0.001)
	assert.Equal(t, 3, cfg.Salesforce.Retry.MaxAttempts)
	assert.Equal(t, "100", cfg.SAP.Client)
	assert.Equal(t, 5, cfg.SAP.Retry.FailureThreshold)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, int64(1024), cfg.Anthropic.MaxTokens)
	assert.Equal(t, 3, cfg.Anthropic.Retry.FailureThreshold)
	assert.Equal(t, ProviderLog, cfg.Email.Provider)
	assert.Equal(t, "https://support.belden.com/it", cfg.Email.ITSupportURL)
	assert.Equal(t, "llm", cfg.Classify.Policy)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "workflow_runs.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrent)
	assert.Equal(t, "@every 5m", cfg.Schedule.LeadCron)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
salesforce:
  mode: real
  client_id: abc
  password: secret
sap:
  timeout_secs: 10
email:
  provider: slack
  sales_agent: sales@example.com
  product_owners:
    Switches: switches@example.com
slack:
  token: xoxb-test
  channels:
    sales@example.com: C123
routing:
  ae_owner_id: 005AE
classify:
  policy: rules
  escalation_rule: urgency == "critical" || sentiment == "angry"
store:
  driver: none
batch:
  max_concurrent: 10
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ModeReal, cfg.Salesforce.Mode)
	assert.Equal(t, "abc", cfg.Salesforce.ClientID)
	assert.Equal(t, 10, cfg.SAP.TimeoutSecs)
	assert.Equal(t, "10s", cfg.SAP.Timeout().String())
	assert.Equal(t, ProviderSlack, cfg.Email.Provider)
	assert.Equal(t, "switches@example.com", cfg.Email.ProductOwners["switches"])
	assert.Equal(t, "C123", cfg.Slack.Channels["sales@example.com"])
	assert.Equal(t, "005AE", cfg.Routing.AEOwnerID)
	assert.Equal(t, "rules", cfg.Classify.Policy)
	assert.Contains(t, cfg.Classify.EscalationRule, "sentiment")
	assert.Equal(t, "none", cfg.Store.Driver)
	assert.Equal(t, 10, cfg.Batch.MaxConcurrent)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values.
	assert.Equal(t, ModeMock, cfg.SAP.Mode)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("WORKFLOW_STORE_DRIVER", "postgres")
	t.Setenv("WORKFLOW_LOG_LEVEL", "warn")
	t.Setenv("WORKFLOW_ROUTING_SDR_OWNER_ID", "005SDR")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "005SDR", cfg.Routing.SDROwnerID)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0o644))

	_, err := Load()
	assert.ErrorContains(t, err, "config: read file")
}

func TestRoute_RecipientFallbacks(t *testing.T) {
	cfg := &Config{
		Email: EmailConfig{
			Notification:  "ops@example.com",
			ProductExpert: "experts@example.com",
			ProductOwners: map[string]string{" Cables ": "cables@example.com", "switches": ""},
			ITSupportURL:  "https://it.example.com",
		},
		Routing:  RoutingConfig{AEOwnerID: "005AE", EscalationOwnerID: "005ESC"},
		Classify: ClassifyConfig{EscalationRule: `urgency == "high"`},
	}

	rc := cfg.Route()

	assert.Equal(t, "ops@example.com", rc.Recipients.SalesAgent)
	assert.Equal(t, "experts@example.com", rc.Recipients.ProductExpert)
	assert.Equal(t, "ops@example.com", rc.Recipients.ServicesAgent)
	assert.Equal(t, map[string]string{"cables": "cables@example.com"}, rc.Recipients.ProductOwners)
	assert.Equal(t, "005AE", rc.Owners.AE)
	assert.Equal(t, "005ESC", rc.Owners.Escalation)
	assert.Equal(t, "https://it.example.com", rc.PortalURL)
	assert.Equal(t, `urgency == "high"`, rc.EscalationRule)
}

func validConfig() *Config {
	return &Config{
		Salesforce: SalesforceConfig{Mode: ModeMock},
		SAP:        SAPConfig{Mode: ModeMock},
		Email:      EmailConfig{Provider: ProviderLog},
		Classify:   ClassifyConfig{Policy: "llm"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		kind    model.WorkflowKind
		wantErr string
	}{
		{"mock defaults lead", func(*Config) {}, model.KindLead, ""},
		{"mock defaults ticket", func(*Config) {}, model.KindTicket, ""},
		{"unknown kind", func(*Config) {}, model.WorkflowKind("invoice"), "unknown workflow kind"},
		{"salesforce real without creds", func(c *Config) { c.Salesforce.Mode = ModeReal }, model.KindLead, "salesforce.client_id is required"},
		{"salesforce real with jwt", func(c *Config) {
			c.Salesforce = SalesforceConfig{Mode: ModeReal, ClientID: "id", Username: "u", KeyPath: "key.pem"}
		}, model.KindLead, ""},
		{"bad salesforce mode", func(c *Config) { c.Salesforce.Mode = "live" }, model.KindLead, "salesforce.mode must be mock or real"},
		{"sap real without url", func(c *Config) { c.SAP.Mode = ModeReal }, model.KindTicket, "sap.base_url is required"},
		{"resend without key", func(c *Config) { c.Email.Provider = ProviderResend }, model.KindLead, "email.resend_key is required"},
		{"slack without token", func(c *Config) { c.Email.Provider = ProviderSlack }, model.KindTicket, "slack.token is required"},
		{"unknown provider", func(c *Config) { c.Email.Provider = "smtp" }, model.KindLead, "email.provider must be"},
		{"bad policy ticket", func(c *Config) { c.Classify.Policy = "coin" }, model.KindTicket, "classify.policy must be"},
		{"bad policy ignored for lead", func(c *Config) { c.Classify.Policy = "coin" }, model.KindLead, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate(tt.kind)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.SAP.Mode = ModeReal
	cfg.Email.Provider = ProviderResend

	err := cfg.Validate(model.KindLead)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sap.base_url")
	assert.Contains(t, err.Error(), "email.resend_key")
}

func TestRetryConfig_Policy(t *testing.T) {
	p := RetryConfig{MaxAttempts: 4, InitialBackoffMs: 10, FailureThreshold: 2}.Policy("sap")
	assert.Equal(t, "sap", p.Service)
	assert.Equal(t, 4, p.Retry.MaxAttempts)
	assert.NotNil(t, p.Breaker)

	p = RetryConfig{}.Policy("resend")
	assert.Nil(t, p.Breaker)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "loud", Format: "json"})
	assert.ErrorContains(t, err, "parse log level")
}
