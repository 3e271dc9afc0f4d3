package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "finance", cfg.BigQuery.Dataset)
	assert.Equal(t, "USD", cfg.Currency.Default)
	assert.Equal(t, 10.0, cfg.Insights.OverallTrendThreshold)
	assert.Equal(t, []string{"deposit", "payroll"}, cfg.Insights.IncomeKeywords)
	assert.Equal(t, 5, cfg.Insights.MaxRecommendations)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlContent := `
server:
  port: 9000
  write_timeout: 45s
bigquery:
  project: demo-project
insights:
  unusual_multiplier: 4
  income_keywords: [salary]
currency:
  default: EUR
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o600))

	t.Setenv("FINSIGHT_SERVER_PORT", "9100")
	t.Setenv("FINSIGHT_SERVER_CORS_ORIGINS", "https://app.example.com, https://admin.example.com")
	t.Setenv("FINSIGHT_INSIGHTS_MAX_ANOMALIES", "20")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "env overrides yaml")
	assert.Equal(t, 45*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout, "defaults survive partial yaml")
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "demo-project", cfg.BigQuery.Project)
	assert.Equal(t, 4.0, cfg.Insights.UnusualMultiplier)
	assert.Equal(t, []string{"salary"}, cfg.Insights.IncomeKeywords)
	assert.Equal(t, 20, cfg.Insights.MaxAnomalies)
	assert.Equal(t, "EUR", cfg.Currency.Default)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("FINSIGHT_LOG_FORMAT", "xml")
	_, err := Load("")
	assert.ErrorContains(t, err, "log.format")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"no workers", func(c *Config) { c.Jobs.Workers = 0 }, true},
		{"inverted interval", func(c *Config) { c.Insights.RecurringMinIntervalDays = 40 }, true},
		{"high below trend", func(c *Config) { c.Insights.OverallHighThreshold = 5 }, true},
		{"zero multiplier", func(c *Config) { c.Insights.UnusualMultiplier = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	key, value := envKey("FINSIGHT_POSTGRES_URL", "postgres://x")
	assert.Equal(t, "postgres.url", key)
	assert.Equal(t, "postgres://x", value)

	key, value = envKey("FINSIGHT_INSIGHTS_TRANSFER_KEYWORDS", "transfer, zelle,")
	assert.Equal(t, "insights.transfer_keywords", key)
	assert.Equal(t, []string{"transfer", "zelle"}, value)
}
