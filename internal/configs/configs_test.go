package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cannonQ/pow-tracker-site/internal/risk"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "cannonQ", cfg.GitHub.User)
	assert.Equal(t, "pow-tokenomics-tracker/pow-tokenomics-tracker", cfg.GitHub.Repo)
	assert.Equal(t, "main", cfg.GitHub.Branch)
	assert.Equal(t, "data/projects", cfg.GitHub.ProjectsPath)
	assert.Equal(t, "allocations", cfg.GitHub.AllocationsPath)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())
	assert.Equal(t, time.Hour, cfg.MonitorInterval())
	assert.Equal(t, 2, *cfg.Display.DecimalPlaces)
	assert.True(t, *cfg.Display.CompactNumbers)
	assert.Equal(t, risk.DefaultParameters, cfg.RiskParams)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
github:
  user: someone
  branch: dev
cache:
  driver: sqlite
  ttl: 10m
risk_params:
  max_premine_pct: 20
display:
  decimal_places: 0
  compact_numbers: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "someone", cfg.GitHub.User)
	assert.Equal(t, "dev", cfg.GitHub.Branch)
	assert.Equal(t, "sqlite", cfg.Cache.Driver)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL())
	assert.Equal(t, 20.0, cfg.RiskParams.MaxPreminePct)
	// unset risk fields keep their defaults
	assert.Equal(t, risk.DefaultParameters.MaxInsiderPct, cfg.RiskParams.MaxInsiderPct)
	assert.False(t, *cfg.Display.CompactNumbers)
	// 显式的 0 不会被默认值覆盖
	require.NotNil(t, cfg.Display.DecimalPlaces)
	assert.Equal(t, 0, *cfg.Display.DecimalPlaces)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"ai_config": {"provider": "deepseek", "model_type": "deepseek-chat"},
		"exchange_config": {"enabled": true, "quote": "USDC"},
		"risk_parameters": {"unlock_window_days": 30}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "deepseek", cfg.AIConfig.Provider)
	assert.True(t, cfg.ExchangeConfig.Enabled)
	assert.Equal(t, "USDC", cfg.ExchangeConfig.Quote)
	assert.Equal(t, 30, cfg.RiskParams.UnlockWindowDays)
}

func TestLoad_ParseError(t *testing.T) {
	_, err := Load(writeFile(t, "config.json", "{"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "gh-token")
	t.Setenv("DATABASE_URL", "postgres://localhost/pow")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("BINANCE_API_KEY", "bn-key")
	t.Setenv("BINANCE_SECRET_KEY", "bn-secret")
	t.Setenv("HTTPS_PROXY", "http://proxy:3128")
	t.Setenv("SQLITE_PATH", "/tmp/cache.db")

	path := writeFile(t, "config.yaml", "github:\n  token: from-file\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gh-token", cfg.GitHub.Token)
	assert.Equal(t, "postgres://localhost/pow", cfg.Database.ConnStr)
	assert.Equal(t, "sk-test", cfg.AIConfig.APIKey)
	assert.Equal(t, "bn-key", cfg.ExchangeConfig.APIKey)
	assert.Equal(t, "bn-secret", cfg.ExchangeConfig.SecretKey)
	assert.Equal(t, "http://proxy:3128", cfg.Proxy)
	assert.Equal(t, "/tmp/cache.db", cfg.Cache.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"unknown cache driver", func(c *Config) { c.Cache.Driver = "redis" }},
		{"bad ttl", func(c *Config) { c.Cache.TTL = "soon" }},
		{"zero ttl", func(c *Config) { c.Cache.TTL = "0s" }},
		{"bad refresh interval", func(c *Config) { c.RefreshInterval = "hourly" }},
		{"empty projects path", func(c *Config) { c.GitHub.ProjectsPath = "" }},
		{"empty sqlite path", func(c *Config) { c.Cache.Driver = "sqlite"; c.Cache.Path = "" }},
		{"unknown provider", func(c *Config) { c.AIConfig.Provider = "claude" }},
		{"negative decimals", func(c *Config) { n := -1; c.Display.DecimalPlaces = &n }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
