package configs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cannonQ/pow-tracker-site/internal/risk"
)

type Config struct {
	// 基础配置
	RefreshInterval string `json:"refresh_interval" yaml:"refresh_interval"` // 解锁监控间隔
	Proxy           string `json:"proxy" yaml:"proxy"`

	// 数据仓库
	GitHub GitHubConfig `json:"github" yaml:"github"`

	Cache CacheConfig `json:"cache" yaml:"cache"`

	Database Database `json:"database" yaml:"database"`

	// 风险控制参数
	RiskParams risk.RiskParameters `json:"risk_parameters" yaml:"risk_params"`

	// AI 模型参数
	AIConfig AIConfig `json:"ai_config" yaml:"ai_config"`

	// 交易所配置
	ExchangeConfig ExchangeConfig `json:"exchange_config" yaml:"exchange_config"`

	Schedule Schedule      `json:"schedule" yaml:"schedule"`
	Server   ServerConfig  `json:"server" yaml:"server"`
	Display  DisplayConfig `json:"display" yaml:"display"`
}

type GitHubConfig struct {
	APIURL          string `json:"api_url" yaml:"api_url"`
	User            string `json:"user" yaml:"user"`
	Repo            string `json:"repo" yaml:"repo"`
	Branch          string `json:"branch" yaml:"branch"`
	ProjectsPath    string `json:"projects_path" yaml:"projects_path"`
	AllocationsPath string `json:"allocations_path" yaml:"allocations_path"`
	Token           string `json:"token" yaml:"token"` // 可选，提高 API 限额
}

type CacheConfig struct {
	Driver string `json:"driver" yaml:"driver"` // memory / sqlite
	Path   string `json:"path" yaml:"path"`     // sqlite 文件路径
	TTL    string `json:"ttl" yaml:"ttl"`
}

type Database struct {
	ConnStr string `json:"conn_str" yaml:"conn_str"` // 数据库连接字符串，为空则不保存历史
}

type AIConfig struct {
	Provider  string `json:"provider" yaml:"provider"` // openai / deepseek
	APIKey    string `json:"api_key" yaml:"api_key"`   // AI服务API密钥
	BaseURL   string `json:"base_url" yaml:"base_url"`
	ModelType string `json:"model_type" yaml:"model_type"` // AI模型类型
}

type ExchangeConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"` // 是否用实时价格覆盖 market_data
	Debug     bool   `json:"debug" yaml:"debug"`
	APIKey    string `json:"api_key" yaml:"api_key"`       // 交易所API密钥
	SecretKey string `json:"secret_key" yaml:"secret_key"` // 交易所密钥
	Quote     string `json:"quote" yaml:"quote"`           // 计价币种
}

type Schedule struct {
	RefreshCron string `json:"refresh_cron" yaml:"refresh_cron"` // 六段式 cron
}

type ServerConfig struct {
	Addr             string `json:"addr" yaml:"addr"`
	MetricsNamespace string `json:"metrics_namespace" yaml:"metrics_namespace"`
}

type DisplayConfig struct {
	DecimalPlaces  *int  `json:"decimal_places" yaml:"decimal_places"` // 0 表示取整
	CompactNumbers *bool `json:"compact_numbers" yaml:"compact_numbers"`
}

// Load reads config from a YAML (.yaml, .yml) or JSON file, then applies
// environment variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{RiskParams: risk.DefaultParameters}

	raw, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(raw) > 0 {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(raw, cfg)
		default:
			err = json.Unmarshal(raw, cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.ConnStr = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.AIConfig.APIKey = v
	}
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		c.ExchangeConfig.APIKey = v
	}
	if v := os.Getenv("BINANCE_SECRET_KEY"); v != "" {
		c.ExchangeConfig.SecretKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Cache.Path = v
	}
}

func (c *Config) applyDefaults() {
	if c.RefreshInterval == "" {
		c.RefreshInterval = "1h"
	}

	g := &c.GitHub
	if g.User == "" {
		g.User = "cannonQ"
	}
	if g.Repo == "" {
		g.Repo = "pow-tokenomics-tracker/pow-tokenomics-tracker"
	}
	if g.Branch == "" {
		g.Branch = "main"
	}
	if g.ProjectsPath == "" {
		g.ProjectsPath = "data/projects"
	}
	if g.AllocationsPath == "" {
		g.AllocationsPath = "allocations"
	}

	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.Path == "" {
		c.Cache.Path = "data/pow_tracker.db"
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = "5m"
	}

	if c.AIConfig.Provider == "" {
		c.AIConfig.Provider = "openai"
	}
	if c.ExchangeConfig.Quote == "" {
		c.ExchangeConfig.Quote = "USDT"
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "0 */5 * * * *"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.MetricsNamespace == "" {
		c.Server.MetricsNamespace = "pow_tracker"
	}
	if c.Display.DecimalPlaces == nil {
		decimals := 2
		c.Display.DecimalPlaces = &decimals
	}
	if c.Display.CompactNumbers == nil {
		compact := true
		c.Display.CompactNumbers = &compact
	}
}

// Validate checks that all fields are usable.
func (c *Config) Validate() error {
	if c.GitHub.User == "" || c.GitHub.Repo == "" {
		return fmt.Errorf("github.user and github.repo are required")
	}
	if c.GitHub.ProjectsPath == "" || c.GitHub.AllocationsPath == "" {
		return fmt.Errorf("github.projects_path and github.allocations_path are required")
	}
	switch c.Cache.Driver {
	case "memory":
	case "sqlite":
		if c.Cache.Path == "" {
			return fmt.Errorf("cache.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown cache.driver %q", c.Cache.Driver)
	}
	if _, err := parsePositive("cache.ttl", c.Cache.TTL); err != nil {
		return err
	}
	if _, err := parsePositive("refresh_interval", c.RefreshInterval); err != nil {
		return err
	}
	switch c.AIConfig.Provider {
	case "openai", "deepseek":
	default:
		return fmt.Errorf("unknown ai_config.provider %q", c.AIConfig.Provider)
	}
	if c.Display.DecimalPlaces != nil && *c.Display.DecimalPlaces < 0 {
		return fmt.Errorf("display.decimal_places must not be negative")
	}
	return nil
}

// CacheTTL returns the parsed cache TTL. Call Validate first.
func (c *Config) CacheTTL() time.Duration {
	d, _ := time.ParseDuration(c.Cache.TTL)
	return d
}

// MonitorInterval returns the parsed refresh interval. Call Validate first.
func (c *Config) MonitorInterval() time.Duration {
	d, _ := time.ParseDuration(c.RefreshInterval)
	return d
}

func parsePositive(field, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", field)
	}
	return d, nil
}
