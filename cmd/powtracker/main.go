package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/cannonQ/pow-tracker-site/internal/ai"
	aiOpenAI "github.com/cannonQ/pow-tracker-site/internal/ai/openai"
	"github.com/cannonQ/pow-tracker-site/internal/configs"
	"github.com/cannonQ/pow-tracker-site/internal/dashboard"
	"github.com/cannonQ/pow-tracker-site/internal/data"
	"github.com/cannonQ/pow-tracker-site/internal/data/cache"
	collectorData "github.com/cannonQ/pow-tracker-site/internal/data/collector"
	"github.com/cannonQ/pow-tracker-site/internal/data/collector/binance"
	"github.com/cannonQ/pow-tracker-site/internal/data/collector/github"
	"github.com/cannonQ/pow-tracker-site/internal/data/storage"
	"github.com/cannonQ/pow-tracker-site/internal/observability"
	"github.com/cannonQ/pow-tracker-site/internal/risk"
	"github.com/cannonQ/pow-tracker-site/internal/scheduler"
	"github.com/cannonQ/pow-tracker-site/internal/server"
	"github.com/cannonQ/pow-tracker-site/internal/utils/format"
)

type Tracker struct {
	config      *configs.Config
	loader      *collectorData.CachedLoader
	builder     *dashboard.Builder
	storage     data.SnapshotStorage
	summarizer  ai.Summarizer
	riskManager risk.RiskManager
	registry    *prometheus.Registry
	metrics     *observability.Metrics
	formatter   format.Formatter
}

// Dump 输出项目列表
func (t *Tracker) Dump(ctx context.Context, w io.Writer, q dashboard.Query, asJSON bool) error {
	records, err := t.loader.LoadAll(ctx)
	if err != nil {
		return err
	}
	views := t.builder.BuildAll(ctx, records, time.Now())
	selected := dashboard.SelectAndOrder(views, q)

	if asJSON {
		return writeJSON(w, map[string]interface{}{
			"stats":    dashboard.ComputeStats(views),
			"projects": selected,
		})
	}

	stats := dashboard.ComputeStats(views)
	fmt.Fprintf(w, "%d projects: %d fair, %d premined, %d emission, %d suspicious\n\n",
		stats.Total, stats.Fair, stats.Premined, stats.Emission, stats.Suspicious)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROJECT\tTICKER\tLAUNCH\tPREMINE\tMINED\tFDMC\tPARITY\tLAUNCHED")
	for _, v := range selected {
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\t%s\t%s\t%s\t%s\n",
			v.Project.Project,
			v.Project.Ticker,
			v.Badge.Icon, v.Badge.Label,
			format.Percent(&v.PreminePct),
			format.Percent(v.MinedPct),
			t.formatter.Currency(v.FDMC),
			v.Parity.State,
			v.LaunchAge,
		)
	}
	return tw.Flush()
}

// Project 输出单个项目
func (t *Tracker) Project(ctx context.Context, w io.Writer, name string) error {
	view, err := t.view(ctx, name)
	if err != nil {
		return err
	}
	return writeJSON(w, view)
}

// Summarize 生成 AI 摘要
func (t *Tracker) Summarize(ctx context.Context, w io.Writer, name string) error {
	if t.summarizer == nil {
		return errors.New("ai_config.api_key is not set")
	}
	view, err := t.view(ctx, name)
	if err != nil {
		return err
	}
	summary, err := t.summarizer.SummarizeProject(ctx, view)
	if err != nil {
		return err
	}
	return writeJSON(w, summary)
}

func (t *Tracker) view(ctx context.Context, name string) (*dashboard.ProjectView, error) {
	if name == "" {
		return nil, errors.New("-project is required")
	}
	records, err := t.loader.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	view, ok := t.builder.BuildOne(ctx, records, name, time.Now())
	if !ok {
		return nil, fmt.Errorf("project %q: %w", name, data.ErrNotFound)
	}
	return &view, nil
}

// Serve 运行 API 服务、定时刷新与解锁监控
func (t *Tracker) Serve(ctx context.Context) error {
	sched := scheduler.NewScheduler(ctx, t.loader, t.builder, t.storage, t.metrics, log)
	if err := sched.Register(t.config.Schedule.RefreshCron); err != nil {
		return err
	}
	if err := sched.RunNow(); err != nil {
		log.Error("initial refresh failed", "err", err)
	}
	sched.Start()
	defer sched.Stop()

	// 监控大额解锁
	alertCh, err := t.riskManager.MonitorUnlocks(ctx, sched.Records)
	if err != nil {
		return err
	}

	srv := server.NewServer(t.config.Server.Addr, t.loader, t.builder, log, server.Options{
		Storage:    t.storage,
		Summarizer: t.summarizer,
		Gatherer:   t.registry,
		Metrics:    t.metrics,
	})
	if err := srv.Start(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			t.loader.Wait()
			return srv.Shutdown(shutdownCtx)

		case alert, ok := <-alertCh:
			if !ok {
				alertCh = nil
				continue
			}
			t.handleRiskAlert(alert)
		}
	}
}

// handleRiskAlert 处理风险预警
func (t *Tracker) handleRiskAlert(alert risk.RiskAlert) {
	fields := []interface{}{
		"project", alert.Project,
		"type", alert.AlertType,
		"severity", alert.Severity,
		"unlock_date", alert.UnlockDate.Format("2006-01-02"),
		"description", alert.Description,
	}
	switch alert.Severity {
	case "HIGH":
		log.Error("risk alert", fields...)
	default:
		log.Info("risk alert", fields...)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var (
	flagconf    string
	flagmode    string
	flagproject string
	flagfilter  string
	flagsort    string
	flagsearch  string
	flagjson    bool

	log = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelInfo,
	}))
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
	flag.StringVar(&flagmode, "mode", "dump", "dump | project | summarize | serve")
	flag.StringVar(&flagproject, "project", "", "project name for -mode project and summarize, eg: -project kaspa")
	flag.StringVar(&flagfilter, "filter", "all", "all | fair | premine | emission | suspicious")
	flag.StringVar(&flagsort, "sort", "name", "name | fdmc | launch | premine | mined")
	flag.StringVar(&flagsearch, "search", "", "match project name or ticker")
	flag.BoolVar(&flagjson, "json", false, "print the project list as JSON")
}

func main() {
	flag.Parse()

	// 加载配置
	config, err := configs.Load(flagconf)
	if err != nil {
		log.Error("Error loading config file", "err", err)
		os.Exit(1)
	}
	if err := config.Validate(); err != nil {
		log.Error("Invalid config", "err", err)
		os.Exit(1)
	}

	if config.Proxy != "" {
		_ = os.Setenv("HTTP_PROXY", config.Proxy)
		_ = os.Setenv("HTTPS_PROXY", config.Proxy)
		log.Info("set proxy ok", "proxy", config.Proxy)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker, cleanup, err := newTracker(config)
	if err != nil {
		log.Error("Error creating tracker", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	switch flagmode {
	case "dump":
		err = tracker.Dump(ctx, os.Stdout, dashboard.ParseQuery(flagfilter, flagsort, flagsearch), flagjson)
	case "project":
		err = tracker.Project(ctx, os.Stdout, flagproject)
	case "summarize":
		err = tracker.Summarize(ctx, os.Stdout, flagproject)
	case "serve":
		err = tracker.Serve(ctx)
	default:
		err = fmt.Errorf("unknown mode %q", flagmode)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("System error", "mode", flagmode, "err", err)
		cleanup()
		os.Exit(1)
	}
}

// newTracker 初始化各个组件
func newTracker(config *configs.Config) (*Tracker, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		closers = nil
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(config.Server.MetricsNamespace, registry)

	source := github.NewGitHubSource(github.Options{
		APIURL:          config.GitHub.APIURL,
		User:            config.GitHub.User,
		Repo:            config.GitHub.Repo,
		Branch:          config.GitHub.Branch,
		ProjectsPath:    config.GitHub.ProjectsPath,
		AllocationsPath: config.GitHub.AllocationsPath,
		Token:           config.GitHub.Token,
	})

	var prices data.PriceSource
	if config.ExchangeConfig.Enabled {
		b := binance.NewBinanceDataSource(config.ExchangeConfig.APIKey, config.ExchangeConfig.SecretKey, config.ExchangeConfig.Quote)
		b.SetDebug(config.ExchangeConfig.Debug)
		prices = b
		log.Info("init price source", "source", b.Name())
	}

	var store data.Cache = cache.NewMemoryCache()
	if config.Cache.Driver == "sqlite" {
		sqliteCache, err := cache.NewSQLiteCache(config.Cache.Path)
		if err != nil {
			return nil, func() {}, fmt.Errorf("failed to open cache: %w", err)
		}
		closers = append(closers, sqliteCache.Close)
		store = sqliteCache
	}
	log.Info("init cache", "driver", config.Cache.Driver)

	loader := collectorData.NewCachedLoader(
		collectorData.NewLoader(source, prices, log, metrics),
		store, config.CacheTTL(), log, metrics,
	)

	var snapshots data.SnapshotStorage
	if config.Database.ConnStr != "" {
		pg, err := storage.NewPostgresStorage(config.Database.ConnStr)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("failed to create storage: %w", err)
		}
		closers = append(closers, pg.Close)
		snapshots = pg
		log.Info("init storage")
	}

	var summarizer ai.Summarizer
	if config.AIConfig.APIKey != "" {
		opts := aiOpenAI.Options{
			APIKey:  config.AIConfig.APIKey,
			BaseURL: config.AIConfig.BaseURL,
			Model:   config.AIConfig.ModelType,
		}
		if config.AIConfig.Provider == "deepseek" {
			if opts.BaseURL == "" {
				opts.BaseURL = aiOpenAI.DeepSeekBaseURL
			}
			if opts.Model == "" {
				opts.Model = aiOpenAI.DeepSeekModel
			}
		}
		summarizer = aiOpenAI.NewOpenAISummarizer(opts)
		log.Info("init summarizer", "provider", config.AIConfig.Provider)
	}

	riskManager := risk.NewBasicRiskManager(risk.DefaultParameters).WithInterval(config.MonitorInterval())
	if err := riskManager.SetRiskParameters(context.Background(), &config.RiskParams); err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("invalid risk parameters: %w", err)
	}

	return &Tracker{
		config:      config,
		loader:      loader,
		builder:     dashboard.NewBuilder(riskManager, log),
		storage:     snapshots,
		summarizer:  summarizer,
		riskManager: riskManager,
		registry:    registry,
		metrics:     metrics,
		formatter: format.Formatter{
			Decimals: *config.Display.DecimalPlaces,
			Compact:  *config.Display.CompactNumbers,
		},
	}, cleanup, nil
}
