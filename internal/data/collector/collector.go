package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cannonQ/pow-tracker-site/internal/data"
	"github.com/cannonQ/pow-tracker-site/internal/metrics"
	"github.com/cannonQ/pow-tracker-site/internal/models"
	"github.com/cannonQ/pow-tracker-site/internal/observability"
)

type Logger interface {
	Error(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
}

// RecordLoader returns every available project record.
type RecordLoader interface {
	LoadAll(ctx context.Context) ([]models.Record, error)
}

// Loader fetches project, genesis and vesting documents from a source and
// decodes them into normalized records.
type Loader struct {
	source  data.ProjectSource
	prices  data.PriceSource
	logger  Logger
	metrics *observability.Metrics
}

// NewLoader builds a Loader. prices and m may be nil.
func NewLoader(source data.ProjectSource, prices data.PriceSource, logger Logger, m *observability.Metrics) *Loader {
	return &Loader{
		source:  source,
		prices:  prices,
		logger:  logger,
		metrics: m,
	}
}

// LoadAll implements RecordLoader interface. Projects are fetched one after
// another; a project that fails to load is logged and skipped.
func (l *Loader) LoadAll(ctx context.Context) ([]models.Record, error) {
	names, err := l.source.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects from %s: %w", l.source.Name(), err)
	}
	if len(names) == 0 {
		l.logger.Info("no projects found", "source", l.source.Name())
	}

	records := make([]models.Record, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := l.Load(ctx, name)
		if err != nil {
			l.logger.Error("failed to load project", "source", l.source.Name(), "project", name, "error", err)
			continue
		}
		records = append(records, *rec)
	}

	l.logger.Info("loaded projects", "source", l.source.Name(), "count", len(records))
	return records, nil
}

// Load fetches one project. Genesis is probed for every project; vesting only
// when a genesis record exists. Missing or broken genesis and vesting files
// leave the corresponding field nil.
func (l *Loader) Load(ctx context.Context, name string) (*models.Record, error) {
	raw, err := l.fetch(ctx, "project", name, l.source.FetchProject)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}
	project, err := models.DecodeProject(raw)
	if err != nil {
		return nil, err
	}
	rec := &models.Record{Name: name, Project: project}

	if raw, err := l.fetch(ctx, "genesis", name, l.source.FetchGenesis); err == nil {
		rec.Genesis, err = models.DecodeGenesis(raw)
		if err != nil {
			l.logger.Error("failed to decode genesis", "project", name, "error", err)
		}
	} else if !errors.Is(err, data.ErrNotFound) {
		l.logger.Error("failed to fetch genesis", "project", name, "error", err)
	}

	if rec.Genesis != nil {
		if raw, err := l.fetch(ctx, "vesting", name, l.source.FetchVesting); err == nil {
			rec.Vesting, err = models.DecodeVesting(raw)
			if err != nil {
				l.logger.Error("failed to decode vesting schedule", "project", name, "error", err)
			}
		} else if !errors.Is(err, data.ErrNotFound) {
			l.logger.Error("failed to fetch vesting schedule", "project", name, "error", err)
		}
	}

	l.enrich(ctx, rec)
	return rec, nil
}

func (l *Loader) fetch(ctx context.Context, kind, name string, fn func(context.Context, string) ([]byte, error)) ([]byte, error) {
	start := time.Now()
	raw, err := fn(ctx, name)
	if errors.Is(err, data.ErrNotFound) {
		l.metrics.RecordFetch(kind, time.Since(start).Seconds(), nil)
		return nil, err
	}
	l.metrics.RecordFetch(kind, time.Since(start).Seconds(), err)
	return raw, err
}

// enrich overrides the curated price with a live quote and recomputes the
// market caps from it.
func (l *Loader) enrich(ctx context.Context, rec *models.Record) {
	p := rec.Project
	if l.prices == nil || p.Ticker == "" {
		return
	}
	price, err := l.prices.Price(ctx, p.Ticker)
	if err != nil {
		l.logger.Info("live price unavailable", "source", l.prices.Name(), "ticker", p.Ticker, "error", err)
		return
	}
	if price <= 0 {
		return
	}

	if p.MarketData == nil {
		p.MarketData = &models.MarketData{}
	}
	p.MarketData.CurrentPriceUSD = models.Float(price)
	if maxSupply := metrics.MaxSupply(p); maxSupply != nil {
		p.MarketData.FDMC = models.Float(*maxSupply * price)
	}
	if p.Supply != nil && p.Supply.CurrentSupply != nil {
		p.MarketData.MarketCap = models.Float(*p.Supply.CurrentSupply * price)
	}
}
