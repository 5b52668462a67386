package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cannonQ/pow-tracker-site/internal/dashboard"
	"github.com/cannonQ/pow-tracker-site/internal/data"
	"github.com/cannonQ/pow-tracker-site/internal/models"
	"github.com/cannonQ/pow-tracker-site/internal/observability"
)

// DefaultSpec refreshes every five minutes, matching the cache TTL.
const DefaultSpec = "0 */5 * * * *"

type Logger interface {
	Error(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
}

// Refresher reloads the project list, bypassing any cached copy.
type Refresher interface {
	Refresh(ctx context.Context) ([]models.Record, error)
}

// Scheduler periodically refreshes the project list and stores one metrics
// snapshot per project.
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	builder   *dashboard.Builder
	storage   data.SnapshotStorage
	metrics   *observability.Metrics
	logger    Logger
	ctx       context.Context
	timeout   time.Duration
	now       func() time.Time

	mu          sync.RWMutex
	records     []models.Record
	lastRefresh time.Time
}

// NewScheduler creates a new Scheduler. storage and m may be nil.
func NewScheduler(ctx context.Context, r Refresher, b *dashboard.Builder, storage data.SnapshotStorage, m *observability.Metrics, logger Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		refresher: r,
		builder:   b,
		storage:   storage,
		metrics:   m,
		logger:    logger,
		ctx:       ctx,
		timeout:   2 * time.Minute,
		now:       time.Now,
	}
}

// Register adds the refresh task. spec uses the six-field cron syntax.
func (s *Scheduler) Register(spec string) error {
	if spec == "" {
		spec = DefaultSpec
	}
	if _, err := s.cron.AddFunc(spec, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunNow executes one refresh immediately.
func (s *Scheduler) RunNow() error {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	return s.refresh(ctx)
}

// Records returns the project list of the last successful refresh.
func (s *Scheduler) Records(ctx context.Context) []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records
}

// LastRefresh returns when the last successful refresh finished.
func (s *Scheduler) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}

func (s *Scheduler) refreshTask() {
	if err := s.RunNow(); err != nil {
		s.logger.Error("scheduled refresh failed", "error", err)
	}
}

func (s *Scheduler) refresh(ctx context.Context) error {
	records, err := s.refresher.Refresh(ctx)
	if err != nil {
		return err
	}
	now := s.now()

	s.mu.Lock()
	s.records = records
	s.lastRefresh = now
	s.mu.Unlock()

	if s.storage == nil {
		s.logger.Info("projects refreshed", "count", len(records))
		return nil
	}

	views := s.builder.BuildAll(ctx, records, now)
	snapshots := make([]models.MetricsSnapshot, 0, len(views))
	for _, v := range views {
		snapshots = append(snapshots, dashboard.Snapshot(v))
	}
	if err := s.storage.SaveSnapshots(ctx, snapshots); err != nil {
		return fmt.Errorf("failed to save snapshots: %w", err)
	}
	s.metrics.RecordSnapshots(len(snapshots))

	s.logger.Info("projects refreshed", "count", len(records), "snapshots", len(snapshots))
	return nil
}
