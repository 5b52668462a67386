package data

import (
	"context"
	"errors"
	"time"

	"github.com/cannonQ/pow-tracker-site/internal/models"
)

// ErrNotFound is returned when a project, genesis or vesting file does not exist.
var ErrNotFound = errors.New("not found")

// ProjectSource 负责读取项目原始记录
type ProjectSource interface {
	Name() string

	// ListProjects returns the project names, without the .json suffix
	ListProjects(ctx context.Context) ([]string, error)

	// FetchProject returns the raw project document
	FetchProject(ctx context.Context, name string) ([]byte, error)

	// FetchGenesis returns the raw genesis allocation document
	FetchGenesis(ctx context.Context, name string) ([]byte, error)

	// FetchVesting returns the raw vesting schedule document
	FetchVesting(ctx context.Context, name string) ([]byte, error)
}

// PriceSource returns live spot prices for market data enrichment
type PriceSource interface {
	Name() string
	Price(ctx context.Context, ticker string) (float64, error)
}

// Cache 处理项目数据的缓存
type Cache interface {
	// Get returns the cached value and the time it was stored
	Get(ctx context.Context, key string) ([]byte, time.Time, error)

	Set(ctx context.Context, key string, value []byte, at time.Time) error

	Delete(ctx context.Context, key string) error
}

// SnapshotStorage 处理指标快照的持久化
type SnapshotStorage interface {
	SaveSnapshots(ctx context.Context, snapshots []models.MetricsSnapshot) error

	// GetHistory returns the snapshots of a project between start and end, oldest first
	GetHistory(ctx context.Context, name string, start, end time.Time) ([]models.MetricsSnapshot, error)
}
