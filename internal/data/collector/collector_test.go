package collector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cannonQ/pow-tracker-site/internal/data"
	"github.com/cannonQ/pow-tracker-site/internal/data/cache"
	"github.com/cannonQ/pow-tracker-site/internal/models"
	"github.com/cannonQ/pow-tracker-site/internal/observability"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeSource struct {
	mu       sync.Mutex
	names    []string
	listErr  error
	projects map[string]string
	genesis  map[string]string
	vesting  map[string]string
	failing  map[string]error
	calls    []string
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) ListProjects(ctx context.Context) ([]string, error) {
	return f.names, f.listErr
}

func (f *fakeSource) lookup(kind string, files map[string]string, name string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, kind+"/"+name)
	f.mu.Unlock()

	if err, ok := f.failing[kind+"/"+name]; ok {
		return nil, err
	}
	body, ok := files[name]
	if !ok {
		return nil, data.ErrNotFound
	}
	return []byte(body), nil
}

func (f *fakeSource) FetchProject(ctx context.Context, name string) ([]byte, error) {
	return f.lookup("project", f.projects, name)
}

func (f *fakeSource) FetchGenesis(ctx context.Context, name string) ([]byte, error) {
	return f.lookup("genesis", f.genesis, name)
}

func (f *fakeSource) FetchVesting(ctx context.Context, name string) ([]byte, error) {
	return f.lookup("vesting", f.vesting, name)
}

type fakePrices map[string]float64

func (f fakePrices) Name() string { return "fake-prices" }

func (f fakePrices) Price(ctx context.Context, ticker string) (float64, error) {
	p, ok := f[ticker]
	if !ok {
		return 0, errors.New("unknown ticker")
	}
	return p, nil
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		names: []string{"bitcoin", "kaspa", "broken", "flaky"},
		projects: map[string]string{
			"bitcoin": `{"project":"Bitcoin","ticker":"BTC","launch_type":"fair",
				"supply":{"max_supply":21000000,"current_supply":19500000},
				"mining":{"market_data":{"current_price_usd":100000}}}`,
			"kaspa": `{"project":"Kaspa","ticker":"KAS","has_premine":true,
				"supply":{"max_supply":1000,"current_supply":500}}`,
			"broken": `{"project":`,
			"flaky":  `{"project":"Flaky","ticker":"FLK"}`,
		},
		genesis: map[string]string{
			"kaspa": `{"has_premine":true,"total_genesis_allocation_pct":10}`,
		},
		vesting: map[string]string{
			"kaspa": `{"total_genesis_allocation_tokens":100,"monthly_schedule":[{"month":12},{"month":0}]}`,
		},
		failing: map[string]error{
			"genesis/flaky": errors.New("connection reset"),
		},
	}
}

func TestLoader_LoadAll(t *testing.T) {
	source := newFakeSource()
	reg := prometheus.NewRegistry()
	loader := NewLoader(source, nil, discard, observability.NewMetrics("test", reg))

	records, err := loader.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "bitcoin", records[0].Name)
	assert.Nil(t, records[0].Genesis)
	require.NotNil(t, records[0].Project.MarketData)
	assert.Equal(t, 100000.0, *records[0].Project.MarketData.CurrentPriceUSD)

	kaspa := records[1]
	require.NotNil(t, kaspa.Genesis)
	require.NotNil(t, kaspa.Vesting)
	assert.Equal(t, 0, kaspa.Vesting.MonthlySchedule[0].Month)

	assert.Equal(t, "flaky", records[2].Name)
	assert.Nil(t, records[2].Genesis)

	assert.Contains(t, source.calls, "genesis/bitcoin")
	assert.NotContains(t, source.calls, "vesting/bitcoin")
	assert.Contains(t, source.calls, "vesting/kaspa")
}

func TestLoader_ListError(t *testing.T) {
	source := newFakeSource()
	source.listErr = errors.New("rate limited")

	_, err := NewLoader(source, nil, discard, nil).LoadAll(context.Background())
	assert.Error(t, err)
}

func TestLoader_PriceEnrichment(t *testing.T) {
	loader := NewLoader(newFakeSource(), fakePrices{"KAS": 2}, discard, nil)

	rec, err := loader.Load(context.Background(), "kaspa")
	require.NoError(t, err)
	md := rec.Project.MarketData
	require.NotNil(t, md)
	assert.Equal(t, 2.0, *md.CurrentPriceUSD)
	assert.Equal(t, 2000.0, *md.FDMC)
	assert.Equal(t, 1000.0, *md.MarketCap)

	// unknown ticker keeps the curated figures
	rec, err = loader.Load(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, 100000.0, *rec.Project.MarketData.CurrentPriceUSD)
	assert.Nil(t, rec.Project.MarketData.FDMC)
}

type countingLoader struct {
	mu      sync.Mutex
	calls   int
	err     error
	records []models.Record
}

func (c *countingLoader) LoadAll(ctx context.Context) ([]models.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.records, nil
}

func (c *countingLoader) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestCachedLoader(t *testing.T) {
	inner := &countingLoader{records: []models.Record{
		{Name: "bitcoin", Project: &models.Project{Project: "Bitcoin", LaunchDate: models.ParseDate("2009-01-03")}},
	}}
	store := cache.NewMemoryCache()
	cl := NewCachedLoader(inner, store, 0, discard, nil)

	current := time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)
	var clockMu sync.Mutex
	cl.now = func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return current
	}
	ctx := context.Background()

	// miss
	records, err := cl.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, inner.count())

	// young entry: served without touching upstream
	records, err = cl.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Bitcoin", records[0].Project.Project)
	assert.Equal(t, 2009, records[0].Project.LaunchDate.Year())
	cl.Wait()
	assert.Equal(t, 1, inner.count())

	// past half the TTL: one background refresh
	clockMu.Lock()
	current = current.Add(DefaultTTL/2 + time.Second)
	clockMu.Unlock()
	_, err = cl.LoadAll(ctx)
	require.NoError(t, err)
	cl.Wait()
	assert.Equal(t, 2, inner.count())

	// expired
	clockMu.Lock()
	current = current.Add(DefaultTTL + time.Second)
	clockMu.Unlock()
	_, err = cl.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.count())
	_, at, err := store.Get(ctx, CacheKey)
	require.NoError(t, err)
	assert.True(t, current.Equal(at))
}

func TestCachedLoader_RepeatedReadsWithinTTL(t *testing.T) {
	inner := &countingLoader{records: []models.Record{{Name: "kaspa"}}}
	cl := NewCachedLoader(inner, cache.NewMemoryCache(), DefaultTTL, discard, nil)

	start := time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)
	var clockMu sync.Mutex
	current := start
	cl.now = func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return current
	}
	ctx := context.Background()

	// 每次读取间隔 20 秒，覆盖整个 TTL
	for i := 0; i < 14; i++ {
		clockMu.Lock()
		current = start.Add(time.Duration(i) * 20 * time.Second)
		clockMu.Unlock()

		_, err := cl.LoadAll(ctx)
		require.NoError(t, err)
		cl.Wait()
	}
	// initial load plus one refresh after the entry passed half the TTL
	assert.Equal(t, 2, inner.count())
}

func TestCachedLoader_RefreshError(t *testing.T) {
	inner := &countingLoader{err: errors.New("boom")}
	cl := NewCachedLoader(inner, cache.NewMemoryCache(), time.Minute, discard, nil)

	_, err := cl.LoadAll(context.Background())
	assert.Error(t, err)

	_, _, err = cl.cache.Get(context.Background(), CacheKey)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestCachedLoader_CorruptEntry(t *testing.T) {
	inner := &countingLoader{records: []models.Record{{Name: "kaspa"}}}
	store := cache.NewMemoryCache()
	require.NoError(t, store.Set(context.Background(), CacheKey, []byte("not json"), time.Now()))

	cl := NewCachedLoader(inner, store, time.Hour, discard, nil)
	records, err := cl.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, inner.count())
}
