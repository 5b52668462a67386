package observability

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.RecordFetch("project", 0.2, nil)
	m.RecordFetch("project", 0.1, errors.New("boom"))
	m.RecordCache("hit")
	m.RecordRefresh(12, time.Second, nil)
	m.RecordRefresh(0, time.Second, errors.New("boom"))
	m.RecordSnapshots(3)
	m.RecordHTTP("/api/stats", http.StatusOK)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("project", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("project", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues("hit")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.ProjectsLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshesTotal.WithLabelValues("error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SnapshotsStored))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/stats", "200")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordFetch("project", 1, nil)
		m.RecordCache("miss")
		m.RecordRefresh(1, time.Second, nil)
		m.RecordSnapshots(1)
		m.RecordHTTP("/", 200)
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("", reg)
	m.RecordSnapshots(2)

	server := httptest.NewServer(Handler(reg))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "pow_tracker_storage_snapshots_stored_total 2")
}
