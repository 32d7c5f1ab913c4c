package metrics_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/UnknownOlympus/geocsv/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	appMetrics := metrics.NewMetrics(reg)

	appMetrics.RowsProcessed.WithLabelValues(metrics.StatusFound).Inc()
	appMetrics.RowsProcessed.WithLabelValues(metrics.StatusFound).Inc()
	appMetrics.RowsProcessed.WithLabelValues(metrics.StatusNotFound).Inc()
	appMetrics.ProviderErrors.Inc()
	appMetrics.RequestSeconds.WithLabelValues("locationiq").Observe(0.2)

	assert.InDelta(t, 2, testutil.ToFloat64(appMetrics.RowsProcessed.WithLabelValues(metrics.StatusFound)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(appMetrics.RowsProcessed.WithLabelValues(metrics.StatusNotFound)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(appMetrics.ProviderErrors), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(appMetrics.RequestSeconds))
}

func TestNewMetrics_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewMetrics(reg)

	assert.Panics(t, func() { metrics.NewMetrics(reg) })
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	appMetrics := metrics.NewMetrics(reg)
	appMetrics.RowsProcessed.WithLabelValues(metrics.StatusFound).Add(3)

	t.Run("writes exposition format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "geocsv.prom")

		require.NoError(t, metrics.WriteTextfile(path, reg))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), `geocsv_rows_processed_total{status="found"} 3`)
	})

	t.Run("unwritable directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "geocsv.prom")

		err := metrics.WriteTextfile(path, reg)

		require.ErrorContains(t, err, "failed to write metrics")
	})
}
