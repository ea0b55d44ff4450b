package prometheus

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/frogopher/pkg/metrics"
)

func TestPrometheusMetrics(t *testing.T) {
	metrics.InitRegistry()
	require.True(t, metrics.IsEnabled())

	g, ok := NewGopherMetrics().(*gopherMetrics)
	require.True(t, ok, "expected Prometheus-backed gopher metrics")

	g.RecordConnectionAccepted()
	g.RecordConnectionAccepted()
	g.RecordConnectionClosed()
	g.RecordConnectionForceClosed()
	g.SetActiveConnections(1)
	g.RecordBytesWritten(128)
	g.RecordRequest("path", "text", 3*time.Millisecond)
	g.RecordRequest("path", "error", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(g.connectionsAccepted))
	assert.Equal(t, 1.0, testutil.ToFloat64(g.connectionsClosed))
	assert.Equal(t, 1.0, testutil.ToFloat64(g.connectionsForceClosed))
	assert.Equal(t, 1.0, testutil.ToFloat64(g.activeConnections))
	assert.Equal(t, 128.0, testutil.ToFloat64(g.bytesWritten))
	assert.Equal(t, 1.0, testutil.ToFloat64(g.requestsTotal.WithLabelValues("path", "text")))
	assert.Equal(t, 1.0, testutil.ToFloat64(g.requestsTotal.WithLabelValues("path", "error")))

	s, ok := NewSourceMetrics().(*sourceMetrics)
	require.True(t, ok, "expected Prometheus-backed source metrics")

	s.ObserveCall("tips", "get_tip", 10*time.Millisecond, nil)
	s.ObserveCall("tips", "get_tip", 10*time.Millisecond, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(s.callsTotal.WithLabelValues("tips", "get_tip", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.callsTotal.WithLabelValues("tips", "get_tip", "error")))

	rec := httptest.NewRecorder()
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, name := range []string{
		"frogopher_gopher_requests_total",
		"frogopher_gopher_bytes_written_total",
		"frogopher_source_calls_total",
		"go_goroutines",
	} {
		assert.True(t, strings.Contains(body, name), "missing %s", name)
	}
}
