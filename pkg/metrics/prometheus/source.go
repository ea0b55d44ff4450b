package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/frogopher/pkg/metrics"
)

// sourceMetrics is the Prometheus implementation of metrics.SourceMetrics.
type sourceMetrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
}

// NewSourceMetrics creates a Prometheus-backed SourceMetrics.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry not called).
func NewSourceMetrics() metrics.SourceMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopSourceMetrics()
	}

	reg := metrics.GetRegistry()

	return &sourceMetrics{
		callsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "frogopher_source_calls_total",
				Help: "Total number of remote calls made by content sources",
			},
			[]string{"source", "operation", "status"},
		),
		callDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "frogopher_source_call_duration_seconds",
				Help: "Duration of remote calls made by content sources in seconds",
				Buckets: []float64{
					0.01,  // 10ms
					0.05,  // 50ms
					0.1,   // 100ms
					0.25,  // 250ms
					0.5,   // 500ms
					1.0,   // 1s
					2.5,   // 2.5s
					5.0,   // 5s
					10.0,  // 10s
				},
			},
			[]string{"source", "operation"},
		),
	}
}

func (m *sourceMetrics) ObserveCall(source, operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.callsTotal.WithLabelValues(source, operation, status).Inc()
	m.callDuration.WithLabelValues(source, operation).Observe(duration.Seconds())
}
