package config

import (
	"github.com/marmos91/frogopher/pkg/metrics"
	promMetrics "github.com/marmos91/frogopher/pkg/metrics/prometheus"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// GopherMetrics is the collector for the Gopher adapter (never nil)
	GopherMetrics metrics.GopherMetrics

	// SourceMetrics is the collector for remote sources (never nil)
	SourceMetrics metrics.SourceMetrics
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled the global Prometheus registry is initialized and
// Prometheus-backed collectors are returned along with the HTTP server.
// Otherwise the server is nil and the collectors are no-ops.
//
// Prometheus collectors register globally, so call this once per process.
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Server.Metrics.Enabled {
		return &MetricsResult{
			GopherMetrics: metrics.NewNoopGopherMetrics(),
			SourceMetrics: metrics.NewNoopSourceMetrics(),
		}
	}

	metrics.InitRegistry()

	return &MetricsResult{
		Server: metrics.NewServer(metrics.ServerConfig{
			Port: cfg.Server.Metrics.Port,
		}),
		GopherMetrics: promMetrics.NewGopherMetrics(),
		SourceMetrics: promMetrics.NewSourceMetrics(),
	}
}
