// Package metrics provides Prometheus metrics collection for frogopher components.
//
// All metrics are optional. When the registry is not initialized, components
// use no-op implementations, so frogopher runs the same with or without
// metrics collection.
//
// Usage:
//
//	// Initialize global registry (typically from config.InitializeMetrics)
//	metrics.InitRegistry()
//
//	// Create metrics instances for components
//	gopherMetrics := prometheus.NewGopherMetrics()
//	sourceMetrics := prometheus.NewSourceMetrics()
//
//	// Or use nil for no-op behavior
//	adapter := gopher.New(config, nil)
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// registry is written once by InitRegistry and read many times after.
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global Prometheus registry.
//
// This must be called before creating any Prometheus-backed metrics. It is
// safe to call multiple times; subsequent calls are ignored.
//
// The registry also carries the Go runtime and process collectors.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}

// GetRegistry returns the global Prometheus registry, or nil if InitRegistry
// has not been called.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled returns true if InitRegistry has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}
