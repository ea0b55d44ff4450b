package config

import (
	"errors"

	"github.com/marmos91/frogopher/pkg/adapter"
	gopherAdapter "github.com/marmos91/frogopher/pkg/adapter/gopher"
	"github.com/marmos91/frogopher/pkg/metrics"
)

// CreateAdapters creates all enabled protocol adapters from the configuration.
//
// Parameters:
//   - cfg: The complete frogopher configuration
//   - gopherMetrics: Optional Gopher metrics collector (nil = no metrics)
//
// Returns:
//   - []adapter.Adapter: List of enabled adapters ready to be added to the server
//   - error: If no adapter is enabled
func CreateAdapters(cfg *Config, gopherMetrics metrics.GopherMetrics) ([]adapter.Adapter, error) {
	var adapters []adapter.Adapter

	if cfg.Gopher.Enabled {
		adapters = append(adapters, gopherAdapter.New(cfg.Gopher, gopherMetrics))
	}

	if len(adapters) == 0 {
		return nil, errors.New("no adapters enabled in configuration")
	}

	return adapters, nil
}
