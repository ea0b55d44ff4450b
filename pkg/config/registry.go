package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/frogopher/internal/logger"
	"github.com/marmos91/frogopher/pkg/metrics"
	"github.com/marmos91/frogopher/pkg/registry"
)

// InitializeRegistry creates every configured source and registers it in
// configuration order, which is also the order selectors are matched in.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - cfg: Complete configuration loaded from config file
//   - sourceMetrics: Collector handed to remote sources (nil = no metrics)
//
// Returns:
//   - *registry.Registry: Fully initialized registry
//   - error: If a source cannot be created or registered
//
// Example:
//
//	cfg, _ := config.Load("config.yaml")
//	reg, err := config.InitializeRegistry(ctx, cfg, nil)
//	if err != nil {
//	    log.Fatalf("Failed to initialize registry: %v", err)
//	}
func InitializeRegistry(ctx context.Context, cfg *Config, sourceMetrics metrics.SourceMetrics) (*registry.Registry, error) {
	if cfg == nil {
		return nil, errors.New("configuration is nil")
	}
	if len(cfg.Sources) == 0 {
		return nil, errors.New("no sources configured")
	}

	logger.Debug("Initializing registry with %d source(s)", len(cfg.Sources))

	reg := registry.NewRegistry()

	for i, sc := range cfg.Sources {
		src, err := CreateSource(ctx, cfg, sc, sourceMetrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create sources[%d]: %w", i, err)
		}

		if err := reg.Register(sc.Name, src); err != nil {
			return nil, fmt.Errorf("failed to register sources[%d]: %w", i, err)
		}

		logger.Info("Registered %s source %q", sc.Type, sc.Name)
	}

	return reg, nil
}
