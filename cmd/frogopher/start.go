package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/frogopher/internal/logger"
	"github.com/marmos91/frogopher/pkg/config"
	"github.com/marmos91/frogopher/pkg/server"
)

var (
	startConfigPath string
	startExtAddr    string
	startAPIKey     string
	startLogLevel   string
)

var startCmd = &cobra.Command{
	Use:   "start [ADDR]",
	Short: "Start the Gopher server",
	Long: `Starts serving the configured sources.

ADDR is the internal host:port to bind and overrides gopher.listen.
-x sets the external address written into menus, -k the frog.tips API key.`,
	Example: `  frogopher start 0.0.0.0:70 -x frog.example:70 -k $FROG_TIPS_KEY
  frogopher start -c ./frogopher.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVarP(&startConfigPath, "config", "c", "", "Path to the configuration file")
	startCmd.Flags().StringVarP(&startExtAddr, "ext-addr", "x", "", "External address advertised in menus (host:port or \"host port\")")
	startCmd.Flags().StringVarP(&startAPIKey, "api-key", "k", "", "frog.tips API key")
	startCmd.Flags().StringVar(&startLogLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	overrides := config.Overrides{
		ExternalAddr: startExtAddr,
		APIKey:       startAPIKey,
		LogLevel:     startLogLevel,
	}
	if len(args) == 1 {
		overrides.Listen = args[0]
	}

	cfg, err := config.LoadWithOverrides(startConfigPath, overrides)
	if err != nil {
		return err
	}

	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)
	if err := logger.SetOutput(cfg.Logging.Output); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}

	logger.Info("FROG IS PREPARING TO PLAY WITH GOPHERS.")
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metricsResult := config.InitializeMetrics(cfg)
	if metricsResult.Server != nil {
		go func() {
			if err := metricsResult.Server.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
		logger.Info("Metrics enabled on port %d", metricsResult.Server.Port())
	}

	reg, err := config.InitializeRegistry(ctx, cfg, metricsResult.SourceMetrics)
	if err != nil {
		return err
	}

	adapters, err := config.CreateAdapters(cfg, metricsResult.GopherMetrics)
	if err != nil {
		return err
	}

	srv := server.New(reg)
	srv.SetStopTimeout(cfg.Server.ShutdownTimeout)
	for _, a := range adapters {
		if err := srv.AddAdapter(a); err != nil {
			return err
		}
	}

	logger.Info("Gopher listening on %s, advertising %s", cfg.Gopher.Listen, cfg.Gopher.ExternalAddr)
	logger.Info("Server is running. Press Ctrl+C to stop.")

	err = srv.Serve(ctx)

	if metricsResult.Server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if stopErr := metricsResult.Server.Stop(shutdownCtx); stopErr != nil {
			logger.Warn("Metrics server shutdown error: %v", stopErr)
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("FROG HAS LEFT THE BURROW.")
	return nil
}
