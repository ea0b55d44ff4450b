package framework

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/marmos91/frogopher/internal/logger"
	"github.com/marmos91/frogopher/pkg/config"
	"github.com/marmos91/frogopher/pkg/server"
)

// TestServerConfig holds configuration for the test server.
// This is distinct from pkg/config.ServerConfig (application-level server settings).
type TestServerConfig struct {
	Port           int
	ExternalAddr   string
	Sources        []config.SourceConfig
	LogLevel       string
	StartupTimeout time.Duration
}

// TestServer wraps a FrogServer built from configuration, backed by a fake
// frog.tips API.
type TestServer struct {
	t       testing.TB
	config  TestServerConfig
	server  *server.FrogServer
	tipsAPI *httptest.Server
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

// NewTestServer creates a new test server instance
func NewTestServer(t testing.TB, cfg TestServerConfig) *TestServer {
	t.Helper()

	if cfg.Port == 0 {
		cfg.Port = findFreePort(t)
	}
	if cfg.ExternalAddr == "" {
		cfg.ExternalAddr = fmt.Sprintf("frog.example:%d", cfg.Port)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "ERROR" // Keep tests quiet by default
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &TestServer{
		t:       t,
		config:  cfg,
		tipsAPI: NewTipsAPI(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start starts the test server
func (ts *TestServer) Start() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.started {
		return errors.New("server already started")
	}

	ts.t.Helper()
	logger.SetLevel(ts.config.LogLevel)

	cfg := &config.Config{Sources: ts.config.Sources}
	cfg.Gopher.Enabled = true
	cfg.Gopher.Listen = fmt.Sprintf("127.0.0.1:%d", ts.config.Port)
	cfg.Gopher.ExternalAddr = ts.config.ExternalAddr
	cfg.Gopher.ShutdownTimeout = 2 * time.Second
	cfg.Tips.APIKey = TipsAPIKey
	cfg.Tips.BaseURL = ts.tipsAPI.URL
	cfg.Tips.RequestsPerSecond = 1000
	cfg.Tips.Burst = 1000
	config.ApplyDefaults(cfg)

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid test configuration: %w", err)
	}

	metricsResult := config.InitializeMetrics(cfg)

	reg, err := config.InitializeRegistry(ts.ctx, cfg, metricsResult.SourceMetrics)
	if err != nil {
		return fmt.Errorf("failed to initialize registry: %w", err)
	}

	adapters, err := config.CreateAdapters(cfg, metricsResult.GopherMetrics)
	if err != nil {
		return fmt.Errorf("failed to create adapters: %w", err)
	}

	ts.server = server.New(reg)
	for _, a := range adapters {
		if err := ts.server.AddAdapter(a); err != nil {
			return err
		}
	}

	ts.wg.Add(1)
	go func() {
		defer ts.wg.Done()
		if err := ts.server.Serve(ts.ctx); err != nil && !errors.Is(err, context.Canceled) {
			ts.t.Logf("Server error: %v", err)
		}
	}()

	if err := ts.waitForServer(); err != nil {
		ts.cancel()
		ts.wg.Wait()
		return fmt.Errorf("server failed to start: %w", err)
	}

	ts.started = true
	ts.t.Logf("Server started successfully on port %d", ts.config.Port)
	return nil
}

// Stop stops the test server and the fake API.
func (ts *TestServer) Stop() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	defer ts.tipsAPI.Close()

	if !ts.started {
		return nil
	}

	ts.cancel()

	done := make(chan struct{})
	go func() {
		ts.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		return errors.New("server stop timeout")
	}

	ts.started = false
	return nil
}

// Addr returns the address clients connect to.
func (ts *TestServer) Addr() string {
	return fmt.Sprintf("127.0.0.1:%d", ts.config.Port)
}

// ExternalAddr returns the address advertised in menu lines.
func (ts *TestServer) ExternalAddr() string {
	return ts.config.ExternalAddr
}

// waitForServer waits for the server to be ready by attempting to connect
func (ts *TestServer) waitForServer() error {
	deadline := time.Now().Add(ts.config.StartupTimeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", ts.Addr(), 500*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return errors.New("timeout waiting for server to start")
}

// findFreePort finds an available port
func findFreePort(t testing.TB) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	_ = listener.Close()
	return port
}
