package gopher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/frogopher/internal/logger"
	"github.com/marmos91/frogopher/internal/protocol/gopher"
	"github.com/marmos91/frogopher/pkg/metrics"
	"github.com/marmos91/frogopher/pkg/registry"
)

// GopherAdapter implements the adapter.Adapter interface for the Gopher protocol.
//
// Each accepted connection carries exactly one exchange: the client sends a
// selector line, the adapter resolves it against the shared registry, writes
// the response and closes. Connections are handled on their own goroutine
// and share nothing mutable.
//
// Shutdown flow:
//  1. Context cancelled or Stop() called
//  2. Listener closed (no new connections)
//  3. shutdownCtx cancelled (signals in-flight source lookups to abort)
//  4. Wait for active connections to complete (up to ShutdownTimeout)
//  5. Force-close any remaining connections after timeout
type GopherAdapter struct {
	config  GopherConfig
	extAddr *gopher.ExternalAddr

	// mu guards listener against a Stop racing with Serve
	mu       sync.Mutex
	listener net.Listener
	port     atomic.Int32

	registry *registry.Registry
	metrics  metrics.GopherMetrics

	// activeConns counts connection goroutines for graceful shutdown
	activeConns sync.WaitGroup

	shutdownOnce sync.Once
	shutdown     chan struct{}

	connCount atomic.Int32

	// connSemaphore is nil when MaxConnections is 0 (unlimited)
	connSemaphore chan struct{}

	// shutdownCtx is handed to every connection and cancelled on shutdown
	shutdownCtx    context.Context
	cancelRequests context.CancelFunc

	// activeConnections maps connection ID to net.Conn for forced closure
	activeConnections sync.Map
}

// GopherConfig holds configuration parameters for the Gopher server.
//
// Default values (applied by New if zero):
//   - Listen: ":7070"
//   - ExternalAddr: "localhost:<listen port>"
//   - MaxLineLength: 512
//   - MaxConnections: 0 (unlimited)
//   - ReadTimeout: 60s
//   - WriteTimeout: 60s
//   - ShutdownTimeout: 30s
//   - MetricsLogInterval: 5m
type GopherConfig struct {
	// Enabled controls whether the Gopher adapter is started.
	Enabled bool `mapstructure:"enabled" yaml:"enabled" toml:"enabled"`

	// Listen is the internal "host:port" to bind. Port 0 picks a free port.
	Listen string `mapstructure:"listen" yaml:"listen" toml:"listen"`

	// ExternalAddr is the "host:port" (or "host port") advertised in menu lines.
	// It usually differs from Listen when running behind NAT or a proxy.
	ExternalAddr string `mapstructure:"external_addr" yaml:"external_addr" toml:"external_addr"`

	// MaxLineLength bounds the selector and its search text, each on its own.
	MaxLineLength int `mapstructure:"max_line_length" yaml:"max_line_length" toml:"max_line_length" validate:"min=0"`

	// ReadChunkSize is how many bytes are requested from the socket per read.
	// 1 keeps the server from reading past the request line.
	ReadChunkSize int `mapstructure:"read_chunk_size" yaml:"read_chunk_size" toml:"read_chunk_size" validate:"min=0"`

	// MaxConnections limits concurrent client connections. 0 means unlimited.
	MaxConnections int `mapstructure:"max_connections" yaml:"max_connections" toml:"max_connections" validate:"min=0"`

	// ReadTimeout bounds reading the request line.
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" toml:"read_timeout" validate:"min=0"`

	// WriteTimeout bounds resolving and writing the response.
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" toml:"write_timeout" validate:"min=0"`

	// ShutdownTimeout is how long shutdown waits before force-closing connections.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" toml:"shutdown_timeout" validate:"min=0"`

	// MetricsLogInterval is the period of the connection count log line. 0 disables it.
	MetricsLogInterval time.Duration `mapstructure:"metrics_log_interval" yaml:"metrics_log_interval" toml:"metrics_log_interval" validate:"min=0"`
}

// ApplyDefaults fills zero fields with the documented defaults.
func (c *GopherConfig) ApplyDefaults() {
	if c.Listen == "" {
		c.Listen = ":7070"
	}
	if c.MaxLineLength <= 0 {
		c.MaxLineLength = gopher.DefaultMaxLineLength
	}
	if c.ReadChunkSize <= 0 {
		c.ReadChunkSize = 1
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 60 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 60 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
	if c.MetricsLogInterval == 0 {
		c.MetricsLogInterval = 5 * time.Minute
	}
	if c.ExternalAddr == "" {
		_, port, err := net.SplitHostPort(c.Listen)
		if err != nil {
			port = "7070"
		}
		c.ExternalAddr = net.JoinHostPort("localhost", port)
	}
}

func (c *GopherConfig) validate() error {
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.Listen, err)
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("invalid MaxConnections %d: must be >= 0", c.MaxConnections)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("invalid ReadTimeout %v: must be >= 0", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("invalid WriteTimeout %v: must be >= 0", c.WriteTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid ShutdownTimeout %v: must be > 0", c.ShutdownTimeout)
	}
	return nil
}

// New creates a GopherAdapter in a stopped state. Call SetRegistry, then Serve.
//
// Zero values in config are replaced with defaults. A nil gopherMetrics
// disables metrics.
//
// Panics if the configuration is invalid; configuration loaded through
// pkg/config is validated before it gets here.
func New(config GopherConfig, gopherMetrics metrics.GopherMetrics) *GopherAdapter {
	config.ApplyDefaults()

	if err := config.validate(); err != nil {
		panic(fmt.Sprintf("invalid Gopher config: %v", err))
	}

	extAddr, err := gopher.ParseExternalAddr(config.ExternalAddr)
	if err != nil {
		panic(fmt.Sprintf("invalid Gopher config: %v", err))
	}

	var connSemaphore chan struct{}
	if config.MaxConnections > 0 {
		connSemaphore = make(chan struct{}, config.MaxConnections)
		logger.Debug("Gopher connection limit: %d", config.MaxConnections)
	} else {
		logger.Debug("Gopher connection limit: unlimited")
	}

	shutdownCtx, cancelRequests := context.WithCancel(context.Background())

	if gopherMetrics == nil {
		gopherMetrics = metrics.NewNoopGopherMetrics()
	}

	return &GopherAdapter{
		config:         config,
		extAddr:        extAddr,
		metrics:        gopherMetrics,
		shutdown:       make(chan struct{}),
		connSemaphore:  connSemaphore,
		shutdownCtx:    shutdownCtx,
		cancelRequests: cancelRequests,
	}
}

// SetRegistry injects the shared source registry. Called once before Serve.
func (s *GopherAdapter) SetRegistry(reg *registry.Registry) {
	s.registry = reg
	logger.Debug("Gopher registry configured with %d source(s)", reg.Len())
}

// ExternalAddr returns the address advertised in menu lines.
func (s *GopherAdapter) ExternalAddr() *gopher.ExternalAddr {
	return s.extAddr
}

// Serve listens on the configured address and handles connections until ctx
// is cancelled or Stop is called.
//
// Returns nil when every connection finished within ShutdownTimeout and an
// error when some had to be force-closed.
func (s *GopherAdapter) Serve(ctx context.Context) error {
	if s.registry == nil {
		return errors.New("gopher adapter: registry not set")
	}
	s.registry.Freeze()

	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to create Gopher listener on %s: %w", s.config.Listen, err)
	}

	s.mu.Lock()
	select {
	case <-s.shutdown:
		// Stop ran before the listener existed.
		s.mu.Unlock()
		_ = listener.Close()
		return nil
	default:
	}
	s.listener = listener
	s.mu.Unlock()

	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port.Store(int32(tcpAddr.Port))
	}

	logger.Info("Gopher server listening on %s (advertised as %s)", listener.Addr(), s.extAddr)
	logger.Debug("Gopher config: max_connections=%d max_line_length=%d read_timeout=%v write_timeout=%v",
		s.config.MaxConnections, s.config.MaxLineLength, s.config.ReadTimeout, s.config.WriteTimeout)

	go func() {
		select {
		case <-ctx.Done():
			logger.Info("Gopher shutdown signal received: %v", ctx.Err())
			s.initiateShutdown()
		case <-s.shutdown:
		}
	}()

	if s.config.MetricsLogInterval > 0 {
		go s.logMetrics(ctx)
	}

	for {
		if s.connSemaphore != nil {
			select {
			case s.connSemaphore <- struct{}{}:
			case <-s.shutdown:
				return s.gracefulShutdown()
			}
		}

		tcpConn, err := listener.Accept()
		if err != nil {
			if s.connSemaphore != nil {
				<-s.connSemaphore
			}

			select {
			case <-s.shutdown:
				return s.gracefulShutdown()
			default:
				logger.Debug("Error accepting Gopher connection: %v", err)
				continue
			}
		}

		s.activeConns.Add(1)
		s.connCount.Add(1)

		conn := NewGopherConnection(s, tcpConn)
		s.activeConnections.Store(conn.ID(), tcpConn)

		s.metrics.RecordConnectionAccepted()
		currentConns := s.connCount.Load()
		s.metrics.SetActiveConnections(currentConns)

		logger.Debug("Gopher %s popped out of its burrow from %s (active: %d)",
			conn.ID(), tcpConn.RemoteAddr(), currentConns)

		go func() {
			defer func() {
				s.activeConnections.Delete(conn.ID())

				s.activeConns.Done()
				s.connCount.Add(-1)
				if s.connSemaphore != nil {
					<-s.connSemaphore
				}

				s.metrics.RecordConnectionClosed()
				s.metrics.SetActiveConnections(s.connCount.Load())
			}()

			if err := conn.Serve(s.shutdownCtx); err != nil {
				logger.Debug("Gopher %s retreated into its burrow on bad terms: %v", conn.ID(), err)
			}
		}()
	}
}

// initiateShutdown closes the listener and cancels in-flight lookups. Safe to
// call multiple times.
func (s *GopherAdapter) initiateShutdown() {
	s.shutdownOnce.Do(func() {
		logger.Debug("Gopher shutdown initiated")

		close(s.shutdown)

		s.mu.Lock()
		listener := s.listener
		s.mu.Unlock()

		if listener != nil {
			if err := listener.Close(); err != nil {
				logger.Debug("Error closing Gopher listener: %v", err)
			}
		}

		s.cancelRequests()
	})
}

// gracefulShutdown waits for active connections up to ShutdownTimeout, then
// force-closes whatever is left.
func (s *GopherAdapter) gracefulShutdown() error {
	activeCount := s.connCount.Load()
	logger.Info("Gopher graceful shutdown: waiting for %d active connection(s) (timeout: %v)",
		activeCount, s.config.ShutdownTimeout)

	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("Gopher graceful shutdown complete: all connections closed")
		return nil

	case <-time.After(s.config.ShutdownTimeout):
		remaining := s.connCount.Load()
		logger.Warn("Gopher shutdown timeout exceeded: %d connection(s) still active after %v - forcing closure",
			remaining, s.config.ShutdownTimeout)

		s.forceCloseConnections()

		return fmt.Errorf("Gopher shutdown timeout: %d connections force-closed", remaining)
	}
}

// forceCloseConnections closes every tracked socket so blocked reads and
// writes fail immediately.
func (s *GopherAdapter) forceCloseConnections() {
	closedCount := 0
	s.activeConnections.Range(func(key, value any) bool {
		id := key.(string)
		conn := value.(net.Conn)

		if err := conn.Close(); err != nil {
			logger.Debug("Error force-closing Gopher %s: %v", id, err)
		} else {
			closedCount++
			s.metrics.RecordConnectionForceClosed()
		}
		return true
	})

	if closedCount > 0 {
		logger.Info("Force-closed %d Gopher connection(s)", closedCount)
	}
}

// Stop initiates graceful shutdown and waits for active connections until
// they finish or ctx is done. Safe to call multiple times and concurrently
// with Serve.
func (s *GopherAdapter) Stop(ctx context.Context) error {
	s.initiateShutdown()

	if ctx == nil {
		return s.gracefulShutdown()
	}

	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		remaining := s.connCount.Load()
		logger.Warn("Gopher shutdown context cancelled: %d connection(s) still active: %v",
			remaining, ctx.Err())
		return ctx.Err()
	}
}

func (s *GopherAdapter) logMetrics(ctx context.Context) {
	ticker := time.NewTicker(s.config.MetricsLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdown:
			return
		case <-ticker.C:
			logger.Info("Gopher metrics: active_connections=%d", s.connCount.Load())
		}
	}
}

// GetActiveConnections returns the current number of active connections.
func (s *GopherAdapter) GetActiveConnections() int32 {
	return s.connCount.Load()
}

// Port returns the bound TCP port, or the configured one before Serve has
// bound the listener.
func (s *GopherAdapter) Port() int {
	if p := s.port.Load(); p != 0 {
		return int(p)
	}
	_, port, err := net.SplitHostPort(s.config.Listen)
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(port)
	return n
}

// Protocol returns "Gopher".
func (s *GopherAdapter) Protocol() string {
	return "Gopher"
}
