package server

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/marmos91/frogopher/internal/logger"
	"github.com/marmos91/frogopher/pkg/adapter"
	"github.com/marmos91/frogopher/pkg/registry"
)

// DefaultStopTimeout bounds how long each adapter gets to drain after shutdown
// has been requested.
const DefaultStopTimeout = 30 * time.Second

// ErrAlreadyServed is returned when Serve is called a second time.
var ErrAlreadyServed = errors.New("server already served")

// FrogServer manages the lifecycle of the protocol adapters that answer from
// one shared source registry.
//
// Lifecycle:
//  1. Creation: New() with a populated registry
//  2. Registration: AddAdapter() for each protocol
//  3. Startup: Serve() starts all adapters concurrently
//  4. Shutdown: context cancellation stops every adapter in reverse order
//
// Example usage:
//
//	srv := server.New(reg)
//	srv.AddAdapter(gopher.New(gopherConfig, gopherMetrics))
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
//	    log.Fatal(err)
//	}
type FrogServer struct {
	registry *registry.Registry

	mu       sync.RWMutex
	adapters []adapter.Adapter
	served   bool

	stopTimeout time.Duration
}

// New creates a FrogServer backed by reg.
//
// Panics if reg is nil.
func New(reg *registry.Registry) *FrogServer {
	if reg == nil {
		panic("source registry cannot be nil")
	}

	return &FrogServer{
		registry:    reg,
		adapters:    make([]adapter.Adapter, 0, 2),
		stopTimeout: DefaultStopTimeout,
	}
}

// SetStopTimeout overrides DefaultStopTimeout. Non-positive values are ignored.
func (s *FrogServer) SetStopTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.stopTimeout = d
	s.mu.Unlock()
}

// Registry returns the registry shared with every adapter.
func (s *FrogServer) Registry() *registry.Registry {
	return s.registry
}

// AddAdapter injects the registry into a and schedules it for Serve.
//
// Returns an error if an adapter for the same protocol or port is already
// registered, or if Serve has already been called.
//
// Panics if a is nil.
func (s *FrogServer) AddAdapter(a adapter.Adapter) error {
	if a == nil {
		panic("adapter cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.served {
		return fmt.Errorf("add %s adapter: %w", a.Protocol(), ErrAlreadyServed)
	}

	protocol := a.Protocol()
	port := a.Port()

	for _, existing := range s.adapters {
		if existing.Protocol() == protocol {
			return fmt.Errorf("adapter for protocol %s already registered", protocol)
		}
		// Port 0 asks the kernel for any free port, so it never conflicts.
		if port != 0 && existing.Port() == port {
			return fmt.Errorf("port %d already in use by %s adapter", port, existing.Protocol())
		}
	}

	a.SetRegistry(s.registry)
	s.adapters = append(s.adapters, a)

	logger.Info("Registered %s adapter on port %d", protocol, port)
	return nil
}

// Adapters returns a copy of the registered adapters.
func (s *FrogServer) Adapters() []adapter.Adapter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.adapters)
}

// Serve starts all registered adapters and blocks until ctx is cancelled or
// one of them fails.
//
// Returns:
//   - ctx.Err() after a shutdown triggered by cancellation
//   - the failing adapter's error, wrapped with its protocol name
//   - ErrAlreadyServed on a second call
func (s *FrogServer) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.served {
		s.mu.Unlock()
		return ErrAlreadyServed
	}
	s.served = true
	if len(s.adapters) == 0 {
		s.mu.Unlock()
		return errors.New("no adapters registered; call AddAdapter() before Serve()")
	}
	adapters := slices.Clone(s.adapters)
	stopTimeout := s.stopTimeout
	s.mu.Unlock()

	s.registry.Freeze()
	logger.Info("Starting frogopher with %d adapter(s) and %d source(s)", len(adapters), s.registry.Len())

	errChan := make(chan adapterError, len(adapters))
	var wg sync.WaitGroup

	for _, adp := range adapters {
		wg.Add(1)
		go func() {
			defer wg.Done()

			protocol := adp.Protocol()
			logger.Info("Starting %s adapter", protocol)

			err := adp.Serve(ctx)
			switch {
			case ctx.Err() != nil:
				if err != nil && !errors.Is(err, context.Canceled) {
					logger.Warn("%s adapter stopped with error: %v", protocol, err)
				} else {
					logger.Debug("%s adapter stopped gracefully", protocol)
				}
			case err != nil:
				logger.Error("%s adapter failed: %v", protocol, err)
				errChan <- adapterError{protocol: protocol, err: err}
			default:
				// Returning before cancellation is still fatal for the server.
				errChan <- adapterError{protocol: protocol, err: errors.New("stopped unexpectedly")}
			}
		}()
	}

	var shutdownErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received (reason: %v)", ctx.Err())
		shutdownErr = ctx.Err()

	case adapterErr := <-errChan:
		logger.Error("Adapter %s failed: %v - initiating shutdown of all adapters",
			adapterErr.protocol, adapterErr.err)
		shutdownErr = fmt.Errorf("%s adapter error: %w", adapterErr.protocol, adapterErr.err)
	}

	stopAllAdapters(adapters, stopTimeout)

	logger.Debug("Waiting for all adapters to complete shutdown")
	wg.Wait()

	logger.Info("frogopher stopped")
	return shutdownErr
}

type adapterError struct {
	protocol string
	err      error
}

// stopAllAdapters signals every adapter to stop, newest first. Errors are
// logged and do not prevent the remaining adapters from being stopped.
func stopAllAdapters(adapters []adapter.Adapter, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger.Info("Initiating graceful shutdown of %d adapter(s)", len(adapters))

	for _, adp := range slices.Backward(adapters) {
		protocol := adp.Protocol()
		logger.Debug("Stopping %s adapter (port %d)", protocol, adp.Port())

		if err := adp.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Error stopping %s adapter: %v", protocol, err)
		}
	}
}
