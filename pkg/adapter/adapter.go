package adapter

import (
	"context"

	"github.com/marmos91/frogopher/pkg/registry"
)

// Adapter is a protocol server managed by FrogServer.
//
// All adapters answer from the same source registry, so a selector resolves
// the same way whichever protocol it arrives on.
//
// Lifecycle:
//  1. Creation: adapter is created with protocol-specific configuration
//  2. Registry injection: SetRegistry() provides the shared sources
//  3. Startup: Serve() starts the protocol server and blocks until shutdown
//  4. Shutdown: Stop() initiates graceful shutdown with timeout
//
// Thread safety:
// SetRegistry() is called once before Serve(), but Stop() may be called
// concurrently with Serve().
type Adapter interface {
	// Serve starts the protocol server and blocks until the context is cancelled
	// or an unrecoverable error occurs.
	//
	// When the context is cancelled, Serve must:
	//   - Stop accepting new connections
	//   - Wait for active connections to complete (with timeout)
	//   - Return nil, or an error if connections had to be force-closed
	//
	// If Serve returns before context cancellation, FrogServer treats it as
	// a fatal error and stops all other adapters.
	Serve(ctx context.Context) error

	// SetRegistry injects the shared source registry.
	SetRegistry(reg *registry.Registry)

	// Stop initiates graceful shutdown. It must be idempotent, safe to call
	// concurrently with Serve, and respect ctx as the shutdown deadline.
	Stop(ctx context.Context) error

	// Protocol returns the human-readable protocol name for logging.
	Protocol() string

	// Port returns the TCP port the adapter listens on.
	Port() int
}
