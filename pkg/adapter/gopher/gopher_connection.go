package gopher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/frogopher/internal/logger"
	"github.com/marmos91/frogopher/internal/protocol/gopher"
)

const (
	// drainTimeout and drainLimit bound the read of a rejected request's
	// leftover bytes before the socket is closed.
	drainTimeout = 500 * time.Millisecond
	drainLimit   = 64 << 10
)

// GopherConnection serves the single exchange of one accepted connection.
type GopherConnection struct {
	server *GopherAdapter
	conn   net.Conn
	id     string
}

// NewGopherConnection wraps conn for server.
func NewGopherConnection(server *GopherAdapter, conn net.Conn) *GopherConnection {
	return &GopherConnection{
		server: server,
		conn:   conn,
		id:     uuid.NewString()[:8],
	}
}

// ID returns a short identifier used in logs and for forced closure.
func (c *GopherConnection) ID() string {
	return c.id
}

// Serve reads one selector, resolves it against the registry, writes the
// response and closes the connection.
//
// Panics are recovered and returned as errors. The returned error is for
// logging only; the connection is closed either way.
func (c *GopherConnection) Serve(ctx context.Context) (err error) {
	start := time.Now()
	kind, outcome := "invalid", "unknown"

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in Gopher connection handler %s from %s: %v",
				c.id, c.conn.RemoteAddr(), r)
			outcome = "panic"
			err = fmt.Errorf("panic: %v", r)
		}
		_ = c.conn.Close()
		c.server.metrics.RecordRequest(kind, outcome, time.Since(start))
	}()

	if c.server.config.ReadTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.server.config.ReadTimeout)); err != nil {
			logger.Warn("Failed to set read deadline for %s: %v", c.id, err)
		}
	}

	proto := gopher.New(c.server.extAddr, c.server.config.MaxLineLength)
	proto.SetReadChunkSize(c.server.config.ReadChunkSize)

	sel, err := proto.Read(c.conn)
	if err != nil {
		outcome = failureOutcome(err)
		if errors.Is(err, gopher.ErrLineTooBig) || errors.Is(err, gopher.ErrParseLine) {
			c.drain()
		}
		return fmt.Errorf("read selector: %w", err)
	}
	kind = sel.Kind()

	// Resolution and the response share one deadline.
	if timeout := c.server.config.WriteTimeout; timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			logger.Warn("Failed to set write deadline for %s: %v", c.id, err)
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resolved := c.resolve(ctx, sel)

	w := &countingWriter{w: c.conn}
	err = proto.Write(ctx, w, resolved)
	c.server.metrics.RecordBytesWritten(w.n)
	if err != nil {
		outcome = failureOutcome(err)
		return fmt.Errorf("write %s response: %w", gopher.SelectedKind(resolved), err)
	}

	outcome = gopher.SelectedKind(resolved)
	logger.Info("Gopher %s %s %q -> %s (%d bytes, %v)",
		c.id, c.conn.RemoteAddr(), selectorLabel(sel), outcome, w.n, time.Since(start).Round(time.Microsecond))
	return nil
}

// drain half-closes the connection and discards what the client still has in
// flight, so the final close is seen as EOF rather than a reset.
func (c *GopherConnection) drain() {
	if hc, ok := c.conn.(interface{ CloseWrite() error }); ok {
		_ = hc.CloseWrite()
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(drainTimeout))
	_, _ = io.CopyN(io.Discard, c.conn, drainLimit)
}

// resolve maps a selector to its response. The empty selector gets the whole
// registry as a menu, without copying it.
func (c *GopherConnection) resolve(ctx context.Context, sel gopher.Selector) gopher.Selected {
	if sel.Empty {
		return gopher.ForeverMenu{Menu: c.server.registry}
	}
	return c.server.registry.Find(ctx, sel.Path)
}

func selectorLabel(sel gopher.Selector) string {
	if sel.Empty {
		return ""
	}
	if sel.Path.HasExtra() {
		return sel.Path.Val + "\t" + sel.Path.Extra
	}
	return sel.Path.Val
}

// failureOutcome classifies a read or write error for metrics.
func failureOutcome(err error) string {
	switch {
	case errors.Is(err, gopher.ErrLineTooBig):
		return "line_too_big"
	case errors.Is(err, gopher.ErrParseLine):
		return "parse"
	case errors.Is(err, gopher.ErrUnfinishedBusiness):
		return "unfinished"
	case errors.Is(err, os.ErrDeadlineExceeded):
		return "timeout"
	default:
		return "io"
	}
}

// countingWriter counts bytes that reached the connection.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
