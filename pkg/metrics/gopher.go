package metrics

import "time"

// GopherMetrics provides observability for the Gopher adapter.
//
// Implementations collect connection lifecycle, request outcome and throughput
// figures. The adapter falls back to a no-op implementation when none is given.
//
// Example usage:
//
//	// With metrics enabled
//	m := prometheus.NewGopherMetrics()
//	adapter := gopher.New(config, m)
//
//	// Without metrics (no-op)
//	adapter := gopher.New(config, nil)
type GopherMetrics interface {
	// RecordRequest records one completed exchange.
	//
	// Parameters:
	//   - kind: selector kind ("root", "path", "search"), or "invalid" when
	//     the request line could not be read
	//   - outcome: response kind ("text", "menu", "temp_menu", "error") or
	//     the failure class ("line_too_big", "parse", "unfinished", "io")
	//   - duration: time from accept to close
	RecordRequest(kind, outcome string, duration time.Duration)

	// RecordBytesWritten records response bytes sent to a client.
	RecordBytesWritten(bytes int64)

	// SetActiveConnections updates the current connection count.
	SetActiveConnections(count int32)

	// RecordConnectionAccepted increments the accepted connections counter.
	RecordConnectionAccepted()

	// RecordConnectionClosed increments the closed connections counter.
	RecordConnectionClosed()

	// RecordConnectionForceClosed increments the counter of connections
	// closed because the shutdown timeout elapsed.
	RecordConnectionForceClosed()
}

// NewNoopGopherMetrics returns a GopherMetrics that discards everything.
func NewNoopGopherMetrics() GopherMetrics {
	return noopGopherMetrics{}
}

type noopGopherMetrics struct{}

func (noopGopherMetrics) RecordRequest(kind, outcome string, duration time.Duration) {}
func (noopGopherMetrics) RecordBytesWritten(bytes int64)                             {}
func (noopGopherMetrics) SetActiveConnections(count int32)                           {}
func (noopGopherMetrics) RecordConnectionAccepted()                                  {}
func (noopGopherMetrics) RecordConnectionClosed()                                    {}
func (noopGopherMetrics) RecordConnectionForceClosed()                               {}
