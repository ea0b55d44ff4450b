package metrics

import "time"

// SourceMetrics records calls that content sources make to remote backends
// (the frog.tips API, S3).
type SourceMetrics interface {
	// ObserveCall records one remote call.
	//
	// Parameters:
	//   - source: source name as registered ("tips", "docs")
	//   - operation: backend operation ("get_tip", "search", "get_object", "list_objects")
	//   - duration: time spent waiting on the backend, rate limiting included
	//   - err: nil on success
	ObserveCall(source, operation string, duration time.Duration, err error)
}

// NewNoopSourceMetrics returns a SourceMetrics that discards everything.
func NewNoopSourceMetrics() SourceMetrics {
	return noopSourceMetrics{}
}

type noopSourceMetrics struct{}

func (noopSourceMetrics) ObserveCall(source, operation string, duration time.Duration, err error) {}
