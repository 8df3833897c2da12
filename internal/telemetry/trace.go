// Package telemetry implements trace-id propagation, the structured JSONL
// event log, and the four-stage latency percentile tracker (C16,
// SPEC_FULL.md §4.11), grounded on the teacher's pkg/config/logger.go zap
// construction and internal/storage for the optional audit sink.
package telemetry

import (
	"context"

	"github.com/google/uuid"
)

type traceIDKey struct{}

// NewTraceID mints a fresh trace id, matching the teacher's use of
// github.com/google/uuid for opportunity/order identifiers.
func NewTraceID() string {
	return uuid.NewString()
}

// WithTraceID returns a context carrying traceID for the duration of one
// detection/execution cycle (SPEC_FULL.md §4.11's "scoped value bound for
// the duration of a cycle").
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceIDFromContext retrieves the trace id bound by WithTraceID, if any.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(traceIDKey{}).(string)
	return v, ok
}
