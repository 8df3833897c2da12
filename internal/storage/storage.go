// Package storage persists the telemetry event stream for audit/query
// purposes (SPEC_FULL.md §4.11's optional domain sink), adapted from the
// teacher's opportunity-specific Storage interface to a generic
// event-record shape so it can back internal/telemetry.Sink for any kind
// of emitted event, not just opportunity detections.
package storage

import "context"

// Storage is the interface for persisting telemetry event records.
type Storage interface {
	// StoreEvent persists one structured telemetry record.
	StoreEvent(ctx context.Context, traceID, kind string, fields map[string]any) error

	// Close closes the storage connection.
	Close() error
}
