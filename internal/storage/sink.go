package storage

import "context"

// TelemetrySink adapts a Storage to internal/telemetry.Sink, which has no
// context parameter since emission happens off the request path.
type TelemetrySink struct {
	Storage Storage
}

// StoreEvent implements telemetry.Sink.
func (s TelemetrySink) StoreEvent(traceID, kind string, fields map[string]any) error {
	return s.Storage.StoreEvent(context.Background(), traceID, kind, fields)
}
