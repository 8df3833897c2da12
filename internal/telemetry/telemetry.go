package telemetry

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Stage names the four latency-sampled transitions of one
// detection/execution cycle (SPEC_FULL.md §4.11); the event kinds emitted
// to the structured log are the separate Kind type below.
type Stage string

const (
	StageFeedToBook    Stage = "feed_to_book"
	StageBookToSignal  Stage = "book_to_signal"
	StageSignalToRisk  Stage = "signal_to_risk"
	StageRiskToSend    Stage = "risk_to_send"
)

// Kind discriminates the decision points every record in the event stream
// is tagged with.
type Kind string

const (
	KindMessageReceived    Kind = "message_received"
	KindOpportunityFound   Kind = "opportunity_detected"
	KindRiskDecision       Kind = "risk_decision"
	KindOrderSubmitted     Kind = "order_submitted"
	KindFill               Kind = "fill"
	KindPnLUpdate          Kind = "pnl_update"
	KindCircuitStateChange Kind = "circuit_state_change"
)

// Sink persists an emitted record beyond the zap log stream, e.g. for a
// queryable audit trail (SPEC_FULL.md §4.11). Implemented by
// internal/storage's adapters.
type Sink interface {
	StoreEvent(traceID string, kind string, fields map[string]any) error
}

// Recorder is the single entry point every component uses to emit telemetry
// (SPEC_FULL.md §4.11). It writes one JSON line per record via a dedicated
// zap logger and, if configured, mirrors the record to a Sink.
type Recorder struct {
	logger  *zap.Logger
	sink    Sink
	latency *LatencyTracker
}

// New builds a Recorder. eventLogger should be a zap.Logger instance
// dedicated to the event stream (JSON encoding), matching the teacher's
// pkg/config.NewLogger construction. sink may be nil.
func New(eventLogger *zap.Logger, sink Sink, window time.Duration) *Recorder {
	if eventLogger == nil {
		eventLogger = zap.NewNop()
	}
	return &Recorder{
		logger:  eventLogger.With(zap.String("component", "telemetry")),
		sink:    sink,
		latency: NewLatencyTracker(window),
	}
}

// Emit records one structured event tagged with traceID and kind.
func (r *Recorder) Emit(traceID string, kind Kind, fields ...zap.Field) {
	all := append([]zap.Field{zap.String("trace_id", traceID), zap.String("kind", string(kind))}, fields...)
	r.logger.Info("event", all...)

	if r.sink != nil {
		m := make(map[string]any, len(fields))
		for _, f := range fields {
			m[f.Key] = fieldValue(f)
		}
		if err := r.sink.StoreEvent(traceID, string(kind), m); err != nil {
			r.logger.Warn("telemetry-sink-store-failed", zap.Error(err), zap.String("trace_id", traceID))
		}
	}
}

// ObserveLatency records a stage's duration for percentile computation.
func (r *Recorder) ObserveLatency(stage Stage, d time.Duration) {
	r.latency.Observe(stage, d)
}

// LatencySnapshot returns p50/p95/p99 across the sliding window for a stage.
func (r *Recorder) LatencySnapshot(stage Stage) Percentiles {
	return r.latency.Percentiles(stage)
}

func fieldValue(f zap.Field) any {
	switch f.Type {
	case zap.StringType:
		return f.String
	case zap.Int64Type, zap.Int32Type, zap.Int16Type, zap.Int8Type:
		return f.Integer
	case zap.Float64Type:
		return f.Interface
	case zap.BoolType:
		return f.Integer == 1
	default:
		if f.Interface != nil {
			return f.Interface
		}
		return f.String
	}
}

// Percentiles is a point-in-time p50/p95/p99 reading for one stage.
type Percentiles struct {
	P50, P95, P99 time.Duration
	Count         int
}

type sample struct {
	at time.Time
	d  time.Duration
}

// LatencyTracker keeps a sliding window of per-stage duration samples and
// computes percentiles over it (SPEC_FULL.md §4.11, default 60s window).
type LatencyTracker struct {
	window time.Duration

	mu      sync.Mutex
	samples map[Stage][]sample
	now     func() time.Time
}

// NewLatencyTracker builds a tracker with the given sliding-window size.
func NewLatencyTracker(window time.Duration) *LatencyTracker {
	if window <= 0 {
		window = 60 * time.Second
	}
	return &LatencyTracker{
		window:  window,
		samples: make(map[Stage][]sample),
		now:     time.Now,
	}
}

// Observe records one duration sample for stage, evicting samples older
// than the window.
func (t *LatencyTracker) Observe(stage Stage, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	s := append(t.samples[stage], sample{at: now, d: d})
	cutoff := now.Add(-t.window)
	kept := s[:0]
	for _, x := range s {
		if x.at.After(cutoff) {
			kept = append(kept, x)
		}
	}
	t.samples[stage] = kept
}

// Percentiles computes p50/p95/p99 over the current window for stage.
func (t *LatencyTracker) Percentiles(stage Stage) Percentiles {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.samples[stage]
	if len(s) == 0 {
		return Percentiles{}
	}

	durations := make([]time.Duration, len(s))
	for i, x := range s {
		durations[i] = x.d
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	return Percentiles{
		P50:   percentile(durations, 0.50),
		P95:   percentile(durations, 0.95),
		P99:   percentile(durations, 0.99),
		Count: len(durations),
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
