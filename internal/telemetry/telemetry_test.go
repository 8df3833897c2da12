package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type stubSink struct {
	calls []struct {
		traceID string
		kind    string
	}
	err error
}

func (s *stubSink) StoreEvent(traceID, kind string, fields map[string]any) error {
	s.calls = append(s.calls, struct {
		traceID string
		kind    string
	}{traceID, kind})
	return s.err
}

func TestRecorder_EmitMirrorsToSink(t *testing.T) {
	sink := &stubSink{}
	r := New(zap.NewNop(), sink, time.Minute)

	r.Emit("trace1", KindOpportunityFound, zap.String("strategy", "atomic"))

	if len(sink.calls) != 1 {
		t.Fatalf("expected 1 sink call, got %d", len(sink.calls))
	}
	if sink.calls[0].traceID != "trace1" || sink.calls[0].kind != string(KindOpportunityFound) {
		t.Errorf("unexpected sink call: %+v", sink.calls[0])
	}
}

func TestRecorder_EmitSinkErrorDoesNotPanic(t *testing.T) {
	sink := &stubSink{err: errors.New("write failed")}
	r := New(zap.NewNop(), sink, time.Minute)

	r.Emit("trace1", KindFill)
}

func TestWithTraceID_RoundTrip(t *testing.T) {
	ctx := WithTraceID(context.Background(), "abc123")
	got, ok := TraceIDFromContext(ctx)
	if !ok || got != "abc123" {
		t.Fatalf("TraceIDFromContext() = (%s, %v), want (abc123, true)", got, ok)
	}
}

func TestTraceIDFromContext_Missing(t *testing.T) {
	_, ok := TraceIDFromContext(context.Background())
	if ok {
		t.Fatal("expected ok = false for context without a trace id")
	}
}

func TestLatencyTracker_PercentilesOverWindow(t *testing.T) {
	lt := NewLatencyTracker(time.Minute)
	for i := 1; i <= 100; i++ {
		lt.Observe(StageFeedToBook, time.Duration(i)*time.Millisecond)
	}

	p := lt.Percentiles(StageFeedToBook)
	if p.Count != 100 {
		t.Fatalf("Count = %d, want 100", p.Count)
	}
	if p.P50 < 40*time.Millisecond || p.P50 > 60*time.Millisecond {
		t.Errorf("P50 = %s, want ~50ms", p.P50)
	}
	if p.P99 < 90*time.Millisecond {
		t.Errorf("P99 = %s, want >= 90ms", p.P99)
	}
}

func TestLatencyTracker_EvictsSamplesOutsideWindow(t *testing.T) {
	lt := NewLatencyTracker(10 * time.Millisecond)
	fakeNow := time.Now()
	lt.now = func() time.Time { return fakeNow }

	lt.Observe(StageRiskToSend, 5*time.Millisecond)

	fakeNow = fakeNow.Add(time.Hour)
	lt.Observe(StageRiskToSend, 5*time.Millisecond)

	p := lt.Percentiles(StageRiskToSend)
	if p.Count != 1 {
		t.Fatalf("Count = %d, want 1 (old sample evicted)", p.Count)
	}
}
