package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/corex"
	"github.com/mselser95/polymarket-arb/internal/detect"
	"github.com/mselser95/polymarket-arb/internal/exec"
	"github.com/mselser95/polymarket-arb/internal/pnl"
	"github.com/mselser95/polymarket-arb/internal/risk"
	"github.com/mselser95/polymarket-arb/internal/telemetry"
)

type stubSimulated struct {
	fill exec.Fill
	err  error
}

func (s *stubSimulated) Execute(_ context.Context, req exec.OrderRequest) (exec.Fill, error) {
	if s.err != nil {
		return exec.Fill{}, s.err
	}
	f := s.fill
	f.TokenID = req.TokenID
	f.TraceID = req.TraceID
	return f, nil
}

func defaultThresholds() risk.Thresholds {
	return risk.Thresholds{
		MaxPosition:    corex.MustParse("1000"),
		MinProfitPct:   corex.MustParse("0.001"),
		MaxGasCost:     corex.MustParse("5"),
		MaxSlippagePct: corex.MustParse("0.05"),
	}
}

func newTestEngine(t *testing.T, sim exec.SimulatedExecutor) (*Engine, *pnl.Tracker) {
	t.Helper()
	router := exec.NewRouter(sim, nil, false, "", nil, nil, nil, zap.NewNop())
	tracker := pnl.NewTracker(zap.NewNop())
	recorder := telemetry.New(zap.NewNop(), nil, time.Minute)

	eng := New(Config{
		Gate:      risk.Gate{Thresholds: defaultThresholds()},
		CostModel: CostModel{TakerFeeRate: corex.MustParse("0.01"), SlippageBPSModel: corex.MustParse("10")},
		Gas:       StaticGasEstimator(corex.MustParse("0.1")),
		Balance:   StaticBalance(corex.MustParse("1000")),
		Router:    router,
		Tracker:   tracker,
		Telemetry: recorder,
		Logger:    zap.NewNop(),
	})
	return eng, tracker
}

func TestEngine_AcceptedSignalExecutesAndRecordsPnL(t *testing.T) {
	sim := &stubSimulated{fill: exec.Fill{
		Side:      exec.Buy,
		Price:     corex.MustParse("0.5"),
		Shares:    corex.MustParse("20"),
		Fees:      corex.MustParse("0.1"),
		Simulated: true,
	}}
	eng, tracker := newTestEngine(t, sim)

	signal := detect.Signal{
		TraceID:                "trace-accept",
		StrategyName:           "atomic-binary",
		TradeSizeNotional:      corex.MustParse("10"),
		ExpectedProfitNotional: corex.MustParse("2"),
		Legs: []detect.Leg{
			{TokenID: "yes", Side: detect.Buy, Notional: corex.MustParse("5"), PriceEstimate: corex.MustParse("0.5")},
			{TokenID: "no", Side: detect.Buy, Notional: corex.MustParse("5"), PriceEstimate: corex.MustParse("0.45")},
		},
	}

	ch := make(chan detect.Signal, 1)
	ch <- signal
	close(ch)

	eng.Run(context.Background(), ch)

	snap := tracker.Snapshot()
	if snap.SimulatedPnL.IsZero() {
		t.Fatalf("expected nonzero simulated pnl after accepted signal, got %s", snap.SimulatedPnL)
	}
}

func TestEngine_RejectedSignalNeverReachesRouter(t *testing.T) {
	sim := &stubSimulated{err: errors.New("should not be called")}
	eng, tracker := newTestEngine(t, sim)

	signal := detect.Signal{
		TraceID:                "trace-reject",
		StrategyName:           "atomic-binary",
		TradeSizeNotional:      corex.MustParse("10"),
		ExpectedProfitNotional: corex.MustParse("0.0001"), // gross not above the gas estimate, so the gate rejects
		Legs: []detect.Leg{
			{TokenID: "yes", Side: detect.Buy, Notional: corex.MustParse("5"), PriceEstimate: corex.MustParse("0.5")},
		},
	}

	ch := make(chan detect.Signal, 1)
	ch <- signal
	close(ch)

	eng.Run(context.Background(), ch)

	snap := tracker.Snapshot()
	if !snap.SimulatedPnL.IsZero() {
		t.Fatalf("expected no pnl recorded for rejected signal, got %s", snap.SimulatedPnL)
	}
}

func TestEngine_ContextCancelStopsRun(t *testing.T) {
	sim := &stubSimulated{}
	eng, _ := newTestEngine(t, sim)

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan detect.Signal)
	cancel()

	done := make(chan struct{})
	go func() {
		eng.Run(ctx, ch)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestEngine_ValidateRequiresCollaborators(t *testing.T) {
	eng := New(Config{})
	if err := eng.Validate(); err == nil {
		t.Fatal("expected error for unconfigured engine")
	}

	sim := &stubSimulated{}
	full, _ := newTestEngine(t, sim)
	if err := full.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
