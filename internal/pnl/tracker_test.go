package pnl

import (
	"testing"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/corex"
	"github.com/mselser95/polymarket-arb/internal/exec"
)

func TestTracker_SimulatedFillsMutateSimulatedPnLOnly(t *testing.T) {
	tr := NewTracker(zap.NewNop())

	fills := []exec.Fill{
		{TokenID: "yes", Side: exec.Buy, Price: corex.MustParse("0.48"), Shares: corex.MustParse("10"), Fees: corex.MustParse("0.1"), Simulated: true},
		{TokenID: "no", Side: exec.Buy, Price: corex.MustParse("0.50"), Shares: corex.MustParse("10"), Fees: corex.MustParse("0.1"), Simulated: true},
	}

	update := tr.RecordSignal("trace1", "atomic", corex.MustParse("0.02"), fills)
	if !update.IsSimulated {
		t.Error("expected IsSimulated = true")
	}
	if update.RealizedPnL.Sign() != 0 {
		t.Errorf("expected realized pnl untouched, got %s", update.RealizedPnL)
	}
	if update.SimulatedPnL.IsZero() {
		t.Error("expected non-zero simulated pnl")
	}

	snap := tr.Snapshot()
	if !snap.RealizedPnL.IsZero() {
		t.Errorf("RealizedPnL = %s, want 0", snap.RealizedPnL)
	}
}

func TestTracker_LiveFillsMutateRealizedPnLOnly(t *testing.T) {
	tr := NewTracker(zap.NewNop())

	fills := []exec.Fill{
		{TokenID: "yes", Side: exec.Buy, Price: corex.MustParse("0.48"), Shares: corex.MustParse("10"), Simulated: false},
	}

	update := tr.RecordSignal("trace2", "atomic", corex.Zero, fills)
	if update.IsSimulated {
		t.Error("expected IsSimulated = false")
	}
	snap := tr.Snapshot()
	if !snap.SimulatedPnL.IsZero() {
		t.Errorf("SimulatedPnL = %s, want 0", snap.SimulatedPnL)
	}
	if snap.RealizedPnL.IsZero() {
		t.Error("expected non-zero realized pnl")
	}
}

func TestTracker_PositionsAccumulatePerToken(t *testing.T) {
	tr := NewTracker(zap.NewNop())

	tr.RecordSignal("trace3", "atomic", corex.Zero, []exec.Fill{
		{TokenID: "yes", Side: exec.Buy, Price: corex.MustParse("0.5"), Shares: corex.MustParse("10"), Simulated: true},
	})
	tr.RecordSignal("trace4", "atomic", corex.Zero, []exec.Fill{
		{TokenID: "yes", Side: exec.Sell, Price: corex.MustParse("0.5"), Shares: corex.MustParse("4"), Simulated: true},
	})

	snap := tr.Snapshot()
	want := corex.MustParse("6")
	if !snap.Positions["yes"].Equal(want) {
		t.Errorf("position[yes] = %s, want %s", snap.Positions["yes"], want)
	}
}
