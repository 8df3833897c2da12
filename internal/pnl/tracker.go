// Package pnl aggregates expected-edge, simulated, and realized profit and
// loss per trade (C15, SPEC_FULL.md §4.10), grounded on the teacher's
// executor's cumulativeProfit-under-mutex accumulation pattern, generalized
// to the simulated/realized split the spec requires.
package pnl

import (
	"sync"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/corex"
	"github.com/mselser95/polymarket-arb/internal/exec"
)

// Update is one accounting event emitted after a signal's fills are known
// (SPEC_FULL.md §3's PnLUpdate).
type Update struct {
	TraceID       string
	Strategy      string
	ExpectedEdge  corex.Decimal
	SimulatedPnL  corex.Decimal
	RealizedPnL   corex.Decimal
	FeesPaid      corex.Decimal
	SlippageCost  corex.Decimal
	IsSimulated   bool
	TimestampMS   int64
}

// Tracker accumulates PnL across trades, stateless per-trade beyond the
// running totals (SPEC_FULL.md §4.10): simulated_pnl is mutated only by
// simulated fills, realized_pnl only by live confirmed fills.
type Tracker struct {
	mu sync.Mutex

	simulatedPnL corex.Decimal
	realizedPnL  corex.Decimal
	feesPaid     corex.Decimal
	slippage     corex.Decimal
	positions    map[string]corex.Decimal // token id -> net shares held

	logger *zap.Logger
}

// NewTracker builds an empty Tracker.
func NewTracker(logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		positions: make(map[string]corex.Decimal),
		logger:    logger.With(zap.String("component", "pnl-tracker")),
	}
}

// RecordSignal folds every fill produced for one signal into the running
// totals. pnl = sum(net_proceeds) + payout - slippage, where payout is the
// sum of shares filled across every leg (SPEC_FULL.md §4.10, testable
// invariant 7), matching original_source's pnl_tracker.py::payout = sum(f.
// quantity for f in fills): each basket unit acquired settles for exactly
// 1.0 numéraire regardless of which legs filled it.
func (t *Tracker) RecordSignal(traceID, strategy string, expectedEdge corex.Decimal, fills []exec.Fill) Update {
	t.mu.Lock()
	defer t.mu.Unlock()

	netProceeds := corex.Zero
	fees := corex.Zero
	slippageCost := corex.Zero
	payout := corex.Zero
	allSimulated := len(fills) > 0

	for _, f := range fills {
		netProceeds = netProceeds.Add(f.NetProceeds())
		fees = fees.Add(f.Fees)
		slippageImpact := f.Notional().Mul(f.SlippageBPS).DivInt(10_000)
		slippageCost = slippageCost.Add(slippageImpact)
		payout = payout.Add(f.Shares)

		if !f.Simulated {
			allSimulated = false
		}

		pos := t.positions[f.TokenID]
		if f.Side == exec.Buy {
			t.positions[f.TokenID] = pos.Add(f.Shares)
		} else {
			t.positions[f.TokenID] = pos.Sub(f.Shares)
		}
	}

	tradePnL := netProceeds.Add(payout).Sub(slippageCost)

	if allSimulated {
		t.simulatedPnL = t.simulatedPnL.Add(tradePnL)
	} else {
		t.realizedPnL = t.realizedPnL.Add(tradePnL)
	}
	t.feesPaid = t.feesPaid.Add(fees)
	t.slippage = t.slippage.Add(slippageCost)

	update := Update{
		TraceID:      traceID,
		Strategy:     strategy,
		ExpectedEdge: expectedEdge,
		SimulatedPnL: t.simulatedPnL,
		RealizedPnL:  t.realizedPnL,
		FeesPaid:     t.feesPaid,
		SlippageCost: t.slippage,
		IsSimulated:  allSimulated,
	}

	t.logger.Info("pnl-update",
		zap.String("trace-id", traceID),
		zap.String("strategy", strategy),
		zap.String("trade-pnl", tradePnL.String()),
		zap.Bool("simulated", allSimulated))

	return update
}

// Snapshot is a point-in-time read of the tracker's running totals.
type Snapshot struct {
	SimulatedPnL corex.Decimal
	RealizedPnL  corex.Decimal
	FeesPaid     corex.Decimal
	SlippageCost corex.Decimal
	Positions    map[string]corex.Decimal
}

// Snapshot returns a defensive copy of the tracker's current totals.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	positions := make(map[string]corex.Decimal, len(t.positions))
	for k, v := range t.positions {
		positions[k] = v
	}
	return Snapshot{
		SimulatedPnL: t.simulatedPnL,
		RealizedPnL:  t.realizedPnL,
		FeesPaid:     t.feesPaid,
		SlippageCost: t.slippage,
		Positions:    positions,
	}
}
