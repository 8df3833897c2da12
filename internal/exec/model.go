// Package exec implements the simulated and live execution paths and the
// router between them (SPEC_FULL.md §4.9), grounded on the teacher's
// internal/execution package and on original_source's fill.py/executors.
package exec

import (
	"github.com/mselser95/polymarket-arb/internal/corex"
	"github.com/mselser95/polymarket-arb/internal/detect"
)

// FillSide mirrors detect.Side; kept distinct so the execution-layer Fill
// model doesn't couple callers to the detection package's Signal shape.
type FillSide = detect.Side

const (
	Buy  = detect.Buy
	Sell = detect.Sell
)

// OrderRequest is one leg submitted for execution.
type OrderRequest struct {
	ID         string
	TraceID    string
	TokenID    string
	Side       FillSide
	Notional   corex.Decimal
	RequestedAtMS int64
}

// Fill is the unified result of executing one leg, live or simulated.
// Grounded on original_source's src/execution/fill.py.
type Fill struct {
	ID              string
	OrderRequestID  string
	TraceID         string
	TokenID         string
	Side            FillSide
	Price           corex.Decimal
	Shares          corex.Decimal
	Fees            corex.Decimal
	TimestampMS     int64
	Simulated       bool
	SlippageBPS     corex.Decimal
	TxHash          string
	OnChainConfirmed bool
}

// Notional returns price * shares.
func (f Fill) Notional() corex.Decimal {
	return f.Price.Mul(f.Shares)
}

// NetProceeds is -notional-fees for BUY, +notional-fees for SELL, matching
// fill.py's net_proceeds property.
func (f Fill) NetProceeds() corex.Decimal {
	notional := f.Notional()
	if f.Side == Buy {
		return notional.Neg().Sub(f.Fees)
	}
	return notional.Sub(f.Fees)
}

// Result is the outcome of executing a whole signal (all legs).
type Result struct {
	TraceID string
	Fills   []Fill
	Failed  bool
	Err     error
}
