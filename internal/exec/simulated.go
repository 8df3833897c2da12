package exec

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/book"
	"github.com/mselser95/polymarket-arb/internal/corex"
)

// SimulatedConfig carries the fee/slippage model applied to every simulated
// fill (SPEC_FULL.md §4.9), grounded on the teacher's executePaper (per-leg
// fill at the top-of-book price, fee applied to notional).
type SimulatedConfig struct {
	TakerFeeRate     corex.Decimal
	SlippageBPSModel corex.Decimal // extra price impact applied on top of the VWAP walk itself
}

// Simulated executes orders against the current book snapshot without
// touching the chain, producing the same Fill shape a live execution would
// (SPEC_FULL.md §4.9/§8 simulated_pnl).
type Simulated struct {
	books  *book.Store
	cfg    SimulatedConfig
	clock  corex.Clock
	logger *zap.Logger
}

// NewSimulated builds a Simulated executor reading depth from books.
func NewSimulated(books *book.Store, cfg SimulatedConfig, clock corex.Clock, logger *zap.Logger) *Simulated {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = corex.SystemClock{}
	}
	return &Simulated{books: books, cfg: cfg, clock: clock, logger: logger.With(zap.String("component", "simulated-executor"))}
}

// Execute fills req against the book's resting liquidity on the opposite
// side of req.Side (buy walks asks, sell walks bids), applying the
// configured taker fee and slippage model.
func (s *Simulated) Execute(_ context.Context, req OrderRequest) (Fill, error) {
	snap, ok := s.books.Get(req.TokenID)
	if !ok {
		return Fill{}, fmt.Errorf("exec: no book for token %s", req.TokenID)
	}

	var levels []book.Level
	if req.Side == Buy {
		levels = snap.Asks
	} else {
		levels = snap.Bids
	}

	result := book.VWAP(req.TokenID, levels, req.Notional)
	if !result.Filled {
		return Fill{}, fmt.Errorf("exec: insufficient depth to fill %s notional %s on token %s", req.Side, req.Notional, req.TokenID)
	}

	price := applySlippage(result.AvgPrice, req.Side, s.cfg.SlippageBPSModel)
	shares := result.NotionalFilled.Div(price)
	fees := result.NotionalFilled.Mul(s.cfg.TakerFeeRate)

	fill := Fill{
		ID:             fmt.Sprintf("sim-%s-%d", req.ID, s.clock.Now().UnixNano()),
		OrderRequestID: req.ID,
		TraceID:        req.TraceID,
		TokenID:        req.TokenID,
		Side:           req.Side,
		Price:          price,
		Shares:         shares,
		Fees:           fees,
		TimestampMS:    s.clock.Now().UnixMilli(),
		Simulated:      true,
		SlippageBPS:    s.cfg.SlippageBPSModel,
	}

	s.logger.Debug("simulated-fill",
		zap.String("trace-id", req.TraceID),
		zap.String("token-id", req.TokenID),
		zap.String("side", req.Side.String()),
		zap.String("price", price.String()),
		zap.String("shares", shares.String()))

	return fill, nil
}

// applySlippage widens the execution price against the taker: buys pay more,
// sells receive less, matching original_source's pessimistic slippage model
// for simulated fills.
func applySlippage(price corex.Decimal, side FillSide, bps corex.Decimal) corex.Decimal {
	if bps.IsZero() {
		return price
	}
	impact := price.Mul(bps).DivInt(10_000)
	if side == Buy {
		return price.Add(impact)
	}
	return price.Sub(impact)
}
