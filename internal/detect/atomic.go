package detect

import (
	"github.com/mselser95/polymarket-arb/internal/book"
	"github.com/mselser95/polymarket-arb/internal/corex"
)

// DetectAtomic implements the binary (YES/NO) detector (SPEC_FULL.md
// §4.3): walk each side's asks for tradeSize, reject if either is
// unfilled, and emit a candidate Signal only when the combined cost is
// less than one settlement unit.
//
// Grounded on original_source's src/strategies/atomic.py::check_opportunity,
// restated here without fee/gas/slippage — those belong to the edge
// calculator (C6), not the detector, per SPEC_FULL.md §4.3's closing line.
func DetectAtomic(traceID string, yes, no book.Snapshot, tradeSize corex.Decimal) (Signal, bool) {
	vwapYes := book.VWAP(yes.TokenID, yes.Asks, tradeSize)
	vwapNo := book.VWAP(no.TokenID, no.Asks, tradeSize)

	if !vwapYes.Filled || !vwapNo.Filled {
		return Signal{}, false
	}

	costPerUnit := vwapYes.AvgPrice.Add(vwapNo.AvgPrice)
	grossProfitPerUnit := corex.One.Sub(costPerUnit)
	grossProfitTotal := grossProfitPerUnit.Mul(tradeSize)

	if !grossProfitTotal.GreaterThan(corex.Zero) {
		return Signal{}, false
	}

	return Signal{
		Kind:                   KindAtomic,
		StrategyName:           "atomic",
		TraceID:                traceID,
		TradeSizeNotional:      tradeSize,
		ExpectedProfitNotional: grossProfitTotal,
		Confidence:             corex.One,
		Legs: []Leg{
			{TokenID: yes.TokenID, Side: Buy, Notional: tradeSize, PriceEstimate: vwapYes.AvgPrice, Shares: vwapYes.Shares},
			{TokenID: no.TokenID, Side: Buy, Notional: tradeSize, PriceEstimate: vwapNo.AvgPrice, Shares: vwapNo.Shares},
		},
	}, true
}
