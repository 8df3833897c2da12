package detect

import (
	"github.com/mselser95/polymarket-arb/internal/book"
	"github.com/mselser95/polymarket-arb/internal/corex"
)

// DetectNOutcome implements the mutually-exclusive N-outcome detector
// (SPEC_FULL.md §4.3): buys sharesPerOutcome shares of every outcome in
// the basket (canonically 1, acquiring one unit of basket) and emits a
// candidate Signal when the combined cost is below the guaranteed payout
// of 1 unit per basket.
//
// Grounded on original_source's src/strategies/negrisk.py::check_opportunity.
func DetectNOutcome(traceID string, outcomes []book.Snapshot, sharesPerOutcome corex.Decimal) (Signal, bool) {
	if len(outcomes) < 2 {
		return Signal{}, false
	}

	legs := make([]Leg, 0, len(outcomes))
	totalCost := corex.Zero

	for _, snap := range outcomes {
		r := book.VWAPShares(snap.TokenID, snap.Asks, sharesPerOutcome)
		if !r.Filled {
			return Signal{}, false
		}
		totalCost = totalCost.Add(r.NotionalFilled)
		legs = append(legs, Leg{
			TokenID:       snap.TokenID,
			Side:          Buy,
			Notional:      r.NotionalFilled,
			PriceEstimate: r.AvgPrice,
			Shares:        r.Shares,
		})
	}

	payout := sharesPerOutcome // one outcome pays 1 per basket unit
	grossProfit := payout.Sub(totalCost)
	if !grossProfit.GreaterThan(corex.Zero) {
		return Signal{}, false
	}

	return Signal{
		Kind:                   KindNOutcome,
		StrategyName:           "n_outcome",
		TraceID:                traceID,
		TradeSizeNotional:      totalCost,
		ExpectedProfitNotional: grossProfit,
		Confidence:             corex.One,
		Legs:                   legs,
	}, true
}
