package book

import "github.com/mselser95/polymarket-arb/internal/corex"

// VWAPResult is the outcome of walking one side of a book for a target
// notional (C4, SPEC_FULL.md §4.2).
type VWAPResult struct {
	TokenID        string
	AvgPrice       corex.Decimal
	Shares         corex.Decimal
	NotionalTarget corex.Decimal
	NotionalFilled corex.Decimal
	Filled         bool
}

// Remaining returns the notional left unfilled.
func (r VWAPResult) Remaining() corex.Decimal {
	return r.NotionalTarget.Sub(r.NotionalFilled)
}

// VWAP walks levels (already sorted in the appropriate direction — ascending
// for asks when buying, descending for bids when selling) consuming
// notional until either the target is exhausted or depth runs out.
//
// Grounded on original_source's src/strategies/{atomic,negrisk}.py
// `_calculate_vwap` (the same algorithm duplicated twice in the original;
// unified into one function here).
func VWAP(tokenID string, levels []Level, notionalTarget corex.Decimal) VWAPResult {
	if notionalTarget.IsZero() {
		avg := corex.Zero
		if len(levels) > 0 {
			avg = levels[0].Price
		}
		return VWAPResult{
			TokenID:        tokenID,
			AvgPrice:       avg,
			Shares:         corex.Zero,
			NotionalTarget: notionalTarget,
			NotionalFilled: corex.Zero,
			Filled:         true,
		}
	}

	if len(levels) == 0 {
		return VWAPResult{
			TokenID:        tokenID,
			AvgPrice:       corex.Zero,
			Shares:         corex.Zero,
			NotionalTarget: notionalTarget,
			NotionalFilled: corex.Zero,
			Filled:         false,
		}
	}

	remaining := notionalTarget
	totalCost := corex.Zero
	totalShares := corex.Zero

	for _, lvl := range levels {
		if remaining.Sign() <= 0 {
			break
		}
		levelValue := lvl.Size.Mul(lvl.Price)

		if levelValue.GreaterThanOrEqual(remaining) {
			sharesNeeded := remaining.Div(lvl.Price)
			totalCost = totalCost.Add(remaining)
			totalShares = totalShares.Add(sharesNeeded)
			remaining = corex.Zero
			break
		}

		totalCost = totalCost.Add(levelValue)
		totalShares = totalShares.Add(lvl.Size)
		remaining = remaining.Sub(levelValue)
	}

	filled := remaining.IsZero()

	avg := corex.Zero
	if !totalShares.IsZero() {
		avg = totalCost.Div(totalShares)
	}

	return VWAPResult{
		TokenID:        tokenID,
		AvgPrice:       avg,
		Shares:         totalShares,
		NotionalTarget: notionalTarget,
		NotionalFilled: totalCost,
		Filled:         filled,
	}
}

// VWAPShares walks levels to acquire a target number of shares rather than a
// target notional — the N-outcome detector buys a fixed number of basket
// units (canonically one) per outcome, per SPEC_FULL.md §4.3, rather than a
// fixed dollar amount per leg.
func VWAPShares(tokenID string, levels []Level, sharesTarget corex.Decimal) VWAPResult {
	if sharesTarget.IsZero() {
		avg := corex.Zero
		if len(levels) > 0 {
			avg = levels[0].Price
		}
		return VWAPResult{TokenID: tokenID, AvgPrice: avg, Shares: corex.Zero, Filled: true}
	}

	if len(levels) == 0 {
		return VWAPResult{TokenID: tokenID, Filled: false}
	}

	remaining := sharesTarget
	totalCost := corex.Zero
	totalShares := corex.Zero

	for _, lvl := range levels {
		if remaining.Sign() <= 0 {
			break
		}
		if lvl.Size.GreaterThanOrEqual(remaining) {
			totalCost = totalCost.Add(remaining.Mul(lvl.Price))
			totalShares = totalShares.Add(remaining)
			remaining = corex.Zero
			break
		}
		totalCost = totalCost.Add(lvl.Size.Mul(lvl.Price))
		totalShares = totalShares.Add(lvl.Size)
		remaining = remaining.Sub(lvl.Size)
	}

	filled := remaining.IsZero()
	avg := corex.Zero
	if !totalShares.IsZero() {
		avg = totalCost.Div(totalShares)
	}

	return VWAPResult{
		TokenID:        tokenID,
		AvgPrice:       avg,
		Shares:         totalShares,
		NotionalTarget: corex.Zero,
		NotionalFilled: totalCost,
		Filled:         filled,
	}
}
