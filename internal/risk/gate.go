package risk

import "github.com/mselser95/polymarket-arb/internal/corex"

// Thresholds are the configurable risk limits evaluated by Gate.Evaluate
// (SPEC_FULL.md §4.4).
type Thresholds struct {
	MaxPosition    corex.Decimal
	MinProfitPct   corex.Decimal
	MaxGasCost     corex.Decimal
	MaxSlippagePct corex.Decimal
}

// StrategyCheck is an additional predicate a strategy can opt into, run
// strictly after the seven universal predicates and before ACCEPT. It
// returns ok=false and a reason to reject.
type StrategyCheck func(eb EdgeBreakdown, tradeSize corex.Decimal) (ok bool, reason Reason)

// Gate evaluates an EdgeBreakdown against fixed-order predicates and emits
// the final decision.
type Gate struct {
	Thresholds     Thresholds
	StrategyChecks []StrategyCheck
}

// Evaluate runs the seven universal predicates in order, then any
// strategy-specific checks, stopping at the first failure. It returns eb
// with Decision and Reason populated, and always records an observation to
// metrics under eb.TraceID's reason code.
func (g Gate) Evaluate(eb EdgeBreakdown, balance, tradeSize corex.Decimal) EdgeBreakdown {
	reason := g.evaluatePredicates(eb, balance, tradeSize)
	if reason != ReasonNone {
		eb.Decision = Reject
		eb.Reason = reason
		riskRejectedTotal.WithLabelValues(string(reason)).Inc()
		return eb
	}

	eb.Decision = Accept
	eb.Reason = ReasonAccepted
	riskAcceptedTotal.Inc()
	return eb
}

func (g Gate) evaluatePredicates(eb EdgeBreakdown, balance, tradeSize corex.Decimal) Reason {
	if balance.IsNegative() || eb.Gas.IsNegative() || eb.Gross.IsNegative() {
		return ReasonNegativeValues
	}
	if balance.LessThan(tradeSize) {
		return ReasonInsufficientBalance
	}
	if tradeSize.GreaterThan(g.Thresholds.MaxPosition) {
		return ReasonPositionLimit
	}
	if eb.Gas.GreaterThan(g.Thresholds.MaxGasCost) {
		return ReasonGasTooHigh
	}
	if !eb.Gross.GreaterThan(eb.Gas) {
		return ReasonProfitBelowGas
	}
	minProfit := tradeSize.Mul(g.Thresholds.MinProfitPct)
	if eb.Net.LessThan(minProfit) {
		return ReasonProfitTooLow
	}
	maxSlippage := tradeSize.Mul(g.Thresholds.MaxSlippagePct)
	if eb.Slippage.GreaterThan(maxSlippage) {
		return ReasonSlippageExceeded
	}

	for _, check := range g.StrategyChecks {
		if ok, reason := check(eb, tradeSize); !ok {
			return reason
		}
	}

	return ReasonNone
}
