// Package detect holds the opportunity detectors (C5): pure functions over
// book snapshots that assemble a candidate Signal using the VWAP engine.
//
// Grounded on the teacher's internal/arbitrage package (opportunity.go's
// NewOpportunity constructor pattern, detector.go's event-driven detection
// loop) generalized to a sum-typed Signal per SPEC_FULL.md §9's
// re-architecture note — the teacher's own N-outcome path
// (NewMultiOutcomeOpportunity / OpportunityOutcome) is referenced in
// detector.go but never defined in the retrieved snapshot, so the shape
// here is original, built from the binary case generalized to N legs and
// from original_source's src/strategies/negrisk.py.
package detect

import "github.com/mselser95/polymarket-arb/internal/corex"

// Kind discriminates the basket shape a Signal was derived from.
type Kind int

const (
	// KindAtomic is a two-leg YES/NO binary arbitrage.
	KindAtomic Kind = iota
	// KindNOutcome is an N-leg mutually-exclusive-outcome arbitrage.
	KindNOutcome
)

func (k Kind) String() string {
	switch k {
	case KindAtomic:
		return "atomic"
	case KindNOutcome:
		return "n_outcome"
	default:
		return "unknown"
	}
}

// Side is the trade direction of a leg.
type Side int

const (
	// Buy is a taker buy leg.
	Buy Side = iota
	// Sell is a taker sell leg.
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "sell"
	}
	return "buy"
}

// Leg is one token/side/size/price-estimate component of a Signal.
type Leg struct {
	TokenID       string
	Side          Side
	Notional      corex.Decimal
	PriceEstimate corex.Decimal
	Shares        corex.Decimal
}

// Signal is the uniform candidate-opportunity shape produced by every
// detector, replacing the teacher's heterogeneous Opportunity /
// (never-defined) MultiOutcomeOpportunity types with one sum type carrying
// a common header plus a leg list (SPEC_FULL.md §3, §9).
type Signal struct {
	Kind                   Kind
	StrategyName           string
	TraceID                string
	TradeSizeNotional      corex.Decimal
	ExpectedProfitNotional corex.Decimal
	Confidence             corex.Decimal
	Legs                   []Leg
}

// TokenIDs returns the token ids of every leg, in leg order.
func (s Signal) TokenIDs() []string {
	ids := make([]string, len(s.Legs))
	for i, l := range s.Legs {
		ids[i] = l.TokenID
	}
	return ids
}
