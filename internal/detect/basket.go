package detect

import "github.com/mselser95/polymarket-arb/internal/corex"

// BasketSpec names the tokens that together must settle to exactly one
// numéraire unit (SPEC_FULL.md §3). Atomic baskets set YesToken/NoToken;
// N-outcome baskets set TokenIDs (len >= 2). Exactly one of the two shapes
// is populated.
type BasketSpec struct {
	ID        string
	YesToken  string
	NoToken   string
	TokenIDs  []string
	TradeSize corex.Decimal
}

// IsAtomic reports whether this basket is the two-leg binary shape.
func (b BasketSpec) IsAtomic() bool {
	return b.YesToken != "" && b.NoToken != ""
}

// Tokens returns every token id this basket watches, atomic or N-outcome.
func (b BasketSpec) Tokens() []string {
	if b.IsAtomic() {
		return []string{b.YesToken, b.NoToken}
	}
	return b.TokenIDs
}
