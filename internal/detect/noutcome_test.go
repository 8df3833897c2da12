package detect

import (
	"testing"

	"github.com/mselser95/polymarket-arb/internal/book"
	"github.com/mselser95/polymarket-arb/internal/corex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S4 — N-outcome profitable.
func TestDetectNOutcome_S4_Profitable(t *testing.T) {
	outcomes := []book.Snapshot{
		askSnapshot("t1", "0.40", "1000"),
		askSnapshot("t2", "0.25", "1000"),
		askSnapshot("t3", "0.15", "1000"),
		askSnapshot("t4", "0.10", "1000"),
	}

	sig, ok := DetectNOutcome("trace-s4", outcomes, corex.One)
	require.True(t, ok)
	assert.Equal(t, KindNOutcome, sig.Kind)
	assert.Len(t, sig.Legs, 4)
	// total cost 0.90, payout 1.0 -> gross profit 0.10
	assert.True(t, sig.ExpectedProfitNotional.Equal(corex.MustParse("0.10")))
	assert.True(t, sig.TradeSizeNotional.Equal(corex.MustParse("0.90")))
}

func TestDetectNOutcome_UnfilledLegNoSignal(t *testing.T) {
	outcomes := []book.Snapshot{
		askSnapshot("t1", "0.40", "0.5"), // insufficient size for 1 share
		askSnapshot("t2", "0.25", "1000"),
	}
	_, ok := DetectNOutcome("trace-x", outcomes, corex.One)
	assert.False(t, ok)
}

func TestDetectNOutcome_RequiresAtLeastTwoOutcomes(t *testing.T) {
	outcomes := []book.Snapshot{askSnapshot("t1", "0.40", "1000")}
	_, ok := DetectNOutcome("trace-y", outcomes, corex.One)
	assert.False(t, ok)
}

func TestDetectNOutcome_NotProfitable(t *testing.T) {
	outcomes := []book.Snapshot{
		askSnapshot("t1", "0.60", "1000"),
		askSnapshot("t2", "0.55", "1000"),
	}
	_, ok := DetectNOutcome("trace-z", outcomes, corex.One)
	assert.False(t, ok)
}
