package book

import (
	"testing"

	"github.com/mselser95/polymarket-arb/internal/corex"
	"github.com/stretchr/testify/assert"
)

func TestVWAP_EmptyBook(t *testing.T) {
	r := VWAP("tok", nil, corex.MustParse("10"))
	assert.False(t, r.Filled)
	assert.True(t, r.Shares.IsZero())
}

func TestVWAP_ZeroNotional(t *testing.T) {
	levels := []Level{lvl("0.5", "10")}
	r := VWAP("tok", levels, corex.Zero)
	assert.True(t, r.Filled)
	assert.True(t, r.Shares.IsZero())
	assert.True(t, r.AvgPrice.Equal(corex.MustParse("0.5")))
}

func TestVWAP_ExactlyAtDepth(t *testing.T) {
	levels := []Level{lvl("0.5", "20")} // 10 notional at 0.5 = 20 shares
	r := VWAP("tok", levels, corex.MustParse("10"))
	assert.True(t, r.Filled)
	assert.True(t, r.Remaining().IsZero())
	assert.True(t, r.Shares.Equal(corex.MustParse("20")))
}

func TestVWAP_SingleLevelFill(t *testing.T) {
	// S1 scenario: yes.asks = [(0.48, 100)], trade_size 10.
	levels := []Level{lvl("0.48", "100")}
	r := VWAP("yes", levels, corex.MustParse("10"))
	assert.True(t, r.Filled)
	assert.True(t, r.AvgPrice.Equal(corex.MustParse("0.48")))
}

func TestVWAP_InsufficientDepthUnfilled(t *testing.T) {
	// S3: yes.asks = [(0.40, 5)], trade_size 10 -> only $2 of depth available.
	levels := []Level{lvl("0.40", "5")}
	r := VWAP("yes", levels, corex.MustParse("10"))
	assert.False(t, r.Filled)
}

func TestVWAP_MultiLevelAveraging(t *testing.T) {
	levels := []Level{lvl("0.40", "10"), lvl("0.50", "100")} // first $4 at .40, rest at .50
	r := VWAP("tok", levels, corex.MustParse("10"))
	require := assert.New(t)
	require.True(r.Filled)
	// $4 at .40 = 10 shares, remaining $6 at .50 = 12 shares -> 22 shares / $10
	require.True(r.Shares.Equal(corex.MustParse("22")))
	expected := corex.MustParse("10").Div(corex.MustParse("22"))
	require.True(r.AvgPrice.Equal(expected))
}
