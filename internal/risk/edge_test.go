package risk

import (
	"testing"

	"github.com/mselser95/polymarket-arb/internal/corex"
	"github.com/stretchr/testify/assert"
)

func TestNewEdgeBreakdown_S1_NetCalculation(t *testing.T) {
	gross := corex.MustParse("0.20")
	fees := corex.MustParse("0.0343")
	slippage := corex.Zero
	gas := corex.Zero
	minThreshold := corex.MustParse("0.1")

	eb := NewEdgeBreakdown("trace-s1", gross, fees, slippage, gas, minThreshold)

	// latency_buffer = gross * 0.001 = 0.0002
	assert.True(t, eb.LatencyBuffer.Equal(corex.MustParse("0.0002")))
	// net = 0.20 - 0.0343 - 0 - 0 - 0.0002 = 0.1655
	assert.True(t, eb.Net.Equal(corex.MustParse("0.1655")), "got %s", eb.Net.String())
}

func TestNewEdgeBreakdown_NetLawHolds(t *testing.T) {
	gross := corex.MustParse("1.5")
	fees := corex.MustParse("0.1")
	slippage := corex.MustParse("0.05")
	gas := corex.MustParse("0.2")

	eb := NewEdgeBreakdown("trace-x", gross, fees, slippage, gas, corex.Zero)

	expected := gross.Sub(fees).Sub(slippage).Sub(gas).Sub(eb.LatencyBuffer)
	assert.True(t, eb.Net.Equal(expected))
}
