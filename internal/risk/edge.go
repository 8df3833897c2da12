package risk

import "github.com/mselser95/polymarket-arb/internal/corex"

// LatencyBufferRate is the fraction of gross profit reserved against
// detection-to-execution latency slippage, matching original_source's
// default of 0.1% of gross.
var LatencyBufferRate = corex.MustParse("0.001")

// EdgeBreakdown is the fully itemized accept/reject decision for a
// candidate signal (SPEC_FULL.md §3, grounded on src/core/edge.py's
// EdgeBreakdown dataclass).
type EdgeBreakdown struct {
	TraceID       string
	Gross         corex.Decimal
	Fees          corex.Decimal
	Slippage      corex.Decimal
	Gas           corex.Decimal
	LatencyBuffer corex.Decimal
	MinThreshold  corex.Decimal
	Net           corex.Decimal
	Decision      Decision
	Reason        Reason
	RiskTags      []string
}

// NewEdgeBreakdown computes latency_buffer and net from the inputs, per the
// law net = gross - fees - slippage - gas - latency_buffer. Decision/Reason
// are left zero-valued; the risk gate (gate.go) fills them in.
func NewEdgeBreakdown(traceID string, gross, fees, slippage, gas, minThreshold corex.Decimal) EdgeBreakdown {
	latencyBuffer := gross.Mul(LatencyBufferRate)
	net := calculateNetEdge(gross, fees, slippage, gas, latencyBuffer)
	return EdgeBreakdown{
		TraceID:       traceID,
		Gross:         gross,
		Fees:          fees,
		Slippage:      slippage,
		Gas:           gas,
		LatencyBuffer: latencyBuffer,
		MinThreshold:  minThreshold,
		Net:           net,
	}
}

func calculateNetEdge(gross, fees, slippage, gas, latencyBuffer corex.Decimal) corex.Decimal {
	return gross.Sub(fees).Sub(slippage).Sub(gas).Sub(latencyBuffer)
}
