// Package risk applies the edge calculation and fixed-order risk gate to a
// candidate signal (SPEC_FULL.md §4.4), grounded on the original bot's
// src/core/edge.py EdgeBreakdown/Decision shape.
package risk

// Decision is the outcome of evaluating an EdgeBreakdown.
type Decision string

const (
	Accept Decision = "ACCEPT"
	Reject Decision = "REJECT"
)

// Reason is a coded rejection (or acceptance) reason, always present on an
// EdgeBreakdown so downstream telemetry never has to pattern-match free text.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonNegativeValues     Reason = "NEGATIVE_VALUES"
	ReasonInsufficientBalance Reason = "INSUFFICIENT_BALANCE"
	ReasonPositionLimit      Reason = "POSITION_LIMIT"
	ReasonGasTooHigh         Reason = "GAS_TOO_HIGH"
	ReasonProfitBelowGas     Reason = "PROFIT_BELOW_GAS"
	ReasonProfitTooLow       Reason = "PROFIT_TOO_LOW"
	ReasonSlippageExceeded   Reason = "SLIPPAGE_EXCEEDED"
	ReasonAccepted           Reason = "ACCEPTED"

	// Strategy-specific rejects (evaluated only when a strategy opts in).
	ReasonResolutionUncertain Reason = "RESOLUTION_UNCERTAIN"
	ReasonDisputeRiskHigh     Reason = "DISPUTE_RISK_HIGH"
	ReasonCarryCostTooHigh    Reason = "CARRY_COST_TOO_HIGH"
	ReasonManipulationRisk    Reason = "MANIPULATION_RISK"
	ReasonAbnormalVolatility  Reason = "ABNORMAL_VOLATILITY"
)
