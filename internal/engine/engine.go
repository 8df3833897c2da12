// Package engine wires signal consumption to risk evaluation and execution
// dispatch (SPEC_FULL.md §4.6-§4.10): for every detect.Signal it builds a
// risk.EdgeBreakdown, evaluates it through a risk.Gate, and on ACCEPT hands
// the signal to an exec.Router, folding the result into the pnl.Tracker and
// recording every decision point on the telemetry.Recorder. Grounded on the
// teacher's internal/execution.Executor.executionLoop: a single goroutine
// reading from an opportunity channel, timing each cycle, and routing
// successes/failures to metrics and logs.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/corex"
	"github.com/mselser95/polymarket-arb/internal/detect"
	"github.com/mselser95/polymarket-arb/internal/exec"
	"github.com/mselser95/polymarket-arb/internal/pnl"
	"github.com/mselser95/polymarket-arb/internal/risk"
	"github.com/mselser95/polymarket-arb/internal/telemetry"
)

// GasEstimator supplies the estimated gas cost (in numéraire units) of
// executing a signal's legs, used to populate EdgeBreakdown.Gas before the
// risk gate runs. The simulated-only deployment has no chain to estimate
// against, so a StaticGasEstimator covers that case.
type GasEstimator interface {
	EstimateGasCost(ctx context.Context, sig detect.Signal) (corex.Decimal, error)
}

// StaticGasEstimator returns a fixed per-signal gas cost, matching the
// teacher's paper-mode config (no live gas oracle call).
type StaticGasEstimator corex.Decimal

// EstimateGasCost implements GasEstimator.
func (s StaticGasEstimator) EstimateGasCost(context.Context, detect.Signal) (corex.Decimal, error) {
	return corex.Decimal(s), nil
}

// CostModel estimates fees and slippage for a not-yet-executed signal from
// its legs, grounded on original_source's pre-trade edge estimate (the same
// rates the simulated executor applies post-trade in exec.Simulated).
type CostModel struct {
	TakerFeeRate     corex.Decimal
	SlippageBPSModel corex.Decimal
}

// Estimate sums the fee and slippage cost across every leg's notional.
func (m CostModel) Estimate(sig detect.Signal) (fees, slippage corex.Decimal) {
	fees = corex.Zero
	slippage = corex.Zero
	for _, leg := range sig.Legs {
		fees = fees.Add(leg.Notional.Mul(m.TakerFeeRate))
		slippage = slippage.Add(leg.Notional.Mul(m.SlippageBPSModel).DivInt(10_000))
	}
	return fees, slippage
}

// BalanceProvider reports the numéraire balance available to fund new
// trades, consulted fresh for every signal (balances move as fills land).
type BalanceProvider interface {
	AvailableBalance(ctx context.Context) (corex.Decimal, error)
}

// StaticBalance is a BalanceProvider returning a constant, for deployments
// that gate purely on RiskMaxPosition rather than live wallet balance.
type StaticBalance corex.Decimal

// AvailableBalance implements BalanceProvider.
func (s StaticBalance) AvailableBalance(context.Context) (corex.Decimal, error) {
	return corex.Decimal(s), nil
}

// Engine consumes signals from a detector and drives them through the risk
// gate and execution router (SPEC_FULL.md §3's pipeline: Signal -> Risk ->
// Execution -> PnL/Telemetry).
type Engine struct {
	gate      risk.Gate
	costModel CostModel
	gas       GasEstimator
	balance   BalanceProvider
	router    *exec.Router
	tracker   *pnl.Tracker
	telemetry *telemetry.Recorder
	logger    *zap.Logger

	wg sync.WaitGroup
}

// Config bundles an Engine's collaborators. Gas and Balance default to
// StaticGasEstimator(corex.Zero) and StaticBalance(corex.Zero) if nil; with a
// zero balance the gate rejects every signal with a positive trade size for
// insufficient balance.
type Config struct {
	Gate      risk.Gate
	CostModel CostModel
	Gas       GasEstimator
	Balance   BalanceProvider
	Router    *exec.Router
	Tracker   *pnl.Tracker
	Telemetry *telemetry.Recorder
	Logger    *zap.Logger
}

// New builds an Engine from cfg.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gas := cfg.Gas
	if gas == nil {
		gas = StaticGasEstimator(corex.Zero)
	}
	balance := cfg.Balance
	if balance == nil {
		balance = StaticBalance(corex.Zero)
	}
	return &Engine{
		gate:      cfg.Gate,
		costModel: cfg.CostModel,
		gas:       gas,
		balance:   balance,
		router:    cfg.Router,
		tracker:   cfg.Tracker,
		telemetry: cfg.Telemetry,
		logger:    logger.With(zap.String("component", "engine")),
	}
}

// Run consumes signals until ctx is cancelled or signals is closed, blocking
// the caller; start it in its own goroutine to run concurrently with the
// rest of the pipeline (matching the teacher's Executor.Start contract).
func (e *Engine) Run(ctx context.Context, signals <-chan detect.Signal) {
	e.wg.Add(1)
	defer e.wg.Done()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine-stopping")
			return
		case sig, ok := <-signals:
			if !ok {
				e.logger.Info("signal-channel-closed")
				return
			}
			e.process(ctx, sig)
		}
	}
}

// Wait blocks until Run has returned, for orderly shutdown sequencing.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) process(ctx context.Context, sig detect.Signal) {
	start := time.Now()

	e.telemetry.Emit(sig.TraceID, telemetry.KindOpportunityFound,
		zap.String("strategy", sig.StrategyName),
		zap.String("kind", sig.Kind.String()),
		zap.String("trade_size", sig.TradeSizeNotional.String()),
		zap.String("expected_profit", sig.ExpectedProfitNotional.String()))

	eb := e.buildEdgeBreakdown(ctx, sig)
	e.telemetry.ObserveLatency(telemetry.StageSignalToRisk, time.Since(start))

	e.telemetry.Emit(sig.TraceID, telemetry.KindRiskDecision,
		zap.String("decision", string(eb.Decision)),
		zap.String("reason", string(eb.Reason)),
		zap.String("net", eb.Net.String()),
		zap.String("gross", eb.Gross.String()))

	if eb.Decision != risk.Accept {
		e.logger.Info("signal-rejected",
			zap.String("trace-id", sig.TraceID),
			zap.String("reason", string(eb.Reason)))
		return
	}

	sendStart := time.Now()
	result := e.router.ExecuteSignal(ctx, sig)
	e.telemetry.ObserveLatency(telemetry.StageRiskToSend, time.Since(sendStart))

	if result.Failed {
		e.logger.Error("execution-failed",
			zap.String("trace-id", sig.TraceID),
			zap.Error(result.Err))
		e.telemetry.Emit(sig.TraceID, telemetry.KindOrderSubmitted,
			zap.Bool("success", false),
			zap.String("error", result.Err.Error()))
		if len(result.Fills) == 0 {
			return
		}
		// Partial fills still move positions and must be accounted for.
	} else {
		e.telemetry.Emit(sig.TraceID, telemetry.KindOrderSubmitted, zap.Bool("success", true))
	}

	for _, fill := range result.Fills {
		e.telemetry.Emit(sig.TraceID, telemetry.KindFill,
			zap.String("token_id", fill.TokenID),
			zap.String("side", fill.Side.String()),
			zap.String("price", fill.Price.String()),
			zap.String("shares", fill.Shares.String()),
			zap.Bool("simulated", fill.Simulated))
	}

	update := e.tracker.RecordSignal(sig.TraceID, sig.StrategyName, eb.Net, result.Fills)
	e.telemetry.Emit(sig.TraceID, telemetry.KindPnLUpdate,
		zap.String("simulated_pnl", update.SimulatedPnL.String()),
		zap.String("realized_pnl", update.RealizedPnL.String()),
		zap.Bool("is_simulated", update.IsSimulated))
}

func (e *Engine) buildEdgeBreakdown(ctx context.Context, sig detect.Signal) risk.EdgeBreakdown {
	fees, slippage := e.costModel.Estimate(sig)

	gas, err := e.gas.EstimateGasCost(ctx, sig)
	if err != nil {
		e.logger.Warn("gas-estimate-failed", zap.String("trace-id", sig.TraceID), zap.Error(err))
		gas = e.gate.Thresholds.MaxGasCost
	}

	balance, err := e.balance.AvailableBalance(ctx)
	if err != nil {
		e.logger.Warn("balance-lookup-failed", zap.String("trace-id", sig.TraceID), zap.Error(err))
		balance = corex.Zero
	}

	eb := risk.NewEdgeBreakdown(sig.TraceID, sig.ExpectedProfitNotional, fees, slippage, gas, corex.Zero)
	return e.gate.Evaluate(eb, balance, sig.TradeSizeNotional)
}

// ErrNotConfigured signals a required Engine collaborator was nil.
var ErrNotConfigured = fmt.Errorf("engine: router, tracker, and telemetry recorder are required")

// Validate checks that the Engine was built with its required
// collaborators, since a nil Router or Tracker would panic deep in process.
func (e *Engine) Validate() error {
	if e.router == nil || e.tracker == nil || e.telemetry == nil {
		return ErrNotConfigured
	}
	return nil
}
