package exec

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/breaker"
	"github.com/mselser95/polymarket-arb/internal/corex"
	"github.com/mselser95/polymarket-arb/internal/detect"
	"github.com/mselser95/polymarket-arb/internal/idem"
	"github.com/mselser95/polymarket-arb/internal/retry"
)

// LiveExecutor is the subset of *Live the router depends on.
type LiveExecutor interface {
	Execute(ctx context.Context, req OrderRequest, price corex.Decimal, takerAddress string) (Fill, error)
}

// SimulatedExecutor is the subset of *Simulated the router depends on.
type SimulatedExecutor interface {
	Execute(ctx context.Context, req OrderRequest) (Fill, error)
}

// Router dispatches an accepted signal's legs to either the simulated or
// live executor (C14), guarding every live call with the circuit breaker and
// retry policy and deduplicating by idempotency key, matching the layering
// the teacher's Executor imposes between opportunity consumption and
// order-client calls.
type Router struct {
	simulated    SimulatedExecutor
	live         LiveExecutor
	liveEnabled  bool
	takerAddress string
	breaker      *breaker.Breaker
	retry        *retry.Policy
	idem         *idem.Store
	logger       *zap.Logger
}

// NewRouter builds a Router. live and takerAddress may be zero-valued when
// liveEnabled is false (dry-run/simulation-only deployments).
func NewRouter(sim SimulatedExecutor, live LiveExecutor, liveEnabled bool, takerAddress string, br *breaker.Breaker, rp *retry.Policy, idemStore *idem.Store, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		simulated:    sim,
		live:         live,
		liveEnabled:  liveEnabled,
		takerAddress: takerAddress,
		breaker:      br,
		retry:        rp,
		idem:         idemStore,
		logger:       logger.With(zap.String("component", "execution-router")),
	}
}

// ExecuteSignal executes every leg of signal in order, stopping at the first
// leg failure (SPEC_FULL.md §4.9's sequential-legs requirement for the live
// path; the simulated path has no atomicity concerns but follows the same
// shape for uniformity).
func (r *Router) ExecuteSignal(ctx context.Context, signal detect.Signal) Result {
	result := Result{TraceID: signal.TraceID}

	for i, leg := range signal.Legs {
		orderID := fmt.Sprintf("%s-%d", signal.TraceID, i)
		if r.idem != nil && r.idem.CheckAndSet(orderID) {
			r.logger.Warn("skipping-duplicate-order", zap.String("order-id", orderID))
			continue
		}

		req := OrderRequest{
			ID:       orderID,
			TraceID:  signal.TraceID,
			TokenID:  leg.TokenID,
			Side:     leg.Side,
			Notional: leg.Notional,
		}

		fill, err := r.executeLeg(ctx, req, leg.PriceEstimate)
		if err != nil {
			result.Failed = true
			result.Err = fmt.Errorf("exec: leg %d (token %s): %w", i, leg.TokenID, err)
			if r.idem != nil {
				r.idem.Remove(orderID)
			}
			return result
		}
		result.Fills = append(result.Fills, fill)
	}

	return result
}

func (r *Router) executeLeg(ctx context.Context, req OrderRequest, price corex.Decimal) (Fill, error) {
	if !r.liveEnabled {
		return r.simulated.Execute(ctx, req)
	}

	var fill Fill
	op := func() error {
		return r.breaker.Call(ctx, 0, func(ctx context.Context) error {
			f, err := r.live.Execute(ctx, req, price, r.takerAddress)
			if err != nil {
				return err
			}
			fill = f
			return nil
		})
	}

	if r.retry != nil {
		if err := r.retry.Execute(ctx, "live-order-fill", op); err != nil {
			return Fill{}, err
		}
		return fill, nil
	}

	if err := op(); err != nil {
		return Fill{}, err
	}
	return fill, nil
}
