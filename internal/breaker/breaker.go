// Package breaker implements a failure-rate/gas-cost circuit breaker for
// the execution pipeline (SPEC_FULL.md §4.8). It is a different design from
// the teacher's internal/circuitbreaker.BalanceCircuitBreaker (which trips
// on wallet balance thresholds): this one trips on consecutive failures,
// failure rate over a sliding window, or an abnormally expensive gas cost,
// grounded on the original bot's src/execution/circuit_breaker.py. Style
// (short-held sync.Mutex around state and history, promauto metrics) is
// carried over from the teacher's breaker.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is one of CLOSED (normal), OPEN (refusing calls), or HALF_OPEN
// (probing recovery).
type State string

const (
	Closed   State = "CLOSED"
	Open     State = "OPEN"
	HalfOpen State = "HALF_OPEN"
)

// ErrOpen is returned by Call when the breaker refuses to invoke fn.
var ErrOpen = errors.New("breaker: circuit open")

// Config mirrors original_source's CircuitBreakerConfig defaults.
type Config struct {
	ConsecutiveFailuresThreshold int
	FailureRateThreshold         float64
	GasCostThreshold             float64
	OpenTimeout                  time.Duration
	HalfOpenMaxCalls             int
	MonitoringWindow             time.Duration
}

// DefaultConfig returns the original's defaults.
func DefaultConfig() Config {
	return Config{
		ConsecutiveFailuresThreshold: 5,
		FailureRateThreshold:         0.5,
		GasCostThreshold:             2.0,
		OpenTimeout:                  60 * time.Second,
		HalfOpenMaxCalls:             3,
		MonitoringWindow:             300 * time.Second,
	}
}

// CallResult records the outcome of one guarded call, for trip evaluation
// and telemetry.
type CallResult struct {
	Success       bool
	Timestamp     time.Time
	Err           error
	GasCost       float64
	ExecutionTime time.Duration
}

// Breaker is the failure-rate/gas-cost circuit breaker.
type Breaker struct {
	cfg    Config
	logger *zap.Logger
	clock  func() time.Time

	mu                  sync.Mutex
	state               State
	stateChangedAt      time.Time
	consecutiveFailures int
	halfOpenCalls       int
	history             []CallResult
}

// New builds a Breaker starting CLOSED.
func New(cfg Config, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Breaker{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "execution-breaker")),
		clock:  time.Now,
	}
	b.state = Closed
	b.stateChangedAt = b.clock()
	stateGauge.Set(stateValue(Closed))
	return b
}

// CanExecute reports whether a call would currently be admitted, without
// side effects beyond an OPEN->HALF_OPEN timeout transition check.
func (b *Breaker) CanExecute() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checkStateTransitionLocked()
	return b.state != Open
}

// Call invokes fn if the breaker currently admits calls, recording the
// outcome and evaluating trip conditions. Returns ErrOpen without invoking
// fn if the circuit is OPEN, or if it is HALF_OPEN and the trial quota for
// this window is exhausted.
func (b *Breaker) Call(ctx context.Context, gasCostHint float64, fn func(ctx context.Context) error) error {
	b.mu.Lock()
	b.checkStateTransitionLocked()
	if b.state == Open {
		b.mu.Unlock()
		breakerRefusedTotal.Inc()
		return ErrOpen
	}
	if b.state == HalfOpen {
		if b.halfOpenCalls >= b.cfg.HalfOpenMaxCalls {
			b.mu.Unlock()
			breakerRefusedTotal.Inc()
			return ErrOpen
		}
		b.halfOpenCalls++
	}
	b.mu.Unlock()

	start := b.clock()
	err := fn(ctx)
	execTime := b.clock().Sub(start)

	result := CallResult{
		Success:       err == nil,
		Timestamp:     b.clock(),
		Err:           err,
		GasCost:       gasCostHint,
		ExecutionTime: execTime,
	}
	b.record(result)
	return err
}

func (b *Breaker) record(result CallResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.history = append(b.history, result)
	if len(b.history) > 1000 {
		b.history = append([]CallResult(nil), b.history[len(b.history)-500:]...)
	}

	if result.Success {
		b.consecutiveFailures = 0
		callsTotal.WithLabelValues("success").Inc()
	} else {
		b.consecutiveFailures++
		callsTotal.WithLabelValues("failure").Inc()
	}

	if b.state == HalfOpen && !result.Success {
		// Any failure inside the trial quota reopens the breaker immediately
		// (SPEC_FULL.md §4.8), regardless of whether it alone trips the
		// consecutive-failure or failure-rate thresholds.
		b.transitionToLocked(Open, "half-open-trial-failed")
		return
	}

	if b.shouldTripLocked(result) {
		b.transitionToLocked(Open, "trip-condition-met")
		return
	}
	b.checkStateTransitionLocked()
}

// shouldTripLocked mirrors the original's _should_trip: gas cost threshold,
// then consecutive failures, then failure rate — any one is sufficient.
func (b *Breaker) shouldTripLocked(result CallResult) bool {
	if b.state == Open {
		return false
	}
	if result.GasCost > b.cfg.GasCostThreshold {
		return true
	}
	if b.consecutiveFailures >= b.cfg.ConsecutiveFailuresThreshold {
		return true
	}
	if rate, n := b.failureRateLocked(); n > 0 && rate >= b.cfg.FailureRateThreshold {
		return true
	}
	return false
}

func (b *Breaker) failureRateLocked() (rate float64, n int) {
	cutoff := b.clock().Add(-b.cfg.MonitoringWindow)
	var total, failed int
	for _, r := range b.history {
		if r.Timestamp.Before(cutoff) {
			continue
		}
		total++
		if !r.Success {
			failed++
		}
	}
	if total == 0 {
		return 0, 0
	}
	return float64(failed) / float64(total), total
}

// checkStateTransitionLocked handles OPEN->HALF_OPEN on timeout and
// HALF_OPEN->CLOSED/OPEN once the trial quota for this window is spent.
func (b *Breaker) checkStateTransitionLocked() {
	switch b.state {
	case Open:
		if b.clock().Sub(b.stateChangedAt) >= b.cfg.OpenTimeout {
			b.transitionToLocked(HalfOpen, "open-timeout-elapsed")
		}
	case HalfOpen:
		if b.halfOpenCalls >= b.cfg.HalfOpenMaxCalls {
			if b.consecutiveFailures == 0 {
				b.transitionToLocked(Closed, "half-open-trials-succeeded")
			} else {
				b.transitionToLocked(Open, "half-open-trial-failed")
			}
		}
	}
}

func (b *Breaker) transitionToLocked(newState State, reason string) {
	prev := b.state
	b.state = newState
	b.stateChangedAt = b.clock()

	switch newState {
	case Closed:
		b.consecutiveFailures = 0
		b.halfOpenCalls = 0
	case HalfOpen:
		b.halfOpenCalls = 0
	}

	stateGauge.Set(stateValue(newState))
	stateChangesTotal.Inc()
	b.logger.Info("breaker-state-transition",
		zap.String("from", string(prev)),
		zap.String("to", string(newState)),
		zap.String("reason", reason))
}

// Reset forces the breaker back to CLOSED, clearing history and counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = nil
	b.transitionToLocked(Closed, "manual-reset")
}

// Stats is a point-in-time snapshot for telemetry/health endpoints.
type Stats struct {
	State               State
	ConsecutiveFailures int
	HalfOpenCalls       int
	HistoryLen          int
	FailureRate         float64
}

// Stats returns a snapshot of the breaker's current state.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	rate, _ := b.failureRateLocked()
	return Stats{
		State:               b.state,
		ConsecutiveFailures: b.consecutiveFailures,
		HalfOpenCalls:       b.halfOpenCalls,
		HistoryLen:          len(b.history),
		FailureRate:         rate,
	}
}

func stateValue(s State) float64 {
	switch s {
	case Closed:
		return 0
	case HalfOpen:
		return 1
	case Open:
		return 2
	default:
		return -1
	}
}
