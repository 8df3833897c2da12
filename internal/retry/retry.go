// Package retry implements the retry-with-backoff policy shared by every
// outbound call in the execution pipeline (SPEC_FULL.md §4.6), generalizing
// the teacher's internal/markets.fetchWithRetry shape to the exact
// retryable-error patterns and jittered backoff used by the original bot's
// src/execution/retry_policy.py.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"
)

// retryablePatterns are substrings of an error's message that mark it as
// transient. Union of the teacher's HTTP-status/network list and the
// original bot's nonce/gas-specific patterns.
var retryablePatterns = []string{
	"timeout",
	"network",
	"connection",
	"connection refused",
	"connection reset",
	"429",
	"500",
	"502",
	"503",
	"nonce too low",
	"replacement transaction underpriced",
	"gas required exceeds allowance",
}

// IsRetryable reports whether err should trigger another attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range retryablePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// Config controls backoff shape, matching the original's
// RetryPolicyConfig defaults.
type Config struct {
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	Jitter            bool
}

// DefaultConfig returns the original bot's defaults: 3 retries, 1s base
// delay, 30s cap, 2x multiplier, jitter enabled.
func DefaultConfig() Config {
	return Config{
		MaxRetries:        3,
		BaseDelay:         time.Second,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// OnRetryFunc is called after each retryable failure, before sleeping.
type OnRetryFunc func(attempt int, err error, delay time.Duration)

// Policy executes a function with retry-on-transient-failure semantics.
type Policy struct {
	cfg     Config
	logger  *zap.Logger
	onRetry OnRetryFunc
}

// New builds a Policy. onRetry may be nil.
func New(cfg Config, logger *zap.Logger, onRetry OnRetryFunc) *Policy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{cfg: cfg, logger: logger.With(zap.String("component", "retry-policy")), onRetry: onRetry}
}

// CalculateDelay returns the backoff delay for the given zero-based attempt
// index, exponential with an optional ±10% jitter, capped at MaxDelay.
func (p *Policy) CalculateDelay(attempt int) time.Duration {
	delay := float64(p.cfg.BaseDelay) * pow(p.cfg.BackoffMultiplier, attempt)
	if delay > float64(p.cfg.MaxDelay) {
		delay = float64(p.cfg.MaxDelay)
	}
	if p.cfg.Jitter {
		jitter := 1 + (rand.Float64()*0.2 - 0.1) // +/-10%
		delay *= jitter
	}
	return time.Duration(delay)
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

// Execute runs fn, retrying on transient errors up to cfg.MaxRetries times.
func (p *Policy) Execute(ctx context.Context, operation string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
		if attempt == p.cfg.MaxRetries {
			return fmt.Errorf("retry: max retries (%d) exceeded for %s: %w", p.cfg.MaxRetries, operation, err)
		}

		delay := p.CalculateDelay(attempt)
		if p.onRetry != nil {
			p.onRetry(attempt+1, err, delay)
		}
		p.logger.Warn("retrying-after-transient-failure",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Int("max-retries", p.cfg.MaxRetries),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}
