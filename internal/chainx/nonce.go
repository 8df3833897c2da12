// Package chainx adapts the teacher's on-chain wallet/client plumbing to the
// nonce management and gas-fee-suggestion needs of the execution pipeline
// (SPEC_FULL.md §4.5, §4.13).
package chainx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// NonceStatus tracks one allocated nonce (SPEC_FULL.md §3), grounded on
// original_source's NonceManager.NonceStatus.
type NonceStatus struct {
	Nonce     uint64
	InUse     bool
	Confirmed bool
	CreatedAt time.Time
}

// PendingNonceFetcher is the minimal on-chain surface the manager needs at
// initialize time; satisfied by ChainClient.
type PendingNonceFetcher interface {
	PendingNonceAt(ctx context.Context, addr string) (uint64, error)
}

// NonceManager owns a monotonically increasing per-sender nonce counter,
// grounded on original_source's src/execution/nonce_manager.py. One
// NonceManager per sender address.
type NonceManager struct {
	address string
	fetcher PendingNonceFetcher
	logger  *zap.Logger

	mu        sync.Mutex
	next      uint64
	pending   map[uint64]*NonceStatus
	confirmed map[uint64]struct{}
}

// NewNonceManager constructs a manager for address. Call Initialize before
// first use.
func NewNonceManager(address string, fetcher PendingNonceFetcher, logger *zap.Logger) *NonceManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NonceManager{
		address:   address,
		fetcher:   fetcher,
		logger:    logger.With(zap.String("component", "nonce-manager"), zap.String("address", address)),
		pending:   make(map[uint64]*NonceStatus),
		confirmed: make(map[uint64]struct{}),
	}
}

// Initialize seeds the counter from the chain's pending nonce.
func (m *NonceManager) Initialize(ctx context.Context) error {
	n, err := m.fetcher.PendingNonceAt(ctx, m.address)
	if err != nil {
		return fmt.Errorf("nonce manager: fetch pending nonce: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.next = n
	return nil
}

// Allocate returns the next nonce and marks it pending/in-use.
func (m *NonceManager) Allocate() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.next
	m.next++
	m.pending[n] = &NonceStatus{Nonce: n, InUse: true, CreatedAt: time.Now()}
	return n
}

// MarkConfirmed moves a pending nonce to confirmed once its transaction is
// mined.
func (m *NonceManager) MarkConfirmed(nonce uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if status, ok := m.pending[nonce]; ok {
		status.Confirmed = true
		delete(m.pending, nonce)
	}
	m.confirmed[nonce] = struct{}{}
}

// MarkFailed releases a nonce whose transaction failed before or without
// being broadcast, making it available for reuse. If nonce is lower than the
// next counter, the counter is rewound so this nonce is handed out again
// before any higher one — matching the original's "add back to pool, use
// this nonce first" behaviour. This is safe only for failures the caller
// knows happened pre-broadcast or were never seen on chain; a transaction
// that was actually broadcast and could still be mined must not have its
// nonce reused (SPEC_FULL.md §9 Open Question 3).
func (m *NonceManager) MarkFailed(nonce uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.pending, nonce)
	if nonce < m.next {
		m.next = nonce
	}
}

// IsPending reports whether nonce is currently allocated and unconfirmed.
func (m *NonceManager) IsPending(nonce uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[nonce]
	return ok
}

// PendingCount returns the number of currently pending (unconfirmed)
// nonces.
func (m *NonceManager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Stats is a snapshot of the manager's counters, for telemetry.
type Stats struct {
	Next           uint64
	PendingCount   int
	ConfirmedCount int
}

// Stats returns a point-in-time snapshot.
func (m *NonceManager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Next:           m.next,
		PendingCount:   len(m.pending),
		ConfirmedCount: len(m.confirmed),
	}
}
