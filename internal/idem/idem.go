// Package idem provides a TTL-backed idempotency-key set, grounded on
// original_source's src/execution/retry_policy.py::IdempotencyKey, backed
// by the teacher's pkg/cache Ristretto wiring rather than a bespoke
// map+mutex, since ristretto already gives us cost-aware TTL eviction and
// an observable hit/miss surface.
package idem

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// Store tracks recently-seen idempotency keys so a duplicate submission
// (e.g. a retried order placement) can be recognized and skipped.
type Store struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewStore builds a Store with the given key TTL. numCounters/maxCost
// follow the teacher's pkg/cache sizing convention (10x expected item
// count for NumCounters).
func NewStore(ttl time.Duration, numCounters, maxCost int64) (*Store, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}
	return &Store{cache: cache, ttl: ttl}, nil
}

// CheckAndSet reports whether key has already been seen within the TTL
// window. If not seen, it records the key and returns false (not a
// duplicate); if already present, it returns true without re-extending the
// TTL, matching the original's lazy-eviction check_and_set semantics.
func (s *Store) CheckAndSet(key string) (alreadySeen bool) {
	if _, found := s.cache.Get(key); found {
		return true
	}
	s.cache.SetWithTTL(key, struct{}{}, 1, s.ttl)
	s.cache.Wait()
	return false
}

// Remove evicts a key, e.g. after its associated order is known to have
// failed terminally and should be retryable under the same key.
func (s *Store) Remove(key string) {
	s.cache.Del(key)
}

// Metrics exposes ristretto's hit/miss counters for telemetry.
func (s *Store) Metrics() *ristretto.Metrics {
	return s.cache.Metrics
}

// Close releases the underlying cache's resources.
func (s *Store) Close() {
	s.cache.Close()
}
