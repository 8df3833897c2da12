// Package book holds the per-token order-book store (C2): sorted bid/ask
// depth, sequence-gap tracking, and the VWAP walk used by detection and
// simulated execution.
//
// Grounded on the teacher's internal/orderbook.Manager (per-token map under
// a RWMutex, prometheus gauges, non-blocking update-notification channel),
// generalized from best-bid/ask-only to full sorted depth per
// 0xtitan6-polymarket-mm's internal/market.Book.
package book

import (
	"sort"
	"sync"

	"github.com/mselser95/polymarket-arb/internal/corex"
	"go.uber.org/zap"
)

// Side identifies which side of the book a level belongs to.
type Side int

const (
	// Bid is the buy side (bids sorted descending by price).
	Bid Side = iota
	// Ask is the sell side (asks sorted ascending by price).
	Ask
)

// Level is a single price/size point in the book. A level with Size == 0 is
// never stored; applying a zero-size update removes the level instead.
type Level struct {
	Price corex.Decimal
	Size  corex.Decimal
}

// Snapshot is a defensive, point-in-time copy of a token's book state,
// returned to readers so they never observe a write in progress.
type Snapshot struct {
	TokenID        string
	Bids           []Level // descending by price
	Asks           []Level // ascending by price
	LastUpdateMS   int64
	SequenceNumber int64
	SequenceGaps   int64
}

// BestBid returns the highest bid, or false if the book has no bids.
func (s Snapshot) BestBid() (Level, bool) {
	if len(s.Bids) == 0 {
		return Level{}, false
	}
	return s.Bids[0], true
}

// BestAsk returns the lowest ask, or false if the book has no asks.
func (s Snapshot) BestAsk() (Level, bool) {
	if len(s.Asks) == 0 {
		return Level{}, false
	}
	return s.Asks[0], true
}

type token struct {
	bids           []Level
	asks           []Level
	lastUpdateMS   int64
	sequenceNumber int64
	sequenceGaps   int64
	haveSequence   bool
}

// Store is the per-token order-book state. Single-writer (the market feed),
// multi-reader (detectors); see SPEC_FULL.md §5.
type Store struct {
	mu     sync.RWMutex
	tokens map[string]*token
	logger *zap.Logger
}

// NewStore creates an empty order-book store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		tokens: make(map[string]*token),
		logger: logger.With(zap.String("component", "book")),
	}
}

func (s *Store) get(tokenID string) *token {
	t, ok := s.tokens[tokenID]
	if !ok {
		t = &token{}
		s.tokens[tokenID] = t
	}
	return t
}

// ApplySnapshot replaces the full book state for tokenID. Levels with zero
// size are dropped; the result is sorted and deduplicated by price.
func (s *Store) ApplySnapshot(tokenID string, bids, asks []Level, sequenceNumber int64, hasSequence bool, nowMS int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.get(tokenID)
	t.bids = sortLevels(bids, Bid)
	t.asks = sortLevels(asks, Ask)
	t.lastUpdateMS = nowMS
	if hasSequence {
		t.sequenceNumber = sequenceNumber
		t.haveSequence = true
	}
	snapshotsApplied.Inc()
}

// ApplyUpdate applies per-level upserts (a size-0 delta removes the level).
// A sequence number <= the last-seen one is a duplicate and is discarded; a
// gap increments the observable gap counter but is otherwise applied
// (SPEC_FULL.md §4.1, Open Question 2).
func (s *Store) ApplyUpdate(tokenID string, bidDeltas, askDeltas []Level, sequenceNumber int64, hasSequence bool, nowMS int64) (applied bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.get(tokenID)

	if hasSequence && t.haveSequence {
		if sequenceNumber <= t.sequenceNumber {
			duplicatesDiscarded.Inc()
			return false
		}
		if gap := sequenceNumber - t.sequenceNumber - 1; gap > 0 {
			t.sequenceGaps += gap
			sequenceGapsTotal.Add(float64(gap))
		}
	}

	t.bids = applyDeltas(t.bids, bidDeltas, Bid)
	t.asks = applyDeltas(t.asks, askDeltas, Ask)
	t.lastUpdateMS = nowMS
	if hasSequence {
		t.sequenceNumber = sequenceNumber
		t.haveSequence = true
	}
	updatesApplied.Inc()
	return true
}

// Get returns a defensive snapshot of tokenID's current book state.
func (s *Store) Get(tokenID string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tokens[tokenID]
	if !ok {
		return Snapshot{}, false
	}
	return Snapshot{
		TokenID:        tokenID,
		Bids:           append([]Level(nil), t.bids...),
		Asks:           append([]Level(nil), t.asks...),
		LastUpdateMS:   t.lastUpdateMS,
		SequenceNumber: t.sequenceNumber,
		SequenceGaps:   t.sequenceGaps,
	}, true
}

// Tokens returns all token ids currently tracked.
func (s *Store) Tokens() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.tokens))
	for id := range s.tokens {
		out = append(out, id)
	}
	return out
}

func sortLevels(levels []Level, side Side) []Level {
	byPrice := make(map[string]Level, len(levels))
	for _, l := range levels {
		if l.Size.IsZero() {
			continue
		}
		byPrice[l.Price.String()] = l
	}
	out := make([]Level, 0, len(byPrice))
	for _, l := range byPrice {
		out = append(out, l)
	}
	sortInPlace(out, side)
	return out
}

func sortInPlace(levels []Level, side Side) {
	sort.Slice(levels, func(i, j int) bool {
		if side == Bid {
			return levels[i].Price.GreaterThan(levels[j].Price)
		}
		return levels[i].Price.LessThan(levels[j].Price)
	})
}

// applyDeltas upserts each delta into levels (size 0 removes), preserving
// the strict-sort, no-duplicate-price, positive-size invariant.
func applyDeltas(levels []Level, deltas []Level, side Side) []Level {
	if len(deltas) == 0 {
		return levels
	}
	byPrice := make(map[string]Level, len(levels))
	for _, l := range levels {
		byPrice[l.Price.String()] = l
	}
	for _, d := range deltas {
		key := d.Price.String()
		if d.Size.IsZero() {
			delete(byPrice, key)
			continue
		}
		byPrice[key] = d
	}
	out := make([]Level, 0, len(byPrice))
	for _, l := range byPrice {
		out = append(out, l)
	}
	sortInPlace(out, side)
	return out
}
