package detect

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/mselser95/polymarket-arb/internal/book"
	"go.uber.org/zap"
)

// Detector runs the event-driven detection loop (SPEC_FULL.md §4.3): it
// reads book-update notifications off a channel, resolves the affected
// basket(s) via a reverse token→basket index, and re-runs the matching
// detector function, emitting Signals on SignalChan.
//
// Grounded on the teacher's internal/arbitrage.Detector: a single
// detectionLoop goroutine consuming a buffered update channel, a reverse
// token->market index, and a non-blocking emit to downstream.
type Detector struct {
	store      *book.Store
	updateChan <-chan string // token ids whose book changed
	signalChan chan Signal
	logger     *zap.Logger

	mu          sync.RWMutex
	baskets     map[string]BasketSpec // basket id -> spec
	tokenIndex  map[string][]string   // token id -> basket ids watching it
	closed      bool
	wg          sync.WaitGroup
}

// NewDetector constructs a Detector reading from updateChan and writing
// candidate signals to a buffered SignalChan (capacity 1024, matching the
// teacher's preference for generously buffered, non-blocking internal
// channels).
func NewDetector(store *book.Store, updateChan <-chan string, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		store:      store,
		updateChan: updateChan,
		signalChan: make(chan Signal, 1024),
		logger:     logger.With(zap.String("component", "detector")),
		baskets:    make(map[string]BasketSpec),
		tokenIndex: make(map[string][]string),
	}
}

// SignalChan returns the channel candidate Signals are emitted on.
func (d *Detector) SignalChan() <-chan Signal {
	return d.signalChan
}

// RegisterBasket adds a basket to watch. Safe to call concurrently with Run.
func (d *Detector) RegisterBasket(spec BasketSpec) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.baskets[spec.ID] = spec
	for _, tok := range spec.Tokens() {
		d.tokenIndex[tok] = append(d.tokenIndex[tok], spec.ID)
	}
}

// Run starts the detection loop; it returns when ctx is cancelled or
// updateChan is closed.
func (d *Detector) Run(ctx context.Context) {
	d.wg.Add(1)
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case tokenID, ok := <-d.updateChan:
			if !ok {
				return
			}
			d.checkToken(tokenID)
		}
	}
}

// Close marks the detector closed and waits for Run to return; Run itself
// returns only when its ctx is cancelled or updateChan is closed.
func (d *Detector) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Detector) checkToken(tokenID string) {
	d.mu.RLock()
	basketIDs := append([]string(nil), d.tokenIndex[tokenID]...)
	d.mu.RUnlock()

	for _, id := range basketIDs {
		d.mu.RLock()
		spec, ok := d.baskets[id]
		d.mu.RUnlock()
		if !ok {
			continue
		}
		d.evaluate(spec)
	}
}

func (d *Detector) evaluate(spec BasketSpec) {
	traceID := uuid.NewString()

	if spec.IsAtomic() {
		yes, ok1 := d.store.Get(spec.YesToken)
		no, ok2 := d.store.Get(spec.NoToken)
		if !ok1 || !ok2 {
			return
		}
		sig, found := DetectAtomic(traceID, yes, no, spec.TradeSize)
		if !found {
			return
		}
		d.emit(sig)
		return
	}

	snaps := make([]book.Snapshot, 0, len(spec.TokenIDs))
	for _, tok := range spec.TokenIDs {
		snap, ok := d.store.Get(tok)
		if !ok {
			return
		}
		snaps = append(snaps, snap)
	}
	sig, found := DetectNOutcome(traceID, snaps, spec.TradeSize)
	if !found {
		return
	}
	d.emit(sig)
}

func (d *Detector) emit(sig Signal) {
	signalsDetected.Inc()
	select {
	case d.signalChan <- sig:
	default:
		signalsDropped.Inc()
		d.logger.Warn("signal-channel-full-dropping-signal", zap.String("strategy", sig.StrategyName))
	}
}
