// Package feed adapts the teacher's pkg/websocket.Manager connection
// lifecycle (dial, ping/pong, reconnect-and-resubscribe) into the market
// feed that decodes wire messages into internal/book.Store updates and
// notifies the detection layer (C3, SPEC_FULL.md §4.1), generalizing the
// teacher's internal/orderbook.Manager from a best-bid/ask-only cache to
// full sorted depth on top of book.Store.
package feed

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/book"
	"github.com/mselser95/polymarket-arb/internal/corex"
	"github.com/mselser95/polymarket-arb/pkg/types"
	"github.com/mselser95/polymarket-arb/pkg/websocket"
)

// Source is the subset of *websocket.Manager the feed depends on, so tests
// can substitute a fake message source.
type Source interface {
	Start() error
	Subscribe(ctx context.Context, tokenIDs []string) error
	MessageChan() <-chan *types.OrderbookMessage
	Close() error
}

// Feed decodes raw websocket messages into book.Store mutations and emits
// the affected token id on UpdateChan for the detector to re-evaluate
// (SPEC_FULL.md §4.1).
type Feed struct {
	source Source
	books  *book.Store
	clock  corex.Clock
	logger *zap.Logger

	updateChan chan string

	mu            sync.Mutex
	lastMessageAt map[string]time.Time
	staleAfter    time.Duration

	wg sync.WaitGroup
}

// Config controls the feed's staleness detection and internal buffering.
type Config struct {
	StaleAfter        time.Duration
	UpdateChanBufSize int
}

// New builds a Feed reading from source and writing into books.
func New(source Source, books *book.Store, cfg Config, clock corex.Clock, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = corex.SystemClock{}
	}
	bufSize := cfg.UpdateChanBufSize
	if bufSize <= 0 {
		bufSize = 1024
	}
	return &Feed{
		source:        source,
		books:         books,
		clock:         clock,
		logger:        logger.With(zap.String("component", "feed")),
		updateChan:    make(chan string, bufSize),
		lastMessageAt: make(map[string]time.Time),
		staleAfter:    cfg.StaleAfter,
	}
}

// UpdateChan returns the channel of token ids whose book changed, consumed
// by internal/detect.Detector.
func (f *Feed) UpdateChan() <-chan string {
	return f.updateChan
}

// Start connects the underlying source and subscribes to tokenIDs.
func (f *Feed) Start(ctx context.Context, tokenIDs []string) error {
	if err := f.source.Start(); err != nil {
		return err
	}
	if err := f.source.Subscribe(ctx, tokenIDs); err != nil {
		return err
	}

	f.wg.Add(1)
	go f.decodeLoop(ctx)
	return nil
}

// Close stops the feed and the underlying source.
func (f *Feed) Close() error {
	err := f.source.Close()
	f.wg.Wait()
	close(f.updateChan)
	return err
}

// StaleTokens returns token ids that haven't received a message within
// staleAfter, for health/telemetry reporting.
func (f *Feed) StaleTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.staleAfter <= 0 {
		return nil
	}
	cutoff := f.clock.Now().Add(-f.staleAfter)
	var stale []string
	for tok, at := range f.lastMessageAt {
		if at.Before(cutoff) {
			stale = append(stale, tok)
		}
	}
	return stale
}

func (f *Feed) decodeLoop(ctx context.Context) {
	defer f.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-f.source.MessageChan():
			if !ok {
				return
			}
			f.handleMessage(msg)
		}
	}
}

func (f *Feed) handleMessage(msg *types.OrderbookMessage) {
	nowMS := f.clock.Now().UnixMilli()

	bids, err := decodeLevels(msg.Bids)
	if err != nil {
		f.logger.Warn("undecodable-bid-levels", zap.String("asset-id", msg.AssetID), zap.Error(err))
		return
	}
	asks, err := decodeLevels(msg.Asks)
	if err != nil {
		f.logger.Warn("undecodable-ask-levels", zap.String("asset-id", msg.AssetID), zap.Error(err))
		return
	}

	switch msg.EventType {
	case "book":
		f.books.ApplySnapshot(msg.AssetID, bids, asks, msg.SequenceNumber, msg.HasSequence, nowMS)
	case "price_change":
		if !f.books.ApplyUpdate(msg.AssetID, bids, asks, msg.SequenceNumber, msg.HasSequence, nowMS) {
			return // duplicate, no downstream notification
		}
	default:
		return // heartbeats and other control message types carry no book delta
	}

	f.mu.Lock()
	f.lastMessageAt[msg.AssetID] = f.clock.Now()
	f.mu.Unlock()

	select {
	case f.updateChan <- msg.AssetID:
	default:
		f.logger.Warn("update-channel-full-dropping-notification", zap.String("asset-id", msg.AssetID))
	}
}

func decodeLevels(levels []types.PriceLevel) ([]book.Level, error) {
	out := make([]book.Level, 0, len(levels))
	for _, l := range levels {
		price, err := corex.Parse(l.Price)
		if err != nil {
			return nil, err
		}
		size, err := corex.Parse(l.Size)
		if err != nil {
			return nil, err
		}
		out = append(out, book.Level{Price: price, Size: size})
	}
	return out, nil
}
