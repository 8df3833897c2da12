package httpserver

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/book"
	"github.com/mselser95/polymarket-arb/internal/discovery"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// OrderbookHandler serves the current book snapshot for every outcome of a
// tracked market.
type OrderbookHandler struct {
	books            *book.Store
	discoveryService *discovery.Service
	logger           *zap.Logger
}

// NewOrderbookHandler creates a new orderbook handler.
func NewOrderbookHandler(books *book.Store, discSvc *discovery.Service, logger *zap.Logger) *OrderbookHandler {
	return &OrderbookHandler{
		books:            books,
		discoveryService: discSvc,
		logger:           logger,
	}
}

// OutcomeOrderbook represents orderbook data for a single outcome.
type OutcomeOrderbook struct {
	Outcome      string `json:"outcome"`
	TokenID      string `json:"token_id"`
	BestBidPrice string `json:"best_bid_price"`
	BestBidSize  string `json:"best_bid_size"`
	BestAskPrice string `json:"best_ask_price"`
	BestAskSize  string `json:"best_ask_size"`
}

// OrderbookResponse represents the HTTP response for orderbook data.
type OrderbookResponse struct {
	MarketID   string             `json:"market_id"`
	MarketSlug string             `json:"market_slug"`
	Question   string             `json:"question"`
	Outcomes   []OutcomeOrderbook `json:"outcomes"`
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleOrderbook handles GET /api/orderbook?slug=<market-slug> requests.
func (h *OrderbookHandler) HandleOrderbook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	slug := r.URL.Query().Get("slug")
	if slug == "" {
		h.writeError(w, "missing required query parameter: slug", http.StatusBadRequest)
		return
	}

	h.logger.Debug("orderbook-request-received", zap.String("slug", slug))

	var marketSub *types.MarketSubscription
	for _, sub := range h.discoveryService.GetSubscribedMarkets() {
		if sub.MarketSlug == slug {
			marketSub = sub
			break
		}
	}

	if marketSub == nil {
		h.writeError(w, "market not found or not subscribed", http.StatusNotFound)
		return
	}

	outcomes := make([]OutcomeOrderbook, 0, len(marketSub.Outcomes))
	for _, outcome := range marketSub.Outcomes {
		snap, found := h.books.Get(outcome.TokenID)
		if !found {
			h.logger.Debug("orderbook-not-available",
				zap.String("token-id", outcome.TokenID),
				zap.String("outcome", outcome.Outcome))
			continue
		}

		entry := OutcomeOrderbook{Outcome: outcome.Outcome, TokenID: outcome.TokenID}
		if bid, ok := snap.BestBid(); ok {
			entry.BestBidPrice = bid.Price.String()
			entry.BestBidSize = bid.Size.String()
		}
		if ask, ok := snap.BestAsk(); ok {
			entry.BestAskPrice = ask.Price.String()
			entry.BestAskSize = ask.Size.String()
		}
		outcomes = append(outcomes, entry)
	}

	response := OrderbookResponse{
		MarketID:   marketSub.MarketID,
		MarketSlug: marketSub.MarketSlug,
		Question:   marketSub.Question,
		Outcomes:   outcomes,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

func (h *OrderbookHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{Error: message}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed-to-encode-error-response", zap.Error(err))
	}
}
