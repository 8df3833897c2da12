package app

import (
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/corex"
	"github.com/mselser95/polymarket-arb/internal/detect"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// handleNewMarkets subscribes to new markets as they are discovered.
func (a *App) handleNewMarkets() {
	defer a.wg.Done()

	for {
		select {
		case <-a.ctx.Done():
			return
		case market, ok := <-a.discoveryService.NewMarketsChan():
			if !ok {
				return
			}

			a.subscribeToMarket(market)
		}
	}
}

// subscribeToMarket registers the market's basket with the detector and
// subscribes its tokens on the shared websocket pool; the decode loop
// already running inside a.marketFeed picks up the new messages without
// needing to be restarted, since the pool multiplexes every connection's
// traffic onto one channel regardless of which call added the subscription.
func (a *App) subscribeToMarket(market *types.Market) {
	tokenIDs := make([]string, 0, len(market.Tokens))
	for _, tok := range market.Tokens {
		if tok.TokenID != "" {
			tokenIDs = append(tokenIDs, tok.TokenID)
		}
	}

	if len(tokenIDs) < 2 {
		a.logger.Warn("market-missing-tokens",
			zap.String("market-id", market.ID),
			zap.String("slug", market.Slug),
			zap.Int("token-count", len(tokenIDs)))
		return
	}

	if err := a.wsPool.Subscribe(a.ctx, tokenIDs); err != nil {
		a.logger.Error("subscribe-failed",
			zap.String("market-id", market.ID),
			zap.String("slug", market.Slug),
			zap.Error(err))
		return
	}

	spec := basketFromMarket(market, tokenIDs, corex.NewFromFloat64(a.cfg.ArbMaxTradeSize))
	a.detector.RegisterBasket(spec)

	a.logger.Info("subscribed-to-market",
		zap.String("slug", market.Slug),
		zap.String("question", market.Question),
		zap.Bool("atomic", spec.IsAtomic()),
		zap.Int("outcomes", len(tokenIDs)))
}

// basketFromMarket builds the atomic YES/NO shape when the market has
// exactly two outcomes literally named Yes/No, and falls back to the
// generic N-outcome shape for every other case (three-way races,
// multi-candidate markets, or binary markets whose tokens aren't tagged
// YES/NO).
func basketFromMarket(market *types.Market, tokenIDs []string, tradeSize corex.Decimal) detect.BasketSpec {
	spec := detect.BasketSpec{ID: market.ID, TradeSize: tradeSize}

	if len(tokenIDs) == 2 {
		yes := market.GetTokenByOutcome("YES")
		no := market.GetTokenByOutcome("NO")
		if yes != nil && no != nil && yes.TokenID != "" && no.TokenID != "" {
			spec.YesToken = yes.TokenID
			spec.NoToken = no.TokenID
			return spec
		}
	}

	spec.TokenIDs = tokenIDs
	return spec
}
