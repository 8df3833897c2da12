package app

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/book"
	"github.com/mselser95/polymarket-arb/internal/breaker"
	"github.com/mselser95/polymarket-arb/internal/chainx"
	"github.com/mselser95/polymarket-arb/internal/detect"
	"github.com/mselser95/polymarket-arb/internal/discovery"
	"github.com/mselser95/polymarket-arb/internal/engine"
	"github.com/mselser95/polymarket-arb/internal/exec"
	"github.com/mselser95/polymarket-arb/internal/feed"
	"github.com/mselser95/polymarket-arb/internal/idem"
	"github.com/mselser95/polymarket-arb/internal/markets"
	"github.com/mselser95/polymarket-arb/internal/pnl"
	"github.com/mselser95/polymarket-arb/internal/retry"
	"github.com/mselser95/polymarket-arb/internal/storage"
	"github.com/mselser95/polymarket-arb/internal/telemetry"
	"github.com/mselser95/polymarket-arb/pkg/cache"
	"github.com/mselser95/polymarket-arb/pkg/config"
	"github.com/mselser95/polymarket-arb/pkg/healthprobe"
	"github.com/mselser95/polymarket-arb/pkg/httpserver"
	"github.com/mselser95/polymarket-arb/pkg/wallet"
	"github.com/mselser95/polymarket-arb/pkg/websocket"
)

// App is the main application orchestrator, wiring market discovery through
// order-book maintenance, opportunity detection, risk-gated execution, and
// PnL/telemetry recording into one process.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server

	marketCache      cache.Cache
	discoveryService *discovery.Service
	wsPool           *websocket.Pool
	metadataClient   *markets.CachedMetadataClient

	books      *book.Store
	marketFeed *feed.Feed
	detector   *detect.Detector

	storage   storage.Storage
	recorder  *telemetry.Recorder
	tracker   *pnl.Tracker
	idemStore *idem.Store

	execBreaker *breaker.Breaker
	retryPolicy *retry.Policy
	router      *exec.Router

	walletClient  *wallet.Client
	walletAddress common.Address
	walletTracker *wallet.Tracker
	chainClient   *chainx.ChainClient
	nonceManager  *chainx.NonceManager

	eng *engine.Engine

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Options holds application options.
type Options struct {
	SingleMarket string // For debugging: slug of single market to track
}
