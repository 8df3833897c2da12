package app

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/book"
	"github.com/mselser95/polymarket-arb/internal/breaker"
	"github.com/mselser95/polymarket-arb/internal/chainx"
	"github.com/mselser95/polymarket-arb/internal/corex"
	"github.com/mselser95/polymarket-arb/internal/detect"
	"github.com/mselser95/polymarket-arb/internal/discovery"
	"github.com/mselser95/polymarket-arb/internal/engine"
	"github.com/mselser95/polymarket-arb/internal/exec"
	"github.com/mselser95/polymarket-arb/internal/feed"
	"github.com/mselser95/polymarket-arb/internal/idem"
	"github.com/mselser95/polymarket-arb/internal/markets"
	"github.com/mselser95/polymarket-arb/internal/pnl"
	"github.com/mselser95/polymarket-arb/internal/retry"
	"github.com/mselser95/polymarket-arb/internal/risk"
	"github.com/mselser95/polymarket-arb/internal/storage"
	"github.com/mselser95/polymarket-arb/internal/telemetry"
	"github.com/mselser95/polymarket-arb/pkg/cache"
	"github.com/mselser95/polymarket-arb/pkg/config"
	"github.com/mselser95/polymarket-arb/pkg/healthprobe"
	"github.com/mselser95/polymarket-arb/pkg/httpserver"
	"github.com/mselser95/polymarket-arb/pkg/wallet"
	"github.com/mselser95/polymarket-arb/pkg/websocket"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := setupHealthChecker()

	marketCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	discoveryService := setupDiscoveryService(cfg, logger, marketCache, opts)
	wsPool := setupWebSocketPool(cfg, logger)
	metadataClient := markets.NewCachedMetadataClient(markets.NewMetadataClient(), marketCache)

	books := book.NewStore(logger)
	marketFeed := feed.New(wsPool, books, feed.Config{
		StaleAfter:        cfg.MaxMarketDuration,
		UpdateChanBufSize: cfg.WSMessageBufferSize,
	}, nil, logger)
	detector := detect.NewDetector(books, marketFeed.UpdateChan(), logger)

	arbStorage, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	recorder := telemetry.New(logger, storage.TelemetrySink{Storage: arbStorage}, cfg.TelemetryLatencyWindow)
	tracker := pnl.NewTracker(logger)

	idemStore, err := idem.NewStore(cfg.IdemKeyTTL, cfg.IdemNumCounters, cfg.IdemMaxCost)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup idempotency store: %w", err)
	}

	execBreaker := breaker.New(breaker.Config{
		ConsecutiveFailuresThreshold: cfg.ExecBreakerFailureThreshold,
		FailureRateThreshold:         cfg.ExecBreakerFailureRate,
		GasCostThreshold:             cfg.ExecBreakerMaxGasCost,
		OpenTimeout:                  cfg.ExecBreakerOpenTimeout,
		HalfOpenMaxCalls:             breaker.DefaultConfig().HalfOpenMaxCalls,
		MonitoringWindow:             cfg.ExecBreakerFailureWindow,
	}, logger)

	retryPolicy := retry.New(retry.Config{
		MaxRetries:        cfg.RetryMaxAttempts,
		BaseDelay:         cfg.RetryBaseDelay,
		MaxDelay:          cfg.RetryMaxDelay,
		BackoffMultiplier: cfg.RetryBackoffMult,
		Jitter:            cfg.RetryJitterFraction > 0,
	}, logger, nil)

	simulated := exec.NewSimulated(books, exec.SimulatedConfig{
		TakerFeeRate:     corex.NewFromFloat64(cfg.SimTakerFeeRate),
		SlippageBPSModel: corex.NewFromFloat64(cfg.SimSlippageBPSModel),
	}, nil, logger)

	var walletClient *wallet.Client
	var walletAddress common.Address
	var walletTracker *wallet.Tracker
	var chainClient *chainx.ChainClient
	var nonceManager *chainx.NonceManager
	var liveExec exec.LiveExecutor

	if cfg.ExecutionMode == "live" {
		signer, signerErr := exec.NewSigner(cfg.ChainPrivateKey)
		if signerErr != nil {
			cancel()
			return nil, fmt.Errorf("setup signer: %w", signerErr)
		}

		chainClient, err = chainx.Dial(ctx, cfg.ChainRPCURL, logger)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("dial chain rpc: %w", err)
		}

		nonceManager = chainx.NewNonceManager(signer.Address(), chainClient, logger)
		if err = nonceManager.Initialize(ctx); err != nil {
			cancel()
			return nil, fmt.Errorf("initialize nonce manager: %w", err)
		}

		live, liveErr := exec.NewLive(chainClient, nonceManager, signer, exec.LiveConfig{
			ExchangeContract: cfg.ChainExchangeAddress,
			OrderExpiration:  cfg.OrderExpirationHorizon,
			GasLimit:         cfg.ChainGasLimit,
			FeeSafetyFactor:  cfg.ChainFeeSafetyFactor,
			ReceiptPollEvery: cfg.ChainReceiptPollEvery,
			ReceiptPollMax:   cfg.ChainReceiptPollMax,
		}, nil, metadataClient, logger)
		if liveErr != nil {
			cancel()
			return nil, fmt.Errorf("setup live executor: %w", liveErr)
		}
		liveExec = live

		walletClient, err = wallet.NewClient(chainClient, logger)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("setup wallet client: %w", err)
		}
		walletAddress = common.HexToAddress(cfg.LiveTakerAddress)

		walletTracker, err = wallet.New(&wallet.Config{
			Client:       walletClient,
			Address:      walletAddress,
			PollInterval: cfg.WalletPollInterval,
			Logger:       logger,
		})
		if err != nil {
			cancel()
			return nil, fmt.Errorf("setup wallet tracker: %w", err)
		}
	}

	router := exec.NewRouter(
		simulated,
		liveExec,
		cfg.ExecutionMode == "live",
		cfg.LiveTakerAddress,
		execBreaker,
		retryPolicy,
		idemStore,
		logger,
	)

	gate := risk.Gate{Thresholds: risk.Thresholds{
		MaxPosition:    corex.NewFromFloat64(cfg.RiskMaxPosition),
		MinProfitPct:   corex.NewFromFloat64(cfg.RiskMinProfitPct),
		MaxGasCost:     corex.NewFromFloat64(cfg.RiskMaxGasCost),
		MaxSlippagePct: corex.NewFromFloat64(cfg.RiskMaxSlippagePct),
	}}

	var balance engine.BalanceProvider = engine.StaticBalance(corex.NewFromFloat64(cfg.ExecutionMaxPositionSize))
	if cfg.ExecutionMode == "live" {
		balance = &walletBalanceProvider{client: walletClient, tracker: walletTracker, address: walletAddress}
	}

	eng := engine.New(engine.Config{
		Gate: gate,
		CostModel: engine.CostModel{
			TakerFeeRate:     corex.NewFromFloat64(cfg.SimTakerFeeRate),
			SlippageBPSModel: corex.NewFromFloat64(cfg.SimSlippageBPSModel),
		},
		Balance:   balance,
		Router:    router,
		Tracker:   tracker,
		Telemetry: recorder,
		Logger:    logger,
	})
	if err = eng.Validate(); err != nil {
		cancel()
		return nil, fmt.Errorf("validate engine: %w", err)
	}

	httpServer := httpserver.New(&httpserver.Config{
		Port:             cfg.HTTPPort,
		Logger:           logger,
		HealthChecker:    healthChecker,
		Books:            books,
		DiscoveryService: discoveryService,
	})

	return &App{
		cfg:              cfg,
		logger:           logger,
		healthChecker:    healthChecker,
		httpServer:       httpServer,
		marketCache:      marketCache,
		discoveryService: discoveryService,
		wsPool:           wsPool,
		metadataClient:   metadataClient,
		books:            books,
		marketFeed:       marketFeed,
		detector:         detector,
		storage:          arbStorage,
		recorder:         recorder,
		tracker:          tracker,
		idemStore:        idemStore,
		execBreaker:      execBreaker,
		retryPolicy:      retryPolicy,
		router:           router,
		walletClient:     walletClient,
		walletAddress:    walletAddress,
		walletTracker:    walletTracker,
		chainClient:      chainClient,
		nonceManager:     nonceManager,
		eng:              eng,
		ctx:              ctx,
		cancel:           cancel,
	}, nil
}

func setupHealthChecker() *healthprobe.HealthChecker {
	return healthprobe.New()
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000, // 10x expected max items (1000 markets)
		MaxCost:     1000,  // Maximum 1000 items in cache
		BufferItems: 64,    // Buffer size for Get operations
		Logger:      logger,
	})
}

func setupDiscoveryService(cfg *config.Config, logger *zap.Logger, marketCache cache.Cache, opts *Options) *discovery.Service {
	discoveryClient := discovery.NewClient(cfg.PolymarketGammaURL, logger)
	return discovery.New(&discovery.Config{
		Client:            discoveryClient,
		Cache:             marketCache,
		PollInterval:      cfg.DiscoveryPollInterval,
		MarketLimit:       cfg.DiscoveryMarketLimit,
		MaxMarketDuration: cfg.MaxMarketDuration,
		Logger:            logger,
		SingleMarket:      opts.SingleMarket,
	})
}

func setupWebSocketPool(cfg *config.Config, logger *zap.Logger) *websocket.Pool {
	return websocket.NewPool(websocket.PoolConfig{
		Size:                  cfg.WSPoolSize,
		WSUrl:                 cfg.PolymarketWSURL,
		DialTimeout:           cfg.WSDialTimeout,
		PongTimeout:           cfg.WSPongTimeout,
		PingInterval:          cfg.WSPingInterval,
		ReconnectInitialDelay: cfg.WSReconnectInitialDelay,
		ReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
		ReconnectBackoffMult:  cfg.WSReconnectBackoffMult,
		MessageBufferSize:     cfg.WSMessageBufferSize,
		Logger:                logger,
	})
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	}

	return storage.NewConsoleStorage(logger), nil
}

// walletBalanceProvider adapts pkg/wallet's on-chain USDC balance to
// engine.BalanceProvider, converting the 6-decimal USDC raw amount to an
// exact corex.Decimal rather than routing it through a lossy float. It
// prefers the wallet tracker's last-polled snapshot so the risk gate's
// balance check never blocks a signal on a fresh RPC round trip; before the
// tracker's first poll completes it falls back to a direct synchronous
// fetch so the very first signal still sees a real balance.
type walletBalanceProvider struct {
	client  *wallet.Client
	tracker *wallet.Tracker
	address common.Address
}

func (w *walletBalanceProvider) AvailableBalance(ctx context.Context) (corex.Decimal, error) {
	if w.tracker != nil {
		if balances, ok := w.tracker.Latest(); ok {
			return usdcToDecimal(balances.USDC), nil
		}
	}
	balances, err := w.client.GetBalances(ctx, w.address)
	if err != nil {
		return corex.Zero, fmt.Errorf("fetch wallet balances: %w", err)
	}
	return usdcToDecimal(balances.USDC), nil
}

const usdcDecimals = 6

// usdcToDecimal converts a raw USDC amount (6 fractional decimals) into an
// exact corex.Decimal via string formatting, since corex.NewFromFloat64
// would round-trip the value through float64 and lose precision at the
// boundary where it matters most: the balance check that gates every trade.
func usdcToDecimal(raw *big.Int) corex.Decimal {
	if raw == nil {
		return corex.Zero
	}
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(usdcDecimals), nil)
	whole := new(big.Int)
	rem := new(big.Int)
	whole.QuoRem(raw, divisor, rem)
	rem.Abs(rem)
	d, err := corex.Parse(fmt.Sprintf("%s.%06d", whole.String(), rem.Int64()))
	if err != nil {
		return corex.Zero
	}
	return d
}
