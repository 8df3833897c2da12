package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Polymarket API
	PolymarketWSURL      string
	PolymarketGammaURL   string
	PolymarketAPIKey     string
	PolymarketSecret     string
	PolymarketPassphrase string

	// Market Discovery
	DiscoveryPollInterval time.Duration
	DiscoveryMarketLimit  int
	MaxMarketDuration     time.Duration // Only subscribe to markets expiring within this duration

	// Market Cleanup
	CleanupInterval time.Duration // How often cleanup command checks for stale markets

	// WebSocket
	WSPoolSize              int // Number of WebSocket connections (default: 20)
	WSDialTimeout           time.Duration
	WSPongTimeout           time.Duration
	WSPingInterval          time.Duration
	WSReconnectInitialDelay time.Duration
	WSReconnectMaxDelay     time.Duration
	WSReconnectBackoffMult  float64
	WSMessageBufferSize     int

	// Arbitrage Detection
	ArbThreshold         float64
	ArbMinTradeSize      float64
	ArbMaxTradeSize      float64
	ArbDetectionInterval time.Duration
	ArbMakerFee          float64
	ArbTakerFee          float64

	// Execution
	ExecutionMode            string
	ExecutionMaxPositionSize float64

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string

	// Risk Gate thresholds (internal/risk.Thresholds)
	RiskMaxPosition    float64
	RiskMinProfitPct   float64
	RiskMaxGasCost     float64
	RiskMaxSlippagePct float64

	// Retry policy (internal/retry.Config)
	RetryMaxAttempts     int
	RetryBaseDelay       time.Duration
	RetryMaxDelay        time.Duration
	RetryBackoffMult     float64
	RetryJitterFraction  float64

	// Circuit breaker (internal/breaker.Config) governing order execution
	ExecBreakerFailureThreshold int
	ExecBreakerFailureWindow    time.Duration
	ExecBreakerFailureRate      float64
	ExecBreakerOpenTimeout      time.Duration
	ExecBreakerMaxGasCost       float64

	// Idempotency store (internal/idem.Store)
	IdemKeyTTL      time.Duration
	IdemNumCounters int64
	IdemMaxCost     int64

	// Chain / on-chain execution (internal/chainx, internal/exec)
	ChainRPCURL          string
	ChainPrivateKey      string
	ChainExchangeAddress string
	ChainGasLimit        uint64
	ChainFeeSafetyFactor float64
	ChainReceiptPollEvery time.Duration
	ChainReceiptPollMax   time.Duration
	OrderExpirationHorizon time.Duration
	LiveTakerAddress     string
	WalletPollInterval   time.Duration

	// Simulated execution (internal/exec.SimulatedConfig)
	SimTakerFeeRate     float64
	SimSlippageBPSModel float64

	// Telemetry (internal/telemetry.Recorder)
	TelemetryLatencyWindow time.Duration
	TelemetryEventLogPath  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Polymarket API defaults
		PolymarketWSURL:      getEnvOrDefault("POLYMARKET_WS_URL", "wss://ws-subscriptions-clob.polymarket.com/ws/market"),
		PolymarketGammaURL:   getEnvOrDefault("POLYMARKET_GAMMA_API_URL", "https://gamma-api.polymarket.com"),
		PolymarketAPIKey:     os.Getenv("POLYMARKET_API_KEY"),
		PolymarketSecret:     os.Getenv("POLYMARKET_SECRET"),
		PolymarketPassphrase: os.Getenv("POLYMARKET_PASSPHRASE"),

		// Market Discovery defaults
		DiscoveryPollInterval: getDurationOrDefault("DISCOVERY_POLL_INTERVAL", 30*time.Second),
		DiscoveryMarketLimit:  getIntOrDefault("DISCOVERY_MARKET_LIMIT", 1000),
		MaxMarketDuration:     getDurationOrDefault("ARB_MAX_MARKET_DURATION", 0), // 0 = unlimited

		// Market Cleanup defaults
		CleanupInterval: getDurationOrDefault("CLEANUP_CHECK_INTERVAL", 5*time.Minute),

		// WebSocket defaults
		WSPoolSize:              getIntOrDefault("WS_POOL_SIZE", 20),
		WSDialTimeout:           getDurationOrDefault("WS_DIAL_TIMEOUT", 10*time.Second),
		WSPongTimeout:           getDurationOrDefault("WS_PONG_TIMEOUT", 15*time.Second),
		WSPingInterval:          getDurationOrDefault("WS_PING_INTERVAL", 10*time.Second),
		WSReconnectInitialDelay: getDurationOrDefault("WS_RECONNECT_INITIAL_DELAY", 1*time.Second),
		WSReconnectMaxDelay:     getDurationOrDefault("WS_RECONNECT_MAX_DELAY", 30*time.Second),
		WSReconnectBackoffMult:  getFloat64OrDefault("WS_RECONNECT_BACKOFF_MULTIPLIER", 2.0),
		WSMessageBufferSize:     getIntOrDefault("WS_MESSAGE_BUFFER_SIZE", 10000),

		// Arbitrage defaults
		ArbThreshold:         getFloat64OrDefault("ARB_THRESHOLD", 0.995),
		ArbMinTradeSize:      getFloat64OrDefault("ARB_MIN_TRADE_SIZE", 1.0),
		ArbMaxTradeSize:      getFloat64OrDefault("ARB_MAX_TRADE_SIZE", 2.0),
		ArbDetectionInterval: getDurationOrDefault("ARB_DETECTION_INTERVAL", 100*time.Millisecond),
		ArbMakerFee:          getFloat64OrDefault("ARB_MAKER_FEE", 0.0000), // 0% maker fee on Polymarket
		ArbTakerFee:          getFloat64OrDefault("ARB_TAKER_FEE", 0.0100), // 1% taker fee

		// Execution defaults
		ExecutionMode:            getEnvOrDefault("EXECUTION_MODE", "paper"),
		ExecutionMaxPositionSize: getFloat64OrDefault("EXECUTION_MAX_POSITION_SIZE", 1000.0),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "polymarket"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "polymarket123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "polymarket_arb"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),

		// Risk gate defaults
		RiskMaxPosition:    getFloat64OrDefault("RISK_MAX_POSITION", 1000.0),
		RiskMinProfitPct:   getFloat64OrDefault("RISK_MIN_PROFIT_PCT", 0.005),
		RiskMaxGasCost:     getFloat64OrDefault("RISK_MAX_GAS_COST", 2.0),
		RiskMaxSlippagePct: getFloat64OrDefault("RISK_MAX_SLIPPAGE_PCT", 0.01),

		// Retry policy defaults
		RetryMaxAttempts:    getIntOrDefault("RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:      getDurationOrDefault("RETRY_BASE_DELAY", 1*time.Second),
		RetryMaxDelay:       getDurationOrDefault("RETRY_MAX_DELAY", 15*time.Second),
		RetryBackoffMult:    getFloat64OrDefault("RETRY_BACKOFF_MULTIPLIER", 2.0),
		RetryJitterFraction: getFloat64OrDefault("RETRY_JITTER_FRACTION", 0.2),

		// Execution circuit breaker defaults
		ExecBreakerFailureThreshold: getIntOrDefault("EXEC_BREAKER_FAILURE_THRESHOLD", 5),
		ExecBreakerFailureWindow:    getDurationOrDefault("EXEC_BREAKER_FAILURE_WINDOW", 60*time.Second),
		ExecBreakerFailureRate:      getFloat64OrDefault("EXEC_BREAKER_FAILURE_RATE", 0.5),
		ExecBreakerOpenTimeout:      getDurationOrDefault("EXEC_BREAKER_OPEN_TIMEOUT", 30*time.Second),
		ExecBreakerMaxGasCost:       getFloat64OrDefault("EXEC_BREAKER_MAX_GAS_COST", 10.0),

		// Idempotency store defaults
		IdemKeyTTL:      getDurationOrDefault("IDEM_KEY_TTL", 10*time.Minute),
		IdemNumCounters: int64(getIntOrDefault("IDEM_NUM_COUNTERS", 1e6)),
		IdemMaxCost:     int64(getIntOrDefault("IDEM_MAX_COST", 1<<26)),

		// Chain / execution defaults
		ChainRPCURL:            getEnvOrDefault("CHAIN_RPC_URL", "https://polygon-rpc.com"),
		ChainPrivateKey:        os.Getenv("CHAIN_PRIVATE_KEY"),
		ChainExchangeAddress:   getEnvOrDefault("CHAIN_EXCHANGE_ADDRESS", "0x4bFb41dcdDBA6F0a3232F775EeaC3FD7dFa6477d"),
		ChainGasLimit:          uint64(getIntOrDefault("CHAIN_GAS_LIMIT", 300000)),
		ChainFeeSafetyFactor:   getFloat64OrDefault("CHAIN_FEE_SAFETY_FACTOR", 1.2),
		ChainReceiptPollEvery:  getDurationOrDefault("CHAIN_RECEIPT_POLL_EVERY", 2*time.Second),
		ChainReceiptPollMax:    getDurationOrDefault("CHAIN_RECEIPT_POLL_MAX", 60*time.Second),
		OrderExpirationHorizon: getDurationOrDefault("ORDER_EXPIRATION_HORIZON", 2*time.Minute),
		LiveTakerAddress:       os.Getenv("LIVE_TAKER_ADDRESS"),
		WalletPollInterval:     getDurationOrDefault("WALLET_POLL_INTERVAL", 30*time.Second),

		// Simulated execution defaults
		SimTakerFeeRate:     getFloat64OrDefault("SIM_TAKER_FEE_RATE", 0.01),
		SimSlippageBPSModel: getFloat64OrDefault("SIM_SLIPPAGE_BPS", 10),

		// Telemetry defaults
		TelemetryLatencyWindow: getDurationOrDefault("TELEMETRY_LATENCY_WINDOW", 60*time.Second),
		TelemetryEventLogPath:  getEnvOrDefault("TELEMETRY_EVENT_LOG_PATH", "events.jsonl"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() (err error) {
	if c.HTTPPort == "" {
		return errors.New("HTTP_PORT cannot be empty")
	}

	if c.PolymarketWSURL == "" {
		return errors.New("POLYMARKET_WS_URL cannot be empty")
	}

	if c.PolymarketGammaURL == "" {
		return errors.New("POLYMARKET_GAMMA_API_URL cannot be empty")
	}

	if c.ArbThreshold <= 0 || c.ArbThreshold >= 1.0 {
		return fmt.Errorf("ARB_THRESHOLD must be between 0 and 1.0, got %f", c.ArbThreshold)
	}

	if c.ExecutionMode != "paper" && c.ExecutionMode != "live" && c.ExecutionMode != "dry-run" {
		return fmt.Errorf("EXECUTION_MODE must be 'paper', 'live', or 'dry-run', got %q", c.ExecutionMode)
	}

	// Validate trade size configuration
	if c.ArbMinTradeSize <= 0 {
		return fmt.Errorf("ARB_MIN_TRADE_SIZE must be positive, got %f", c.ArbMinTradeSize)
	}

	if c.ArbMaxTradeSize <= 0 {
		return fmt.Errorf("ARB_MAX_TRADE_SIZE must be positive, got %f", c.ArbMaxTradeSize)
	}

	if c.ArbMaxTradeSize < c.ArbMinTradeSize {
		return fmt.Errorf("ARB_MAX_TRADE_SIZE (%f) must be >= ARB_MIN_TRADE_SIZE (%f)",
			c.ArbMaxTradeSize, c.ArbMinTradeSize)
	}

	// Validate market filtering configuration
	if c.MaxMarketDuration < 0 {
		return fmt.Errorf("ARB_MAX_MARKET_DURATION must be non-negative (0 = unlimited), got %s", c.MaxMarketDuration)
	}

	if c.DiscoveryMarketLimit < 0 {
		return fmt.Errorf("DISCOVERY_MARKET_LIMIT must be non-negative (0 = unlimited), got %d", c.DiscoveryMarketLimit)
	}

	// Validate WebSocket pool configuration
	if c.WSPoolSize < 1 {
		return fmt.Errorf("WS_POOL_SIZE must be at least 1, got %d", c.WSPoolSize)
	}

	if c.WSPoolSize > 20 {
		return fmt.Errorf("WS_POOL_SIZE must not exceed 20, got %d", c.WSPoolSize)
	}

	// Validate cleanup configuration
	if c.CleanupInterval <= 0 {
		return fmt.Errorf("CLEANUP_CHECK_INTERVAL must be positive, got %s", c.CleanupInterval)
	}

	if c.ExecutionMode == "live" {
		if c.ChainPrivateKey == "" {
			return errors.New("CHAIN_PRIVATE_KEY is required when EXECUTION_MODE=live")
		}
		if c.LiveTakerAddress == "" {
			return errors.New("LIVE_TAKER_ADDRESS is required when EXECUTION_MODE=live")
		}
	}

	if c.RiskMaxPosition <= 0 {
		return fmt.Errorf("RISK_MAX_POSITION must be positive, got %f", c.RiskMaxPosition)
	}

	if c.RiskMaxSlippagePct < 0 || c.RiskMaxSlippagePct > 1.0 {
		return fmt.Errorf("RISK_MAX_SLIPPAGE_PCT must be between 0 and 1.0, got %f", c.RiskMaxSlippagePct)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}
