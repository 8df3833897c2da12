package exec

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/chainx"
	"github.com/mselser95/polymarket-arb/internal/corex"
)

// TickSizeProvider resolves a token's valid price increment (and minimum
// order size, unused here) so live orders round to the CLOB's tick grid
// before being signed. internal/markets.CachedMetadataClient satisfies
// this via its existing cached lookup.
type TickSizeProvider interface {
	GetTokenMetadata(ctx context.Context, tokenID string) (tickSize, minOrderSize float64, err error)
}

// fillOrderABI is the single-method ABI fragment for the CTF Exchange's
// fillOrder(Order,bytes) entrypoint (SPEC_FULL.md §6).
const fillOrderABI = `[{
	"name": "fillOrder",
	"type": "function",
	"inputs": [
		{"name": "order", "type": "tuple", "components": [
			{"name": "maker", "type": "address"},
			{"name": "taker", "type": "address"},
			{"name": "tokenId", "type": "uint256"},
			{"name": "makerAmount", "type": "uint256"},
			{"name": "takerAmount", "type": "uint256"},
			{"name": "expiration", "type": "uint256"},
			{"name": "salt", "type": "uint256"}
		]},
		{"name": "signature", "type": "bytes"}
	],
	"outputs": []
}]`

// LiveConfig carries the live-executor's on-chain tunables (SPEC_FULL.md
// §4.9/§4.13).
type LiveConfig struct {
	ExchangeContract  string
	OrderExpiration   time.Duration
	GasLimit          uint64
	FeeSafetyFactor   float64
	ReceiptPollEvery  time.Duration
	ReceiptPollMax    time.Duration
}

// Live builds, signs, submits, and confirms on-chain fillOrder transactions
// (C13), grounded on the teacher's pkg/wallet.Client for the on-chain call
// shape and internal/execution.FillTracker for the receipt-poll-with-timeout
// pattern, with the actual transaction construction written fresh against
// go-ethereum since the teacher's own execution path never submits on-chain
// orders itself.
type Live struct {
	chain    *chainx.ChainClient
	nonces   *chainx.NonceManager
	signer   *Signer
	cfg      LiveConfig
	fillABI  abi.ABI
	clock    corex.Clock
	metadata TickSizeProvider
	logger   *zap.Logger
}

// NewLive builds a Live executor. metadata may be nil, in which case order
// prices are submitted unrounded.
func NewLive(chain *chainx.ChainClient, nonces *chainx.NonceManager, signer *Signer, cfg LiveConfig, clock corex.Clock, metadata TickSizeProvider, logger *zap.Logger) (*Live, error) {
	parsed, err := abi.JSON(strings.NewReader(fillOrderABI))
	if err != nil {
		return nil, fmt.Errorf("exec: parse fillOrder ABI: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = corex.SystemClock{}
	}
	return &Live{
		chain:    chain,
		nonces:   nonces,
		signer:   signer,
		cfg:      cfg,
		fillABI:  parsed,
		clock:    clock,
		metadata: metadata,
		logger:   logger.With(zap.String("component", "live-executor")),
	}, nil
}

// roundToTick snaps price to the nearest multiple of tickSize. Tick sizes are
// coarse (0.01, 0.001, ...), so counting ticks in float64 costs no precision
// that matters; the result is that count times the decimal tick size, so it
// lies exactly on the grid.
func roundToTick(price corex.Decimal, tickSize float64) corex.Decimal {
	if tickSize <= 0 {
		return price
	}
	ticks := math.Round(price.Float64() / tickSize)
	tick, err := corex.Parse(strconv.FormatFloat(tickSize, 'f', -1, 64))
	if err != nil {
		return price
	}
	return tick.MulInt(int64(ticks))
}

// Execute builds, signs, submits and confirms one on-chain fill for req at
// the given price (already risk-approved by the caller), following
// SPEC_FULL.md §6's three-step sequence: build typed order, sign it, submit
// fillOrder and poll for a receipt.
func (l *Live) Execute(ctx context.Context, req OrderRequest, price corex.Decimal, takerAddress string) (Fill, error) {
	tokenID, ok := new(big.Int).SetString(req.TokenID, 10)
	if !ok {
		return Fill{}, fmt.Errorf("exec: token id %q is not a base-10 integer", req.TokenID)
	}

	if l.metadata != nil {
		tickSize, _, metaErr := l.metadata.GetTokenMetadata(ctx, req.TokenID)
		if metaErr != nil {
			l.logger.Warn("tick-size-lookup-failed",
				zap.String("token-id", req.TokenID), zap.Error(metaErr))
		} else {
			price = roundToTick(price, tickSize)
		}
	}

	makerAmount, takerAmount := AmountsFromNotional(req.Side, price, req.Notional)
	salt, err := NewSalt()
	if err != nil {
		return Fill{}, err
	}

	order := Order{
		Maker:       l.signer.Address(),
		Taker:       takerAddress,
		TokenID:     tokenID,
		MakerAmount: makerAmount,
		TakerAmount: takerAmount,
		Expiration:  NewExpiration(l.cfg.OrderExpiration),
		Salt:        salt,
	}

	sig, err := l.signer.SignOrder(order)
	if err != nil {
		return Fill{}, fmt.Errorf("exec: sign order for %s: %w", req.TokenID, err)
	}

	data, err := l.fillABI.Pack("fillOrder", toABIOrder(order), sig)
	if err != nil {
		return Fill{}, fmt.Errorf("exec: encode fillOrder call: %w", err)
	}

	fees, err := l.chain.SuggestFees(ctx, l.cfg.GasLimit, l.cfg.FeeSafetyFactor)
	if err != nil {
		return Fill{}, fmt.Errorf("exec: suggest fees: %w", err)
	}

	chainID, err := l.chain.ChainID(ctx)
	if err != nil {
		return Fill{}, fmt.Errorf("exec: fetch chain id: %w", err)
	}

	nonce := l.nonces.Allocate()
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: fees.GasTipCap,
		GasFeeCap: fees.GasFeeCap,
		Gas:       l.cfg.GasLimit,
		To:        addrPtr(l.cfg.ExchangeContract),
		Data:      data,
	})

	signedTx, err := l.signer.SignTransaction(tx, chainID)
	if err != nil {
		l.nonces.MarkFailed(nonce)
		return Fill{}, fmt.Errorf("exec: sign transaction: %w", err)
	}

	if err := l.chain.SendRawTransaction(ctx, signedTx); err != nil {
		l.nonces.MarkFailed(nonce)
		return Fill{}, fmt.Errorf("exec: broadcast transaction: %w", err)
	}

	result, err := l.chain.WaitForReceipt(ctx, signedTx.Hash(), l.cfg.ReceiptPollEvery, l.cfg.ReceiptPollMax)
	if err != nil {
		return Fill{}, fmt.Errorf("exec: wait for receipt %s: %w", signedTx.Hash(), err)
	}
	if !result.Success {
		l.nonces.MarkFailed(nonce)
		return Fill{}, fmt.Errorf("exec: transaction %s reverted", signedTx.Hash())
	}
	l.nonces.MarkConfirmed(nonce)

	shares := req.Notional.Div(price)
	gasCost := corex.NewFromFloat64(weiToFloat(new(big.Int).Mul(fees.GasFeeCap, big.NewInt(int64(result.Receipt.GasUsed)))))

	fill := Fill{
		ID:               signedTx.Hash().Hex(),
		OrderRequestID:   req.ID,
		TraceID:          req.TraceID,
		TokenID:          req.TokenID,
		Side:             req.Side,
		Price:            price,
		Shares:           shares,
		Fees:             gasCost,
		TimestampMS:      l.clock.Now().UnixMilli(),
		Simulated:        false,
		TxHash:           signedTx.Hash().Hex(),
		OnChainConfirmed: true,
	}

	l.logger.Info("live-fill-confirmed",
		zap.String("trace-id", req.TraceID),
		zap.String("token-id", req.TokenID),
		zap.String("tx-hash", fill.TxHash))

	return fill, nil
}

func toABIOrder(o Order) struct {
	Maker       common.Address
	Taker       common.Address
	TokenId     *big.Int
	MakerAmount *big.Int
	TakerAmount *big.Int
	Expiration  *big.Int
	Salt        *big.Int
} {
	return struct {
		Maker       common.Address
		Taker       common.Address
		TokenId     *big.Int
		MakerAmount *big.Int
		TakerAmount *big.Int
		Expiration  *big.Int
		Salt        *big.Int
	}{
		Maker:       common.HexToAddress(o.Maker),
		Taker:       common.HexToAddress(o.Taker),
		TokenId:     o.TokenID,
		MakerAmount: o.MakerAmount,
		TakerAmount: o.TakerAmount,
		Expiration:  o.Expiration,
		Salt:        o.Salt,
	}
}

func addrPtr(addr string) *common.Address {
	a := common.HexToAddress(addr)
	return &a
}

func weiToFloat(wei *big.Int) float64 {
	f := new(big.Float).SetInt(wei)
	f.Quo(f, big.NewFloat(1e18))
	out, _ := f.Float64()
	return out
}
