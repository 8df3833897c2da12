package chainx

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// ChainClient wraps a persistent ethclient connection with the on-chain
// operations the live executor needs (SPEC_FULL.md §4.9/§4.13): fee-envelope
// suggestion, gas estimation, nonce lookup (satisfying PendingNonceFetcher),
// raw transaction submission, and confirmation polling. pkg/wallet.Client
// shares this same connection for its balance/allowance reads rather than
// dialing one of its own, so order submission and balance polling never
// race over two independent RPC sockets to the same node.
type ChainClient struct {
	rpcURL string
	client *ethclient.Client
	logger *zap.Logger
}

// Dial connects to the given JSON-RPC endpoint.
func Dial(ctx context.Context, rpcURL string, logger *zap.Logger) (*ChainClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chainx: dial %s: %w", rpcURL, err)
	}
	return &ChainClient{
		rpcURL: rpcURL,
		client: c,
		logger: logger.With(zap.String("component", "chain-client")),
	}, nil
}

// Close releases the underlying RPC connection.
func (c *ChainClient) Close() {
	c.client.Close()
}

// PendingNonceAt satisfies NonceManager's PendingNonceFetcher.
func (c *ChainClient) PendingNonceAt(ctx context.Context, addr string) (uint64, error) {
	return c.client.PendingNonceAt(ctx, common.HexToAddress(addr))
}

// BalanceAt returns the native-token (MATIC) balance of addr at the latest
// block, shared by pkg/wallet.Client so balance polling reuses this client's
// one dialed connection instead of opening its own.
func (c *ChainClient) BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error) {
	return c.client.BalanceAt(ctx, addr, nil)
}

// CallContract issues a read-only eth_call against to with the given
// calldata, the generic primitive pkg/wallet.Client packs ERC20
// balanceOf/allowance calls through.
func (c *ChainClient) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{To: &to, Data: data}
	return c.client.CallContract(ctx, msg, nil)
}

// FeeEnvelope is an EIP-1559 fee suggestion for one transaction.
type FeeEnvelope struct {
	BaseFee              *big.Int
	GasTipCap            *big.Int
	GasFeeCap            *big.Int
	MaxCostWei           *big.Int
}

// SuggestFees builds an EIP-1559 fee envelope from the latest block's base
// fee and the node's suggested priority tip, applying a safety multiplier to
// the fee cap so a base-fee spike between suggestion and inclusion doesn't
// strand the transaction (SPEC_FULL.md §4.13).
func (c *ChainClient) SuggestFees(ctx context.Context, gasLimit uint64, safetyMultiplier float64) (FeeEnvelope, error) {
	head, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return FeeEnvelope{}, fmt.Errorf("chainx: fetch latest header: %w", err)
	}
	if head.BaseFee == nil {
		return FeeEnvelope{}, fmt.Errorf("chainx: chain %s does not report EIP-1559 base fee", c.rpcURL)
	}

	tip, err := c.client.SuggestGasTipCap(ctx)
	if err != nil {
		return FeeEnvelope{}, fmt.Errorf("chainx: suggest gas tip cap: %w", err)
	}

	if safetyMultiplier < 1 {
		safetyMultiplier = 1
	}
	scaledBase := scaleBigFloat(head.BaseFee, safetyMultiplier)
	feeCap := new(big.Int).Add(scaledBase, tip)

	maxCost := new(big.Int).Mul(feeCap, new(big.Int).SetUint64(gasLimit))

	return FeeEnvelope{
		BaseFee:    head.BaseFee,
		GasTipCap:  tip,
		GasFeeCap:  feeCap,
		MaxCostWei: maxCost,
	}, nil
}

func scaleBigFloat(v *big.Int, mult float64) *big.Int {
	f := new(big.Float).SetInt(v)
	f.Mul(f, big.NewFloat(mult))
	out, _ := f.Int(nil)
	return out
}

// EstimateGas estimates the gas limit for a call, matching the teacher's
// ethereum.CallMsg construction in pkg/wallet.Client's ABI calls.
func (c *ChainClient) EstimateGas(ctx context.Context, from, to common.Address, data []byte, value *big.Int) (uint64, error) {
	msg := ethereum.CallMsg{
		From:  from,
		To:    &to,
		Data:  data,
		Value: value,
	}
	return c.client.EstimateGas(ctx, msg)
}

// SendRawTransaction broadcasts an already-signed transaction.
func (c *ChainClient) SendRawTransaction(ctx context.Context, tx *types.Transaction) error {
	return c.client.SendTransaction(ctx, tx)
}

// ReceiptResult is the outcome of waiting for a transaction to be mined.
type ReceiptResult struct {
	Receipt *types.Receipt
	Success bool
}

// WaitForReceipt polls for a transaction receipt with exponential backoff,
// grounded on the teacher's internal/execution.FillTracker.VerifyFills
// polling shape. It returns once the receipt is found or ctx is done.
func (c *ChainClient) WaitForReceipt(ctx context.Context, txHash common.Hash, pollInterval, maxPoll time.Duration) (ReceiptResult, error) {
	deadline := time.Now().Add(maxPoll)
	delay := pollInterval

	for {
		receipt, err := c.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return ReceiptResult{Receipt: receipt, Success: receipt.Status == types.ReceiptStatusSuccessful}, nil
		}
		if err != ethereum.NotFound {
			return ReceiptResult{}, fmt.Errorf("chainx: fetch receipt %s: %w", txHash, err)
		}

		if time.Now().After(deadline) {
			return ReceiptResult{}, fmt.Errorf("chainx: receipt for %s not found after %s", txHash, maxPoll)
		}

		select {
		case <-ctx.Done():
			return ReceiptResult{}, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > 5*time.Second {
			delay = 5 * time.Second
		}
	}
}

// ChainID returns the chain id the client is connected to, used to validate
// against the EIP-712 domain's expected chain id before signing.
func (c *ChainClient) ChainID(ctx context.Context) (*big.Int, error) {
	return c.client.ChainID(ctx)
}
