package exec

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	ethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/mselser95/polymarket-arb/internal/corex"
)

// Domain constants for the Polymarket CTF Exchange EIP-712 domain
// (SPEC_FULL.md §6). These are fixed by the on-chain contract, not
// configuration.
const (
	DomainName             = "Polymarket CTF Exchange"
	DomainVersion           = "1"
	DomainChainID           = 137
	DomainVerifyingContract = "0x4bFb41dcdDBA6F0a3232F775EeaC3FD7dFa6477d"
)

// Order is the typed-data primary structure signed before submission,
// matching the contract's Order struct field-for-field (SPEC_FULL.md §6).
type Order struct {
	Maker       string
	Taker       string
	TokenID     *big.Int
	MakerAmount *big.Int
	TakerAmount *big.Int
	Expiration  *big.Int
	Salt        *big.Int
}

// NewSalt generates a cryptographic-quality random 256-bit salt, grounded on
// original_source's order-building step of drawing a fresh nonce-like value
// per order to prevent hash collisions between otherwise-identical orders.
func NewSalt() (*big.Int, error) {
	max := new(big.Int).Lsh(big.NewInt(1), 256)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return nil, fmt.Errorf("exec: generate salt: %w", err)
	}
	return n, nil
}

// NewExpiration returns an absolute Unix-second expiration horizon from now.
func NewExpiration(horizon time.Duration) *big.Int {
	return big.NewInt(time.Now().Add(horizon).Unix())
}

// Signer produces EIP-712 signatures for Order structures, grounded on the
// reference bot's exchange.Auth.SignTypedData (apitypes-based typed-data
// hashing, crypto.Sign, V-byte normalization) generalized from that bot's
// ClobAuth off-chain-auth message to this spec's on-chain Order message.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    string
}

// NewSigner builds a Signer from a hex-encoded private key (with or without
// the 0x prefix).
func NewSigner(privateKeyHex string) (*Signer, error) {
	if len(privateKeyHex) >= 2 && privateKeyHex[:2] == "0x" {
		privateKeyHex = privateKeyHex[2:]
	}
	pk, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("exec: parse private key: %w", err)
	}
	addr := crypto.PubkeyToAddress(pk.PublicKey)
	return &Signer{privateKey: pk, address: addr.Hex()}, nil
}

// Address returns the signer's Ethereum address, used as Order.Maker.
func (s *Signer) Address() string {
	return s.address
}

// orderTypes is the EIP-712 Types map for the Order primary type plus its
// domain, matching the contract's exact field list (SPEC_FULL.md §6).
var orderTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"Order": {
		{Name: "maker", Type: "address"},
		{Name: "taker", Type: "address"},
		{Name: "tokenId", Type: "uint256"},
		{Name: "makerAmount", Type: "uint256"},
		{Name: "takerAmount", Type: "uint256"},
		{Name: "expiration", Type: "uint256"},
		{Name: "salt", Type: "uint256"},
	},
}

// SignOrder hashes and signs order under the fixed Polymarket CTF Exchange
// domain, returning a 65-byte r‖s‖v signature (SPEC_FULL.md §6).
func (s *Signer) SignOrder(order Order) ([]byte, error) {
	domain := apitypes.TypedDataDomain{
		Name:              DomainName,
		Version:           DomainVersion,
		ChainId:           (*ethmath.HexOrDecimal256)(big.NewInt(DomainChainID)),
		VerifyingContract: DomainVerifyingContract,
	}

	message := apitypes.TypedDataMessage{
		"maker":       order.Maker,
		"taker":       order.Taker,
		"tokenId":     order.TokenID.String(),
		"makerAmount": order.MakerAmount.String(),
		"takerAmount": order.TakerAmount.String(),
		"expiration":  order.Expiration.String(),
		"salt":        order.Salt.String(),
	}

	typedData := apitypes.TypedData{
		Types:       orderTypes,
		PrimaryType: "Order",
		Domain:      domain,
		Message:     message,
	}

	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("exec: typed data hash: %w", err)
	}

	sig, err := crypto.Sign(hash, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("exec: sign order: %w", err)
	}
	if sig[64] < 27 {
		sig[64] += 27
	}
	return sig, nil
}

// usdcRescale converts a corex.Decimal (18 fractional digits) raw value down
// to 6-decimal USDC base units, truncating any sub-unit remainder (round
// down, never overcommit), matching the direction used by the reference
// bot's PriceToAmounts.
func usdcRescale(d corex.Decimal) *big.Int {
	const scaleDown = 1_000_000_000_000 // 1e18 / 1e6
	return new(big.Int).Quo(d.RawUnits(), big.NewInt(scaleDown))
}

// SignTransaction signs an EIP-1559 transaction envelope for broadcast,
// using the same private key that signs Orders.
func (s *Signer) SignTransaction(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signer := types.LatestSignerForChainID(chainID)
	signed, err := types.SignTx(tx, signer, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("exec: sign transaction: %w", err)
	}
	return signed, nil
}

// AmountsFromNotional converts a price/notional pair into the integer
// maker/taker base units the contract expects: 6-decimal USDC numéraire and
// 18-decimal outcome-token amounts (SPEC_FULL.md §6).
func AmountsFromNotional(side FillSide, price, notional corex.Decimal) (makerAmount, takerAmount *big.Int) {
	shares := notional.Div(price) // already 1e18-scaled, matches token decimals
	usdcRaw := usdcRescale(notional)
	tokenRaw := shares.RawUnits()

	switch side {
	case Buy:
		return usdcRaw, tokenRaw
	default: // Sell
		return tokenRaw, usdcRaw
	}
}
