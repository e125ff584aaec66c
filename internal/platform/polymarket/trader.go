package polymarket

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/polymirror/internal/crypto"
	"github.com/alanyoungcy/polymirror/internal/domain"
)

// usdcScale converts human units to the venue's 1e6 fixed-point amounts.
const usdcScale = 1_000_000

// maxSalt bounds the random order salt (2^63 keeps it well inside uint256).
var maxSalt = new(big.Int).Lsh(big.NewInt(1), 63)

// Trader builds, signs, and submits CLOB orders from trade intents. Maker is
// the funding address; with signature type 1 that is the proxy wallet and
// the signing key acts only as the operator.
type Trader struct {
	clob          *ClobClient
	signer        *crypto.Signer
	funder        string
	signatureType int
}

// NewTrader creates a Trader. funder may be empty, in which case the
// signer's own address funds the orders.
func NewTrader(clob *ClobClient, signer *crypto.Signer, funder string, signatureType int) *Trader {
	if funder == "" {
		funder = signer.Address().Hex()
	}
	return &Trader{
		clob:          clob,
		signer:        signer,
		funder:        funder,
		signatureType: signatureType,
	}
}

// PlaceOrder signs and submits a GTC order replicating the intent at the
// given (already scaled) size.
func (t *Trader) PlaceOrder(ctx context.Context, intent domain.TradeIntent, size float64) (domain.OrderResult, error) {
	order, err := t.buildOrder(intent, size)
	if err != nil {
		return domain.OrderResult{}, err
	}

	return t.clob.PostOrder(ctx, order)
}

// buildOrder computes the fixed-point amounts, signs the EIP-712 payload,
// and returns an order ready for submission.
func (t *Trader) buildOrder(intent domain.TradeIntent, size float64) (domain.Order, error) {
	tokenAmt := big.NewInt(int64(math.Round(size * usdcScale)))
	usdcAmt := big.NewInt(int64(math.Round(size * intent.Price * usdcScale)))

	var makerAmount, takerAmount *big.Int
	var sideInt int
	switch intent.Side {
	case domain.OrderSideBuy:
		// Give USDC, receive tokens.
		makerAmount, takerAmount = usdcAmt, tokenAmt
		sideInt = 0
	case domain.OrderSideSell:
		// Give tokens, receive USDC.
		makerAmount, takerAmount = tokenAmt, usdcAmt
		sideInt = 1
	default:
		return domain.Order{}, fmt.Errorf("polymarket/trader: %w: %q", domain.ErrInvalidSide, intent.Side)
	}

	salt, err := rand.Int(rand.Reader, maxSalt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("polymarket/trader: generate salt: %w", err)
	}

	signerAddr := t.signer.Address().Hex()

	payload := crypto.OrderPayload{
		Salt:          salt.String(),
		Maker:         t.funder,
		Signer:        signerAddr,
		Taker:         zeroAddress,
		TokenID:       intent.AssetID,
		MakerAmount:   makerAmount.String(),
		TakerAmount:   takerAmount.String(),
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          sideInt,
		SignatureType: t.signatureType,
	}

	sig, err := t.signer.SignOrder(payload)
	if err != nil {
		return domain.Order{}, fmt.Errorf("polymarket/trader: %w: %v", domain.ErrSigningFailed, err)
	}

	return domain.Order{
		ID:          uuid.New().String(),
		Salt:        salt.String(),
		TokenID:     intent.AssetID,
		Maker:       t.funder,
		SignerAddr:  signerAddr,
		Side:        intent.Side,
		Type:        domain.OrderTypeGTC,
		Price:       intent.Price,
		Size:        size,
		MakerAmount: makerAmount,
		TakerAmount: takerAmount,
		Signature:   sig,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
