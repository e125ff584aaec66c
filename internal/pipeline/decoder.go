// Package pipeline turns raw exchange fills into trade intents: fetching,
// decoding, deduplication, and archival.
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/polymirror/internal/domain"
)

// usdcAssetID identifies the collateral side of a fill. Position tokens have
// large uint256 IDs; USDC is always asset "0".
const usdcAssetID = "0"

// tokenScale converts the venue's 1e6 fixed-point amounts to human units.
const tokenScale = 1e6

// FillDecoder normalizes raw OrderFilled events into trade intents for one
// target wallet. The zero decoder is not usable; construct with
// NewFillDecoder.
type FillDecoder struct {
	target string // lowercased
}

// NewFillDecoder creates a decoder watching the given wallet address. The
// comparison is case-insensitive.
func NewFillDecoder(targetWallet string) *FillDecoder {
	return &FillDecoder{target: strings.ToLower(targetWallet)}
}

// Decode converts one fill into a trade intent. The second return value is
// false when the fill does not involve the target wallet. A fill that
// involves the target but cannot be priced (zero token amount) is an error.
//
// Side is inferred from which asset the target gave: when the target's side
// of the fill holds USDC, the target was buying tokens.
func (d *FillDecoder) Decode(fill domain.RawFill) (domain.TradeIntent, bool, error) {
	isMaker := strings.ToLower(fill.Maker) == d.target
	isTaker := strings.ToLower(fill.Taker) == d.target
	if !isMaker && !isTaker {
		return domain.TradeIntent{}, false, nil
	}

	var side domain.OrderSide
	var assetID string
	var tokenAmt, usdcAmt int64

	if isMaker {
		if fill.MakerAssetID == usdcAssetID {
			side = domain.OrderSideBuy
			assetID = fill.TakerAssetID
			tokenAmt, usdcAmt = fill.TakerAmountFilled, fill.MakerAmountFilled
		} else {
			side = domain.OrderSideSell
			assetID = fill.MakerAssetID
			tokenAmt, usdcAmt = fill.MakerAmountFilled, fill.TakerAmountFilled
		}
	} else {
		if fill.TakerAssetID == usdcAssetID {
			side = domain.OrderSideBuy
			assetID = fill.MakerAssetID
			tokenAmt, usdcAmt = fill.MakerAmountFilled, fill.TakerAmountFilled
		} else {
			side = domain.OrderSideSell
			assetID = fill.TakerAssetID
			tokenAmt, usdcAmt = fill.TakerAmountFilled, fill.MakerAmountFilled
		}
	}

	if tokenAmt <= 0 {
		return domain.TradeIntent{}, false, fmt.Errorf(
			"pipeline: fill %s: zero token amount, cannot derive price", fill.TransactionHash)
	}

	return domain.TradeIntent{
		TradeID:   fill.TransactionHash,
		Market:    domain.MarketUnknown,
		AssetID:   assetID,
		Side:      side,
		Price:     float64(usdcAmt) / float64(tokenAmt),
		Size:      float64(tokenAmt) / tokenScale,
		Timestamp: time.Unix(fill.Timestamp, 0).UTC(),
		Status:    domain.TradeStatusPending,
	}, true, nil
}
