package pipeline

import (
	"math"
	"testing"

	"github.com/alanyoungcy/polymirror/internal/domain"
)

const (
	target    = "0xAaAa000000000000000000000000000000000001"
	other     = "0xBBbb000000000000000000000000000000000002"
	tokenID   = "71321045679252212594626385532706912750332728571942532289631379312455583992563"
	txHash    = "0xf00d"
	blockTime = 1_700_000_000
)

func TestDecodeNotOurFill(t *testing.T) {
	d := NewFillDecoder(target)

	_, ours, err := d.Decode(domain.RawFill{
		TransactionHash:   txHash,
		Maker:             other,
		Taker:             "0xcccc000000000000000000000000000000000003",
		MakerAssetID:      "0",
		TakerAssetID:      tokenID,
		MakerAmountFilled: 65_000_000,
		TakerAmountFilled: 100_000_000,
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ours {
		t.Error("fill of unrelated wallets reported as ours")
	}
}

func TestDecodeMakerBuy(t *testing.T) {
	d := NewFillDecoder(target)

	// Target is the maker giving USDC: they bought tokens.
	intent, ours, err := d.Decode(domain.RawFill{
		TransactionHash:   txHash,
		Timestamp:         blockTime,
		Maker:             target,
		Taker:             other,
		MakerAssetID:      "0",
		TakerAssetID:      tokenID,
		MakerAmountFilled: 65_000_000,  // USDC
		TakerAmountFilled: 100_000_000, // tokens
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !ours {
		t.Fatal("target maker fill not recognized")
	}

	if intent.Side != domain.OrderSideBuy {
		t.Errorf("side = %s, want buy", intent.Side)
	}
	if intent.AssetID != tokenID {
		t.Errorf("assetID = %s, want token", intent.AssetID)
	}
	if math.Abs(intent.Price-0.65) > 1e-9 {
		t.Errorf("price = %g, want 0.65", intent.Price)
	}
	if math.Abs(intent.Size-100) > 1e-9 {
		t.Errorf("size = %g, want 100", intent.Size)
	}
	if intent.TradeID != txHash {
		t.Errorf("tradeID = %s, want %s", intent.TradeID, txHash)
	}
	if intent.Status != domain.TradeStatusPending {
		t.Errorf("status = %s, want pending", intent.Status)
	}
	if intent.Market != domain.MarketUnknown {
		t.Errorf("market = %s, want unknown", intent.Market)
	}
	if intent.Timestamp.Unix() != blockTime {
		t.Errorf("timestamp = %d, want %d", intent.Timestamp.Unix(), int64(blockTime))
	}
}

func TestDecodeMakerSell(t *testing.T) {
	d := NewFillDecoder(target)

	// Target is the maker giving tokens: they sold.
	intent, ours, err := d.Decode(domain.RawFill{
		TransactionHash:   txHash,
		Maker:             target,
		Taker:             other,
		MakerAssetID:      tokenID,
		TakerAssetID:      "0",
		MakerAmountFilled: 200_000_000, // tokens
		TakerAmountFilled: 90_000_000,  // USDC
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !ours {
		t.Fatal("target maker fill not recognized")
	}

	if intent.Side != domain.OrderSideSell {
		t.Errorf("side = %s, want sell", intent.Side)
	}
	if intent.AssetID != tokenID {
		t.Errorf("assetID = %s, want token", intent.AssetID)
	}
	if math.Abs(intent.Price-0.45) > 1e-9 {
		t.Errorf("price = %g, want 0.45", intent.Price)
	}
	if math.Abs(intent.Size-200) > 1e-9 {
		t.Errorf("size = %g, want 200", intent.Size)
	}
}

func TestDecodeTakerBuy(t *testing.T) {
	d := NewFillDecoder(target)

	// Target is the taker whose asset is USDC: they bought tokens from the
	// maker.
	intent, ours, err := d.Decode(domain.RawFill{
		TransactionHash:   txHash,
		Maker:             other,
		Taker:             target,
		MakerAssetID:      tokenID,
		TakerAssetID:      "0",
		MakerAmountFilled: 50_000_000, // tokens
		TakerAmountFilled: 30_000_000, // USDC
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !ours {
		t.Fatal("target taker fill not recognized")
	}

	if intent.Side != domain.OrderSideBuy {
		t.Errorf("side = %s, want buy", intent.Side)
	}
	if intent.AssetID != tokenID {
		t.Errorf("assetID = %s, want token", intent.AssetID)
	}
	if math.Abs(intent.Price-0.6) > 1e-9 {
		t.Errorf("price = %g, want 0.6", intent.Price)
	}
	if math.Abs(intent.Size-50) > 1e-9 {
		t.Errorf("size = %g, want 50", intent.Size)
	}
}

func TestDecodeTakerSell(t *testing.T) {
	d := NewFillDecoder(target)

	intent, ours, err := d.Decode(domain.RawFill{
		TransactionHash:   txHash,
		Maker:             other,
		Taker:             target,
		MakerAssetID:      "0",
		TakerAssetID:      tokenID,
		MakerAmountFilled: 30_000_000, // USDC
		TakerAmountFilled: 50_000_000, // tokens
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !ours {
		t.Fatal("target taker fill not recognized")
	}

	if intent.Side != domain.OrderSideSell {
		t.Errorf("side = %s, want sell", intent.Side)
	}
	if math.Abs(intent.Price-0.6) > 1e-9 {
		t.Errorf("price = %g, want 0.6", intent.Price)
	}
}

func TestDecodeCaseInsensitiveAddress(t *testing.T) {
	d := NewFillDecoder("0xAAAA000000000000000000000000000000000001")

	_, ours, err := d.Decode(domain.RawFill{
		TransactionHash:   txHash,
		Maker:             "0xaaaa000000000000000000000000000000000001",
		Taker:             other,
		MakerAssetID:      "0",
		TakerAssetID:      tokenID,
		MakerAmountFilled: 1_000_000,
		TakerAmountFilled: 2_000_000,
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !ours {
		t.Error("address comparison must be case-insensitive")
	}
}

func TestDecodeZeroTokenAmount(t *testing.T) {
	d := NewFillDecoder(target)

	_, _, err := d.Decode(domain.RawFill{
		TransactionHash:   txHash,
		Maker:             target,
		Taker:             other,
		MakerAssetID:      "0",
		TakerAssetID:      tokenID,
		MakerAmountFilled: 65_000_000,
		TakerAmountFilled: 0,
	})
	if err == nil {
		t.Fatal("expected error for zero token amount")
	}
}
