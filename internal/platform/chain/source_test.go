package chain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func orderFilledLog(t *testing.T, maker, taker common.Address, makerAssetID, takerAssetID, makerAmt, takerAmt, fee *big.Int) types.Log {
	t.Helper()

	word := func(v *big.Int) []byte {
		b := make([]byte, 32)
		v.FillBytes(b)
		return b
	}

	var data []byte
	for _, v := range []*big.Int{makerAssetID, takerAssetID, makerAmt, takerAmt, fee} {
		data = append(data, word(v)...)
	}

	return types.Log{
		Topics: []common.Hash{
			orderFilledTopic,
			common.HexToHash("0x01"), // orderHash
			common.BytesToHash(maker.Bytes()),
			common.BytesToHash(taker.Bytes()),
		},
		Data:        data,
		TxHash:      common.HexToHash("0xdeadbeef"),
		BlockNumber: 77_000_001,
		Index:       3,
	}
}

func TestParseOrderFilled(t *testing.T) {
	maker := common.HexToAddress("0x1111111111111111111111111111111111111111")
	taker := common.HexToAddress("0x2222222222222222222222222222222222222222")

	assetID, ok := new(big.Int).SetString("71321045679252212594626385532706912750332728571942532289631379312455583992563", 10)
	if !ok {
		t.Fatal("bad asset id literal")
	}

	lg := orderFilledLog(t, maker, taker,
		big.NewInt(0),          // makerAssetId: USDC
		assetID,                // takerAssetId: position token
		big.NewInt(65_000_000), // makerAmountFilled
		big.NewInt(100_000_000),
		big.NewInt(0),
	)

	fill, err := parseOrderFilled(lg)
	if err != nil {
		t.Fatalf("parseOrderFilled: %v", err)
	}

	if fill.Maker != maker.Hex() {
		t.Errorf("maker = %s, want %s", fill.Maker, maker.Hex())
	}
	if fill.Taker != taker.Hex() {
		t.Errorf("taker = %s, want %s", fill.Taker, taker.Hex())
	}
	if fill.MakerAssetID != "0" {
		t.Errorf("makerAssetID = %s, want 0", fill.MakerAssetID)
	}
	if fill.TakerAssetID != assetID.String() {
		t.Errorf("takerAssetID = %s, want %s", fill.TakerAssetID, assetID.String())
	}
	if fill.MakerAmountFilled != 65_000_000 {
		t.Errorf("makerAmountFilled = %d, want 65000000", fill.MakerAmountFilled)
	}
	if fill.TakerAmountFilled != 100_000_000 {
		t.Errorf("takerAmountFilled = %d, want 100000000", fill.TakerAmountFilled)
	}
	if fill.BlockNumber != 77_000_001 || fill.LogIndex != 3 {
		t.Errorf("position = %d/%d, want 77000001/3", fill.BlockNumber, fill.LogIndex)
	}
}

func TestParseOrderFilledRejectsShortLog(t *testing.T) {
	lg := types.Log{
		Topics: []common.Hash{orderFilledTopic},
		Data:   make([]byte, 32),
	}
	if _, err := parseOrderFilled(lg); err == nil {
		t.Fatal("expected error for log with missing topics")
	}

	lg.Topics = []common.Hash{orderFilledTopic, {}, {}, {}}
	if _, err := parseOrderFilled(lg); err == nil {
		t.Fatal("expected error for truncated data")
	}
}
