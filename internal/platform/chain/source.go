// Package chain reads OrderFilled events from the CTF Exchange contract over
// Polygon JSON-RPC.
package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/alanyoungcy/polymirror/internal/domain"
)

// orderFilledTopic is the keccak256 hash of the OrderFilled event signature
// emitted by the CTF Exchange contract.
var orderFilledTopic = crypto.Keccak256Hash(
	[]byte("OrderFilled(bytes32,address,address,uint256,uint256,uint256,uint256,uint256)"),
)

// maxBlockRange caps how many blocks a single FilterLogs call may span, so a
// source that fell far behind does not issue an unbounded query.
const maxBlockRange = 2000

// blockTimeCacheSize bounds the block-number to timestamp cache.
const blockTimeCacheSize = 512

// Source polls the exchange contract for new OrderFilled logs. It tracks the
// last block it has scanned; the first call starts from the current head so a
// restart does not replay history. Not safe for concurrent use; the monitor
// is its only caller.
type Source struct {
	client   *ethclient.Client
	exchange common.Address

	lastBlock  uint64
	blockTimes map[uint64]int64
}

// NewSource dials the RPC endpoint and returns a Source scanning the given
// exchange contract address.
func NewSource(ctx context.Context, rpcURL, exchangeAddress string) (*Source, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", rpcURL, err)
	}

	if !common.IsHexAddress(exchangeAddress) {
		client.Close()
		return nil, fmt.Errorf("chain: invalid exchange address %q", exchangeAddress)
	}

	return &Source{
		client:     client,
		exchange:   common.HexToAddress(exchangeAddress),
		blockTimes: make(map[uint64]int64, blockTimeCacheSize),
	}, nil
}

// Close releases the underlying RPC connection.
func (s *Source) Close() {
	s.client.Close()
}

// FetchNewFills returns OrderFilled events from blocks produced since the
// previous call, in log order. The first call only establishes the scan
// cursor and returns no fills.
func (s *Source) FetchNewFills(ctx context.Context) ([]domain.RawFill, error) {
	head, err := s.client.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain: block number: %w", err)
	}

	if s.lastBlock == 0 {
		s.lastBlock = head
		return nil, nil
	}
	if head <= s.lastBlock {
		return nil, nil
	}

	from := s.lastBlock + 1
	to := head
	if to-from > maxBlockRange {
		to = from + maxBlockRange
	}

	logs, err := s.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{s.exchange},
		Topics:    [][]common.Hash{{orderFilledTopic}},
	})
	if err != nil {
		return nil, fmt.Errorf("chain: filter logs %d-%d: %w", from, to, err)
	}

	fills := make([]domain.RawFill, 0, len(logs))
	for _, lg := range logs {
		fill, err := parseOrderFilled(lg)
		if err != nil {
			// A malformed log is skipped, not fatal: the rest of the
			// batch is still usable.
			continue
		}

		ts, err := s.blockTime(ctx, lg.BlockNumber)
		if err != nil {
			return nil, err
		}
		fill.Timestamp = ts
		fills = append(fills, fill)
	}

	s.lastBlock = to
	return fills, nil
}

// blockTime returns the timestamp of the given block, caching results since
// one transaction commonly carries several fills.
func (s *Source) blockTime(ctx context.Context, number uint64) (int64, error) {
	if ts, ok := s.blockTimes[number]; ok {
		return ts, nil
	}

	header, err := s.client.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, fmt.Errorf("chain: header %d: %w", number, err)
	}

	if len(s.blockTimes) >= blockTimeCacheSize {
		s.blockTimes = make(map[uint64]int64, blockTimeCacheSize)
	}
	ts := int64(header.Time)
	s.blockTimes[number] = ts
	return ts, nil
}

// parseOrderFilled decodes one OrderFilled log into a RawFill. The maker and
// taker are indexed topics; the five uint256 amounts sit in the data words.
func parseOrderFilled(lg types.Log) (domain.RawFill, error) {
	if len(lg.Topics) < 4 {
		return domain.RawFill{}, fmt.Errorf("chain: order filled log: want 4 topics, got %d", len(lg.Topics))
	}
	if len(lg.Data) < 5*32 {
		return domain.RawFill{}, fmt.Errorf("chain: order filled log: want 160 data bytes, got %d", len(lg.Data))
	}

	maker := common.BytesToAddress(lg.Topics[2].Bytes())
	taker := common.BytesToAddress(lg.Topics[3].Bytes())

	makerAssetID := new(big.Int).SetBytes(lg.Data[0:32])
	takerAssetID := new(big.Int).SetBytes(lg.Data[32:64])
	makerAmount := new(big.Int).SetBytes(lg.Data[64:96])
	takerAmount := new(big.Int).SetBytes(lg.Data[96:128])

	return domain.RawFill{
		TransactionHash:   lg.TxHash.Hex(),
		BlockNumber:       lg.BlockNumber,
		LogIndex:          lg.Index,
		Maker:             maker.Hex(),
		MakerAssetID:      makerAssetID.String(),
		MakerAmountFilled: makerAmount.Int64(),
		Taker:             taker.Hex(),
		TakerAssetID:      takerAssetID.String(),
		TakerAmountFilled: takerAmount.Int64(),
	}, nil
}
