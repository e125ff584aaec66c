// Package domain defines the core types and store/cache contracts shared by
// the monitor, executor, and storage layers.
package domain

import "time"

// RawFill is a raw OrderFilled event from the CTF Exchange contract. Asset IDs
// are decimal strings because position IDs are uint256 values that overflow
// int64; filled amounts are in the venue's 1e6 fixed-point units.
type RawFill struct {
	TransactionHash   string
	BlockNumber       uint64
	LogIndex          uint
	Timestamp         int64 // block time, seconds since epoch
	Maker             string
	MakerAssetID      string
	MakerAmountFilled int64
	Taker             string
	TakerAssetID      string
	TakerAmountFilled int64
}

// TradeStatus tracks the replication lifecycle of a trade intent.
type TradeStatus string

const (
	TradeStatusPending TradeStatus = "pending"
	TradeStatusSuccess TradeStatus = "success"
	TradeStatusFailed  TradeStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s TradeStatus) Terminal() bool {
	return s == TradeStatusSuccess || s == TradeStatusFailed
}

// TradeIntent is a normalized, decoded trade of the target wallet awaiting
// replication. TradeID is derived from the originating transaction hash and
// acts as the idempotency key.
type TradeIntent struct {
	TradeID    string
	Market     string // "unknown" when resolution is unavailable
	AssetID    string
	Side       OrderSide
	Price      float64 // implied unit price, USDC per token
	Size       float64 // token amount in human units (raw / 1e6)
	Timestamp  time.Time
	Status     TradeStatus
	RetryCount int
	CreatedAt  time.Time
}

// MarketUnknown is the placeholder market identifier used when the traded
// market cannot be resolved from the fill. Unresolved markets do not block
// execution; orders key on the asset (token) ID.
const MarketUnknown = "unknown"
