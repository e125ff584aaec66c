package domain

import (
	"math/big"
	"time"
)

// OrderSide indicates whether this is a buy or sell, from the perspective of
// the account placing (or being copied on) the trade.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType indicates the time-in-force policy.
type OrderType string

const (
	OrderTypeGTC OrderType = "GTC" // Good-Till-Cancelled
	OrderTypeFOK OrderType = "FOK" // Fill-Or-Kill
)

// OrderStatus tracks the venue-side order lifecycle.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusOpen    OrderStatus = "open"
	OrderStatusMatched OrderStatus = "matched"
	OrderStatusFailed  OrderStatus = "failed"
)

// Order represents a signed order ready for submission to the CLOB.
type Order struct {
	ID          string
	Salt        string // random numeric string, part of the signed payload
	TokenID     string
	Maker       string // funding address (proxy wallet when signature_type is 1)
	SignerAddr  string
	Side        OrderSide
	Type        OrderType
	Price       float64
	Size        float64
	MakerAmount *big.Int // integer amount given, used in signed payload
	TakerAmount *big.Int // integer amount received, used in signed payload
	Signature   string   // EIP-712 hex
	CreatedAt   time.Time
}

// OrderResult wraps the venue response after order submission.
type OrderResult struct {
	Success     bool
	Simulated   bool
	OrderID     string
	Status      OrderStatus
	Message     string
	ShouldRetry bool
}
