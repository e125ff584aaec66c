// Package polymarket contains REST and WebSocket clients for the Polymarket
// CLOB and Gamma APIs.
package polymarket

import (
	"encoding/json"
	"strconv"

	"github.com/alanyoungcy/polymirror/internal/domain"
)

// APIOrderResult is the response from placing an order via the CLOB API.
type APIOrderResult struct {
	Success     bool   `json:"success"`
	ErrorMsg    string `json:"errorMsg,omitempty"`
	OrderID     string `json:"orderID,omitempty"`
	Status      string `json:"status,omitempty"`
	TransactID  string `json:"transactID,omitempty"`
	ShouldRetry bool   `json:"shouldRetry,omitempty"`
}

// ToDomainOrderResult converts an APIOrderResult to a domain.OrderResult.
func (r *APIOrderResult) ToDomainOrderResult() domain.OrderResult {
	result := domain.OrderResult{
		Success:     r.Success,
		OrderID:     r.OrderID,
		Message:     r.ErrorMsg,
		ShouldRetry: r.ShouldRetry,
	}

	switch r.Status {
	case "live", "open":
		result.Status = domain.OrderStatusOpen
	case "matched":
		result.Status = domain.OrderStatusMatched
	case "delayed":
		result.Status = domain.OrderStatusPending
	default:
		if r.Success {
			result.Status = domain.OrderStatusPending
		} else {
			result.Status = domain.OrderStatusFailed
		}
	}

	return result
}

// APIMarket is the subset of a Gamma API market record needed to label trade
// intents with a human-readable market.
type APIMarket struct {
	ID           string   `json:"id"`
	Question     string   `json:"question"`
	ConditionID  string   `json:"condition_id"`
	Slug         string   `json:"slug"`
	Active       flexBool `json:"active"` // API may send bool or "true"/"false" string
	Closed       bool     `json:"closed"`
	ClobTokenIDs string   `json:"clobTokenIds"` // JSON-encoded array of token ID strings
}

// TokenIDs decodes the JSON-encoded clobTokenIds field.
func (m *APIMarket) TokenIDs() []string {
	var ids []string
	if err := json.Unmarshal([]byte(m.ClobTokenIDs), &ids); err != nil {
		return nil
	}
	return ids
}

// flexBool tolerates both JSON booleans and "true"/"false" strings, which the
// Gamma API mixes freely.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = flexBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := strconv.ParseBool(s)
	if err != nil {
		*b = false
		return nil
	}
	*b = flexBool(parsed)
	return nil
}

// UserOrderMessage is an order lifecycle update from the user WebSocket
// channel.
type UserOrderMessage struct {
	EventType   string `json:"event_type"`
	OrderID     string `json:"id"`
	AssetID     string `json:"asset_id"`
	Market      string `json:"market"`
	Side        string `json:"side"`
	Price       string `json:"price"`
	SizeMatched string `json:"size_matched"`
	Status      string `json:"status"`
	Type        string `json:"type"` // PLACEMENT, UPDATE, CANCELLATION
}

// UserTradeMessage is a trade (fill) update from the user WebSocket channel.
type UserTradeMessage struct {
	EventType string `json:"event_type"`
	TradeID   string `json:"id"`
	AssetID   string `json:"asset_id"`
	Market    string `json:"market"`
	Side      string `json:"side"`
	Price     string `json:"price"`
	Size      string `json:"size"`
	Status    string `json:"status"`
}
