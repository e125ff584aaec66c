package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/polymirror/internal/crypto"
	"github.com/alanyoungcy/polymirror/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second
)

// OrderUpdateHandler is called for every order lifecycle update on the user
// channel.
type OrderUpdateHandler func(UserOrderMessage)

// TradeUpdateHandler is called for every fill of our own orders on the user
// channel.
type TradeUpdateHandler func(UserTradeMessage)

// UserFeed is a WebSocket client for the CLOB authenticated user channel. It
// streams order and trade updates for the copying wallet so terminal order
// states are observed without polling.
type UserFeed struct {
	wsURL string
	creds *crypto.HMACAuth
	conn  *websocket.Conn

	mu     sync.RWMutex
	closed bool

	orderHandlers []OrderUpdateHandler
	tradeHandlers []TradeUpdateHandler
	handlerMu     sync.RWMutex

	// done is closed when the feed is shut down.
	done chan struct{}
}

// NewUserFeed creates a user-channel feed client.
//
// wsURL is the CLOB WebSocket host, e.g.
// "wss://ws-subscriptions-clob.polymarket.com". creds must hold the HMAC
// credentials obtained from DeriveAPIKey.
func NewUserFeed(wsURL string, creds *crypto.HMACAuth) *UserFeed {
	return &UserFeed{
		wsURL: wsURL + "/ws/user",
		creds: creds,
		done:  make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection and sends the authenticated
// subscribe message for the user channel.
func (f *UserFeed) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return fmt.Errorf("polymarket/userfeed: %w", domain.ErrWSDisconnect)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("polymarket/userfeed: connect: %w", err)
	}

	f.conn = conn

	f.conn.SetReadDeadline(time.Now().Add(pongWait))
	f.conn.SetPongHandler(func(string) error {
		f.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	if err := f.subscribe(); err != nil {
		f.conn.Close()
		f.conn = nil
		return err
	}

	go f.readLoop()
	go f.pingLoop()

	return nil
}

// subscribe sends the user channel subscription with API credentials.
// Caller must hold f.mu.
func (f *UserFeed) subscribe() error {
	sub := struct {
		Auth struct {
			APIKey     string `json:"apiKey"`
			Secret     string `json:"secret"`
			Passphrase string `json:"passphrase"`
		} `json:"auth"`
		Type    string   `json:"type"`
		Markets []string `json:"markets"`
	}{
		Type:    "user",
		Markets: []string{},
	}
	sub.Auth.APIKey = f.creds.Key
	sub.Auth.Secret = f.creds.Secret
	sub.Auth.Passphrase = f.creds.Passphrase

	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("polymarket/userfeed: marshal subscribe: %w", err)
	}

	f.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := f.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("polymarket/userfeed: subscribe: %w", err)
	}
	return nil
}

// Close shuts down the connection and stops the read loop.
func (f *UserFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}

	f.closed = true
	close(f.done)

	if f.conn != nil {
		_ = f.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return f.conn.Close()
	}

	return nil
}

// OnOrderUpdate registers a handler for order lifecycle updates.
func (f *UserFeed) OnOrderUpdate(handler OrderUpdateHandler) {
	f.handlerMu.Lock()
	defer f.handlerMu.Unlock()
	f.orderHandlers = append(f.orderHandlers, handler)
}

// OnTradeUpdate registers a handler for fills of our own orders.
func (f *UserFeed) OnTradeUpdate(handler TradeUpdateHandler) {
	f.handlerMu.Lock()
	defer f.handlerMu.Unlock()
	f.tradeHandlers = append(f.tradeHandlers, handler)
}

// readLoop continuously reads messages and dispatches them to handlers. On
// disconnect it reconnects with exponential backoff.
func (f *UserFeed) readLoop() {
	for {
		select {
		case <-f.done:
			return
		default:
		}

		f.mu.RLock()
		conn := f.conn
		f.mu.RUnlock()

		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-f.done:
				return
			default:
			}

			f.reconnect()
			return // readLoop is restarted by reconnect -> Connect
		}

		f.handleMessage(message)
	}
}

// pingLoop sends periodic ping messages to keep the connection alive.
func (f *UserFeed) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.mu.RLock()
			conn := f.conn
			f.mu.RUnlock()

			if conn == nil {
				return
			}

			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage routes a raw message by its event type. The user channel
// delivers messages singly or in JSON arrays.
func (f *UserFeed) handleMessage(raw []byte) {
	if len(raw) > 0 && raw[0] == '[' {
		var batch []json.RawMessage
		if err := json.Unmarshal(raw, &batch); err != nil {
			return
		}
		for _, msg := range batch {
			f.handleMessage(msg)
		}
		return
	}

	var envelope struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return // Silently drop unparseable messages.
	}

	switch envelope.EventType {
	case "order":
		var msg UserOrderMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}

		f.handlerMu.RLock()
		handlers := f.orderHandlers
		f.handlerMu.RUnlock()

		for _, h := range handlers {
			h(msg)
		}

	case "trade":
		var msg UserTradeMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}

		f.handlerMu.RLock()
		handlers := f.tradeHandlers
		f.handlerMu.RUnlock()

		for _, h := range handlers {
			h(msg)
		}
	}
}

// reconnect re-establishes the connection with exponential backoff. It
// blocks until successful or the feed is closed.
func (f *UserFeed) reconnect() {
	delay := reconnectDelay

	for {
		select {
		case <-f.done:
			return
		default:
		}

		time.Sleep(delay)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := f.Connect(ctx)
		cancel()

		if err == nil {
			return
		}

		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}
