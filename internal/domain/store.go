package domain

import (
	"context"
	"io"
	"time"
)

// TradeIntentStore is the durable record of trade intents and their lifecycle.
// Save does not enforce uniqueness of TradeID; at-most-once intent creation is
// the monitor's responsibility. UpdateStatus is a no-op, not an error, for an
// unknown trade ID. Implementations must be safe for concurrent use by the
// monitor and the executor.
type TradeIntentStore interface {
	Save(ctx context.Context, intent TradeIntent) (TradeIntent, error)
	UpdateStatus(ctx context.Context, tradeID string, status TradeStatus, retryCount *int) error
	ListPending(ctx context.Context) ([]TradeIntent, error)
}

// SeenMarker records transaction hashes that have already produced an intent,
// so that a replayed fill is not replicated twice across process restarts.
// MarkSeen returns true when the ID was not seen before.
type SeenMarker interface {
	MarkSeen(ctx context.Context, tradeID string, ttl time.Duration) (bool, error)
}

// BlobWriter uploads an object to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}
