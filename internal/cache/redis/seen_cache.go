package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/alanyoungcy/polymirror/internal/domain"
)

// SeenCache implements domain.SeenMarker using Redis SETNX with a TTL.
// It deduplicates fills across process restarts and across replicas sharing
// the same Redis instance.
//
// Key schema:
//
//	fill:seen:{tradeID} - string "1" with expiry
type SeenCache struct {
	c *Client
}

// NewSeenCache creates a SeenCache backed by the given Client.
func NewSeenCache(c *Client) *SeenCache {
	return &SeenCache{c: c}
}

func seenKey(tradeID string) string {
	return "fill:seen:" + tradeID
}

// MarkSeen records the trade ID and reports whether this call was the first
// to see it. A false return means another caller already marked it within
// the TTL window.
func (sc *SeenCache) MarkSeen(ctx context.Context, tradeID string, ttl time.Duration) (bool, error) {
	first, err := sc.c.Underlying().SetNX(ctx, seenKey(tradeID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: mark seen %s: %w", tradeID, err)
	}
	return first, nil
}

// Compile-time interface check.
var _ domain.SeenMarker = (*SeenCache)(nil)
