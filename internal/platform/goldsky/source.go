package goldsky

import (
	"context"
	"time"

	"github.com/alanyoungcy/polymirror/internal/domain"
)

// fetchBatchSize is the page size for each subgraph query.
const fetchBatchSize = 200

// Source adapts the subgraph client to the monitor's fill source contract by
// keeping a timestamp cursor across calls. The cursor starts at construction
// time so a restart does not replay history. Because the subgraph query is
// timestamp-inclusive, fills sharing the cursor second are refetched on the
// next call; the monitor's seen-marker absorbs those duplicates.
type Source struct {
	client *Client
	since  time.Time
}

// NewSource returns a Source reading fills that occur after now.
func NewSource(client *Client) *Source {
	return &Source{
		client: client,
		since:  time.Now(),
	}
}

// FetchNewFills returns fills indexed since the previous call, oldest first.
func (s *Source) FetchNewFills(ctx context.Context) ([]domain.RawFill, error) {
	fills, err := s.client.FetchOrderFills(ctx, s.since, fetchBatchSize)
	if err != nil {
		return nil, err
	}

	for _, f := range fills {
		if ts := time.Unix(f.Timestamp, 0); ts.After(s.since) {
			s.since = ts
		}
	}
	return fills, nil
}
