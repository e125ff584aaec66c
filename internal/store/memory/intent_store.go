// Package memory provides an in-process trade intent store used when no
// database is configured. State is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/alanyoungcy/polymirror/internal/domain"
)

// IntentStore keeps trade intents in memory, guarded by a mutex.
type IntentStore struct {
	mu      sync.Mutex
	intents []domain.TradeIntent
}

// NewIntentStore creates an empty in-memory store.
func NewIntentStore() *IntentStore {
	return &IntentStore{}
}

// Save appends the intent and stamps its creation time.
func (s *IntentStore) Save(_ context.Context, intent domain.TradeIntent) (domain.TradeIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if intent.Status == "" {
		intent.Status = domain.TradeStatusPending
	}
	intent.CreatedAt = time.Now().UTC()
	s.intents = append(s.intents, intent)
	return intent, nil
}

// UpdateStatus updates every stored intent matching the trade ID. An unknown
// trade ID is a no-op.
func (s *IntentStore) UpdateStatus(_ context.Context, tradeID string, status domain.TradeStatus, retryCount *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.intents {
		if s.intents[i].TradeID != tradeID {
			continue
		}
		s.intents[i].Status = status
		if retryCount != nil {
			s.intents[i].RetryCount = *retryCount
		}
	}
	return nil
}

// ListPending returns copies of all intents still pending, in insertion order.
func (s *IntentStore) ListPending(_ context.Context) ([]domain.TradeIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []domain.TradeIntent
	for _, in := range s.intents {
		if in.Status == domain.TradeStatusPending {
			pending = append(pending, in)
		}
	}
	return pending, nil
}

var _ domain.TradeIntentStore = (*IntentStore)(nil)
