package memory

import (
	"context"
	"testing"
	"time"

	"github.com/alanyoungcy/polymirror/internal/domain"
)

func TestSaveDefaultsToPending(t *testing.T) {
	store := NewIntentStore()

	saved, err := store.Save(context.Background(), domain.TradeIntent{
		TradeID: "0xabc",
		AssetID: "123",
		Side:    domain.OrderSideBuy,
		Price:   0.55,
		Size:    10,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.Status != domain.TradeStatusPending {
		t.Errorf("status = %q, want pending", saved.Status)
	}
	if saved.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped")
	}
}

func TestUpdateStatusUnknownIDIsNoop(t *testing.T) {
	store := NewIntentStore()

	if err := store.UpdateStatus(context.Background(), "missing", domain.TradeStatusFailed, nil); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
}

func TestUpdateStatusTouchesAllMatches(t *testing.T) {
	ctx := context.Background()
	store := NewIntentStore()

	// Two fills can share a transaction hash.
	for i := 0; i < 2; i++ {
		if _, err := store.Save(ctx, domain.TradeIntent{TradeID: "0xdup", Side: domain.OrderSideBuy}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	if _, err := store.Save(ctx, domain.TradeIntent{TradeID: "0xother", Side: domain.OrderSideSell}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	retries := 2
	if err := store.UpdateStatus(ctx, "0xdup", domain.TradeStatusSuccess, &retries); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	pending, err := store.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	if pending[0].TradeID != "0xother" {
		t.Errorf("remaining pending = %q, want 0xother", pending[0].TradeID)
	}
}

func TestListPendingPreservesOrder(t *testing.T) {
	ctx := context.Background()
	store := NewIntentStore()

	ids := []string{"0x1", "0x2", "0x3"}
	for _, id := range ids {
		if _, err := store.Save(ctx, domain.TradeIntent{
			TradeID:   id,
			Side:      domain.OrderSideBuy,
			Timestamp: time.Now(),
		}); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	pending, err := store.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != len(ids) {
		t.Fatalf("pending = %d, want %d", len(pending), len(ids))
	}
	for i, id := range ids {
		if pending[i].TradeID != id {
			t.Errorf("pending[%d] = %q, want %q", i, pending[i].TradeID, id)
		}
	}
}
