package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/alanyoungcy/polymirror/internal/domain"
	"github.com/alanyoungcy/polymirror/internal/store/memory"
)

// fakeVenue fails the first failN attempts, then succeeds, recording the
// sizes it was asked to place.
type fakeVenue struct {
	failN    int
	attempts int
	sizes    []float64
	result   domain.OrderResult
}

func (v *fakeVenue) PlaceOrder(_ context.Context, _ domain.TradeIntent, size float64) (domain.OrderResult, error) {
	v.attempts++
	v.sizes = append(v.sizes, size)
	if v.attempts <= v.failN {
		if v.result.Message != "" {
			return v.result, errors.New(v.result.Message)
		}
		return domain.OrderResult{}, errors.New("venue unavailable")
	}
	return domain.OrderResult{Success: true, OrderID: "ord-1", Status: domain.OrderStatusOpen}, nil
}

func testExecutor(venue OrderVenue, store domain.TradeIntentStore, cfg Config) *Executor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := New(nil, venue, store, nil, cfg, logger)
	e.sleep = func(context.Context, time.Duration) error { return nil }
	return e
}

func intent(side domain.OrderSide) domain.TradeIntent {
	return domain.TradeIntent{
		TradeID: "0xabc",
		Market:  domain.MarketUnknown,
		AssetID: "42",
		Side:    side,
		Price:   0.65,
		Size:    100,
		Status:  domain.TradeStatusPending,
	}
}

func statusOf(t *testing.T, store domain.TradeIntentStore) (pending int) {
	t.Helper()
	list, err := store.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	return len(list)
}

func TestExecuteScalesSize(t *testing.T) {
	ctx := context.Background()
	store := memory.NewIntentStore()
	if _, err := store.Save(ctx, intent(domain.OrderSideBuy)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	venue := &fakeVenue{}
	e := testExecutor(venue, store, Config{ScaleFactor: 0.2, RetryLimit: 3, RetryBackoff: time.Millisecond})

	if err := e.Execute(ctx, intent(domain.OrderSideBuy)); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(venue.sizes) != 1 {
		t.Fatalf("attempts = %d, want 1", len(venue.sizes))
	}
	if math.Abs(venue.sizes[0]-20) > 1e-9 {
		t.Errorf("scaled size = %g, want 20", venue.sizes[0])
	}
	if n := statusOf(t, store); n != 0 {
		t.Errorf("pending = %d, want 0 after success", n)
	}
}

func TestExecuteRetriesThenSucceeds(t *testing.T) {
	ctx := context.Background()
	store := memory.NewIntentStore()
	if _, err := store.Save(ctx, intent(domain.OrderSideSell)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	venue := &fakeVenue{failN: 2}
	e := testExecutor(venue, store, Config{ScaleFactor: 0.2, RetryLimit: 3, RetryBackoff: time.Millisecond})

	if err := e.Execute(ctx, intent(domain.OrderSideSell)); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if venue.attempts != 3 {
		t.Errorf("attempts = %d, want 3", venue.attempts)
	}
	if n := statusOf(t, store); n != 0 {
		t.Errorf("pending = %d, want 0 after eventual success", n)
	}
}

func TestExecuteExhaustsRetryBudget(t *testing.T) {
	ctx := context.Background()
	store := memory.NewIntentStore()
	if _, err := store.Save(ctx, intent(domain.OrderSideBuy)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	venue := &fakeVenue{failN: 100}
	e := testExecutor(venue, store, Config{ScaleFactor: 0.2, RetryLimit: 3, RetryBackoff: time.Millisecond})

	if err := e.Execute(ctx, intent(domain.OrderSideBuy)); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if venue.attempts != 4 {
		t.Errorf("attempts = %d, want retry_limit+1 = 4", venue.attempts)
	}
	if n := statusOf(t, store); n != 0 {
		t.Errorf("pending = %d, want 0 after terminal failure", n)
	}
}

func TestExecutePermanentRejectionStopsEarly(t *testing.T) {
	ctx := context.Background()
	store := memory.NewIntentStore()
	if _, err := store.Save(ctx, intent(domain.OrderSideBuy)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	venue := &fakeVenue{
		failN: 100,
		result: domain.OrderResult{
			Success:     false,
			Status:      domain.OrderStatusFailed,
			Message:     "insufficient balance",
			ShouldRetry: false,
		},
	}
	e := testExecutor(venue, store, Config{ScaleFactor: 0.2, RetryLimit: 3, RetryBackoff: time.Millisecond})

	if err := e.Execute(ctx, intent(domain.OrderSideBuy)); err == nil {
		t.Fatal("expected error for rejected order")
	}
	if venue.attempts != 1 {
		t.Errorf("attempts = %d, want 1 for a permanent rejection", venue.attempts)
	}
}

func TestExecuteInvalidSideFailsFast(t *testing.T) {
	ctx := context.Background()
	store := memory.NewIntentStore()
	bad := intent("short")
	if _, err := store.Save(ctx, bad); err != nil {
		t.Fatalf("Save: %v", err)
	}

	venue := &fakeVenue{}
	e := testExecutor(venue, store, Config{ScaleFactor: 0.2, RetryLimit: 3, RetryBackoff: time.Millisecond})

	err := e.Execute(ctx, bad)
	if !errors.Is(err, domain.ErrInvalidSide) {
		t.Fatalf("err = %v, want ErrInvalidSide", err)
	}
	if venue.attempts != 0 {
		t.Errorf("attempts = %d, want 0 for malformed side", venue.attempts)
	}
	if n := statusOf(t, store); n != 0 {
		t.Errorf("pending = %d, want 0 after fail-fast", n)
	}
}

func TestExecuteSimulateMode(t *testing.T) {
	ctx := context.Background()
	store := memory.NewIntentStore()
	if _, err := store.Save(ctx, intent(domain.OrderSideBuy)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	e := testExecutor(nil, store, Config{ScaleFactor: 0.2, RetryLimit: 3, RetryBackoff: time.Millisecond})

	if err := e.Execute(ctx, intent(domain.OrderSideBuy)); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if n := statusOf(t, store); n != 0 {
		t.Errorf("pending = %d, want 0 after simulated success", n)
	}
}

func TestRunConsumesUntilChannelClosed(t *testing.T) {
	ctx := context.Background()
	store := memory.NewIntentStore()

	in := make(chan domain.TradeIntent, 2)
	first := intent(domain.OrderSideBuy)
	second := intent(domain.OrderSideSell)
	second.TradeID = "0xdef"
	for _, it := range []domain.TradeIntent{first, second} {
		if _, err := store.Save(ctx, it); err != nil {
			t.Fatalf("Save: %v", err)
		}
		in <- it
	}
	close(in)

	venue := &fakeVenue{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := New(in, venue, store, nil, Config{ScaleFactor: 0.5, RetryLimit: 1, RetryBackoff: time.Millisecond}, logger)

	if err := e.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if venue.attempts != 2 {
		t.Errorf("attempts = %d, want 2", venue.attempts)
	}
	if n := statusOf(t, store); n != 0 {
		t.Errorf("pending = %d, want 0 after draining channel", n)
	}
}
