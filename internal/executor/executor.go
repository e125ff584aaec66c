// Package executor consumes trade intents and replicates them as scaled-down
// orders with bounded retry.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/polymirror/internal/domain"
)

// OrderVenue is the interface through which the executor submits orders. The
// size argument is the already-scaled replica size.
type OrderVenue interface {
	PlaceOrder(ctx context.Context, intent domain.TradeIntent, size float64) (domain.OrderResult, error)
}

// Notifier forwards operator notifications for a named event type.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Config holds the replication execution policy.
type Config struct {
	// ScaleFactor multiplies the target's trade size for the replica order.
	ScaleFactor float64

	// RetryLimit is the number of retries after the first attempt; a trade
	// is attempted at most RetryLimit+1 times.
	RetryLimit int

	// RetryBackoff is the fixed delay between attempts.
	RetryBackoff time.Duration
}

// Executor reads trade intents from a channel and executes each one: scale,
// place, retry on transient failure, and record exactly one terminal status.
// With no venue configured it runs in simulate mode, marking every intent
// successful without sending orders.
type Executor struct {
	intents  <-chan domain.TradeIntent
	venue    OrderVenue
	store    domain.TradeIntentStore
	notifier Notifier
	cfg      Config
	logger   *slog.Logger

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an Executor consuming from intents. venue and notifier may be
// nil.
func New(intents <-chan domain.TradeIntent, venue OrderVenue, store domain.TradeIntentStore, notifier Notifier, cfg Config, logger *slog.Logger) *Executor {
	return &Executor{
		intents:  intents,
		venue:    venue,
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "executor")),
		sleep:    sleepCtx,
	}
}

// Run consumes intents until the channel is closed or the context is
// cancelled. Execution failures are terminal per intent and never stop the
// loop.
func (e *Executor) Run(ctx context.Context) error {
	if e.venue == nil {
		e.logger.Warn("no order venue configured, running in simulate mode")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case intent, ok := <-e.intents:
			if !ok {
				e.logger.Info("intent channel closed, executor stopping")
				return nil
			}
			if err := e.Execute(ctx, intent); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				e.logger.Error("trade replication failed",
					slog.String("trade_id", intent.TradeID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// Execute replicates a single intent. The intent stays pending through
// retries; exactly one terminal status is written, after the final attempt.
// A malformed side fails immediately without consuming retry budget.
func (e *Executor) Execute(ctx context.Context, intent domain.TradeIntent) error {
	switch intent.Side {
	case domain.OrderSideBuy, domain.OrderSideSell:
	default:
		err := fmt.Errorf("executor: trade %s: %w: %q", intent.TradeID, domain.ErrInvalidSide, intent.Side)
		e.finish(ctx, intent, domain.TradeStatusFailed, 0, err.Error())
		return err
	}

	size := intent.Size * e.cfg.ScaleFactor

	var lastErr error
	retries := 0
	for attempt := 0; attempt <= e.cfg.RetryLimit; attempt++ {
		retries = attempt
		if attempt > 0 {
			if err := e.sleep(ctx, e.cfg.RetryBackoff); err != nil {
				return err
			}
		}

		result, err := e.place(ctx, intent, size)
		if err == nil && result.Success {
			e.logger.Info("trade replicated",
				slog.String("trade_id", intent.TradeID),
				slog.String("order_id", result.OrderID),
				slog.Float64("size", size),
				slog.Bool("simulated", result.Simulated),
				slog.Int("attempt", attempt+1),
			)
			e.finish(ctx, intent, domain.TradeStatusSuccess, attempt,
				fmt.Sprintf("%s %s %.4f @ %.4f", intent.Side, intent.Market, size, intent.Price))
			return nil
		}

		if err == nil {
			err = fmt.Errorf("executor: order not accepted: %s", result.Message)
		}
		lastErr = err

		e.logger.Warn("order attempt failed",
			slog.String("trade_id", intent.TradeID),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", e.cfg.RetryLimit+1),
			slog.String("error", err.Error()),
		)

		// The venue flags permanent rejections; retrying those wastes the
		// budget.
		if result.Status == domain.OrderStatusFailed && !result.ShouldRetry && result.Message != "" {
			break
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	e.finish(ctx, intent, domain.TradeStatusFailed, retries, lastErr.Error())
	return fmt.Errorf("executor: trade %s: %w", intent.TradeID, lastErr)
}

// place submits one order attempt, or fabricates a success in simulate mode.
func (e *Executor) place(ctx context.Context, intent domain.TradeIntent, size float64) (domain.OrderResult, error) {
	if e.venue == nil {
		return domain.OrderResult{
			Success:   true,
			Simulated: true,
			Status:    domain.OrderStatusMatched,
		}, nil
	}
	return e.venue.PlaceOrder(ctx, intent, size)
}

// finish records the terminal status and retry count, and notifies.
func (e *Executor) finish(ctx context.Context, intent domain.TradeIntent, status domain.TradeStatus, retries int, detail string) {
	if err := e.store.UpdateStatus(ctx, intent.TradeID, status, &retries); err != nil {
		e.logger.Error("record terminal status failed",
			slog.String("trade_id", intent.TradeID),
			slog.String("status", string(status)),
			slog.String("error", err.Error()),
		)
	}

	if e.notifier == nil {
		return
	}
	event, title := "trade_executed", "Trade executed"
	if status == domain.TradeStatusFailed {
		event, title = "trade_failed", "Trade failed"
	}
	if err := e.notifier.Notify(ctx, event, title, fmt.Sprintf("%s: %s", intent.TradeID, detail)); err != nil {
		e.logger.Warn("notify failed", slog.String("error", err.Error()))
	}
}

// sleepCtx sleeps for d, honouring context cancellation.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
