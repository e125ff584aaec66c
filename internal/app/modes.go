package app

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/polymirror/internal/executor"
	"github.com/alanyoungcy/polymirror/internal/pipeline"
	"github.com/alanyoungcy/polymirror/internal/platform/polymarket"
)

// CopyMode runs the full replication pipeline: monitor the target wallet's
// fills, decode them into intents, and execute scaled replica orders.
func (a *App) CopyMode(ctx context.Context, deps *Dependencies) error {
	monitor := a.buildMonitor(deps)

	exec := executor.New(
		monitor.Intents(),
		deps.Venue,
		deps.Store,
		deps.Notifier,
		executor.Config{
			ScaleFactor:  a.cfg.Copy.ScaleFactor,
			RetryLimit:   a.cfg.Copy.RetryLimit,
			RetryBackoff: a.cfg.Copy.RetryBackoff.Duration,
		},
		a.logger,
	)

	a.startUserFeed(ctx, deps)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return monitor.Run(ctx) })
	g.Go(func() error { return exec.Run(ctx) })
	return g.Wait()
}

// MonitorMode watches and records the target wallet's trades without
// replicating them.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	monitor := a.buildMonitor(deps)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return monitor.Run(ctx) })
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case intent, ok := <-monitor.Intents():
				if !ok {
					return nil
				}
				a.logger.Info("observed trade (not replicating)",
					slog.String("trade_id", intent.TradeID),
					slog.String("market", intent.Market),
					slog.String("side", string(intent.Side)),
					slog.Float64("price", intent.Price),
					slog.Float64("size", intent.Size),
				)
			}
		}
	})
	return g.Wait()
}

// buildMonitor assembles the trade monitor from the wired dependencies.
func (a *App) buildMonitor(deps *Dependencies) *pipeline.TradeMonitor {
	var archiver *pipeline.FillArchiver
	if deps.BlobWriter != nil {
		archiver = pipeline.NewFillArchiver(deps.BlobWriter, a.logger)
	}

	return pipeline.NewTradeMonitor(
		pipeline.MonitorDeps{
			Source:   deps.Source,
			Decoder:  pipeline.NewFillDecoder(a.cfg.Copy.TargetWallet),
			Store:    deps.Store,
			Seen:     deps.Seen,
			Markets:  deps.Markets,
			Archiver: archiver,
			Notifier: deps.Notifier,
			Logger:   a.logger,
		},
		pipeline.MonitorConfig{
			PollInterval: a.cfg.Copy.PollInterval.Duration,
			MaxAge:       a.cfg.Copy.MaxAge.Duration,
			SeenTTL:      a.cfg.Redis.SeenTTL.Duration,
		},
	)
}

// startUserFeed connects the CLOB user channel and logs venue-side order
// lifecycle updates. The feed is best-effort; a connect failure is logged
// and copy trading proceeds without it.
func (a *App) startUserFeed(ctx context.Context, deps *Dependencies) {
	if deps.Feed == nil {
		return
	}

	deps.Feed.OnOrderUpdate(func(msg polymarket.UserOrderMessage) {
		a.logger.Info("order update",
			slog.String("order_id", msg.OrderID),
			slog.String("type", msg.Type),
			slog.String("status", msg.Status),
			slog.String("size_matched", msg.SizeMatched),
		)
	})
	deps.Feed.OnTradeUpdate(func(msg polymarket.UserTradeMessage) {
		a.logger.Info("replica order filled",
			slog.String("trade_id", msg.TradeID),
			slog.String("side", msg.Side),
			slog.String("price", msg.Price),
			slog.String("size", msg.Size),
		)
	})

	if err := deps.Feed.Connect(ctx); err != nil {
		a.logger.Warn("user feed unavailable", slog.String("error", err.Error()))
		return
	}
	a.closers = append(a.closers, func() { _ = deps.Feed.Close() })
}
