package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/polymirror/internal/domain"
)

// FillSource retrieves raw order-filled events produced since the previous
// call.
type FillSource interface {
	FetchNewFills(ctx context.Context) ([]domain.RawFill, error)
}

// MarketResolver maps a position token ID to a market label.
type MarketResolver interface {
	ResolveMarket(ctx context.Context, tokenID string) (string, error)
}

// Notifier forwards operator notifications for a named event type.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// intentBuffer is the capacity of the monitor-to-executor channel. The
// monitor blocks rather than dropping intents when the executor falls
// behind.
const intentBuffer = 32

// MonitorConfig holds the replication-detection policy.
type MonitorConfig struct {
	PollInterval time.Duration
	MaxAge       time.Duration // fills older than this are discarded
	SeenTTL      time.Duration // retention of the seen-fill marker
}

// MonitorDeps collects the monitor's collaborators. Source, Seen, Markets,
// Archiver, and Notifier may each be nil; the monitor degrades gracefully
// without them.
type MonitorDeps struct {
	Source   FillSource
	Decoder  *FillDecoder
	Store    domain.TradeIntentStore
	Seen     domain.SeenMarker
	Markets  MarketResolver
	Archiver *FillArchiver
	Notifier Notifier
	Logger   *slog.Logger
}

// TradeMonitor polls the fill source, decodes fills of the target wallet
// into trade intents, persists them, and hands them to the executor through
// a bounded channel. In-process deduplication is by trade ID; the optional
// seen-marker extends deduplication across restarts.
type TradeMonitor struct {
	deps MonitorDeps
	cfg  MonitorConfig
	out  chan domain.TradeIntent

	seenLocal map[string]struct{}

	// now is replaceable in tests.
	now func() time.Time
}

// NewTradeMonitor creates a TradeMonitor.
func NewTradeMonitor(deps MonitorDeps, cfg MonitorConfig) *TradeMonitor {
	deps.Logger = deps.Logger.With(slog.String("component", "monitor"))
	return &TradeMonitor{
		deps:      deps,
		cfg:       cfg,
		out:       make(chan domain.TradeIntent, intentBuffer),
		seenLocal: make(map[string]struct{}),
		now:       time.Now,
	}
}

// Intents returns the channel of decoded trade intents. The channel is
// closed when Run returns.
func (m *TradeMonitor) Intents() <-chan domain.TradeIntent {
	return m.out
}

// Run executes the monitor loop until the context is cancelled. On start,
// intents still pending in the store are requeued so work interrupted by a
// restart resumes. Without a fill source the monitor idles after the
// requeue; pending intents still flow to the executor.
func (m *TradeMonitor) Run(ctx context.Context) error {
	defer close(m.out)

	if err := m.requeuePending(ctx); err != nil {
		m.deps.Logger.Error("requeue pending intents failed", slog.String("error", err.Error()))
	}

	if m.deps.Source == nil {
		m.deps.Logger.Warn("no fill source configured, monitor idle")
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.deps.Logger.Info("monitor loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := m.poll(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				m.deps.Logger.Error("poll failed", slog.String("error", err.Error()))
			}
		}
	}
}

// requeuePending loads all pending intents from the store and pushes them to
// the executor.
func (m *TradeMonitor) requeuePending(ctx context.Context) error {
	pending, err := m.deps.Store.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: list pending: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	m.deps.Logger.Info("requeueing pending intents", slog.Int("count", len(pending)))
	for _, intent := range pending {
		m.seenLocal[intent.TradeID] = struct{}{}
		select {
		case m.out <- intent:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// poll runs one fetch-decode-dispatch cycle.
func (m *TradeMonitor) poll(ctx context.Context) error {
	fills, err := m.deps.Source.FetchNewFills(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: fetch fills: %w", err)
	}
	if len(fills) == 0 {
		return nil
	}

	if m.deps.Archiver != nil {
		if err := m.deps.Archiver.Archive(ctx, fills); err != nil {
			// Archival is best-effort and never blocks replication.
			m.deps.Logger.Warn("archive fills failed", slog.String("error", err.Error()))
		}
	}

	for _, fill := range fills {
		if err := m.handleFill(ctx, fill); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.deps.Logger.Warn("fill skipped",
				slog.String("tx_hash", fill.TransactionHash),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// handleFill decodes and dispatches one fill. Fills not involving the
// target, too-old fills, and already-seen fills are silently dropped.
func (m *TradeMonitor) handleFill(ctx context.Context, fill domain.RawFill) error {
	intent, ours, err := m.deps.Decoder.Decode(fill)
	if err != nil {
		return err
	}
	if !ours {
		return nil
	}

	if age := m.now().Sub(intent.Timestamp); age > m.cfg.MaxAge {
		m.deps.Logger.Debug("fill too old",
			slog.String("trade_id", intent.TradeID),
			slog.Duration("age", age),
		)
		return nil
	}

	if _, dup := m.seenLocal[intent.TradeID]; dup {
		return nil
	}
	m.seenLocal[intent.TradeID] = struct{}{}

	if m.deps.Seen != nil {
		first, err := m.deps.Seen.MarkSeen(ctx, intent.TradeID, m.cfg.SeenTTL)
		if err != nil {
			// The marker is advisory; on error fall back to local dedupe.
			m.deps.Logger.Warn("seen marker unavailable", slog.String("error", err.Error()))
		} else if !first {
			return nil
		}
	}

	if m.deps.Markets != nil {
		if market, err := m.deps.Markets.ResolveMarket(ctx, intent.AssetID); err == nil {
			intent.Market = market
		}
	}

	saved, err := m.deps.Store.Save(ctx, intent)
	if err != nil {
		return err
	}

	m.deps.Logger.Info("trade detected",
		slog.String("trade_id", saved.TradeID),
		slog.String("market", saved.Market),
		slog.String("side", string(saved.Side)),
		slog.Float64("price", saved.Price),
		slog.Float64("size", saved.Size),
	)

	if m.deps.Notifier != nil {
		msg := fmt.Sprintf("%s %s %.4f @ %.4f (%s)",
			saved.Side, saved.Market, saved.Size, saved.Price, saved.TradeID)
		if err := m.deps.Notifier.Notify(ctx, "trade_detected", "Trade detected", msg); err != nil {
			m.deps.Logger.Warn("notify failed", slog.String("error", err.Error()))
		}
	}

	select {
	case m.out <- saved:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
