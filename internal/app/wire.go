package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/alanyoungcy/polymirror/internal/blob/s3"
	"github.com/alanyoungcy/polymirror/internal/cache/redis"
	"github.com/alanyoungcy/polymirror/internal/config"
	"github.com/alanyoungcy/polymirror/internal/crypto"
	"github.com/alanyoungcy/polymirror/internal/domain"
	"github.com/alanyoungcy/polymirror/internal/executor"
	"github.com/alanyoungcy/polymirror/internal/notify"
	"github.com/alanyoungcy/polymirror/internal/pipeline"
	"github.com/alanyoungcy/polymirror/internal/platform/chain"
	"github.com/alanyoungcy/polymirror/internal/platform/goldsky"
	"github.com/alanyoungcy/polymirror/internal/platform/polymarket"
	"github.com/alanyoungcy/polymirror/internal/store/memory"
	"github.com/alanyoungcy/polymirror/internal/store/postgres"
)

// Dependencies bundles everything the application modes need. Optional
// members (Seen, BlobWriter, Source, Markets, Venue, Feed) are nil when
// their backing service is not configured; the pipeline degrades gracefully
// without them.
type Dependencies struct {
	Store      domain.TradeIntentStore
	Seen       domain.SeenMarker
	BlobWriter domain.BlobWriter
	Source     pipeline.FillSource
	Markets    pipeline.MarketResolver
	Venue      executor.OrderVenue
	Feed       *polymarket.UserFeed
	Notifier   *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Trade intent store: PostgreSQL, degrading to memory ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.PoolMaxConns,
		MinConns: cfg.Database.PoolMinConns,
	})
	if err != nil {
		logger.Warn("database unreachable, trade intents will not survive restarts",
			slog.String("error", err.Error()),
		)
		deps.Store = memory.NewIntentStore()
	} else {
		closers = append(closers, pgClient.Close)

		if cfg.Database.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		deps.Store = postgres.NewIntentStore(pgClient.Pool())
	}

	// --- Redis seen-fill marker (optional) ---
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Seen = redis.NewSeenCache(redisClient)
	}

	// --- S3 fill archive (optional) ---
	if cfg.S3.Bucket != "" {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
	}

	// --- Fill source ---
	switch strings.ToLower(cfg.Chain.FillSource) {
	case "goldsky":
		deps.Source = goldsky.NewSource(goldsky.NewClient(cfg.Chain.GoldskyURL, cfg.Chain.GoldskyAPIKey))
	default: // "rpc"
		if cfg.Chain.RPCURL != "" {
			src, err := chain.NewSource(ctx, cfg.Chain.RPCURL, cfg.Chain.ExchangeAddress)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: chain source: %w", err)
			}
			closers = append(closers, src.Close)
			deps.Source = src
		}
	}

	// --- Market resolution ---
	if cfg.Polymarket.GammaHost != "" {
		deps.Markets = polymarket.NewGammaClient(cfg.Polymarket.GammaHost)
	}

	// --- Order venue (only with a wallet key) ---
	keyHex, err := crypto.LoadKey(crypto.KeyConfig{
		RawPrivateKey:    cfg.Wallet.PrivateKey,
		EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
		KeyPassword:      cfg.Wallet.KeyPassword,
	})
	if err != nil {
		logger.Warn("no wallet key configured, orders will be simulated",
			slog.String("error", err.Error()),
		)
	} else {
		signer, err := crypto.NewSigner(keyHex, cfg.Polymarket.ChainID, cfg.Chain.ExchangeAddress)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: signer: %w", err)
		}

		clob := polymarket.NewClobClient(cfg.Polymarket.ClobHost, signer, nil, cfg.Polymarket.SignatureType)
		if err := clob.DeriveAPIKey(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: derive api key: %w", err)
		}

		deps.Venue = polymarket.NewTrader(clob, signer, cfg.Wallet.ProxyAddress, cfg.Polymarket.SignatureType)

		if cfg.Polymarket.WsHost != "" {
			deps.Feed = polymarket.NewUserFeed(cfg.Polymarket.WsHost, clob.Creds())
		}
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
