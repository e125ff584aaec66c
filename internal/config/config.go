// Package config defines the top-level configuration for polymirror and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by POLYMIRROR_* environment variables.
type Config struct {
	Wallet     WalletConfig     `toml:"wallet"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	Chain      ChainConfig      `toml:"chain"`
	Copy       CopyConfig       `toml:"copy"`
	Database   DatabaseConfig   `toml:"database"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// WalletConfig holds the trading wallet credentials. Either a raw private key
// or an encrypted key file may be supplied; with neither, the executor runs in
// simulate mode and no orders are sent.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	ProxyAddress     string `toml:"proxy_address"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// PolymarketConfig holds CLOB API endpoints and chain parameters.
type PolymarketConfig struct {
	ClobHost      string `toml:"clob_host"`
	GammaHost     string `toml:"gamma_host"`
	WsHost        string `toml:"ws_host"`
	ChainID       int    `toml:"chain_id"`
	SignatureType int    `toml:"signature_type"`
}

// ChainConfig holds the Polygon RPC endpoint and the exchange contract whose
// OrderFilled events are monitored. FillSource selects where fills are read
// from: "rpc" scans exchange logs over JSON-RPC, "goldsky" queries the
// Goldsky subgraph indexer instead.
type ChainConfig struct {
	RPCURL          string `toml:"rpc_url"`
	ExchangeAddress string `toml:"exchange_address"`
	FillSource      string `toml:"fill_source"`
	GoldskyURL      string `toml:"goldsky_url"`
	GoldskyAPIKey   string `toml:"goldsky_api_key"`
}

// CopyConfig holds the replication policy: whose trades to copy and how.
type CopyConfig struct {
	TargetWallet string   `toml:"target_wallet"`
	ScaleFactor  float64  `toml:"scale_factor"`
	PollInterval duration `toml:"poll_interval"`
	MaxAge       duration `toml:"max_age"`
	RetryLimit   int      `toml:"retry_limit"`
	RetryBackoff duration `toml:"retry_backoff"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the trade-intent
// store. When the database is unreachable at startup the store degrades to an
// in-memory backend.
type DatabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters for the cross-restart
// seen-fill marker. Leave Addr empty to disable.
type RedisConfig struct {
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	SeenTTL    duration `toml:"seen_ttl"`
}

// S3Config holds S3-compatible object storage parameters for raw-fill
// archival. Leave Bucket empty to disable.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			ClobHost:      "https://clob.polymarket.com",
			GammaHost:     "https://gamma-api.polymarket.com",
			WsHost:        "wss://ws-subscriptions-clob.polymarket.com",
			ChainID:       137,
			SignatureType: 1,
		},
		Chain: ChainConfig{
			RPCURL:          "https://polygon-rpc.com",
			ExchangeAddress: "0x4D97DCd97eC945f40cF65F87097ACe5EA0476045",
			FillSource:      "rpc",
		},
		Copy: CopyConfig{
			ScaleFactor:  0.2,
			PollInterval: duration{1 * time.Second},
			MaxAge:       duration{5 * time.Minute},
			RetryLimit:   3,
			RetryBackoff: duration{1 * time.Second},
		},
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "polymirror",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			SeenTTL:    duration{24 * time.Hour},
		},
		S3: S3Config{
			Region:         "us-east-1",
			UseSSL:         true,
			ForcePathStyle: true,
		},
		Notify: NotifyConfig{
			Events: []string{"trade_detected", "trade_executed", "trade_failed"},
		},
		Mode:     "copy",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"copy":    true,
	"monitor": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: copy, monitor)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Copy policy.
	if c.Copy.TargetWallet == "" {
		errs = append(errs, "copy: target_wallet must not be empty")
	}
	if c.Copy.ScaleFactor <= 0 || c.Copy.ScaleFactor > 1 {
		errs = append(errs, fmt.Sprintf("copy: scale_factor must be in (0, 1], got %g", c.Copy.ScaleFactor))
	}
	if c.Copy.PollInterval.Duration <= 0 {
		errs = append(errs, "copy: poll_interval must be positive")
	}
	if c.Copy.MaxAge.Duration <= 0 {
		errs = append(errs, "copy: max_age must be positive")
	}
	if c.Copy.RetryLimit < 0 {
		errs = append(errs, "copy: retry_limit must be >= 0")
	}
	if c.Copy.RetryBackoff.Duration <= 0 {
		errs = append(errs, "copy: retry_backoff must be positive")
	}

	// Polymarket endpoints.
	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}
	if c.Polymarket.ChainID <= 0 {
		errs = append(errs, "polymarket: chain_id must be positive")
	}
	switch c.Polymarket.SignatureType {
	case 0, 1, 2:
	default:
		errs = append(errs, fmt.Sprintf("polymarket: signature_type must be 0 (EOA), 1 (proxy), or 2 (safe), got %d", c.Polymarket.SignatureType))
	}

	// Wallet: encrypted key requires a password.
	if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
		errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
	}

	// Chain.
	if c.Chain.ExchangeAddress == "" {
		errs = append(errs, "chain: exchange_address must not be empty")
	}
	switch strings.ToLower(c.Chain.FillSource) {
	case "", "rpc":
	case "goldsky":
		if c.Chain.GoldskyURL == "" {
			errs = append(errs, "chain: goldsky_url is required when fill_source is goldsky")
		}
	default:
		errs = append(errs, fmt.Sprintf("chain: unknown fill_source %q (valid: rpc, goldsky)", c.Chain.FillSource))
	}

	// Database sanity (only when DSN is not supplied whole).
	if strings.TrimSpace(c.Database.DSN) == "" {
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
		}
	}
	if c.Database.PoolMinConns > c.Database.PoolMaxConns {
		errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
