package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies POLYMIRROR_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known POLYMIRROR_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "POLYMIRROR_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.ProxyAddress, "POLYMIRROR_WALLET_PROXY_ADDRESS")
	setStr(&cfg.Wallet.EncryptedKeyPath, "POLYMIRROR_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "POLYMIRROR_WALLET_KEY_PASSWORD")

	// ── Polymarket ──
	setStr(&cfg.Polymarket.ClobHost, "POLYMIRROR_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.GammaHost, "POLYMIRROR_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.WsHost, "POLYMIRROR_POLYMARKET_WS_HOST")
	setInt(&cfg.Polymarket.ChainID, "POLYMIRROR_POLYMARKET_CHAIN_ID")
	setInt(&cfg.Polymarket.SignatureType, "POLYMIRROR_POLYMARKET_SIGNATURE_TYPE")

	// ── Chain ──
	setStr(&cfg.Chain.RPCURL, "POLYMIRROR_CHAIN_RPC_URL")
	setStr(&cfg.Chain.ExchangeAddress, "POLYMIRROR_CHAIN_EXCHANGE_ADDRESS")
	setStr(&cfg.Chain.FillSource, "POLYMIRROR_CHAIN_FILL_SOURCE")
	setStr(&cfg.Chain.GoldskyURL, "POLYMIRROR_CHAIN_GOLDSKY_URL")
	setStr(&cfg.Chain.GoldskyAPIKey, "POLYMIRROR_CHAIN_GOLDSKY_API_KEY")

	// ── Copy policy ──
	setStr(&cfg.Copy.TargetWallet, "POLYMIRROR_COPY_TARGET_WALLET")
	setFloat64(&cfg.Copy.ScaleFactor, "POLYMIRROR_COPY_SCALE_FACTOR")
	setDuration(&cfg.Copy.PollInterval, "POLYMIRROR_COPY_POLL_INTERVAL")
	setDuration(&cfg.Copy.MaxAge, "POLYMIRROR_COPY_MAX_AGE")
	setInt(&cfg.Copy.RetryLimit, "POLYMIRROR_COPY_RETRY_LIMIT")
	setDuration(&cfg.Copy.RetryBackoff, "POLYMIRROR_COPY_RETRY_BACKOFF")

	// ── Database ──
	setStr(&cfg.Database.DSN, "POLYMIRROR_DATABASE_DSN")
	setStr(&cfg.Database.Host, "POLYMIRROR_DATABASE_HOST")
	setInt(&cfg.Database.Port, "POLYMIRROR_DATABASE_PORT")
	setStr(&cfg.Database.Database, "POLYMIRROR_DATABASE_DATABASE")
	setStr(&cfg.Database.User, "POLYMIRROR_DATABASE_USER")
	setStr(&cfg.Database.Password, "POLYMIRROR_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "POLYMIRROR_DATABASE_SSLMODE")
	setInt(&cfg.Database.PoolMaxConns, "POLYMIRROR_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "POLYMIRROR_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "POLYMIRROR_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "POLYMIRROR_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "POLYMIRROR_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "POLYMIRROR_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "POLYMIRROR_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "POLYMIRROR_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "POLYMIRROR_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.SeenTTL, "POLYMIRROR_REDIS_SEEN_TTL")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "POLYMIRROR_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "POLYMIRROR_S3_REGION")
	setStr(&cfg.S3.Bucket, "POLYMIRROR_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "POLYMIRROR_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "POLYMIRROR_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "POLYMIRROR_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "POLYMIRROR_S3_FORCE_PATH_STYLE")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "POLYMIRROR_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "POLYMIRROR_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "POLYMIRROR_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "POLYMIRROR_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "POLYMIRROR_MODE")
	setStr(&cfg.LogLevel, "POLYMIRROR_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
