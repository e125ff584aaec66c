package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validConfig returns the defaults plus the fields an operator must supply.
func validConfig() Config {
	cfg := Defaults()
	cfg.Copy.TargetWallet = "0x56687bf447db6ffa42ffe2204a05edaa20f55839"
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Mode != "copy" {
		t.Errorf("Mode = %q, want %q", cfg.Mode, "copy")
	}
	if cfg.Polymarket.ClobHost != "https://clob.polymarket.com" {
		t.Errorf("ClobHost = %q", cfg.Polymarket.ClobHost)
	}
	if cfg.Polymarket.ChainID != 137 {
		t.Errorf("ChainID = %d, want 137", cfg.Polymarket.ChainID)
	}
	if cfg.Chain.FillSource != "rpc" {
		t.Errorf("FillSource = %q, want %q", cfg.Chain.FillSource, "rpc")
	}
	if cfg.Copy.ScaleFactor != 0.2 {
		t.Errorf("ScaleFactor = %g, want 0.2", cfg.Copy.ScaleFactor)
	}
	if cfg.Copy.PollInterval.Duration != time.Second {
		t.Errorf("PollInterval = %v, want 1s", cfg.Copy.PollInterval.Duration)
	}
	if cfg.Copy.MaxAge.Duration != 5*time.Minute {
		t.Errorf("MaxAge = %v, want 5m", cfg.Copy.MaxAge.Duration)
	}
	if cfg.Copy.RetryLimit != 3 {
		t.Errorf("RetryLimit = %d, want 3", cfg.Copy.RetryLimit)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	content := `
mode = "monitor"
log_level = "debug"

[copy]
target_wallet = "0xabc"
scale_factor = 0.5
poll_interval = "2s"
`
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != "monitor" {
		t.Errorf("Mode = %q, want %q", cfg.Mode, "monitor")
	}
	if cfg.Copy.ScaleFactor != 0.5 {
		t.Errorf("ScaleFactor = %g, want 0.5", cfg.Copy.ScaleFactor)
	}
	if cfg.Copy.PollInterval.Duration != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.Copy.PollInterval.Duration)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Copy.RetryLimit != 3 {
		t.Errorf("RetryLimit = %d, want default 3", cfg.Copy.RetryLimit)
	}
	if cfg.Chain.ExchangeAddress == "" {
		t.Error("ExchangeAddress lost its default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	content := `
[copy]
target_wallet = "0xabc"
scale_factor = 0.5
`
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("POLYMIRROR_COPY_TARGET_WALLET", "0xdef")
	t.Setenv("POLYMIRROR_COPY_SCALE_FACTOR", "0.1")
	t.Setenv("POLYMIRROR_COPY_MAX_AGE", "10m")
	t.Setenv("POLYMIRROR_CHAIN_FILL_SOURCE", "goldsky")
	t.Setenv("POLYMIRROR_DATABASE_RUN_MIGRATIONS", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Copy.TargetWallet != "0xdef" {
		t.Errorf("TargetWallet = %q, want env override", cfg.Copy.TargetWallet)
	}
	if cfg.Copy.ScaleFactor != 0.1 {
		t.Errorf("ScaleFactor = %g, want 0.1", cfg.Copy.ScaleFactor)
	}
	if cfg.Copy.MaxAge.Duration != 10*time.Minute {
		t.Errorf("MaxAge = %v, want 10m", cfg.Copy.MaxAge.Duration)
	}
	if cfg.Chain.FillSource != "goldsky" {
		t.Errorf("FillSource = %q, want goldsky", cfg.Chain.FillSource)
	}
	if cfg.Database.RunMigrations {
		t.Error("RunMigrations = true, want env override to false")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("Load succeeded for a missing file")
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "arbitrage"
	cfg.Copy.TargetWallet = ""
	cfg.Copy.ScaleFactor = 1.5
	cfg.Copy.RetryLimit = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate accepted an invalid config")
	}
	for _, want := range []string{"mode", "target_wallet", "scale_factor", "retry_limit"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error does not mention %s: %v", want, err)
		}
	}
}

func TestValidateGoldskyRequiresURL(t *testing.T) {
	cfg := validConfig()
	cfg.Chain.FillSource = "goldsky"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "goldsky_url") {
		t.Fatalf("Validate = %v, want goldsky_url error", err)
	}

	cfg.Chain.GoldskyURL = "https://api.goldsky.com/api/public/x/subgraphs/orderbook/gn"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsUnknownFillSource(t *testing.T) {
	cfg := validConfig()
	cfg.Chain.FillSource = "thegraph"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "fill_source") {
		t.Fatalf("Validate = %v, want fill_source error", err)
	}
}

func TestValidateEncryptedKeyNeedsPassword(t *testing.T) {
	cfg := validConfig()
	cfg.Wallet.EncryptedKeyPath = "/etc/polymirror/wallet.json"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "key_password") {
		t.Fatalf("Validate = %v, want key_password error", err)
	}
}
