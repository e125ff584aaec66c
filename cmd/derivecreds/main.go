// Command derivecreds derives Polymarket CLOB API credentials from the
// wallet configured in the config file and prints them. The credentials are
// deterministic for a given private key, so this is a convenience for
// inspecting what the bot will authenticate with.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/alanyoungcy/polymirror/internal/config"
	"github.com/alanyoungcy/polymirror/internal/crypto"
	"github.com/alanyoungcy/polymirror/internal/platform/polymarket"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "derivecreds: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	keyHex, err := crypto.LoadKey(crypto.KeyConfig{
		RawPrivateKey:    cfg.Wallet.PrivateKey,
		EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
		KeyPassword:      cfg.Wallet.KeyPassword,
	})
	if err != nil {
		return fmt.Errorf("load wallet key: %w", err)
	}

	signer, err := crypto.NewSigner(keyHex, cfg.Polymarket.ChainID, cfg.Chain.ExchangeAddress)
	if err != nil {
		return fmt.Errorf("create signer: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clob := polymarket.NewClobClient(cfg.Polymarket.ClobHost, signer, nil, cfg.Polymarket.SignatureType)
	if err := clob.DeriveAPIKey(ctx); err != nil {
		return fmt.Errorf("derive api key: %w", err)
	}

	creds := clob.Creds()
	fmt.Printf("address:    %s\n", signer.Address().Hex())
	fmt.Printf("api_key:    %s\n", creds.Key)
	fmt.Printf("secret:     %s\n", creds.Secret)
	fmt.Printf("passphrase: %s\n", creds.Passphrase)
	return nil
}
