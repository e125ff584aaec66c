package crypto

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	keyHex := strings.TrimPrefix(testPrivateKey, "0x")

	blob, err := EncryptKey(testPrivateKey, "hunter2")
	if err != nil {
		t.Fatalf("EncryptKey: %v", err)
	}

	got, err := DecryptKey(blob, "hunter2")
	if err != nil {
		t.Fatalf("DecryptKey: %v", err)
	}
	if got != keyHex {
		t.Errorf("DecryptKey = %s, want %s", got, keyHex)
	}
}

func TestDecryptKeyWrongPassword(t *testing.T) {
	blob, err := EncryptKey(testPrivateKey, "hunter2")
	if err != nil {
		t.Fatalf("EncryptKey: %v", err)
	}

	if _, err := DecryptKey(blob, "wrong"); err == nil {
		t.Fatal("DecryptKey succeeded with the wrong password")
	}
}

func TestEncryptKeyRejectsBadInput(t *testing.T) {
	if _, err := EncryptKey(testPrivateKey, ""); err == nil {
		t.Error("EncryptKey accepted an empty password")
	}
	if _, err := EncryptKey("zzzz", "hunter2"); err == nil {
		t.Error("EncryptKey accepted a non-hex key")
	}
	if _, err := EncryptKey("0xdeadbeef", "hunter2"); err == nil {
		t.Error("EncryptKey accepted a short key")
	}
}

func TestLoadKeyRaw(t *testing.T) {
	got, err := LoadKey(KeyConfig{RawPrivateKey: testPrivateKey})
	if err != nil {
		t.Fatalf("LoadKey: %v", err)
	}
	if got != strings.TrimPrefix(testPrivateKey, "0x") {
		t.Errorf("LoadKey = %s, want key without 0x prefix", got)
	}
}

func TestLoadKeyEncryptedFile(t *testing.T) {
	blob, err := EncryptKey(testPrivateKey, "hunter2")
	if err != nil {
		t.Fatalf("EncryptKey: %v", err)
	}

	path := filepath.Join(t.TempDir(), "wallet.json")
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	got, err := LoadKey(KeyConfig{EncryptedKeyPath: path, KeyPassword: "hunter2"})
	if err != nil {
		t.Fatalf("LoadKey: %v", err)
	}
	if got != strings.TrimPrefix(testPrivateKey, "0x") {
		t.Errorf("LoadKey = %s, want decrypted key", got)
	}
}

func TestLoadKeyNoSource(t *testing.T) {
	if _, err := LoadKey(KeyConfig{}); err == nil {
		t.Fatal("LoadKey succeeded with no key source")
	}
}
