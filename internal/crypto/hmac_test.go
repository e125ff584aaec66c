package crypto

import (
	"strings"
	"testing"
)

func TestL2HeadersAt(t *testing.T) {
	auth := &HMACAuth{
		Key:        "test-key",
		Secret:     "c2VjcmV0", // base64("secret")
		Passphrase: "test-pass",
	}

	headers := auth.L2HeadersAt("0xabc", "GET", "/orders", "", 1700000000)

	if got := headers["POLY_ADDRESS"]; got != "0xabc" {
		t.Errorf("POLY_ADDRESS = %q, want %q", got, "0xabc")
	}
	if got := headers["POLY_API_KEY"]; got != "test-key" {
		t.Errorf("POLY_API_KEY = %q, want %q", got, "test-key")
	}
	if got := headers["POLY_TIMESTAMP"]; got != "1700000000" {
		t.Errorf("POLY_TIMESTAMP = %q, want %q", got, "1700000000")
	}
	if got := headers["POLY_PASSPHRASE"]; got != "test-pass" {
		t.Errorf("POLY_PASSPHRASE = %q, want %q", got, "test-pass")
	}

	// Known-answer signature for HMAC-SHA256("secret", "1700000000GET/orders").
	want := "5pq6uRxdFFvJzbzIJRObr9401649NDsVtb6H2TgxZRY="
	if got := headers["POLY_SIGNATURE"]; got != want {
		t.Errorf("POLY_SIGNATURE = %q, want %q", got, want)
	}
}

func TestL2HeadersAtSignsBody(t *testing.T) {
	auth := &HMACAuth{Key: "k", Secret: "c2VjcmV0", Passphrase: "p"}

	headers := auth.L2HeadersAt("0xabc", "POST", "/order", `{"side":"BUY"}`, 1700000000)

	want := "+8pyvOri+LTCDaxtmDCW5i/B+87wJRbeneOzBya38xU="
	if got := headers["POLY_SIGNATURE"]; got != want {
		t.Errorf("POLY_SIGNATURE = %q, want %q", got, want)
	}
}

func TestL2HeadersAtDeterministic(t *testing.T) {
	auth := &HMACAuth{Key: "k", Secret: "c2VjcmV0", Passphrase: "p"}

	a := auth.L2HeadersAt("0xabc", "GET", "/orders", "", 1700000000)
	b := auth.L2HeadersAt("0xabc", "GET", "/orders", "", 1700000000)
	if a["POLY_SIGNATURE"] != b["POLY_SIGNATURE"] {
		t.Error("same inputs produced different signatures")
	}

	c := auth.L2HeadersAt("0xabc", "GET", "/orders", "", 1700000001)
	if a["POLY_SIGNATURE"] == c["POLY_SIGNATURE"] {
		t.Error("different timestamps produced the same signature")
	}
}

func TestHMACAuthStringRedacts(t *testing.T) {
	auth := &HMACAuth{Key: "abcdef123456", Secret: "supersecretvalue"}

	s := auth.String()
	if strings.Contains(s, "abcdef123456") || strings.Contains(s, "supersecretvalue") {
		t.Errorf("String() leaked credentials: %s", s)
	}
	if !strings.Contains(s, "abcd****") {
		t.Errorf("String() = %q, want redacted key prefix", s)
	}
}
