package auth

import (
	"strings"
	"testing"
)

func initTestCrypto(t *testing.T) {
	t.Helper()
	t.Setenv("REFRESH_TOKEN_ENCRYPTION_KEY", strings.Repeat("k", 32))
	if err := InitCrypto(); err != nil {
		t.Fatalf("InitCrypto failed: %v", err)
	}
	t.Cleanup(func() { encryptionKey = nil })
}

func TestTokenEncryptionRoundTrip(t *testing.T) {
	initTestCrypto(t)

	encrypted, err := EncryptToken("1//refresh-token-value")
	if err != nil {
		t.Fatalf("EncryptToken failed: %v", err)
	}
	if encrypted == "1//refresh-token-value" {
		t.Fatal("token stored in the clear")
	}

	decrypted, err := DecryptToken(encrypted)
	if err != nil {
		t.Fatalf("DecryptToken failed: %v", err)
	}
	if decrypted != "1//refresh-token-value" {
		t.Fatalf("got %q after round trip", decrypted)
	}
}

func TestEmptyTokenPassesThrough(t *testing.T) {
	initTestCrypto(t)

	encrypted, err := EncryptToken("")
	if err != nil || encrypted != "" {
		t.Fatalf("got (%q, %v), want empty passthrough", encrypted, err)
	}
	decrypted, err := DecryptToken("")
	if err != nil || decrypted != "" {
		t.Fatalf("got (%q, %v), want empty passthrough", decrypted, err)
	}
}

func TestInitCryptoRejectsShortKey(t *testing.T) {
	t.Setenv("REFRESH_TOKEN_ENCRYPTION_KEY", "too-short")
	t.Cleanup(func() { encryptionKey = nil })
	if err := InitCrypto(); err == nil {
		t.Fatal("expected an error for a key under 32 bytes")
	}
}

func TestDecryptTamperedCiphertextFails(t *testing.T) {
	initTestCrypto(t)

	encrypted, err := EncryptToken("secret")
	if err != nil {
		t.Fatalf("EncryptToken failed: %v", err)
	}
	tampered := "A" + encrypted[1:]
	if tampered == encrypted {
		tampered = "B" + encrypted[1:]
	}
	if _, err := DecryptToken(tampered); err == nil {
		t.Fatal("tampered ciphertext must not decrypt")
	}
}
