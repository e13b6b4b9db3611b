package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
)

var encryptionKey []byte

// InitCrypto loads and validates the key used to encrypt OAuth refresh
// tokens at rest. The key must be exactly 32 bytes (AES-256).
func InitCrypto() error {
	keyEnv := "REFRESH_TOKEN_ENCRYPTION_KEY"
	key := os.Getenv(keyEnv)
	if key == "" {
		return fmt.Errorf("required environment variable %s is not set", keyEnv)
	}

	encryptionKey = []byte(key)
	if len(encryptionKey) != 32 {
		return fmt.Errorf("%s must be exactly 32 bytes long for AES-256 encryption", keyEnv)
	}

	log.Println("Token encryption initialized")
	return nil
}

// EncryptToken encrypts a token with AES-256-GCM and returns base64
func EncryptToken(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	if len(encryptionKey) == 0 {
		return "", errors.New("encryption key not initialized, call InitCrypto first")
	}

	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(token), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptToken reverses EncryptToken
func DecryptToken(encrypted string) (string, error) {
	if encrypted == "" {
		return "", nil
	}
	if len(encryptionKey) == 0 {
		return "", errors.New("encryption key not initialized, call InitCrypto first")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}

	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(ciphertext) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	return string(plaintext), nil
}
