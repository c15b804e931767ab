package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
)

// nidCipher builds the AES-256-GCM cipher used for patient national ID
// fields. NID_ENCRYPTION_KEY holds the key, base64 encoded or raw.
func nidCipher() (cipher.AEAD, error) {
	key := os.Getenv("NID_ENCRYPTION_KEY")
	if key == "" {
		return nil, fmt.Errorf("NID_ENCRYPTION_KEY environment variable is not set")
	}

	keyBytes, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		keyBytes = []byte(key)
	}
	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("NID encryption key must be 32 bytes for AES-256, got %d bytes", len(keyBytes))
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher block: %w", err)
	}

	return cipher.NewGCM(block)
}

// EncryptNID encrypts a patient national ID for storage. Empty input stays
// empty.
func EncryptNID(nid string) (string, error) {
	if nid == "" {
		return "", nil
	}

	gcm, err := nidCipher()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(nid), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptNID reverses EncryptNID.
func DecryptNID(encrypted string) (string, error) {
	if encrypted == "" {
		return "", nil
	}

	gcm, err := nidCipher()
	if err != nil {
		return "", err
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt national id: %w", err)
	}

	return string(plaintext), nil
}
