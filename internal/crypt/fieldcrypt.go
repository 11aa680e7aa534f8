package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Field-level encryption for sensitive columns (tenant notification
// contacts). AES-256-GCM, random nonce prepended to the ciphertext,
// base64 on the wire so the column stays a plain string.

var (
	mu  sync.RWMutex
	key []byte
)

var ErrNoKey = errors.New("crypt: field encryption key not set")

// SetKey installs the process-wide field key. Must be 16, 24 or 32 bytes.
func SetKey(k []byte) error {
	switch len(k) {
	case 16, 24, 32:
	default:
		return fmt.Errorf("crypt: key must be 16/24/32 bytes, got %d", len(k))
	}
	mu.Lock()
	key = append([]byte(nil), k...)
	mu.Unlock()
	return nil
}

func gcm() (cipher.AEAD, error) {
	mu.RLock()
	k := key
	mu.RUnlock()
	if len(k) == 0 {
		return nil, ErrNoKey
	}
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func Encrypt(plaintext string) (string, error) {
	aead, err := gcm()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func Decrypt(encoded string) (string, error) {
	aead, err := gcm()
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("crypt: bad ciphertext encoding: %w", err)
	}
	if len(raw) < aead.NonceSize() {
		return "", errors.New("crypt: ciphertext too short")
	}
	nonce, ct := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	pt, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("crypt: decrypt failed: %w", err)
	}
	return string(pt), nil
}
