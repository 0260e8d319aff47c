// Package cryptox seals stored credential passwords with AES-256-GCM.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// SealedPrefix marks a value produced by Seal. Values without it are
// returned by Open unchanged.
const SealedPrefix = "enc:v1:"

var (
	ErrKeyRequired = errors.New("sealed value found but no encryption key is configured")
	ErrMalformed   = errors.New("malformed sealed value")
)

// Sealer encrypts strings for storage. A Sealer without a key passes values
// through.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer builds a Sealer from a base64 encoded 32-byte key. An empty key
// yields a passthrough Sealer.
func NewSealer(keyB64 string) (*Sealer, error) {
	if keyB64 == "" {
		return &Sealer{}, nil
	}
	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

func (s *Sealer) Enabled() bool {
	return s != nil && s.aead != nil
}

// Seal returns enc:v1:<base64(nonce|ciphertext)>.
func (s *Sealer) Seal(plain string) (string, error) {
	if !s.Enabled() {
		return plain, nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	out := s.aead.Seal(nonce, nonce, []byte(plain), nil)
	return SealedPrefix + base64.StdEncoding.EncodeToString(out), nil
}

func (s *Sealer) Open(stored string) (string, error) {
	if !strings.HasPrefix(stored, SealedPrefix) {
		return stored, nil
	}
	if !s.Enabled() {
		return "", ErrKeyRequired
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, SealedPrefix))
	if err != nil {
		return "", ErrMalformed
	}
	ns := s.aead.NonceSize()
	if len(raw) < ns {
		return "", ErrMalformed
	}
	plain, err := s.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("open sealed value: %w", err)
	}
	return string(plain), nil
}
