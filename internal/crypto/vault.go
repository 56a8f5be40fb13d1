package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	nonceSize = 16 // 128-bit random nonce per encryption
	tagSize   = 16 // 128-bit GCM authentication tag
)

var (
	// ErrMalformedEnvelope indicates the stored value does not split into
	// the expected nonce:tag:ciphertext shape. Not retryable.
	ErrMalformedEnvelope = errors.New("malformed ciphertext envelope")

	// ErrAuthenticationFailure indicates the authentication tag check
	// failed: the data was tampered with or encrypted under another key.
	// Not retryable.
	ErrAuthenticationFailure = errors.New("ciphertext authentication failed")
)

// Vault performs symmetric authenticated encryption of secrets at rest.
// Every stored credential is the output of Encrypt; plaintext tokens never
// leave process memory.
type Vault struct {
	aead cipher.AEAD
}

// NewVault creates a Vault from a 32-byte key encoded as 64 hex characters.
// A missing or malformed key is a startup error.
func NewVault(hexKey string) (*Vault, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Vault{aead: aead}, nil
}

// Encrypt seals the plaintext and returns a nonce:tag:ciphertext envelope
// with each field hex encoded. The envelope shape is part of the storage
// contract and round-trips byte-for-byte.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal appends the tag to the ciphertext; split it back out so the
	// stored envelope keeps nonce, tag, and ciphertext as separate fields.
	sealed := v.aead.Seal(nil, nonce, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	return fmt.Sprintf("%s:%s:%s",
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	), nil
}

// Decrypt opens a nonce:tag:ciphertext envelope produced by Encrypt.
// Returns ErrMalformedEnvelope when the envelope does not split into
// exactly three hex fields and ErrAuthenticationFailure when the tag check
// fails. Both are unrecoverable for the record in question.
func (v *Vault) Decrypt(envelope string) (string, error) {
	parts := strings.Split(envelope, ":")
	if len(parts) != 3 {
		return "", ErrMalformedEnvelope
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSize {
		return "", ErrMalformedEnvelope
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != tagSize {
		return "", ErrMalformedEnvelope
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", ErrMalformedEnvelope
	}

	plaintext, err := v.aead.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return "", ErrAuthenticationFailure
	}
	return string(plaintext), nil
}
