package crypto

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
)

// sealedPrefix marks values written by FieldCipher. Values without it are
// treated as plaintext so rows written before a key was configured stay readable.
const sealedPrefix = "age:"

var ErrNoIdentity = errors.New("field cipher has no identity")

// FieldCipher encrypts individual string columns with an age X25519 identity.
// A nil *FieldCipher is valid and passes values through unchanged.
type FieldCipher struct {
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
}

// NewFieldCipher parses an age identity ("AGE-SECRET-KEY-1...").
// An empty key returns a nil cipher, which disables encryption.
func NewFieldCipher(key string) (*FieldCipher, error) {
	if key == "" {
		return nil, nil
	}

	identity, err := age.ParseX25519Identity(strings.TrimSpace(key))
	if err != nil {
		return nil, fmt.Errorf("parsing identity: %w", err)
	}

	return &FieldCipher{
		identity:  identity,
		recipient: identity.Recipient(),
	}, nil
}

// GenerateKey returns a fresh age identity suitable for ENCRYPTION_KEY.
func GenerateKey() (string, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return "", fmt.Errorf("generating identity: %w", err)
	}
	return identity.String(), nil
}

// Enabled reports whether values are actually encrypted.
func (c *FieldCipher) Enabled() bool {
	return c != nil && c.identity != nil
}

// Seal encrypts value. Empty values stay empty so "not set" remains visible.
func (c *FieldCipher) Seal(value string) (string, error) {
	if !c.Enabled() || value == "" || IsSealed(value) {
		return value, nil
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, c.recipient)
	if err != nil {
		return "", fmt.Errorf("creating encryptor: %w", err)
	}
	if _, err := io.WriteString(w, value); err != nil {
		return "", fmt.Errorf("writing plaintext: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing encryptor: %w", err)
	}

	return sealedPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Open reverses Seal. Plaintext values are returned as they are.
func (c *FieldCipher) Open(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}
	if !c.Enabled() {
		return "", ErrNoIdentity
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("decoding base64: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(raw), c.identity)
	if err != nil {
		return "", fmt.Errorf("creating decryptor: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading plaintext: %w", err)
	}

	return string(plaintext), nil
}

// IsSealed reports whether value was produced by Seal.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, sealedPrefix)
}
