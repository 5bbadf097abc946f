package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/and161185/auth-keeper/internal/errs"
)

// AEAD parameters: AES-256-GCM with an extended 16-byte nonce.
const (
	cipherKeyLen   = 32
	cipherNonceLen = 16
	cipherTagLen   = 16
)

// SecretCipher encrypts secondary secrets (recovery codes, reset tokens)
// at rest under a single process-wide master key.
type SecretCipher struct {
	aead cipher.AEAD
}

// NewSecretCipher builds a cipher from a hex-encoded 256-bit master key.
// A key of the wrong length is a configuration error; callers are expected
// to treat it as fatal at startup.
func NewSecretCipher(hexKey string) (*SecretCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("master key is not valid hex: %w", err)
	}
	if len(key) != cipherKeyLen {
		return nil, fmt.Errorf("master key must be %d bytes (%d hex chars), got %d bytes",
			cipherKeyLen, cipherKeyLen*2, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCMWithNonceSize(block, cipherNonceLen)
	if err != nil {
		return nil, err
	}
	return &SecretCipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce and returns the envelope
// "nonce:tag:ciphertext" with each part hex-encoded.
func (c *SecretCipher) Encrypt(plaintext string) (string, error) {
	nonce, err := RandBytes(cipherNonceLen)
	if err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	// Seal appends the tag after the ciphertext; the envelope keeps it up front.
	ct, tag := sealed[:len(sealed)-cipherTagLen], sealed[len(sealed)-cipherTagLen:]
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ct), nil
}

// Decrypt opens an envelope produced by Encrypt. Any malformation or tag
// mismatch yields errs.ErrDecryptFailed; no plaintext is ever returned on
// failure.
func (c *SecretCipher) Decrypt(envelope string) (string, error) {
	parts := strings.Split(envelope, ":")
	if len(parts) != 3 {
		return "", errs.ErrDecryptFailed
	}
	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != cipherNonceLen {
		return "", errs.ErrDecryptFailed
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != cipherTagLen {
		return "", errs.ErrDecryptFailed
	}
	ct, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", errs.ErrDecryptFailed
	}
	plain, err := c.aead.Open(nil, nonce, append(ct, tag...), nil)
	if err != nil {
		return "", errs.ErrDecryptFailed
	}
	return string(plain), nil
}

// GenerateRecoveryCodes returns count short human-readable codes of the form
// XXXX-XXXX (uppercase hex). Callers hand them to the user exactly once and
// persist only the encrypted batch.
func GenerateRecoveryCodes(count int) ([]string, error) {
	codes := make([]string, 0, count)
	for i := 0; i < count; i++ {
		b, err := RandBytes(4)
		if err != nil {
			return nil, err
		}
		h := strings.ToUpper(hex.EncodeToString(b))
		codes = append(codes, h[:4]+"-"+h[4:])
	}
	return codes, nil
}

// EncryptRecoveryCodes serializes and seals a code batch into one envelope.
func (c *SecretCipher) EncryptRecoveryCodes(codes []string) (string, error) {
	raw, err := json.Marshal(codes)
	if err != nil {
		return "", err
	}
	return c.Encrypt(string(raw))
}

// DecryptRecoveryCodes opens an envelope produced by EncryptRecoveryCodes.
func (c *SecretCipher) DecryptRecoveryCodes(envelope string) ([]string, error) {
	raw, err := c.Decrypt(envelope)
	if err != nil {
		return nil, err
	}
	var codes []string
	if err := json.Unmarshal([]byte(raw), &codes); err != nil {
		return nil, errs.ErrDecryptFailed
	}
	return codes, nil
}
