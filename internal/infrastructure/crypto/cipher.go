// Package crypto implements the transparent column encryption used for
// personal-data fields (IIN, person names). Values are encrypted with
// AES-GCM under a process-wide key derived once from the configured
// secret; ciphertext is stored as URL-safe base64 so the columns remain
// plain varchar.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// keySalt is fixed on purpose: the same secret must derive the same
	// column key across restarts and replicas, or old rows become garbage.
	keySalt = "taxgeo.column.v1"

	keyIterations = 100000
	keyLength     = 32

	nonceSize = 12
	tagSize   = 16

	// minCiphertextLen is the decode-length threshold below which a stored
	// value is treated as legacy plaintext rather than ciphertext. Any
	// sealed value carries at least nonce + tag; a 12-digit identifier
	// therefore decodes to 40 bytes.
	minCiphertextLen = nonceSize + tagSize
)

// Codec encrypts and decrypts column values. The zero Codec is unusable;
// construct one with NewCodec or initialize the process-wide codec with Init.
type Codec struct {
	aead cipher.AEAD
	log  *zap.Logger
}

var (
	defaultCodec *Codec
	initOnce     sync.Once
)

// Init derives the process-wide key and installs the default codec.
// Subsequent calls are no-ops; the derived key is immutable.
func Init(secret string, log *zap.Logger) error {
	var err error
	initOnce.Do(func() {
		defaultCodec, err = NewCodec(secret, log)
	})
	return err
}

// Default returns the process-wide codec. It panics when Init was never
// called; column types must not silently pass plaintext through.
func Default() *Codec {
	if defaultCodec == nil {
		panic("crypto: Init must be called before using encrypted column types")
	}
	return defaultCodec
}

// NewCodec derives a key from the secret via PBKDF2-HMAC-SHA256 and
// returns a codec around AES-256-GCM.
func NewCodec(secret string, log *zap.Logger) (*Codec, error) {
	if log == nil {
		log = zap.NewNop()
	}
	key := pbkdf2.Key([]byte(secret), []byte(keySalt), keyIterations, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return &Codec{aead: aead, log: log.Named("crypto")}, nil
}

// Encrypt encrypts a plaintext value. Empty input bypasses encryption so
// NULL and '' survive unchanged.
func (c *Codec) Encrypt(plain string) (string, error) {
	if plain == "" {
		return plain, nil
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt decrypts a stored value. Values that do not base64-decode, are
// shorter than the ciphertext threshold, or fail authentication are
// returned unchanged: read paths must keep working over legacy plaintext
// rows, so decryption never raises.
func (c *Codec) Decrypt(value string) string {
	if value == "" {
		return value
	}

	raw, err := base64.URLEncoding.DecodeString(value)
	if err != nil || len(raw) < minCiphertextLen {
		return value
	}

	plain, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		c.log.Warn("column value failed authentication, returning as-is",
			zap.Int("length", len(value)))
		return value
	}
	return string(plain)
}
