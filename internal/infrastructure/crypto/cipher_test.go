package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec("test-secret-key-for-columns", zap.NewNop())
	require.NoError(t, err)
	return codec
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	for _, plain := range []string{
		"901231450123",
		"Иванов",
		"a",
		"some longer free-form value with spaces",
	} {
		encrypted, err := codec.Encrypt(plain)
		require.NoError(t, err)
		assert.NotEqual(t, plain, encrypted)
		assert.Equal(t, plain, codec.Decrypt(encrypted))
	}
}

func TestEncryptEmptyBypass(t *testing.T) {
	codec := newTestCodec(t)

	encrypted, err := codec.Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", encrypted)
}

func TestEncryptIdentifierLength(t *testing.T) {
	codec := newTestCodec(t)

	encrypted, err := codec.Encrypt("901231450123")
	require.NoError(t, err)

	raw, err := base64.URLEncoding.DecodeString(encrypted)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(raw), 40)
}

func TestEncryptProducesFreshNonce(t *testing.T) {
	codec := newTestCodec(t)

	a, err := codec.Encrypt("901231450123")
	require.NoError(t, err)
	b, err := codec.Encrypt("901231450123")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecryptPassesThroughPlaintext(t *testing.T) {
	codec := newTestCodec(t)

	// Legacy rows may hold unencrypted values; decryption must hand them
	// back untouched instead of failing the read.
	for _, value := range []string{
		"901231450123",
		"not base64 at all!",
		"Иванов Иван",
		"c2hvcnQ=", // valid base64, below the ciphertext threshold
	} {
		assert.Equal(t, value, codec.Decrypt(value))
	}
}

func TestDecryptAuthFailureReturnsInput(t *testing.T) {
	codec := newTestCodec(t)

	other, err := NewCodec("a-different-secret-entirely", zap.NewNop())
	require.NoError(t, err)

	encrypted, err := other.Encrypt("901231450123")
	require.NoError(t, err)

	// Wrong key: authentication fails, original input comes back.
	assert.Equal(t, encrypted, codec.Decrypt(encrypted))
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	codec := newTestCodec(t)

	encrypted, err := codec.Encrypt("901231450123")
	require.NoError(t, err)

	raw, err := base64.URLEncoding.DecodeString(encrypted)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.URLEncoding.EncodeToString(raw)

	assert.Equal(t, tampered, codec.Decrypt(tampered))
}
