package cryptoutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte("Les conventions légalement formées tiennent lieu de loi")

	encrypted, err := Encrypt(plaintext, "test-secret")
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, encrypted)

	decrypted, err := Decrypt(encrypted, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestDecryptWrongSecret(t *testing.T) {
	encrypted, err := Encrypt([]byte("confidential"), "right-secret")
	require.NoError(t, err)

	_, err = Decrypt(encrypted, "wrong-secret")
	assert.Error(t, err)
}

func TestDecryptTamperedPayload(t *testing.T) {
	encrypted, err := Encrypt([]byte("confidential"), "secret")
	require.NoError(t, err)

	encrypted[len(encrypted)-1] ^= 0xff
	_, err = Decrypt(encrypted, "secret")
	assert.Error(t, err)
}

func TestDecryptTruncatedPayload(t *testing.T) {
	_, err := Decrypt([]byte("short"), "secret")
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestEncryptProducesUniquePayloads(t *testing.T) {
	a, err := Encrypt([]byte("same input"), "secret")
	require.NoError(t, err)
	b, err := Encrypt([]byte("same input"), "secret")
	require.NoError(t, err)

	// Random salt and nonce must make repeated encryptions differ.
	assert.NotEqual(t, a, b)
}
