package crypt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	require.NoError(t, SetKey([]byte("0123456789abcdef0123456789abcdef")))

	ct, err := Encrypt("ops@example.co.jp")
	require.NoError(t, err)
	assert.NotEqual(t, "ops@example.co.jp", ct)

	pt, err := Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.co.jp", pt)
}

func TestEncryptRandomizesNonce(t *testing.T) {
	require.NoError(t, SetKey([]byte("0123456789abcdef0123456789abcdef")))
	a, err := Encrypt("same input")
	require.NoError(t, err)
	b, err := Encrypt("same input")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	require.NoError(t, SetKey([]byte("0123456789abcdef0123456789abcdef")))
	_, err := Decrypt("not base64!!")
	assert.Error(t, err)
	_, err = Decrypt("YWJj") // valid base64, too short
	assert.Error(t, err)
}

func TestSetKeyLength(t *testing.T) {
	assert.Error(t, SetKey([]byte("short")))
}
