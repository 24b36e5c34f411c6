package cursor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, KeySize)
}

func TestEncodeDecodeSignedRoundtrip(t *testing.T) {
	key := testKey()
	token, err := EncodeSigned([]byte("page=3"), key)
	require.NoError(t, err)

	payload, ok := DecodeSigned(token, key)
	require.True(t, ok)
	assert.Equal(t, "page=3", string(payload))
}

func TestDecodeSignedTamperedPayloadIsAbsent(t *testing.T) {
	key := testKey()
	token, err := EncodeSigned([]byte("page=3"), key)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, ok := DecodeSigned(tampered, key)
	assert.False(t, ok)
}

func TestDecodeSignedWrongKeyIsAbsent(t *testing.T) {
	key := testKey()
	otherKey := bytes.Repeat([]byte{0x24}, KeySize)
	token, err := EncodeSigned([]byte("page=3"), key)
	require.NoError(t, err)

	_, ok := DecodeSigned(token, otherKey)
	assert.False(t, ok)
}

func TestDecodeSignedMalformedTokenIsAbsent(t *testing.T) {
	_, ok := DecodeSigned("not-a-valid-token", testKey())
	assert.False(t, ok)
}

func TestEncodeDecodeEncryptedRoundtrip(t *testing.T) {
	key := testKey()
	token, err := EncodeEncrypted([]byte("page=3"), key)
	require.NoError(t, err)

	payload, ok := DecodeEncrypted(token, key)
	require.True(t, ok)
	assert.Equal(t, "page=3", string(payload))
}

func TestDecodeEncryptedTamperedCiphertextIsAbsent(t *testing.T) {
	key := testKey()
	token, err := EncodeEncrypted([]byte("page=3"), key)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "zz"
	_, ok := DecodeEncrypted(tampered, key)
	assert.False(t, ok)
}

func TestDecodeEncryptedWrongKeyIsAbsent(t *testing.T) {
	key := testKey()
	otherKey := bytes.Repeat([]byte{0x24}, KeySize)
	token, err := EncodeEncrypted([]byte("page=3"), key)
	require.NoError(t, err)

	_, ok := DecodeEncrypted(token, otherKey)
	assert.False(t, ok)
}

func TestEncodeSignedRejectsWrongKeySize(t *testing.T) {
	_, err := EncodeSigned([]byte("x"), []byte("too-short"))
	require.Error(t, err)
}

func TestEncodeEncryptedRejectsWrongKeySize(t *testing.T) {
	_, err := EncodeEncrypted([]byte("x"), []byte("too-short"))
	require.Error(t, err)
}
