// Package cursor implements the two opaque pagination-cursor formats
// spec.md §6 names: HMAC-signed and AES-GCM-encrypted. Both decode to
// "absent" (a false ok) on any tamper, truncation, or wrong-key attempt —
// callers must never distinguish those failure modes from each other.
package cursor

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"
)

// KeySize is the required key length for both modes.
const KeySize = 32

var errAbsent = errors.New("cursor absent")

func enc(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }
func dec(s string) ([]byte, error) { return base64.RawURLEncoding.DecodeString(s) }

// EncodeSigned produces "base64(payload).base64(HMAC-SHA256(payload, key))".
func EncodeSigned(payload, key []byte) (string, error) {
	if len(key) != KeySize {
		return "", errors.New("signing key must be 32 bytes")
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(payload)
	sig := mac.Sum(nil)
	return enc(payload) + "." + enc(sig), nil
}

// DecodeSigned verifies and extracts the payload. Any tamper, truncation,
// or wrong-key attempt decodes to (nil, false).
func DecodeSigned(token string, key []byte) ([]byte, bool) {
	if len(key) != KeySize {
		return nil, false
	}
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return nil, false
	}
	payload, err := dec(parts[0])
	if err != nil {
		return nil, false
	}
	sig, err := dec(parts[1])
	if err != nil {
		return nil, false
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(payload)
	expected := mac.Sum(nil)
	if subtle.ConstantTimeCompare(sig, expected) != 1 {
		return nil, false
	}
	return payload, true
}

// EncodeEncrypted produces "base64(iv).base64(AES-GCM ciphertext+tag)".
func EncodeEncrypted(payload, key []byte) (string, error) {
	if len(key) != KeySize {
		return "", errors.New("encryption key must be 32 bytes")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	iv := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nil, iv, payload, nil)
	return enc(iv) + "." + enc(sealed), nil
}

// DecodeEncrypted decrypts and authenticates the payload. Any tamper,
// truncation, or wrong-key attempt decodes to (nil, false).
func DecodeEncrypted(token string, key []byte) ([]byte, bool) {
	if len(key) != KeySize {
		return nil, false
	}
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return nil, false
	}
	iv, err := dec(parts[0])
	if err != nil {
		return nil, false
	}
	sealed, err := dec(parts[1])
	if err != nil {
		return nil, false
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, false
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, false
	}
	if len(iv) != gcm.NonceSize() {
		return nil, false
	}
	payload, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, false
	}
	return payload, true
}
