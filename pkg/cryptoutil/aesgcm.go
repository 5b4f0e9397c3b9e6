// Package cryptoutil encrypts vault documents at rest with AES-256-GCM.
//
// Payload layout: salt (16 bytes) || nonce (12 bytes) || ciphertext+tag.
// The key is derived per document from the configured secret and the
// random salt via PBKDF2-SHA256.
package cryptoutil

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength = 16
	keyLength  = 32
	iterations = 100000
)

var ErrCiphertextTooShort = errors.New("ciphertext too short")

func deriveKey(secret string, salt []byte) []byte {
	return pbkdf2.Key([]byte(secret), salt, iterations, keyLength, sha256.New)
}

// Encrypt seals data with a key derived from secret.
func Encrypt(data []byte, secret string) ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(deriveKey(secret, salt))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	out := make([]byte, 0, saltLength+len(nonce)+len(data)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, data, nil), nil
}

// Decrypt opens a payload produced by Encrypt. Tampering with any part of
// the payload fails authentication.
func Decrypt(payload []byte, secret string) ([]byte, error) {
	if len(payload) < saltLength {
		return nil, ErrCiphertextTooShort
	}
	salt := payload[:saltLength]

	block, err := aes.NewCipher(deriveKey(secret, salt))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	rest := payload[saltLength:]
	if len(rest) < gcm.NonceSize() {
		return nil, ErrCiphertextTooShort
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertext, nil)
}
