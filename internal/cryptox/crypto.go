// Package cryptox implements the fixed encryption scheme binding a payload
// to a short delivery code: PBKDF2 turns the code into an AES-256 key, and
// AES-GCM provides authenticated encryption with a fresh random nonce per
// message.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"

	"github.com/dmitrijs2005/secureclip/internal/common"
)

const (
	// keySalt is deliberately a fixed application literal. A per-message
	// salt buys nothing here: the code is single-use and expires within
	// minutes, and sender and receiver share no state except the code, so
	// derivation must be deterministic from the code alone.
	keySalt = "secureclip"

	// keyIterations matches the browser-side deriveKey parameters; both
	// ends must agree or decryption fails.
	keyIterations = 100000

	keySize = 32

	// IVSize is the AES-GCM nonce length in bytes.
	IVSize = 12
)

// DeriveKey turns a delivery code into a 256-bit AES key using
// PBKDF2-SHA256 over the UTF-8 bytes of the code. Deterministic: the same
// code always yields the same key.
func DeriveKey(code string) []byte {
	return pbkdf2.Key([]byte(code), []byte(keySalt), keyIterations, keySize, sha256.New)
}

// Encrypt seals plaintext under key with AES-256-GCM. A fresh random
// 12-byte IV is generated per call and returned alongside the combined
// ciphertext+authentication tag.
func Encrypt(plaintext, key []byte) (iv, ciphertext []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	iv = common.GenerateRandByteArray(aesgcm.NonceSize())
	ciphertext = aesgcm.Seal(nil, iv, plaintext, nil)

	return iv, ciphertext, nil
}

// Decrypt opens ciphertext (which includes the GCM tag) with the given IV
// and key. Any corruption, truncation or wrong key fails closed with
// common.ErrAuthenticationFailed; partial plaintext is never returned. The
// underlying cipher error is not exposed so callers cannot distinguish why
// authentication failed.
func Decrypt(iv, ciphertext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(iv) != aesgcm.NonceSize() {
		return nil, common.ErrAuthenticationFailed
	}

	plaintext, err := aesgcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, common.ErrAuthenticationFailed
	}

	return plaintext, nil
}
