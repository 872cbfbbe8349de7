package common

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

// CodeLength is the number of decimal digits in a delivery code.
const CodeLength = 6

const (
	codeMin  = 100000
	codeSpan = 900000
)

var codeRe = regexp.MustCompile(`^[0-9]{6}$`)

// GenerateCode returns a delivery code: a 6-digit decimal string drawn
// uniformly from [100000, 999999] using crypto/rand.
//
// The code doubles as the store lookup key and the password the encryption
// key is derived from. It is not a full-strength secret; the short TTL,
// single-use delivery and rate limiting carry the rest of the security
// argument.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

// IsValidCode reports whether s has the exact shape of a delivery code.
func IsValidCode(s string) bool {
	return codeRe.MatchString(s)
}

// GenerateRandByteArray returns size cryptographically random bytes.
// It panics if the system random source fails.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return b
}

// WipeByteArray overwrites the contents of the provided byte slice with
// zeros. Useful for clearing decrypted payloads and derived keys from memory
// after use. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
