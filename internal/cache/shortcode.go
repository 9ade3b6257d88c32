package cache

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	// ShortCodeLength is the number of characters in a short code.
	ShortCodeLength = 6
	codeAlphabet    = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	// rejectAbove keeps the byte-to-symbol mapping uniform: 248 = 4*62.
	rejectAbove = 248
)

// Fingerprint returns the hex md5 digest of sourceURL. URLs are hashed
// byte-for-byte; no normalization is applied.
func Fingerprint(sourceURL string) string {
	sum := md5.Sum([]byte(sourceURL))
	return hex.EncodeToString(sum[:])
}

// GenerateShortCode draws ShortCodeLength symbols from the 62-character
// alphanumeric alphabet using crypto/rand.
func GenerateShortCode() (string, error) {
	code := make([]byte, 0, ShortCodeLength)
	buf := make([]byte, ShortCodeLength*2)
	for len(code) < ShortCodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= rejectAbove {
				continue
			}
			code = append(code, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(code) == ShortCodeLength {
				break
			}
		}
	}
	return string(code), nil
}

// ValidShortCode reports whether code has the short code shape.
func ValidShortCode(code string) bool {
	if len(code) != ShortCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}
