// Package idempotency validates client-supplied idempotency keys and
// derives the cache keys used to replay stored mutation responses.
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

const (
	MinKeyLength = 16
	MaxKeyLength = 128
	KeyPrefix    = "idempotency"
)

var (
	ErrKeyTooShort = errors.New("idempotency key must be at least 16 characters")
	ErrKeyTooLong  = errors.New("idempotency key must not exceed 128 characters")
	ErrKeyInvalid  = errors.New("idempotency key contains invalid characters")

	validKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9\-_]+$`)
)

// Validate rejects keys outside the length bounds or containing anything
// other than alphanumerics, dashes, and underscores.
func Validate(key string) error {
	switch {
	case len(key) < MinKeyLength:
		return ErrKeyTooShort
	case len(key) > MaxKeyLength:
		return ErrKeyTooLong
	case !validKeyPattern.MatchString(key):
		return ErrKeyInvalid
	}

	return nil
}

// BuildCacheKey hashes method, path, and the client key together so the
// same key replayed against a different endpoint gets its own entry.
func BuildCacheKey(method, path, idempotencyKey string) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s", method, path, idempotencyKey)))

	return fmt.Sprintf("%s:%s", KeyPrefix, hex.EncodeToString(hash[:]))
}
