// Package base62 converts store-assigned numeric identifiers into short
// URL-safe codes. The mapping is deterministic and injective, so code
// uniqueness follows directly from id uniqueness and no collision
// retry logic is needed anywhere above it.
package base62

import (
	"errors"
	"strings"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var (
	ErrInvalidID   = errors.New("id must be positive")
	ErrInvalidCode = errors.New("code contains characters outside the base62 alphabet")
)

// Encode maps a positive id to its base62 representation. A zero id is a
// contract violation on the caller's side.
func Encode(id uint64) (string, error) {
	if id == 0 {
		return "", ErrInvalidID
	}

	// 64-bit ids never need more than 11 base62 digits.
	buf := make([]byte, 0, 11)
	for id > 0 {
		buf = append(buf, alphabet[id%62])
		id /= 62
	}

	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf), nil
}

// Decode is the inverse of Encode.
func Decode(code string) (uint64, error) {
	if code == "" {
		return 0, ErrInvalidCode
	}

	var id uint64
	for _, c := range code {
		idx := strings.IndexRune(alphabet, c)
		if idx < 0 {
			return 0, ErrInvalidCode
		}
		id = id*62 + uint64(idx)
	}

	if id == 0 {
		return 0, ErrInvalidCode
	}
	return id, nil
}
