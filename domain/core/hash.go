package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first n hex characters of the hash
func (h Hash) Short(n int) string {
	if n <= 0 || n >= len(h) {
		return string(h)
	}
	return string(h[:n])
}

// ComputeCatalogHash fingerprints a set of variable codes independent of order
func ComputeCatalogHash(codes []VariableCode) Hash {
	sorted := make([]string, len(codes))
	for i, c := range codes {
		sorted[i] = string(c)
	}
	sort.Strings(sorted)
	return NewHash([]byte(strings.Join(sorted, "\x00")))
}
