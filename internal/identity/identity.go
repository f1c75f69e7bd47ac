// Package identity derives stable content-addressed keys for biometric samples.
//
// The same sample bytes always map to the same key, so the usage ledger can
// track a physical fingerprint across submissions without ever storing the
// image itself. Keys are truncated SHA-256 digests: collision-resistant for
// deduplication, and not reversible to the original sample.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
)

// KeyLength is the length of an identity key in hex characters.
const KeyLength = 32

var keyPattern = regexp.MustCompile(`^[a-f0-9]{32}$`)

// Hash derives the identity key for a raw sample.
// Deterministic and pure; empty input hashes to a valid (if meaningless) key.
// Validating that the bytes are a real image is the caller's job.
func Hash(sample []byte) string {
	sum := sha256.Sum256(sample)
	return hex.EncodeToString(sum[:])[:KeyLength]
}

// IsValidKey reports whether s has the shape of an identity key.
// Used to validate keys arriving in URL parameters.
func IsValidKey(s string) bool {
	return keyPattern.MatchString(s)
}
