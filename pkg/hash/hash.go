package hash

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// Fingerprint returns the salted one-way hash of a client attribute (IP address
// or user agent). An empty value still hashes, so a missing header weakens the
// fingerprint but never fails.
func Fingerprint(raw, salt string) string {
	return SHA256Hex(raw + ":" + salt)
}

// Equal compares two digests in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// LogPrefix returns a short, irreversible prefix of SHA256(value) for log
// correlation without writing raw PII.
func LogPrefix(value string) string {
	return SHA256Hex(value)[:12]
}
