package crypto

import "crypto/sha256"

// DigestSHA256 returns the SHA-256 digest of b.
func DigestSHA256(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}
