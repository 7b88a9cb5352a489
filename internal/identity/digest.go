package identity

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashPassword computes the storable digest of a plaintext password:
// unsalted SHA-256, hex-encoded.
//
// The scheme is deterministic by design — equality is tested digest-to-digest,
// never plaintext-to-plaintext. It is retained for compatibility with
// digests already stored in existing deployments. Known weakness: without a
// per-credential salt, identical passwords produce identical digests and the
// scheme is vulnerable to precomputed-table attacks. Changing it requires a
// stored-digest migration, which is out of scope here.
//
// An empty plaintext still yields a digest; emptiness is rejected by input
// validation before this function is reached.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword checks a plaintext password against a stored digest.
// The comparison is constant-time over the digests.
func VerifyPassword(password, digest string) bool {
	candidate := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(digest)) == 1
}
