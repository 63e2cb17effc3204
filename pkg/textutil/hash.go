// Package textutil holds the small string helpers shared by the translators,
// the cache store and the query orchestrator.
package textutil

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
)

// MD5 returns the lowercase hex MD5 digest of s.
// Used for cache keys and for the Baidu request signature.
func MD5(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// SHA256 returns the lowercase hex SHA-256 digest of s.
func SHA256(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
