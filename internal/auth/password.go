// Package auth holds the credential primitives: Argon2id password hashing
// and HS256 access tokens.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. These follow the library's recommended defaults for
// interactive logins.
const (
	saltLength   = 16
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// HashPassword generates a fresh random salt and derives the Argon2id hash
// of the raw password under it. Both values are returned base64-encoded for
// storage.
func HashPassword(raw string) (salt, hash string, err error) {
	buf := make([]byte, saltLength)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}

	salt = base64.RawStdEncoding.EncodeToString(buf)
	return salt, hashWithSalt(raw, salt), nil
}

// VerifyPassword recomputes the hash of the candidate password under the
// stored salt and compares it to the stored hash in constant time.
func VerifyPassword(raw, salt, hash string) bool {
	candidate := hashWithSalt(raw, salt)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(hash)) == 1
}

func hashWithSalt(raw, salt string) string {
	key := argon2.IDKey([]byte(raw), []byte(salt), argonTime, argonMemory, argonThreads, argonKeyLen)
	return base64.RawStdEncoding.EncodeToString(key)
}
