// Package cryptox derives password verifiers for the dev server's account
// store. Passwords are never kept; only a random salt and the SHA-256 of an
// Argon2id key derived from the password and that salt.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const saltSize = 16

// MakeVerifier hashes a derived key into the value stored next to the salt.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// DeriveKey stretches password with salt using Argon2id.
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// NewSalt returns a fresh random salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// HashPassword returns a new salt and the verifier for password.
func HashPassword(password []byte) (salt, verifier []byte, err error) {
	salt, err = NewSalt()
	if err != nil {
		return nil, nil, err
	}
	return salt, MakeVerifier(DeriveKey(password, salt)), nil
}

// CheckPassword reports whether password matches the stored salt and
// verifier. The comparison runs in constant time.
func CheckPassword(password, salt, verifier []byte) bool {
	candidate := MakeVerifier(DeriveKey(password, salt))
	return subtle.ConstantTimeCompare(verifier, candidate) == 1
}
