package services

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// legacyPrefix marks hashes written by the old front end: sha256 of the
// password, base64 encoded.
const legacyPrefix = "sha256:"

// HashPassword hashes a password with bcrypt
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// LegacyHash returns the sha256:<base64> form of a password
func LegacyHash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return legacyPrefix + base64.StdEncoding.EncodeToString(sum[:])
}

// VerifyPassword reports whether password matches the stored hash. Empty
// or unrecognised hashes never match.
func VerifyPassword(stored, password string) bool {
	switch {
	case stored == "":
		return false
	case strings.HasPrefix(stored, legacyPrefix):
		return subtle.ConstantTimeCompare([]byte(stored), []byte(LegacyHash(password))) == 1
	case strings.HasPrefix(stored, "$2"):
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	default:
		return false
	}
}

