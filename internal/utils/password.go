package utils

import "golang.org/x/crypto/bcrypt"

// bcrypt cost of 12 is a good balance of security and performance
const bcryptCost = 12

// bcrypt errors on input over 72 bytes, but drop passwords may be up to
// 128 characters. Truncate on both hash and check so the whole range
// works; bytes past 72 never contribute to the hash either way.
const bcryptMaxBytes = 72

func bcryptInput(password string) []byte {
	b := []byte(password)
	if len(b) > bcryptMaxBytes {
		b = b[:bcryptMaxBytes]
	}
	return b
}

// HashPassword generates a salted bcrypt hash of the password. The salt is
// random, so hashing the same password twice yields different hashes.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(bcryptInput(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a password with its hash. A malformed hash is
// reported as a mismatch, never an error.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password)) == nil
}
