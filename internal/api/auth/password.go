package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword one-way hashes a plaintext password with a per-call salt.
// Register and password change are the only paths that persist a password,
// and both always receive plaintext, so hashing here is unconditional; a
// password that happens to look like a bcrypt digest is hashed like any
// other. Double-hashing on unrelated updates cannot occur because the
// settings save path never writes the password column.
func HashPassword(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches the stored hash. Any
// mismatch or malformed hash yields false, never an error.
func VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

