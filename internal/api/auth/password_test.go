package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isBcryptHash recognizes the bcrypt prefix family ($2a$, $2b$, $2y$).
func isBcryptHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") ||
		strings.HasPrefix(value, "$2b$") ||
		strings.HasPrefix(value, "$2y$")
}

func TestHashPassword(t *testing.T) {
	t.Run("hash verifies against the original", func(t *testing.T) {
		hash, err := HashPassword("s3cret-passphrase")
		require.NoError(t, err)
		assert.NotEqual(t, "s3cret-passphrase", hash)
		assert.True(t, VerifyPassword("s3cret-passphrase", hash))
	})

	t.Run("empty password is rejected", func(t *testing.T) {
		_, err := HashPassword("")
		assert.Error(t, err)
	})

	t.Run("same password hashes to different digests", func(t *testing.T) {
		first, err := HashPassword("same input")
		require.NoError(t, err)
		second, err := HashPassword("same input")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	t.Run("wrong password fails", func(t *testing.T) {
		assert.False(t, VerifyPassword("battery staple", hash))
	})

	t.Run("malformed hash fails instead of erroring", func(t *testing.T) {
		assert.False(t, VerifyPassword("correct horse", "not-a-bcrypt-hash"))
	})

	t.Run("empty inputs fail", func(t *testing.T) {
		assert.False(t, VerifyPassword("", hash))
		assert.False(t, VerifyPassword("correct horse", ""))
	})
}

func TestHashPassword_BcryptLookalike(t *testing.T) {
	// A user is free to pick a password that starts like a bcrypt digest; it
	// must be hashed like any other, never persisted verbatim.
	password := "$2a$mysecretpassword"

	hash, err := HashPassword(password)
	require.NoError(t, err)

	assert.NotEqual(t, password, hash)
	assert.True(t, isBcryptHash(hash))
	assert.True(t, VerifyPassword(password, hash))
}
