package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	t.Run("hashes and verifies", func(t *testing.T) {
		hash, err := HashPassword("a-long-enough-password", bcrypt.MinCost)
		require.NoError(t, err)
		assert.NoError(t, CheckPassword("a-long-enough-password", hash))
		assert.ErrorIs(t, CheckPassword("a-different-password", hash), ErrInvalidPassword)
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		_, err := HashPassword("short", bcrypt.MinCost)
		assert.ErrorIs(t, err, ErrPasswordTooShort)
	})

	t.Run("rejects passwords over the bcrypt limit", func(t *testing.T) {
		_, err := HashPassword(strings.Repeat("x", 73), bcrypt.MinCost)
		assert.ErrorIs(t, err, ErrPasswordTooLong)
	})
}

func TestGenerateAPIToken(t *testing.T) {
	plaintext, hash, err := GenerateAPIToken()
	require.NoError(t, err)

	assert.Len(t, plaintext, 64)
	assert.Equal(t, HashToken(plaintext), hash)
	assert.NotEqual(t, plaintext, hash)

	// Tokens are random
	other, _, err := GenerateAPIToken()
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, other)
}

func TestGenerateSessionSecret(t *testing.T) {
	secret, err := GenerateSessionSecret()
	require.NoError(t, err)
	assert.Len(t, secret, 64)
}
