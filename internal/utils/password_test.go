package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("abcd")
	require.NoError(t, err)
	assert.NotEqual(t, "abcd", hash)

	assert.True(t, CheckPassword("abcd", hash))
	assert.False(t, CheckPassword("abcX", hash))
}

func TestHashPasswordSalted(t *testing.T) {
	first, err := HashPassword("samepassword")
	require.NoError(t, err)
	second, err := HashPassword("samepassword")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, CheckPassword("samepassword", first))
	assert.True(t, CheckPassword("samepassword", second))
}

func TestHashPasswordLongPasswords(t *testing.T) {
	// Anything in the accepted 4-128 range must hash, including passwords
	// past bcrypt's own 72-byte ceiling.
	long := strings.Repeat("p", 100)
	hash, err := HashPassword(long)
	require.NoError(t, err)
	assert.True(t, CheckPassword(long, hash))

	// A password differing within the first 72 bytes still mismatches
	other := "X" + strings.Repeat("p", 99)
	assert.False(t, CheckPassword(other, hash))

	max := strings.Repeat("q", 128)
	hash, err = HashPassword(max)
	require.NoError(t, err)
	assert.True(t, CheckPassword(max, hash))
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	assert.False(t, CheckPassword("abcd", "not-a-bcrypt-hash"))
	assert.False(t, CheckPassword("abcd", ""))
}
