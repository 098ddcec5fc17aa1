package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHashAndCompareHash(t *testing.T) {
	hash, err := GetHash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.NoError(t, CompareHash(hash, "password123"))
	assert.Error(t, CompareHash(hash, "wrong-password"))
}

func TestGetHash_DifferentSalts(t *testing.T) {
	first, err := GetHash("password123")
	require.NoError(t, err)
	second, err := GetHash("password123")
	require.NoError(t, err)

	// bcrypt солит каждый хэш, одинаковые пароли дают разные хэши.
	assert.NotEqual(t, first, second)
}
