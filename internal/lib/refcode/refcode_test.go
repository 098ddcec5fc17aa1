package refcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_LengthAndCharset(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := Generate()
		require.NoError(t, err)
		assert.Len(t, code, Length)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(alphabet, r),
				"unexpected character %q in code %q", r, code)
		}
	}
}

func TestGenerate_NotConstant(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := Generate()
		require.NoError(t, err)
		seen[code] = true
	}
	// Вероятность коллизии на 50 кодах из 36^8 пренебрежимо мала.
	assert.Greater(t, len(seen), 45)
}
