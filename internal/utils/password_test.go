package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePasswordBounds(t *testing.T) {
	for i := 0; i < 50; i++ {
		password, err := GeneratePassword()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(password), passwordMinLen)
		assert.LessOrEqual(t, len(password), passwordMaxLen)
		for _, c := range password {
			assert.True(t, strings.ContainsRune(passwordCharset, c),
				"unexpected character %q", c)
		}
	}
}

func TestGeneratePasswordVaries(t *testing.T) {
	a, err := GeneratePassword()
	require.NoError(t, err)
	b, err := GeneratePassword()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
