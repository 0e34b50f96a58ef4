package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecureToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := GenerateSecureToken()
		require.NoError(t, err)
		assert.Len(t, token, 64) // 32 bytes hex encoded
		assert.False(t, seen[token], "tokens must not repeat")
		seen[token] = true
	}
}

func TestGenerateVerifyCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := GenerateVerifyCode()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "code must be numeric, got %q", code)
		}
	}
}
