package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateToken(t *testing.T) {
	t.Run("generates 64 hex characters", func(t *testing.T) {
		token, err := GenerateToken()
		assert.NoError(t, err)
		assert.Len(t, token, 64)
	})

	t.Run("generates unique tokens", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			token, err := GenerateToken()
			assert.NoError(t, err)
			assert.False(t, seen[token], "duplicate token generated")
			seen[token] = true
		}
	})
}

func TestHmacSHA256(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		a := HmacSHA256("secret", "payload")
		b := HmacSHA256("secret", "payload")
		assert.Equal(t, a, b)
	})

	t.Run("differs by secret", func(t *testing.T) {
		a := HmacSHA256("secret-a", "payload")
		b := HmacSHA256("secret-b", "payload")
		assert.NotEqual(t, a, b)
	})

	t.Run("differs by payload", func(t *testing.T) {
		a := HmacSHA256("secret", "payload-a")
		b := HmacSHA256("secret", "payload-b")
		assert.NotEqual(t, a, b)
	})
}

func TestConstantTimeEqual(t *testing.T) {
	assert.True(t, ConstantTimeEqual("abc", "abc"))
	assert.False(t, ConstantTimeEqual("abc", "abd"))
	assert.False(t, ConstantTimeEqual("abc", "abcd"))
	assert.True(t, ConstantTimeEqual("", ""))
}

func TestCheckPasswordHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	assert.NoError(t, err)

	assert.True(t, CheckPasswordHash("correct-horse", string(hash)))
	assert.False(t, CheckPasswordHash("wrong-horse", string(hash)))
	assert.False(t, CheckPasswordHash("correct-horse", "not-a-hash"))
}

func TestMaskCode(t *testing.T) {
	t.Run("masks everything past the prefix", func(t *testing.T) {
		assert.Equal(t, "abcd-****", MaskCode("abcdefgh12345678"))
	})

	t.Run("fully masks short codes", func(t *testing.T) {
		assert.Equal(t, "****", MaskCode("abc"))
		assert.Equal(t, "****", MaskCode(""))
	})
}
