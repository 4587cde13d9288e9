package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	m := NewManager("test-secret", 900)

	token, err := m.GenerateToken(42, "Kim Jiwon", "student", "approved")
	require.NoError(t, err)

	claims, err := m.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "Kim Jiwon", claims.Name)
	assert.Equal(t, "student", claims.Role)
	assert.Equal(t, "approved", claims.Status)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewManager("secret-a", 900).GenerateToken(1, "n", "student", "approved")
	require.NoError(t, err)

	_, err = NewManager("secret-b", 900).VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	token, err := NewManager("test-secret", -60).GenerateToken(1, "n", "student", "approved")
	require.NoError(t, err)

	_, err = NewManager("test-secret", -60).VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	_, err := NewManager("test-secret", 900).VerifyToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
