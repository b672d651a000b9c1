package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestToken_RoundTrip(t *testing.T) {
	token, err := GenerateToken(42, "modder@example.com", "user", testSecret, 5)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "modder@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
}

func TestToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken(1, "a@b.c", "user", testSecret, 5)
	require.NoError(t, err)

	_, err = ValidateToken(token, "other")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestToken_Expired(t *testing.T) {
	token, err := GenerateRefreshToken(1, testSecret, -1)
	require.NoError(t, err)

	_, err = ValidateRefreshToken(token, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestToken_TypesAreNotInterchangeable(t *testing.T) {
	refresh, err := GenerateRefreshToken(7, testSecret, 1)
	require.NoError(t, err)
	_, err = ValidateToken(refresh, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	access, err := GenerateToken(7, "a@b.c", "user", testSecret, 5)
	require.NoError(t, err)
	_, err = ValidateRefreshToken(access, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err := ValidateRefreshToken(refresh, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
}

func TestToken_EmptySecret(t *testing.T) {
	_, err := GenerateToken(1, "a@b.c", "user", "", 5)
	assert.Error(t, err)
}

func TestFromPtr(t *testing.T) {
	assert.Equal(t, "x", FromPtr(ToPtr("x"), "d"))
	assert.Equal(t, "d", FromPtr[string](nil, "d"))
}
