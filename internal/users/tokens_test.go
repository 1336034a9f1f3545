package users

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_GenerateAndVerify(t *testing.T) {
	tokens := NewTokenService([]byte("test-secret"), DefaultTokenTTL)

	user := &User{
		ID:    42,
		Name:  "Aditya",
		Email: "aditya@example.com",
	}

	tokenString, err := tokens.Generate(user)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := tokens.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.ID)
	assert.Equal(t, "aditya@example.com", claims.Email)
	assert.Equal(t, "Aditya", claims.Name)

	expiresIn := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	assert.Equal(t, 7*24*time.Hour, expiresIn)
}

func TestTokenService_Verify_WrongSecret(t *testing.T) {
	tokens := NewTokenService([]byte("test-secret"), DefaultTokenTTL)
	otherTokens := NewTokenService([]byte("other-secret"), DefaultTokenTTL)

	tokenString, err := tokens.Generate(&User{ID: 1, Email: "a@b.c"})
	require.NoError(t, err)

	claims, err := otherTokens.Verify(tokenString)
	assert.Nil(t, claims)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenService_Verify_Expired(t *testing.T) {
	tokens := NewTokenService([]byte("test-secret"), time.Hour)

	tokenString, err := tokens.Generate(&User{ID: 1, Email: "a@b.c"})
	require.NoError(t, err)

	// move the clock past the expiry
	tokens.now = func() time.Time {
		return time.Now().Add(2 * time.Hour)
	}

	claims, err := tokens.Verify(tokenString)
	assert.Nil(t, claims)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenService_Verify_Garbage(t *testing.T) {
	tokens := NewTokenService([]byte("test-secret"), DefaultTokenTTL)

	claims, err := tokens.Verify("not.a.token")
	assert.Nil(t, claims)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
