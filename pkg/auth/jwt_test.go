package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/config"
)

func TestGenerateAndValidate(t *testing.T) {
	config.Set("JWT_SECRET", "test-secret")

	tok, err := GenerateToken("64b000000000000000000001", RoleAdmin, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "64b000000000000000000001", claims.UserID)

	id := IdentityFromClaims(claims)
	assert.True(t, id.IsAdmin())
	assert.False(t, id.Anonymous())
}

func TestValidateRejectsExpiredAndForeignTokens(t *testing.T) {
	config.Set("JWT_SECRET", "test-secret")

	expired, err := GenerateToken("u1", "user", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "u1"}).SignedString([]byte("other"))
	require.NoError(t, err)
	_, err = ValidateToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIdentityContext(t *testing.T) {
	assert.True(t, FromCtx(context.Background()).Anonymous())

	ctx := WithIdentity(context.Background(), Identity{UserID: "u1", Role: "user"})
	got := FromCtx(ctx)
	assert.Equal(t, "u1", got.UserID)
	assert.False(t, got.IsAdmin())
}
