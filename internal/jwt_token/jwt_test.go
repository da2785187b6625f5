package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "verdant/pkg/domain-errors"
)

func newTestService() *JWTService {
	return NewJWTService("test-signing-key", "verdant", "verdant-api")
}

func TestValidateToken(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateToken("auth0|user-1", time.Minute)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "auth0|user-1", claims.UserID)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateToken("auth0|user-1", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestValidateTokenWrongKey(t *testing.T) {
	other := NewJWTService("other-key", "verdant", "verdant-api")
	token, err := other.GenerateToken("auth0|user-1", time.Minute)
	require.NoError(t, err)

	_, err = newTestService().ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestValidateTokenWrongAudience(t *testing.T) {
	other := NewJWTService("test-signing-key", "verdant", "some-other-api")
	token, err := other.GenerateToken("auth0|user-1", time.Minute)
	require.NoError(t, err)

	_, err = newTestService().ValidateToken(token)
	require.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	_, err := newTestService().ValidateToken("not-a-token")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}
