package jwttoken

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zkdao/pkg/domain"
	dErrors "zkdao/pkg/domain-errors"
)

func testAddress(t *testing.T) domain.Address {
	t.Helper()
	a, err := domain.ParseAddress("0x" + strings.Repeat("ab", 20))
	require.NoError(t, err)
	return a
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-signing-key", "zkdao", "zkdao-api")
	addr := testAddress(t)

	token, err := svc.GenerateAccessToken(addr, time.Minute)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, addr, claims.Address)
	assert.NotEmpty(t, claims.JTI)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "zkdao", "zkdao-api")

	token, err := svc.GenerateAccessToken(testAddress(t), -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestJWTService_RejectsWrongKey(t *testing.T) {
	issuer := NewJWTService("key-one", "zkdao", "zkdao-api")
	verifier := NewJWTService("key-two", "zkdao", "zkdao-api")

	token, err := issuer.GenerateAccessToken(testAddress(t), time.Minute)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestJWTService_RejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-signing-key", "zkdao", "zkdao-api")

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
