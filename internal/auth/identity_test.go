package auth

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestResolve_SelfAssertedMode(t *testing.T) {
	// Signature is irrelevant in self-asserted mode; claims are trusted.
	token := signToken(t, "whatever", jwt.MapClaims{
		"sub":         "user-1",
		"business_id": "biz-1",
		"is_admin":    true,
	})

	r := NewResolver(false, "")
	ident, err := r.Resolve(token)

	require.NoError(t, err)
	assert.Equal(t, "user-1", ident.UserID)
	assert.Equal(t, "biz-1", ident.BusinessID)
	assert.True(t, ident.IsAdmin)
}

func TestResolve_SelfAssertedDefaults(t *testing.T) {
	token := signToken(t, "whatever", jwt.MapClaims{"sub": "user-1"})

	r := NewResolver(false, "")
	ident, err := r.Resolve(token)

	require.NoError(t, err)
	assert.Equal(t, "user-1", ident.UserID)
	assert.Empty(t, ident.BusinessID)
	assert.False(t, ident.IsAdmin)
}

func TestResolve_VerifiedMode_GoodSignature(t *testing.T) {
	token := signToken(t, "s3cret", jwt.MapClaims{"sub": "user-1"})

	r := NewResolver(true, "s3cret")
	ident, err := r.Resolve(token)

	require.NoError(t, err)
	assert.Equal(t, "user-1", ident.UserID)
}

func TestResolve_VerifiedMode_BadSignature(t *testing.T) {
	token := signToken(t, "wrong-secret", jwt.MapClaims{"sub": "user-1"})

	r := NewResolver(true, "s3cret")
	_, err := r.Resolve(token)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCredential))
}

func TestResolve_MissingSubject(t *testing.T) {
	token := signToken(t, "whatever", jwt.MapClaims{"business_id": "biz-1"})

	r := NewResolver(false, "")
	_, err := r.Resolve(token)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCredential))
}

func TestResolve_EmptyToken(t *testing.T) {
	r := NewResolver(false, "")
	_, err := r.Resolve("")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoCredential))
}

func TestResolve_Garbage(t *testing.T) {
	r := NewResolver(false, "")
	_, err := r.Resolve("not.a.jwt")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCredential))
}
