package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/enrollments-service/pkg/errors"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService("secret", "registrar")
	token, err := svc.IssueToken("clerk-1", "registrar", time.Minute)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "clerk-1", claims.Subject)
	assert.Equal(t, "registrar", claims.Role)
}

func TestTokenServiceRejects(t *testing.T) {
	svc := NewTokenService("secret", "registrar")

	expired, err := svc.IssueToken("clerk-1", "", -time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	foreign, err := NewTokenService("other", "registrar").IssueToken("clerk-1", "", time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	wrongIssuer, err := NewTokenService("secret", "elsewhere").IssueToken("clerk-1", "", time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateToken(wrongIssuer)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "x"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(none)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
