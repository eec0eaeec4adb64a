package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWTToken(42, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWTToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
}

func TestParseJWTToken_Rejects(t *testing.T) {
	expired, err := GenerateJWTToken(1, "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWTToken(expired, "secret")
	assert.Error(t, err)

	good, err := GenerateJWTToken(1, "secret", time.Hour)
	require.NoError(t, err)
	_, err = ParseJWTToken(good, "other-secret")
	assert.Error(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 1}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseJWTToken(unsigned, "secret")
	assert.Error(t, err)
}
