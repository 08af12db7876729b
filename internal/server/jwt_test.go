package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonathan/datedetective/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func newTestJWTService(issuer string) *JWTService {
	return NewJWTService(&config.JWTConfig{Secret: testSecret, Issuer: issuer, ExpirationHours: 24})
}

func TestJWTService_RoundTrip(t *testing.T) {
	service := newTestJWTService("datedetective")

	token, err := service.GenerateToken("ingest-job")
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ingest-job", claims.Subject)
	assert.Equal(t, "dates", claims.Scope)
	assert.Equal(t, "datedetective", claims.Issuer)
}

func TestJWTService_EmptySubject(t *testing.T) {
	_, err := newTestJWTService("").GenerateToken("")
	assert.Error(t, err)
}

func TestJWTService_ValidateToken_Errors(t *testing.T) {
	service := newTestJWTService("datedetective")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "c",
			Issuer:    "datedetective",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	expiredToken, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)

	otherKey, err := NewJWTService(&config.JWTConfig{Secret: "another-secret-of-sufficient-length!!", Issuer: "datedetective", ExpirationHours: 1}).GenerateToken("c")
	require.NoError(t, err)

	otherIssuer, err := newTestJWTService("someone-else").GenerateToken("c")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "c"}})
	noneToken, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantMsg string
	}{
		{"empty", "", "empty"},
		{"malformed", "not-a-token", "malformed"},
		{"expired", expiredToken, "expired"},
		{"wrong key", otherKey, "signature"},
		{"wrong issuer", otherIssuer, "failed to parse"},
		{"alg none", noneToken, "signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ValidateToken(tt.token)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestJWTService_AsTokenValidator(t *testing.T) {
	service := newTestJWTService("")
	token, err := service.GenerateToken("cli")
	require.NoError(t, err)

	claims, err := service.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	subject, err := claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "cli", subject)

	_, err = service.AsTokenValidator().ValidateToken("bad")
	assert.Error(t, err)
}
