package auth_test

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit76350/whistleblower/internal/auth"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"email": "compliance@example.com",
		"exp":   exp.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestAnonymousToken(t *testing.T) {
	token, err := auth.Anonymous.Token()
	assert.NoError(t, err)
	assert.Empty(t, token)
}

func TestStaticTokenSource(t *testing.T) {
	token, err := auth.StaticTokenSource("abc").Token()
	assert.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestSessionTokenEmpty(t *testing.T) {
	src := auth.NewSessionTokenSource()
	_, err := src.Token()
	assert.ErrorIs(t, err, auth.ErrSessionExpired)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	src := auth.NewSessionTokenSource()
	raw := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, src.SetToken(raw))

	token, err := src.Token()
	assert.NoError(t, err)
	assert.Equal(t, raw, token)
}

func TestSessionTokenExpired(t *testing.T) {
	src := auth.NewSessionTokenSource()
	raw := signedToken(t, time.Now().Add(-time.Minute))
	require.NoError(t, src.SetToken(raw))

	_, err := src.Token()
	assert.ErrorIs(t, err, auth.ErrSessionExpired)
}

func TestSessionTokenMalformed(t *testing.T) {
	src := auth.NewSessionTokenSource()
	assert.Error(t, src.SetToken("not-a-jwt"))
}

func TestSessionTokenClearedByEmptySet(t *testing.T) {
	src := auth.NewSessionTokenSource()
	require.NoError(t, src.SetToken(signedToken(t, time.Now().Add(time.Hour))))
	require.NoError(t, src.SetToken(""))

	_, err := src.Token()
	assert.ErrorIs(t, err, auth.ErrSessionExpired)
}
