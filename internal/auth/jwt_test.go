package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager(testSecret, 48*time.Hour)

	token, err := m.GenerateAccessToken("user-1", "ada@example.com", "ADMIN")
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestJWTManager_Expired(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.GenerateAccessToken("user-1", "ada@example.com", "CUSTOMER")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateAccessToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	token, err := NewJWTManager(testSecret, time.Hour).GenerateAccessToken("user-1", "a@b.c", "CUSTOMER")
	require.NoError(t, err)

	_, err = NewJWTManager("another-secret-another-secret-xx", time.Hour).ValidateAccessToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestJWTManager_RejectsNoneAlg(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTManager(testSecret, time.Hour).ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTManager_Validator(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)
	token, err := m.GenerateAccessToken("user-7", "bob@example.com", "CUSTOMER")
	require.NoError(t, err)

	c, err := m.Validator()(token)
	require.NoError(t, err)
	assert.Equal(t, "user-7", c.UserID)
	assert.Equal(t, "CUSTOMER", c.Role)

	_, err = m.Validator()("garbage")
	assert.Error(t, err)
}
