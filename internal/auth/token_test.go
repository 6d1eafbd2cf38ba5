package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateValidate_Roundtrip(t *testing.T) {
	manager := NewTokenManager("test-secret")

	token, err := manager.Generate("alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := manager.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestValidate_WrongSecretRejected(t *testing.T) {
	token, err := NewTokenManager("secret-a").Generate("alice")
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b").Validate(token)
	assert.Error(t, err)
}

func TestValidate_GarbageRejected(t *testing.T) {
	manager := NewTokenManager("test-secret")

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := manager.Validate(token)
		assert.Error(t, err, "token %q should not validate", token)
	}
}

func TestValidate_ExpiredTokenRejected(t *testing.T) {
	secret := "test-secret"
	claims := jwt.MapClaims{
		"sub": "alice",
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = NewTokenManager(secret).Validate(token)
	assert.Error(t, err)
}

func TestValidate_MissingSubjectRejected(t *testing.T) {
	secret := "test-secret"
	claims := jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = NewTokenManager(secret).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_RejectsNonHMACAlgorithm(t *testing.T) {
	// alg=none with an empty signature must never pass
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager("test-secret").Validate(token)
	assert.Error(t, err)
}
