package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_IssueAndValidate(t *testing.T) {
	v := NewVerifier("secret", "wes-io-live")

	token, err := v.Issue("u1", "Alice", time.Minute)
	require.NoError(t, err)

	claims, err := v.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserSubject())
	assert.Equal(t, "Alice", claims.Username)
}

func TestVerifier_RejectsWrongSecret(t *testing.T) {
	token, err := NewVerifier("one", "").Issue("u1", "Alice", time.Minute)
	require.NoError(t, err)

	_, err = NewVerifier("two", "").ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifier_Expired(t *testing.T) {
	v := NewVerifier("secret", "")
	token, err := v.Issue("u1", "Alice", -time.Minute)
	require.NoError(t, err)

	_, err = v.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifier_Missing(t *testing.T) {
	_, err := NewVerifier("secret", "").ValidateToken("  ")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestVerifier_WrongIssuer(t *testing.T) {
	token, err := NewVerifier("secret", "other").Issue("u1", "Alice", time.Minute)
	require.NoError(t, err)

	_, err = NewVerifier("secret", "wes-io-live").ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
