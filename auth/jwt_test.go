package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	iss, err := NewIssuer("s3cret")
	require.NoError(t, err)

	token, expires, err := iss.Issue("dana", time.Hour)
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))

	claims, err := iss.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "dana", claims.Operator)
	assert.Equal(t, "dana", claims.Subject)
}

func TestValidateRejectsOtherSecret(t *testing.T) {
	a, err := NewIssuer("one")
	require.NoError(t, err)
	b, err := NewIssuer("two")
	require.NoError(t, err)

	token, _, err := a.Issue("dana", time.Hour)
	require.NoError(t, err)

	_, err = b.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	iss, err := NewIssuer("s3cret")
	require.NoError(t, err)
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := iss.Issue("dana", time.Hour)
	require.NoError(t, err)

	_, err = iss.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	iss, err := NewIssuer("s3cret")
	require.NoError(t, err)
	_, err = iss.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewIssuerNeedsSecret(t *testing.T) {
	_, err := NewIssuer("")
	assert.ErrorIs(t, err, ErrNoSecret)
}
