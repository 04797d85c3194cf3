// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService("test-secret", "confirm-salt", "reset-salt", time.Hour)
}

func TestIssueAndVerify(t *testing.T) {
	svc := newTestService()

	tokenString, err := svc.Issue("user@example.com", PurposeConfirmEmail)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	email, err := svc.Verify(tokenString, PurposeConfirmEmail)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", email)
}

func TestVerify_WrongPurpose(t *testing.T) {
	svc := newTestService()

	tokenString, err := svc.Issue("user@example.com", PurposeConfirmEmail)
	require.NoError(t, err)

	_, err = svc.Verify(tokenString, PurposeResetPassword)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer := newTestService()
	verifier := NewService("other-secret", "confirm-salt", "reset-salt", time.Hour)

	tokenString, err := issuer.Issue("user@example.com", PurposeConfirmEmail)
	require.NoError(t, err)

	_, err = verifier.Verify(tokenString, PurposeConfirmEmail)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	svc := newTestService()

	tokenString, err := svc.Issue("user@example.com", PurposeResetPassword)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = svc.Verify(tokenString, PurposeResetPassword)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_StillValidBeforeExpiry(t *testing.T) {
	svc := newTestService()

	tokenString, err := svc.Issue("user@example.com", PurposeResetPassword)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(59 * time.Minute) }

	email, err := svc.Verify(tokenString, PurposeResetPassword)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", email)
}

func TestVerify_Garbage(t *testing.T) {
	svc := newTestService()

	for _, tokenString := range []string{"", "garbage", "a.b.c"} {
		_, err := svc.Verify(tokenString, PurposeConfirmEmail)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestNewService_MaxAgeFallback(t *testing.T) {
	svc := NewService("secret", "confirm", "reset", 0)
	assert.Equal(t, DefaultMaxAge, svc.maxAge)
}
