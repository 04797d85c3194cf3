// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

package password_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testlegion/testlegion/internal/services/password"
)

func TestHashAndVerify(t *testing.T) {
	digest, err := password.Hash("correct horse battery staple")

	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", digest)
	assert.True(t, password.Verify("correct horse battery staple", digest))
}

func TestVerify_WrongPassword(t *testing.T) {
	digest, err := password.Hash("secret123")
	require.NoError(t, err)

	assert.False(t, password.Verify("secret124", digest))
}

func TestVerify_InvalidDigest(t *testing.T) {
	assert.False(t, password.Verify("secret123", "not-a-bcrypt-digest"))
	assert.False(t, password.Verify("secret123", ""))
}

func TestHash_UniqueSalts(t *testing.T) {
	first, err := password.Hash("secret123")
	require.NoError(t, err)

	second, err := password.Hash("secret123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, password.Verify("secret123", first))
	assert.True(t, password.Verify("secret123", second))
}
