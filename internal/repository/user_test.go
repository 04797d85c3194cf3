// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testlegion/testlegion/internal/models"
	"github.com/testlegion/testlegion/internal/repository"
	"github.com/testlegion/testlegion/internal/testutil"
)

func TestCreateUser(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := &models.User{Email: "user@example.com", HashedPassword: "digest"}
	err := repo.CreateUser(ctx, user)

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.False(t, user.IsVerified)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	err := repo.CreateUser(ctx, &models.User{Email: "user@example.com", HashedPassword: "digest"})
	require.NoError(t, err)

	err = repo.CreateUser(ctx, &models.User{Email: "user@example.com", HashedPassword: "digest"})

	assert.Error(t, err)
}

func TestGetUserByID(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	created := testutil.NewTestUser(t, repo, "user@example.com", "secret123")

	retrieved, err := repo.GetUserByID(ctx, created.ID)

	require.NoError(t, err)
	assert.Equal(t, created.ID, retrieved.ID)
	assert.Equal(t, "user@example.com", retrieved.Email)
	assert.NotZero(t, retrieved.CreatedAt)
}

func TestGetUserByID_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	_, err := repo.GetUserByID(ctx, 999)

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetUserByEmail(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	created := testutil.NewTestUser(t, repo, "user@example.com", "secret123")

	retrieved, err := repo.GetUserByEmail(ctx, "user@example.com")

	require.NoError(t, err)
	assert.Equal(t, created.ID, retrieved.ID)
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	_, err := repo.GetUserByEmail(ctx, "nobody@example.com")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSetUserVerified(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := &models.User{Email: "user@example.com", HashedPassword: "digest"}
	require.NoError(t, repo.CreateUser(ctx, user))

	require.NoError(t, repo.SetUserVerified(ctx, user.ID))

	retrieved, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, retrieved.IsVerified)
}

func TestUpdateUserPassword(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "user@example.com", "secret123")

	require.NoError(t, repo.UpdateUserPassword(ctx, user.ID, "new-digest"))

	retrieved, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-digest", retrieved.HashedPassword)
}

func TestCountUsers(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	count, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	testutil.NewTestUser(t, repo, "one@example.com", "secret123")
	testutil.NewTestUser(t, repo, "two@example.com", "secret123")

	count, err = repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
