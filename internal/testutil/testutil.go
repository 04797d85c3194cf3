// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/testlegion/testlegion/internal/database"
	"github.com/testlegion/testlegion/internal/models"
	"github.com/testlegion/testlegion/internal/repository"
	"github.com/testlegion/testlegion/internal/services/password"
	"github.com/vinovest/sqlx"
)

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTestUser creates a verified user with the given email and password.
func NewTestUser(t *testing.T, repo *repository.Repository, email, plaintext string) *models.User {
	t.Helper()
	ctx := context.Background()

	digest, err := password.Hash(plaintext)
	require.NoError(t, err)

	user := &models.User{Email: email, HashedPassword: digest, IsVerified: true}
	require.NoError(t, repo.CreateUser(ctx, user))
	return user
}

// NewTestAnalysis persists an analysis with its audits for a user.
func NewTestAnalysis(t *testing.T, repo *repository.Repository, userID int64, url, strategy string, score float64, audits []models.Audit) *models.Analysis {
	t.Helper()
	ctx := context.Background()

	analysis := &models.Analysis{
		URL:              url,
		Strategy:         strategy,
		PerformanceScore: score,
	}
	if userID != 0 {
		analysis.UserID.Int64 = userID
		analysis.UserID.Valid = true
	}
	require.NoError(t, repo.CreateAnalysis(ctx, analysis, audits))
	return analysis
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewFormContext creates an Echo context with a form-encoded body.
func NewFormContext(e *echo.Echo, method, path string, form io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, form)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}
