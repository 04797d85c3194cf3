// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

package analyzer_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testlegion/testlegion/internal/models"
	"github.com/testlegion/testlegion/internal/repository"
	"github.com/testlegion/testlegion/internal/services/analyzer"
	"github.com/testlegion/testlegion/internal/services/pagespeed"
	"github.com/testlegion/testlegion/internal/testutil"
)

const cannedResponse = `{
	"lighthouseResult": {
		"categories": {"performance": {"score": 0.91}},
		"audits": {
			"render-blocking-resources": {
				"title": "Eliminate render-blocking resources",
				"displayValue": "Potential savings of 400 ms",
				"score": 0.4
			}
		}
	}
}`

func newService(t *testing.T, handler http.HandlerFunc) (*analyzer.Service, *repository.Repository) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	_, repo := testutil.NewTestDB(t)
	client := pagespeed.NewClient("test-key", pagespeed.WithBaseURL(srv.URL))
	return analyzer.NewService(client, repo), repo
}

func TestAnalyze_PersistsBothStrategies(t *testing.T) {
	svc, repo := newService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, cannedResponse)
	})
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "user@example.com", "secret123")

	run, err := svc.Analyze(ctx, "https://example.com", user.ID)

	require.NoError(t, err)
	assert.Equal(t, "ok", run.Status)
	require.NoError(t, run.Results.Desktop.Err)
	require.NoError(t, run.Results.Mobile.Err)

	analyses, err := repo.ListAnalyses(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, analyses, 2)

	audits, err := repo.ListAuditsByAnalysis(ctx, analyses[0].ID)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, "Eliminate render-blocking resources", audits[0].Title)
}

func TestAnalyze_AnonymousNotPersisted(t *testing.T) {
	svc, repo := newService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, cannedResponse)
	})
	ctx := context.Background()

	run, err := svc.Analyze(ctx, "https://example.com", 0)

	require.NoError(t, err)
	require.NoError(t, run.Results.Desktop.Err)

	analyses, err := repo.ListAnalyses(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, analyses)
}

func TestAnalyze_PartialFailureStillPersists(t *testing.T) {
	svc, repo := newService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("strategy") == models.StrategyDesktop {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, cannedResponse)
	})
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "user@example.com", "secret123")

	run, err := svc.Analyze(ctx, "https://example.com", user.ID)

	require.NoError(t, err)
	assert.Error(t, run.Results.Desktop.Err)
	require.NoError(t, run.Results.Mobile.Err)

	analyses, err := repo.ListAnalyses(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, models.StrategyMobile, analyses[0].Strategy)
}

func TestAnalyzeAll_FoldsFailures(t *testing.T) {
	svc, repo := newService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server error", http.StatusInternalServerError)
	})
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "user@example.com", "secret123")

	err := svc.AnalyzeAll(ctx, "https://example.com", user.ID)

	assert.Error(t, err)
}

func TestAnalyzeAll_Success(t *testing.T) {
	svc, repo := newService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, cannedResponse)
	})
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "user@example.com", "secret123")

	require.NoError(t, svc.AnalyzeAll(ctx, "https://example.com", user.ID))

	analyses, err := repo.ListAnalyses(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, analyses, 2)
}
