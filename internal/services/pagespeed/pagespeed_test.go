// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

package pagespeed_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testlegion/testlegion/internal/models"
	"github.com/testlegion/testlegion/internal/services/pagespeed"
)

const cannedResponse = `{
	"lighthouseResult": {
		"categories": {"performance": {"score": 0.87}},
		"audits": {
			"render-blocking-resources": {
				"title": "Eliminate render-blocking resources",
				"description": "Resources are blocking the first paint.",
				"displayValue": "Potential savings of 400 ms",
				"score": 0.4
			},
			"uses-http2": {
				"title": "Use HTTP/2",
				"score": 1.0
			},
			"informative-only": {
				"title": "Diagnostics",
				"score": null
			}
		}
	}
}`

func TestFetch(t *testing.T) {
	var gotQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		fmt.Fprint(w, cannedResponse)
	}))
	defer srv.Close()

	client := pagespeed.NewClient("test-key", pagespeed.WithBaseURL(srv.URL))

	result, err := client.Fetch(context.Background(), "https://example.com", models.StrategyDesktop)

	require.NoError(t, err)
	assert.Equal(t, models.StrategyDesktop, result.Strategy)
	assert.InDelta(t, 87.0, result.PerformanceScore, 0.001)

	// Perfect and unscored audits are dropped.
	require.Len(t, result.Improvements, 1)
	assert.Equal(t, "Eliminate render-blocking resources", result.Improvements[0].Title)
	assert.InDelta(t, 0.4, result.Improvements[0].Score, 0.001)

	query := gotQuery.Load().(url.Values)
	assert.Equal(t, []string{"https://example.com"}, query["url"])
	assert.Equal(t, []string{"test-key"}, query["key"])
	assert.Equal(t, []string{models.StrategyDesktop}, query["strategy"])
}

func TestFetch_MissingAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not reach the network without an API key")
	}))
	defer srv.Close()

	client := pagespeed.NewClient("", pagespeed.WithBaseURL(srv.URL))

	_, err := client.Fetch(context.Background(), "https://example.com", models.StrategyMobile)

	var configErr *pagespeed.ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, models.StrategyMobile, configErr.Strategy)
}

func TestFetch_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := pagespeed.NewClient("test-key", pagespeed.WithBaseURL(srv.URL))

	_, err := client.Fetch(context.Background(), "https://example.com", models.StrategyDesktop)

	var statusErr *pagespeed.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "quota exceeded")
}

func TestFetch_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	client := pagespeed.NewClient("test-key",
		pagespeed.WithBaseURL(srv.URL),
		pagespeed.WithTimeout(50*time.Millisecond))

	_, err := client.Fetch(context.Background(), "https://example.com", models.StrategyDesktop)

	var timeoutErr *pagespeed.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, models.StrategyDesktop, timeoutErr.Strategy)
}

func TestFetch_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"lighthouseResult": {}}`)
	}))
	defer srv.Close()

	client := pagespeed.NewClient("test-key", pagespeed.WithBaseURL(srv.URL))

	_, err := client.Fetch(context.Background(), "https://example.com", models.StrategyDesktop)

	var unexpectedErr *pagespeed.UnexpectedError
	assert.ErrorAs(t, err, &unexpectedErr)
}

func TestRun_BothStrategies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, cannedResponse)
	}))
	defer srv.Close()

	client := pagespeed.NewClient("test-key", pagespeed.WithBaseURL(srv.URL))

	run := client.Run(context.Background(), "https://example.com")

	assert.Equal(t, "ok", run.Status)
	assert.Equal(t, "https://example.com", run.URL)
	require.NoError(t, run.Results.Desktop.Err)
	require.NoError(t, run.Results.Mobile.Err)
	assert.Equal(t, models.StrategyDesktop, run.Results.Desktop.Result.Strategy)
	assert.Equal(t, models.StrategyMobile, run.Results.Mobile.Result.Strategy)
}

func TestRun_PartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("strategy") == models.StrategyDesktop {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, cannedResponse)
	}))
	defer srv.Close()

	client := pagespeed.NewClient("test-key", pagespeed.WithBaseURL(srv.URL))

	run := client.Run(context.Background(), "https://example.com")

	var statusErr *pagespeed.StatusError
	require.ErrorAs(t, run.Results.Desktop.Err, &statusErr)
	require.NoError(t, run.Results.Mobile.Err)
	assert.InDelta(t, 87.0, run.Results.Mobile.Result.PerformanceScore, 0.001)
}

func TestOutcomeMarshalJSON(t *testing.T) {
	ok := pagespeed.Outcome{Result: &pagespeed.Result{Strategy: models.StrategyDesktop, PerformanceScore: 90}}
	data, err := json.Marshal(ok)
	require.NoError(t, err)
	assert.JSONEq(t, `{"strategy":"desktop","performance_score":90,"improvements":null}`, string(data))

	failed := pagespeed.Outcome{Err: &pagespeed.TimeoutError{Strategy: models.StrategyMobile}}
	data, err = json.Marshal(failed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"timeout on mobile strategy"}`, string(data))
}
