// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

// Package pagespeed calls the Google PageSpeed Insights API and
// normalizes the result. Every failure mode maps to a typed error; raw
// transport errors never reach the caller.
package pagespeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/testlegion/testlegion/internal/models"
)

const (
	defaultBaseURL = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"
	defaultTimeout = 60 * time.Second
)

// ConfigError means the API credential is missing. No network call is
// made in that case.
type ConfigError struct {
	Strategy string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing API key for %s analysis", e.Strategy)
}

// TimeoutError means the upstream call exceeded the request timeout.
type TimeoutError struct {
	Strategy string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout on %s strategy", e.Strategy)
}

// StatusError carries a non-2xx upstream response for diagnostics.
type StatusError struct {
	Strategy   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error on %s: %d: %s", e.Strategy, e.StatusCode, e.Body)
}

// UnexpectedError wraps everything else (malformed JSON, missing fields)
// with the original message preserved.
type UnexpectedError struct {
	Strategy string
	Err      error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected error on %s strategy: %v", e.Strategy, e.Err)
}

func (e *UnexpectedError) Unwrap() error { return e.Err }

// Audit is one improvement opportunity, scored on a 0-1 scale.
type Audit struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	DisplayValue string  `json:"display_value"`
	Score        float64 `json:"score"`
}

// Result is a normalized per-strategy analysis. PerformanceScore is on a
// 0-100 scale; Improvements holds only audits that scored below perfect.
type Result struct {
	Strategy         string  `json:"strategy"`
	PerformanceScore float64 `json:"performance_score"`
	Improvements     []Audit `json:"improvements"`
}

// Outcome pairs one strategy's result with its independent error.
type Outcome struct {
	Result *Result
	Err    error
}

// MarshalJSON renders either the result or an error object, matching the
// shape the analyse endpoint returns per strategy.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Err != nil {
		payload := map[string]string{"error": o.Err.Error()}
		var unexpected *UnexpectedError
		if errors.As(o.Err, &unexpected) {
			payload["details"] = unexpected.Err.Error()
		}
		return json.Marshal(payload)
	}
	return json.Marshal(o.Result)
}

// Results groups both strategy outcomes.
type Results struct {
	Desktop Outcome `json:"desktop"`
	Mobile  Outcome `json:"mobile"`
}

// RunResult is the merged response of one analysis run.
type RunResult struct {
	Status  string  `json:"status"`
	URL     string  `json:"url"`
	Results Results `json:"results"`
}

// Client fetches performance audits from the PageSpeed API.
type Client struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a PageSpeed client. An empty apiKey is allowed; every
// Fetch then fails with a ConfigError without touching the network.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		timeout:    defaultTimeout,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiAudit struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	DisplayValue string   `json:"displayValue"`
	Score        *float64 `json:"score"`
}

type apiResponse struct {
	LighthouseResult *struct {
		Categories *struct {
			Performance *struct {
				Score *float64 `json:"score"`
			} `json:"performance"`
		} `json:"categories"`
		Audits map[string]apiAudit `json:"audits"`
	} `json:"lighthouseResult"`
}

// Fetch runs one strategy against the API and normalizes the response.
func (c *Client) Fetch(ctx context.Context, pageURL, strategy string) (*Result, error) {
	if c.apiKey == "" {
		return nil, &ConfigError{Strategy: strategy}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := url.Values{}
	query.Set("url", pageURL)
	query.Set("key", c.apiKey)
	query.Set("strategy", strategy)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, &UnexpectedError{Strategy: strategy, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(strategy, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Strategy: strategy, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &UnexpectedError{Strategy: strategy, Err: err}
	}

	return normalize(strategy, &payload)
}

func classifyTransportError(strategy string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TimeoutError{Strategy: strategy}
	}
	return &UnexpectedError{Strategy: strategy, Err: err}
}

// normalize extracts the performance score and the sub-par audits with
// explicit presence checks instead of trusting the payload shape.
func normalize(strategy string, payload *apiResponse) (*Result, error) {
	lr := payload.LighthouseResult
	if lr == nil || lr.Categories == nil || lr.Categories.Performance == nil || lr.Categories.Performance.Score == nil {
		return nil, &UnexpectedError{Strategy: strategy, Err: errors.New("response is missing the performance score")}
	}

	improvements := make([]Audit, 0, len(lr.Audits))
	for _, audit := range lr.Audits {
		if audit.Score == nil || *audit.Score >= 1 {
			continue
		}
		improvements = append(improvements, Audit{
			Title:        audit.Title,
			Description:  audit.Description,
			DisplayValue: audit.DisplayValue,
			Score:        *audit.Score,
		})
	}
	// Audits arrive as a map; order them for stable output.
	sort.Slice(improvements, func(i, j int) bool { return improvements[i].Title < improvements[j].Title })

	return &Result{
		Strategy:         strategy,
		PerformanceScore: *lr.Categories.Performance.Score * 100,
		Improvements:     improvements,
	}, nil
}

// Run issues both strategies concurrently and merges the outcomes. Each
// strategy fails independently without aborting the other.
func (c *Client) Run(ctx context.Context, pageURL string) *RunResult {
	out := &RunResult{Status: "ok", URL: pageURL}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		result, err := c.Fetch(ctx, pageURL, models.StrategyDesktop)
		out.Results.Desktop = Outcome{Result: result, Err: err}
	}()
	go func() {
		defer wg.Done()
		result, err := c.Fetch(ctx, pageURL, models.StrategyMobile)
		out.Results.Mobile = Outcome{Result: result, Err: err}
	}()
	wg.Wait()

	return out
}
