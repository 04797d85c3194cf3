// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const defaultResendURL = "https://api.resend.com/emails"

// ErrMissingAPIKey means the Resend credential is not configured. The
// operation fails without a network call.
var ErrMissingAPIKey = errors.New("resend API key is not configured")

// ResendSender delivers mail through the Resend transactional email API.
type ResendSender struct {
	apiKey     string
	from       string
	baseURL    string
	httpClient *http.Client
}

// ResendOption configures a ResendSender.
type ResendOption func(*ResendSender)

// WithResendBaseURL overrides the API endpoint.
func WithResendBaseURL(baseURL string) ResendOption {
	return func(s *ResendSender) { s.baseURL = baseURL }
}

// WithResendHTTPClient overrides the underlying HTTP client.
func WithResendHTTPClient(hc *http.Client) ResendOption {
	return func(s *ResendSender) { s.httpClient = hc }
}

// NewResendSender creates a sender for the Resend API.
func NewResendSender(apiKey, from string, opts ...ResendOption) *ResendSender {
	s := &ResendSender{
		apiKey:     apiKey,
		from:       from,
		baseURL:    defaultResendURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type resendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send posts the email to the Resend API.
func (s *ResendSender) Send(ctx context.Context, to, subject, html string) error {
	if s.apiKey == "" {
		return ErrMissingAPIKey
	}

	body, err := json.Marshal(resendPayload{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("encoding email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("email sending failed: %d: %s", resp.StatusCode, string(detail))
	}

	return nil
}
