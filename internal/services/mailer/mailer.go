// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

// Package mailer renders and sends transactional emails for account
// lifecycle events. Delivery is delegated to a Sender; failures surface
// to the caller and are never retried here.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/testlegion/testlegion/internal/i18n"
	"github.com/testlegion/testlegion/internal/services/token"
)

//go:embed templates/*.html
var templateFS embed.FS

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Notifier composes account lifecycle emails. Confirmation and reset
// mails embed a callback URL carrying a signed token.
type Notifier struct {
	sender    Sender
	tokens    *token.Service
	baseURL   string
	templates *template.Template
}

// NewNotifier creates a Notifier with the embedded email templates.
func NewNotifier(sender Sender, tokens *token.Service, baseURL string) (*Notifier, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing email templates: %w", err)
	}

	return &Notifier{
		sender:    sender,
		tokens:    tokens,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		templates: templates,
	}, nil
}

// SendConfirmation sends the email verification link.
func (n *Notifier) SendConfirmation(ctx context.Context, email string) error {
	signed, err := n.tokens.Issue(email, token.PurposeConfirmEmail)
	if err != nil {
		return fmt.Errorf("issuing confirmation token: %w", err)
	}

	confirmURL := fmt.Sprintf("%s/confirm-email?token=%s", n.baseURL, url.QueryEscape(signed))
	html, err := n.render("confirmation.html", map[string]any{
		"UserEmail":  email,
		"ConfirmURL": confirmURL,
	})
	if err != nil {
		return err
	}

	return n.sender.Send(ctx, email, i18n.T(ctx, "email_confirmation_subject"), html)
}

// SendWelcome sends the post-confirmation welcome email.
func (n *Notifier) SendWelcome(ctx context.Context, email string) error {
	html, err := n.render("welcome.html", map[string]any{
		"UserEmail": email,
	})
	if err != nil {
		return err
	}

	return n.sender.Send(ctx, email, i18n.T(ctx, "email_welcome_subject"), html)
}

// SendPasswordReset sends the password reset link.
func (n *Notifier) SendPasswordReset(ctx context.Context, email string) error {
	signed, err := n.tokens.Issue(email, token.PurposeResetPassword)
	if err != nil {
		return fmt.Errorf("issuing reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", n.baseURL, url.QueryEscape(signed))
	html, err := n.render("password_reset.html", map[string]any{
		"UserEmail": email,
		"ResetURL":  resetURL,
	})
	if err != nil {
		return err
	}

	return n.sender.Send(ctx, email, i18n.T(ctx, "email_password_reset_subject"), html)
}

func (n *Notifier) render(name string, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := n.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering email template %s: %w", name, err)
	}
	return buf.String(), nil
}
