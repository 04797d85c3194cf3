// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/testlegion/testlegion/internal/csrf"
	"github.com/testlegion/testlegion/internal/i18n"
	"github.com/testlegion/testlegion/internal/repository"
	"github.com/testlegion/testlegion/internal/services/auth"
	"github.com/testlegion/testlegion/internal/services/mailer"
	"github.com/testlegion/testlegion/internal/services/token"
	"github.com/testlegion/testlegion/internal/session"
)

// AuthHandlers contains handlers for the account lifecycle: signup,
// login, logout, email confirmation and password reset.
type AuthHandlers struct {
	auth     *auth.Service
	repo     *repository.Repository
	tokens   *token.Service
	notifier *mailer.Notifier
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(authService *auth.Service, repo *repository.Repository, tokens *token.Service, notifier *mailer.Notifier) *AuthHandlers {
	return &AuthHandlers{
		auth:     authService,
		repo:     repo,
		tokens:   tokens,
		notifier: notifier,
	}
}

// renderForm issues a fresh CSRF token and renders a form page.
func renderForm(c echo.Context, status int, name string, data echo.Map) error {
	sess := session.FromContext(c)
	csrfToken, err := csrf.Issue(sess)
	if err != nil {
		return err
	}
	if data == nil {
		data = echo.Map{}
	}
	data["CSRFToken"] = csrfToken
	return c.Render(status, name, data)
}

// validateCSRF consumes the submitted form token or fails with 403.
func validateCSRF(c echo.Context) error {
	sess := session.FromContext(c)
	if err := csrf.Validate(sess, c.FormValue("csrf_token")); err != nil {
		slog.Warn("csrf_failure", "path", c.Path(), "method", c.Request().Method)
		return echo.NewHTTPError(http.StatusForbidden, i18n.T(c.Request().Context(), "error_csrf"))
	}
	return nil
}

// SignupPage renders the signup form.
func (h *AuthHandlers) SignupPage(c echo.Context) error {
	return renderForm(c, http.StatusOK, "signup.html", echo.Map{})
}

// Signup handles the signup form submission.
func (h *AuthHandlers) Signup(c echo.Context) error {
	if err := validateCSRF(c); err != nil {
		return err
	}

	ctx := c.Request().Context()
	email := c.FormValue("email")

	user, err := h.auth.Register(ctx, email, c.FormValue("password"))
	switch {
	case errors.Is(err, auth.ErrUserExists):
		return renderForm(c, http.StatusOK, "signup.html", echo.Map{
			"Error": i18n.T(ctx, "error_email_registered"),
		})
	case errors.Is(err, auth.ErrInvalidEmail):
		return renderForm(c, http.StatusOK, "signup.html", echo.Map{
			"Error": err.Error(),
		})
	case err != nil:
		return err
	}

	if err := h.notifier.SendConfirmation(ctx, user.Email); err != nil {
		return fmt.Errorf("sending confirmation email: %w", err)
	}

	return c.Redirect(http.StatusSeeOther, "/login?signup=success")
}

// SignupAPIRequest is the JSON body of the signup API.
type SignupAPIRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupAPI is the JSON signup endpoint for API clients.
func (h *AuthHandlers) SignupAPI(c echo.Context) error {
	var req SignupAPIRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"detail": "invalid request"})
	}

	ctx := c.Request().Context()
	user, err := h.auth.Register(ctx, req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrUserExists):
		return c.JSON(http.StatusBadRequest, map[string]string{"detail": i18n.T(ctx, "error_email_registered")})
	case errors.Is(err, auth.ErrInvalidEmail):
		return c.JSON(http.StatusBadRequest, map[string]string{"detail": err.Error()})
	case err != nil:
		return err
	}

	if err := h.notifier.SendConfirmation(ctx, user.Email); err != nil {
		return fmt.Errorf("sending confirmation email: %w", err)
	}

	return c.JSON(http.StatusCreated, map[string]string{"email": user.Email})
}

// LoginPage renders the login form, with flash messages for the various
// redirect flows that land here.
func (h *AuthHandlers) LoginPage(c echo.Context) error {
	ctx := c.Request().Context()
	data := echo.Map{}

	switch {
	case c.QueryParam("signup") == "success":
		data["Flash"] = i18n.T(ctx, "flash_signup_success")
	case c.QueryParam("confirmed") == "1":
		data["Flash"] = i18n.T(ctx, "flash_email_confirmed")
	case c.QueryParam("reset") == "sent":
		data["Flash"] = i18n.T(ctx, "flash_reset_sent")
	case c.QueryParam("reset") == "success":
		data["Flash"] = i18n.T(ctx, "flash_password_updated")
	case c.QueryParam("confirm") == "invalid":
		data["Error"] = i18n.T(ctx, "error_invalid_token")
	}

	return renderForm(c, http.StatusOK, "login.html", data)
}

// Login authenticates the user and starts a session.
func (h *AuthHandlers) Login(c echo.Context) error {
	if err := validateCSRF(c); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.auth.Login(ctx, c.FormValue("email"), c.FormValue("password"))
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return renderForm(c, http.StatusOK, "login.html", echo.Map{
			"Error": i18n.T(ctx, "error_invalid_credentials"),
		})
	case errors.Is(err, auth.ErrUserNotVerified):
		return renderForm(c, http.StatusOK, "login.html", echo.Map{
			"Error": i18n.T(ctx, "error_not_verified"),
		})
	case err != nil:
		return err
	}

	session.FromContext(c).SetUserID(user.ID)
	return c.Redirect(http.StatusSeeOther, "/admin/dashboard")
}

// Logout clears the whole session.
func (h *AuthHandlers) Logout(c echo.Context) error {
	if err := validateCSRF(c); err != nil {
		return err
	}

	session.FromContext(c).Clear()
	return c.Redirect(http.StatusSeeOther, "/login")
}

// ForgotPasswordPage renders the forgot-password form.
func (h *AuthHandlers) ForgotPasswordPage(c echo.Context) error {
	ctx := c.Request().Context()
	data := echo.Map{}

	switch {
	case c.QueryParam("unknown") == "1":
		data["Error"] = i18n.T(ctx, "flash_unknown_email")
	case c.QueryParam("invalid") == "1":
		data["Error"] = i18n.T(ctx, "error_invalid_token")
	}

	return renderForm(c, http.StatusOK, "forgot_password.html", data)
}

// ForgotPassword sends a password reset email. An unknown email address
// redirects with a message flag instead of erroring.
func (h *AuthHandlers) ForgotPassword(c echo.Context) error {
	if err := validateCSRF(c); err != nil {
		return err
	}

	ctx := c.Request().Context()
	email := c.FormValue("email")

	user, err := h.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.Redirect(http.StatusSeeOther, "/forgot-password?unknown=1")
		}
		return err
	}

	if err := h.notifier.SendPasswordReset(ctx, user.Email); err != nil {
		return fmt.Errorf("sending password reset email: %w", err)
	}

	return c.Redirect(http.StatusSeeOther, "/login?reset=sent")
}

// ResetPasswordPage verifies the token from the reset link and renders
// the new-password form.
func (h *AuthHandlers) ResetPasswordPage(c echo.Context) error {
	resetToken := c.QueryParam("token")
	if _, err := h.tokens.Verify(resetToken, token.PurposeResetPassword); err != nil {
		return c.Redirect(http.StatusSeeOther, "/forgot-password?invalid=1")
	}

	return renderForm(c, http.StatusOK, "reset_password.html", echo.Map{
		"Token": resetToken,
	})
}

// ResetPassword sets the new password if the token still verifies.
func (h *AuthHandlers) ResetPassword(c echo.Context) error {
	if err := validateCSRF(c); err != nil {
		return err
	}

	ctx := c.Request().Context()
	_, err := h.auth.ResetPassword(ctx, c.FormValue("token"), c.FormValue("password"))
	switch {
	case errors.Is(err, token.ErrInvalidToken), errors.Is(err, auth.ErrUserNotFound):
		return c.Redirect(http.StatusSeeOther, "/forgot-password?invalid=1")
	case err != nil:
		return err
	}

	return c.Redirect(http.StatusSeeOther, "/login?reset=success")
}

// ConfirmEmail verifies the token from the confirmation link and flips
// the user's verification flag.
func (h *AuthHandlers) ConfirmEmail(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.auth.ConfirmEmail(ctx, c.QueryParam("token"))
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/login?confirm=invalid")
	}

	// The account is already confirmed at this point, so a failed
	// welcome mail must not fail the request.
	if err := h.notifier.SendWelcome(ctx, user.Email); err != nil {
		slog.Warn("welcome_email_failed", "email", user.Email, "error", err)
	}

	return c.Redirect(http.StatusSeeOther, "/login?confirmed=1")
}
