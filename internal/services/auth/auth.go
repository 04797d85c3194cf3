// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

// Package auth orchestrates account lifecycle: signup, login, email
// confirmation and password reset.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"

	"github.com/testlegion/testlegion/internal/models"
	"github.com/testlegion/testlegion/internal/repository"
	"github.com/testlegion/testlegion/internal/services/password"
	"github.com/testlegion/testlegion/internal/services/token"
)

var (
	ErrUserExists         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotVerified    = errors.New("email address not confirmed")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidEmail       = errors.New("invalid email format")
)

// dummyDigest keeps login timing independent of whether the email exists.
var dummyDigest, _ = password.Hash("dummy-password-for-timing")

type Service struct {
	repo   *repository.Repository
	tokens *token.Service
}

func NewService(repo *repository.Repository, tokens *token.Service) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Register creates a new unverified user account. The plaintext password
// is hashed before it ever reaches the store.
func (s *Service) Register(ctx context.Context, email, plaintext string) (*models.User, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	digest, err := password.Hash(plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Email: email, HashedPassword: digest}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("register_success", "user_id", user.ID, "email", email)
	return user, nil
}

// Login verifies credentials and the verification gate. A correct
// password on an unconfirmed account yields ErrUserNotVerified, which is
// a state gate distinct from a credential failure.
func (s *Service) Login(ctx context.Context, email, plaintext string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Always burn a bcrypt comparison so response timing does
			// not reveal whether the account exists.
			_ = password.Verify(plaintext, dummyDigest)
			slog.Warn("login_failed", "email", email, "reason", "user_not_found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !password.Verify(plaintext, user.HashedPassword) {
		slog.Warn("login_failed", "email", email, "reason", "invalid_password")
		return nil, ErrInvalidCredentials
	}

	if !user.IsVerified {
		slog.Warn("login_failed", "email", email, "reason", "not_verified")
		return nil, ErrUserNotVerified
	}

	slog.Info("login_success", "user_id", user.ID, "email", email)
	return user, nil
}

// ConfirmEmail verifies a confirmation token and flips the user's
// verification flag.
func (s *Service) ConfirmEmail(ctx context.Context, tokenString string) (*models.User, error) {
	email, err := s.tokens.Verify(tokenString, token.PurposeConfirmEmail)
	if err != nil {
		return nil, token.ErrInvalidToken
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.repo.SetUserVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to set verified: %w", err)
	}
	user.IsVerified = true

	slog.Info("email_confirmed", "user_id", user.ID, "email", email)
	return user, nil
}

// ResetPassword verifies a reset token and replaces the user's password.
func (s *Service) ResetPassword(ctx context.Context, tokenString, newPlaintext string) (*models.User, error) {
	email, err := s.tokens.Verify(tokenString, token.PurposeResetPassword)
	if err != nil {
		return nil, token.ErrInvalidToken
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	digest, err := password.Hash(newPlaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdateUserPassword(ctx, user.ID, digest); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password_reset", "user_id", user.ID, "email", email)
	return user, nil
}
