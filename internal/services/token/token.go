// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

// Package token issues and verifies time-limited, tamper-evident tokens
// carrying an email address, used for email confirmation and password
// reset links.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose binds a token to one use. A confirmation token never verifies
// as a reset token because each purpose signs with its own derived key.
type Purpose string

const (
	PurposeConfirmEmail  Purpose = "confirm-email"
	PurposeResetPassword Purpose = "reset-password"
)

// DefaultMaxAge is the validity horizon for issued tokens.
const DefaultMaxAge = time.Hour

// ErrInvalidToken is returned for every verification failure. Callers
// cannot tell a bad signature from an expired or cross-purpose token.
var ErrInvalidToken = errors.New("invalid or expired token")

type claims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

// Service signs and verifies purpose-salted email tokens.
type Service struct {
	keys   map[Purpose][]byte
	maxAge time.Duration
	now    func() time.Time
}

// NewService derives one signing key per purpose from the secret and the
// purpose salts. A non-positive maxAge falls back to DefaultMaxAge.
func NewService(secret, confirmSalt, resetSalt string, maxAge time.Duration) *Service {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Service{
		keys: map[Purpose][]byte{
			PurposeConfirmEmail:  deriveKey(secret, confirmSalt),
			PurposeResetPassword: deriveKey(secret, resetSalt),
		},
		maxAge: maxAge,
		now:    time.Now,
	}
}

func deriveKey(secret, salt string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(salt))
	return mac.Sum(nil)
}

// Issue returns a URL-safe signed token embedding the email address.
func (s *Service) Issue(email string, purpose Purpose) (string, error) {
	key, ok := s.keys[purpose]
	if !ok {
		return "", fmt.Errorf("unknown token purpose %q", purpose)
	}

	now := s.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.maxAge)),
		},
		Email:   email,
		Purpose: string(purpose),
	})

	return t.SignedString(key)
}

// Verify returns the embedded email address if the token is authentic,
// matches the purpose, and has not expired. It fails closed with
// ErrInvalidToken on every other outcome.
func (s *Service) Verify(tokenString string, purpose Purpose) (string, error) {
	key, ok := s.keys[purpose]
	if !ok {
		return "", ErrInvalidToken
	}

	c := &claims{}
	t, err := jwt.ParseWithClaims(tokenString, c,
		func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !t.Valid || c.Purpose != string(purpose) || c.Email == "" {
		return "", ErrInvalidToken
	}

	return c.Email, nil
}
