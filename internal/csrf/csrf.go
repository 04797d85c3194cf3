// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

// Package csrf guards state-changing form submissions with a per-session
// single-use token.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/testlegion/testlegion/internal/session"
)

// SessionKey is the session key the pending token is stored under.
const SessionKey = "csrf_token"

const tokenLength = 32 // random bytes, 256 bits of entropy

// ErrForbidden is returned for a missing or mismatched token. The caller
// learns nothing about which check failed.
var ErrForbidden = errors.New("csrf token missing or invalid")

// Issue generates a fresh random token, stores it in the session and
// returns it for embedding in the next rendered form.
func Issue(sess *session.Session) (string, error) {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating csrf token: %w", err)
	}

	token := base64.RawURLEncoding.EncodeToString(buf)
	sess.Put(SessionKey, token)
	return token, nil
}

// Validate checks a submitted token against the session token and
// consumes it. A replayed form submission with the same token fails
// because the session copy is deleted on success.
func Validate(sess *session.Session, submitted string) error {
	stored := sess.GetString(SessionKey)
	if submitted == "" || stored == "" {
		return ErrForbidden
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) != 1 {
		return ErrForbidden
	}

	sess.Delete(SessionKey)
	return nil
}
