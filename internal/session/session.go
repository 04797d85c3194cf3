// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

// Package session implements the cookie-backed request session. The
// session is an explicit per-request object loaded by middleware and
// written back as a signed cookie; it holds the authenticated user id
// and the pending CSRF token.
package session

import (
	"crypto/sha256"
	"encoding/gob"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"
)

// The gob codec needs the concrete types stored behind the session's
// any values registered before it can encode them.
func init() {
	gob.Register("")
	gob.Register(int64(0))
}

// UserIDKey is the session key holding the authenticated user's id.
const UserIDKey = "user_id"

const contextKey = "session"

// Session is the mutable per-request value bag. Mutations mark it dirty
// so the middleware knows to write the cookie back.
type Session struct {
	values map[string]any
	dirty  bool
}

// Put stores a value in the session.
func (s *Session) Put(key string, value any) {
	s.values[key] = value
	s.dirty = true
}

// Delete removes a key from the session.
func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

// Clear drops every value, ending the session on the next write.
func (s *Session) Clear() {
	s.values = make(map[string]any)
	s.dirty = true
}

// GetString returns a string value or "".
func (s *Session) GetString(key string) string {
	if v, ok := s.values[key].(string); ok {
		return v
	}
	return ""
}

// GetInt64 returns an int64 value or 0.
func (s *Session) GetInt64(key string) int64 {
	if v, ok := s.values[key].(int64); ok {
		return v
	}
	return 0
}

// UserID returns the authenticated user's id, or 0 when anonymous.
func (s *Session) UserID() int64 {
	return s.GetInt64(UserIDKey)
}

// SetUserID records a successful login. The previous session content is
// dropped first so an anonymous session cannot carry state across the
// authentication boundary.
func (s *Session) SetUserID(id int64) {
	s.Clear()
	s.Put(UserIDKey, id)
}

// Manager encodes sessions into tamper-evident cookies.
type Manager struct {
	codec  *securecookie.SecureCookie
	name   string
	maxAge int
	secure bool
}

// NewManager creates a session manager. The secret is stretched to the
// 32-byte HMAC key securecookie expects.
func NewManager(secret, cookieName string, maxAge int, secure bool) *Manager {
	codec := securecookie.New(stretchKey(secret), nil)
	codec.MaxAge(maxAge)

	return &Manager{
		codec:  codec,
		name:   cookieName,
		maxAge: maxAge,
		secure: secure,
	}
}

func stretchKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

// Load decodes the session cookie from the request. A missing, expired
// or tampered cookie yields a fresh empty session.
func (m *Manager) Load(r *http.Request) *Session {
	sess := &Session{values: make(map[string]any)}

	cookie, err := r.Cookie(m.name)
	if err != nil {
		return sess
	}

	values := make(map[string]any)
	if err := m.codec.Decode(m.name, cookie.Value, &values); err != nil {
		return sess
	}

	sess.values = values
	return sess
}

// Cookie encodes the session into its cookie form. An empty session
// produces a deletion cookie.
func (m *Manager) Cookie(sess *Session) (*http.Cookie, error) {
	cookie := &http.Cookie{
		Name:     m.name,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}

	if len(sess.values) == 0 {
		cookie.MaxAge = -1
		return cookie, nil
	}

	encoded, err := m.codec.Encode(m.name, sess.values)
	if err != nil {
		return nil, err
	}

	cookie.Value = encoded
	cookie.MaxAge = m.maxAge
	return cookie, nil
}

// Middleware loads the session before the handler runs and writes the
// cookie back before the first byte of the response when it changed.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := m.Load(c.Request())
			c.Set(contextKey, sess)

			c.Response().Before(func() {
				if !sess.dirty {
					return
				}
				cookie, err := m.Cookie(sess)
				if err != nil {
					c.Logger().Error(err)
					return
				}
				c.SetCookie(cookie)
			})

			return next(c)
		}
	}
}

// FromContext returns the request session installed by Middleware.
func FromContext(c echo.Context) *Session {
	if sess, ok := c.Get(contextKey).(*Session); ok {
		return sess
	}
	return &Session{values: make(map[string]any)}
}
