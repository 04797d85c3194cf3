// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func newConfig(t *testing.T, args ...string) *Config {
	t.Helper()

	var cfg *Config
	cmd := &cli.Command{
		Flags: Flags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg = NewFromCLI(cmd)
			return nil
		},
	}

	require.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, args...)))
	require.NotNil(t, cfg)
	return cfg
}

func TestNewFromCLI_Defaults(t *testing.T) {
	cfg := newConfig(t)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	assert.Equal(t, "local", cfg.Database.Deployment)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "_session", cfg.Session.CookieName)
	assert.Equal(t, 3600, cfg.Token.MaxAge)
	assert.Equal(t, "resend", cfg.Mail.Provider)
	assert.Equal(t, "onboarding@resend.dev", cfg.Mail.From)
}

func TestNewFromCLI_ExplicitBaseURL(t *testing.T) {
	cfg := newConfig(t, "--base-url", "https://example.com")

	assert.Equal(t, "https://example.com", cfg.Server.BaseURL)
}

func TestActiveDSN(t *testing.T) {
	tests := []struct {
		deployment string
		expected   string
	}{
		{"production", "prod.db"},
		{"local", "local.db"},
		{"anything-else", "local.db"},
	}

	for _, tt := range tests {
		t.Run(tt.deployment, func(t *testing.T) {
			cfg := DatabaseConfig{
				Deployment: tt.deployment,
				DSN:        "prod.db",
				LocalDSN:   "local.db",
			}
			assert.Equal(t, tt.expected, cfg.ActiveDSN())
		})
	}
}

func TestCookieSecure(t *testing.T) {
	secure := newConfig(t, "--base-url", "https://example.com")
	assert.True(t, secure.CookieSecure())

	insecure := newConfig(t, "--base-url", "http://localhost:8080")
	assert.False(t, insecure.CookieSecure())
}
