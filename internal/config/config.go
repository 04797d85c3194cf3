// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

package config

import (
	"fmt"
	"strings"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	Session   SessionConfig
	Token     TokenConfig
	PageSpeed PageSpeedConfig
	Mail      MailConfig
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int // in MB
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

// DatabaseConfig holds both deployment variants; the deployment flag
// selects which DSN is active.
type DatabaseConfig struct {
	Deployment string // production, local
	DSN        string
	LocalDSN   string
}

// ActiveDSN returns the DSN selected by the deployment flag.
func (c *DatabaseConfig) ActiveDSN() string {
	if strings.EqualFold(c.Deployment, "production") {
		return c.DSN
	}
	return c.LocalDSN
}

type SessionConfig struct { //nolint:govet // fieldalignment not critical
	CookieName string
	MaxAge     int // seconds
	Secret     string
}

// TokenConfig configures the signed token service. The two salts keep
// confirmation and reset tokens from being replayed across purposes.
type TokenConfig struct { //nolint:govet // fieldalignment not critical
	Secret      string
	ConfirmSalt string
	ResetSalt   string
	MaxAge      int // seconds
}

type PageSpeedConfig struct {
	APIKey string
}

type MailConfig struct { //nolint:govet // fieldalignment not critical
	Provider     string // resend, smtp
	ResendAPIKey string
	From         string
	FromName     string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPTLS      bool
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			Deployment: cmd.String("deployment"),
			DSN:        cmd.String("database-dsn"),
			LocalDSN:   cmd.String("local-database-dsn"),
		},
		Session: SessionConfig{
			CookieName: cmd.String("session-cookie-name"),
			MaxAge:     int(cmd.Int("session-max-age")),
			Secret:     cmd.String("session-secret"),
		},
		Token: TokenConfig{
			Secret:      cmd.String("token-secret"),
			ConfirmSalt: cmd.String("token-confirm-salt"),
			ResetSalt:   cmd.String("token-reset-salt"),
			MaxAge:      int(cmd.Int("token-max-age")),
		},
		PageSpeed: PageSpeedConfig{
			APIKey: cmd.String("pagespeed-api-key"),
		},
		Mail: MailConfig{
			Provider:     cmd.String("mail-provider"),
			ResendAPIKey: cmd.String("resend-api-key"),
			From:         cmd.String("mail-from"),
			FromName:     cmd.String("mail-from-name"),
			SMTPHost:     cmd.String("smtp-host"),
			SMTPPort:     int(cmd.Int("smtp-port")),
			SMTPUsername: cmd.String("smtp-username"),
			SMTPPassword: cmd.String("smtp-password"),
			SMTPTLS:      cmd.Bool("smtp-tls"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}

	return cfg
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	port := cfg.Server.Port

	// Hide the default port in the URL
	if port == 80 {
		return fmt.Sprintf("http://%s", host)
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}

// CookieSecure reports whether session cookies should be HTTPS-only.
func (c *Config) CookieSecure() bool {
	return strings.HasPrefix(c.Server.BaseURL, "https://")
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: cli.NewValueSourceChain(cli.EnvVar("HOST"), toml.TOML("server.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PORT"), toml.TOML("server.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Base URL for callback links",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BASE_URL"), toml.TOML("server.base_url", configFile)),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   1,
			Usage:   "Maximum request body size in MB",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAX_BODY_SIZE"), toml.TOML("server.max_body_size", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_LEVEL"), toml.TOML("log.level", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_FORMAT"), toml.TOML("log.format", configFile)),
		},
		&cli.StringFlag{
			Name:    "deployment",
			Value:   "local",
			Usage:   "Deployment environment (production, local)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DEPLOYMENT"), toml.TOML("database.deployment", configFile)),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/testlegion.db",
			Usage:   "Production database DSN",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_DSN"), toml.TOML("database.dsn", configFile)),
		},
		&cli.StringFlag{
			Name:    "local-database-dsn",
			Value:   "./data/testlegion-local.db",
			Usage:   "Local database DSN",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOCAL_DATABASE_DSN"), toml.TOML("database.local_dsn", configFile)),
		},
		&cli.StringFlag{
			Name:    "session-cookie-name",
			Value:   "_session",
			Usage:   "Session cookie name",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_COOKIE_NAME"), toml.TOML("session.cookie_name", configFile)),
		},
		&cli.IntFlag{
			Name:    "session-max-age",
			Value:   604800, // 7 days in seconds
			Usage:   "Session max age in seconds",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_MAX_AGE"), toml.TOML("session.max_age", configFile)),
		},
		&cli.StringFlag{
			Name:    "session-secret",
			Usage:   "Secret key for signing session cookies",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_SECRET"), toml.TOML("session.secret", configFile)),
		},
		&cli.StringFlag{
			Name:    "token-secret",
			Usage:   "Secret key for signing email tokens",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TOKEN_SECRET"), toml.TOML("token.secret", configFile)),
		},
		&cli.StringFlag{
			Name:    "token-confirm-salt",
			Value:   "email-confirmation-salt",
			Usage:   "Salt for email confirmation tokens",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TOKEN_CONFIRM_SALT"), toml.TOML("token.confirm_salt", configFile)),
		},
		&cli.StringFlag{
			Name:    "token-reset-salt",
			Value:   "password-reset-salt",
			Usage:   "Salt for password reset tokens",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TOKEN_RESET_SALT"), toml.TOML("token.reset_salt", configFile)),
		},
		&cli.IntFlag{
			Name:    "token-max-age",
			Value:   3600,
			Usage:   "Email token validity in seconds",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TOKEN_MAX_AGE"), toml.TOML("token.max_age", configFile)),
		},
		&cli.StringFlag{
			Name:    "pagespeed-api-key",
			Usage:   "Google PageSpeed Insights API key",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PAGESPEED_API_KEY"), toml.TOML("pagespeed.api_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "mail-provider",
			Value:   "resend",
			Usage:   "Mail provider (resend, smtp)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAIL_PROVIDER"), toml.TOML("mail.provider", configFile)),
		},
		&cli.StringFlag{
			Name:    "resend-api-key",
			Usage:   "Resend API key",
			Sources: cli.NewValueSourceChain(cli.EnvVar("RESEND_API_KEY"), toml.TOML("mail.resend_api_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "mail-from",
			Value:   "onboarding@resend.dev",
			Usage:   "From address for outgoing mail",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAIL_FROM"), toml.TOML("mail.from", configFile)),
		},
		&cli.StringFlag{
			Name:    "mail-from-name",
			Usage:   "Display name for outgoing mail",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAIL_FROM_NAME"), toml.TOML("mail.from_name", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP host (smtp provider)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_HOST"), toml.TOML("mail.smtp_host", configFile)),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP port (smtp provider)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PORT"), toml.TOML("mail.smtp_port", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username (smtp provider)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_USERNAME"), toml.TOML("mail.smtp_username", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password (smtp provider)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PASSWORD"), toml.TOML("mail.smtp_password", configFile)),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP (smtp provider)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_TLS"), toml.TOML("mail.smtp_tls", configFile)),
		},
	}
}
