// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/testlegion/testlegion/internal/config"
	"github.com/testlegion/testlegion/internal/database"
	"github.com/testlegion/testlegion/internal/i18n"
	"github.com/testlegion/testlegion/internal/repository"
	"github.com/testlegion/testlegion/internal/services/analyzer"
	"github.com/testlegion/testlegion/internal/services/auth"
	"github.com/testlegion/testlegion/internal/services/mailer"
	"github.com/testlegion/testlegion/internal/services/pagespeed"
	"github.com/testlegion/testlegion/internal/services/token"
	"github.com/testlegion/testlegion/internal/session"
	"github.com/testlegion/testlegion/internal/tasks"
	"github.com/testlegion/testlegion/internal/view"
	"github.com/urfave/cli/v3"
)

const jobQueueSize = 16

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
		"deployment", cfg.Database.Deployment,
	)

	// Database
	db, err := database.Open(cfg.Database.ActiveDSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	// Repository and services
	repo := repository.New(db)
	tokens := token.NewService(
		cfg.Token.Secret,
		cfg.Token.ConfirmSalt,
		cfg.Token.ResetSalt,
		time.Duration(cfg.Token.MaxAge)*time.Second,
	)
	authService := auth.NewService(repo, tokens)

	sender, err := newSender(cfg)
	if err != nil {
		return fmt.Errorf("failed to configure mail sender: %w", err)
	}
	notifier, err := mailer.NewNotifier(sender, tokens, cfg.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to build mail notifier: %w", err)
	}

	client := pagespeed.NewClient(cfg.PageSpeed.APIKey)
	analyzerService := analyzer.NewService(client, repo)

	// Background runner
	runner := tasks.NewRunner(analyzerService.AnalyzeAll, jobQueueSize)
	defer runner.Close()
	go drainResults(runner)

	// Sessions
	sessions := session.NewManager(
		cfg.Session.Secret,
		cfg.Session.CookieName,
		cfg.Session.MaxAge,
		cfg.CookieSecure(),
	)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	renderer, err := view.New()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	e.Renderer = renderer

	e.HTTPErrorHandler = errorHandler(e)

	setupMiddleware(e, cfg, sessions)
	setupRoutes(e, repo, authService, tokens, notifier, analyzerService, runner)

	return startWithGracefulShutdown(e, cfg)
}

// errorHandler renders browser errors as an HTML page; API paths keep
// Echo's default JSON shape.
func errorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		path := c.Request().URL.Path
		if path == "/analyse" || strings.HasPrefix(path, "/api/") {
			e.DefaultHTTPErrorHandler(err, c)
			return
		}

		code := http.StatusInternalServerError
		message := http.StatusText(code)
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			code = httpErr.Code
			if msg, ok := httpErr.Message.(string); ok {
				message = msg
			}
		}
		if code >= 500 {
			slog.Error("request failed", "path", path, "error", err)
			message = http.StatusText(code)
		}

		if c.Response().Committed {
			return
		}
		if renderErr := c.Render(code, "error.html", echo.Map{
			"Code":    code,
			"Title":   http.StatusText(code),
			"Message": message,
		}); renderErr != nil {
			e.DefaultHTTPErrorHandler(err, c)
		}
	}
}

// newSender picks the configured mail transport.
func newSender(cfg *config.Config) (mailer.Sender, error) {
	switch cfg.Mail.Provider {
	case "smtp":
		return mailer.NewSMTPSender(&cfg.Mail)
	case "resend", "":
		return mailer.NewResendSender(cfg.Mail.ResendAPIKey, cfg.Mail.From), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Mail.Provider)
	}
}

// drainResults logs the outcome of every background analysis so failed
// jobs surface in the logs.
func drainResults(runner *tasks.Runner) {
	for result := range runner.Results() {
		if result.Err != nil {
			slog.Error("background analysis failed",
				"job_id", result.Job.ID,
				"url", result.Job.URL,
				"user_id", result.Job.UserID,
				"error", result.Err,
			)
			continue
		}
		slog.Info("background analysis finished",
			"job_id", result.Job.ID,
			"url", result.Job.URL,
			"user_id", result.Job.UserID,
		)
	}
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
