// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

package server

import (
	"github.com/labstack/echo/v4"
	"github.com/testlegion/testlegion/internal/handlers"
	"github.com/testlegion/testlegion/internal/repository"
	"github.com/testlegion/testlegion/internal/services/analyzer"
	"github.com/testlegion/testlegion/internal/services/auth"
	"github.com/testlegion/testlegion/internal/services/mailer"
	"github.com/testlegion/testlegion/internal/services/token"
	"github.com/testlegion/testlegion/internal/tasks"
)

func setupRoutes(
	e *echo.Echo,
	repo *repository.Repository,
	authService *auth.Service,
	tokens *token.Service,
	notifier *mailer.Notifier,
	analyzerService *analyzer.Service,
	runner *tasks.Runner,
) {
	h := handlers.New()
	authHandlers := handlers.NewAuth(authService, repo, tokens, notifier)
	adminHandlers := handlers.NewAdmin(repo, runner)
	analyseHandlers := handlers.NewAnalyse(analyzerService)

	// Public pages
	e.GET("/health", h.Health)
	e.GET("/", h.Home)
	e.GET("/about", h.About)
	e.GET("/privacy-policy", h.PrivacyPolicy)
	e.GET("/terms-and-conditions", h.TermsAndConditions)

	// Analysis API
	e.POST("/analyse", analyseHandlers.Analyse)

	// Account lifecycle
	e.GET("/signup", authHandlers.SignupPage)
	e.POST("/signup", authHandlers.Signup)
	e.POST("/api/signup", authHandlers.SignupAPI)
	e.GET("/login", authHandlers.LoginPage)
	e.POST("/login", authHandlers.Login)
	e.GET("/confirm-email", authHandlers.ConfirmEmail)
	e.GET("/forgot-password", authHandlers.ForgotPasswordPage)
	e.POST("/forgot-password", authHandlers.ForgotPassword)
	e.GET("/reset-password", authHandlers.ResetPasswordPage)
	e.POST("/reset-password", authHandlers.ResetPassword)

	// Authenticated dashboard
	admin := e.Group("/admin", handlers.RequireUser(repo))
	admin.GET("/dashboard", adminHandlers.Dashboard)
	admin.GET("/history", adminHandlers.History)
	admin.GET("/analyses", adminHandlers.Analyses)
	admin.POST("/reanalyse", adminHandlers.Reanalyse)
	admin.POST("/logout", authHandlers.Logout)
}
