// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

// Package handlers contains all HTTP handlers.
package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers contains the public page handlers.
type Handlers struct{}

// New creates a new Handlers instance.
func New() *Handlers {
	return &Handlers{}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Home renders the start page.
func (h *Handlers) Home(c echo.Context) error {
	return c.Render(http.StatusOK, "index.html", echo.Map{})
}

// About renders the about page.
func (h *Handlers) About(c echo.Context) error {
	return c.Render(http.StatusOK, "about.html", echo.Map{})
}

// PrivacyPolicy renders the privacy policy page.
func (h *Handlers) PrivacyPolicy(c echo.Context) error {
	return c.Render(http.StatusOK, "privacy_policy.html", echo.Map{})
}

// TermsAndConditions renders the terms page.
func (h *Handlers) TermsAndConditions(c echo.Context) error {
	return c.Render(http.StatusOK, "terms_and_conditions.html", echo.Map{})
}
