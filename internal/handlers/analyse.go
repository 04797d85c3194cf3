// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/testlegion/testlegion/internal/services/analyzer"
	"github.com/testlegion/testlegion/internal/session"
)

// AnalyseHandlers serves the synchronous JSON analysis endpoint.
type AnalyseHandlers struct {
	analyzer *analyzer.Service
}

// NewAnalyse creates a new AnalyseHandlers instance.
func NewAnalyse(analyzerService *analyzer.Service) *AnalyseHandlers {
	return &AnalyseHandlers{analyzer: analyzerService}
}

// AnalyseRequest is the JSON body of the analyse endpoint.
type AnalyseRequest struct {
	URL string `json:"url"`
}

// Analyse runs both strategies for the submitted URL and returns the
// merged result. Results are persisted only for signed-in users;
// per-strategy failures are part of the response body, not the status.
func (h *AnalyseHandlers) Analyse(c echo.Context) error {
	var req AnalyseRequest
	if err := c.Bind(&req); err != nil || req.URL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"detail": "url is required"})
	}

	userID := session.FromContext(c).UserID()

	run, err := h.analyzer.Analyze(c.Request().Context(), req.URL, userID)
	if err != nil {
		slog.Error("analysis_store_failed", "url", req.URL, "user_id", userID, "error", err)
	}

	return c.JSON(http.StatusOK, run)
}
