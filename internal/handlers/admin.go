// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/testlegion/testlegion/internal/i18n"
	"github.com/testlegion/testlegion/internal/models"
	"github.com/testlegion/testlegion/internal/repository"
	"github.com/testlegion/testlegion/internal/tasks"
)

const recentAnalysesLimit = 10

// AdminHandlers serves the authenticated dashboard pages.
type AdminHandlers struct {
	repo   *repository.Repository
	runner *tasks.Runner
}

// NewAdmin creates a new AdminHandlers instance.
func NewAdmin(repo *repository.Repository, runner *tasks.Runner) *AdminHandlers {
	return &AdminHandlers{repo: repo, runner: runner}
}

// Dashboard shows the latest desktop and mobile scores, the latest
// improvement audits and the most recent analyses.
func (h *AdminHandlers) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	user := CurrentUser(c)

	data := echo.Map{}
	if c.QueryParam("queued") == "1" {
		data["Flash"] = i18n.T(ctx, "flash_analysis_queued")
	}

	desktop, err := h.latest(c, user.ID, models.StrategyDesktop)
	if err != nil {
		return err
	}
	mobile, err := h.latest(c, user.ID, models.StrategyMobile)
	if err != nil {
		return err
	}
	data["Desktop"] = desktop
	data["Mobile"] = mobile

	if desktop != nil {
		audits, err := h.repo.ListAuditsByAnalysis(ctx, desktop.ID)
		if err != nil {
			return err
		}
		data["Audits"] = audits
		data["URL"] = desktop.URL
	}

	recent, err := h.repo.ListRecentAnalyses(ctx, user.ID, recentAnalysesLimit)
	if err != nil {
		return err
	}
	data["Analyses"] = recent

	return renderForm(c, http.StatusOK, "dashboard.html", data)
}

func (h *AdminHandlers) latest(c echo.Context, userID int64, strategy string) (*models.Analysis, error) {
	analysis, err := h.repo.LatestAnalysisByStrategy(c.Request().Context(), userID, strategy)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return analysis, err
}

// History lists every analysis of the user, newest first.
func (h *AdminHandlers) History(c echo.Context) error {
	user := CurrentUser(c)

	analyses, err := h.repo.ListAnalyses(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "history.html", echo.Map{"Analyses": analyses})
}

// Analyses lists the user's analyses as a plain table.
func (h *AdminHandlers) Analyses(c echo.Context) error {
	user := CurrentUser(c)

	analyses, err := h.repo.ListAnalyses(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "analyses.html", echo.Map{"Analyses": analyses})
}

// Reanalyse queues a background analysis for the submitted URL and
// redirects back to the dashboard.
func (h *AdminHandlers) Reanalyse(c echo.Context) error {
	if err := validateCSRF(c); err != nil {
		return err
	}

	url := c.FormValue("url")
	if url == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url is required")
	}

	user := CurrentUser(c)
	if _, err := h.runner.Enqueue(url, user.ID); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	return c.Redirect(http.StatusSeeOther, "/admin/dashboard?queued=1")
}
