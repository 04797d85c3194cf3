// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/testlegion/testlegion/internal/models"
	"github.com/testlegion/testlegion/internal/repository"
	"github.com/testlegion/testlegion/internal/session"
)

const userContextKey = "current_user"

// RequireUser guards the admin area. Requests without a resolvable
// authenticated user are redirected to the login page.
func RequireUser(repo *repository.Repository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := session.FromContext(c)

			userID := sess.UserID()
			if userID == 0 {
				return c.Redirect(http.StatusSeeOther, "/login")
			}

			user, err := repo.GetUserByID(c.Request().Context(), userID)
			if err != nil {
				// Stale session pointing at a vanished user
				sess.Clear()
				return c.Redirect(http.StatusSeeOther, "/login")
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the user resolved by RequireUser.
func CurrentUser(c echo.Context) *models.User {
	if user, ok := c.Get(userContextKey).(*models.User); ok {
		return user
	}
	return nil
}
