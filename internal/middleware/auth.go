package middleware

import (
	"net/http"
	"strings"

	"github.com/KobaKhit/rebelzapp/internal/models"
	"github.com/KobaKhit/rebelzapp/internal/repository"
	"github.com/KobaKhit/rebelzapp/pkg/token"
	"github.com/labstack/echo/v4"
)

const userContextKey = "current_user"

// Auth resolves the bearer token to an active user and stores it in the
// request context. Requests without a valid token are rejected with 401.
func Auth(tokens *token.Manager, users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := extractToken(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			userID, err := tokens.Verify(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			user, err := users.FindByID(c.Request().Context(), userID)
			if err != nil || !user.IsActive {
				return echo.NewHTTPError(http.StatusUnauthorized, "user not found or inactive")
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// RequirePermission gates a route on a named capability; it must run after
// Auth.
func RequirePermission(users repository.UserRepository, permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			ok, err := users.HasPermission(c.Request().Context(), user.ID, permission)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "missing permission: "+permission)
			}
			return next(c)
		}
	}
}

func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(userContextKey).(*models.User)
	return user
}

// SetCurrentUser is exported for handler tests.
func SetCurrentUser(c echo.Context, user *models.User) {
	c.Set(userContextKey, user)
}

func extractToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1], nil
		}
		return "", echo.NewHTTPError(http.StatusUnauthorized, "malformed authorization header")
	}

	// websocket clients pass the credential as a query parameter
	if t := c.QueryParam("token"); t != "" {
		return t, nil
	}
	return "", echo.NewHTTPError(http.StatusUnauthorized, "missing credentials")
}
