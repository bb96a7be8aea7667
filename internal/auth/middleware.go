package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// RequireAuth is echo middleware that validates the Authorization bearer
// token and stores the authenticated user in the request context.
func RequireAuth(secretKey []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "no auth method")
			}
			userToken := strings.TrimPrefix(header, "Bearer ")
			user, err := ParseToken(secretKey, userToken)
			if err != nil {
				log.Debug().Err(err).Msg("token-rejected")
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}
			ctx := StoreUserInContext(c.Request().Context(), user.DBID, user.Username, user.Admin)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RequireAdmin rejects requests whose authenticated user is not an
// administrator. It must run after RequireAuth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := UserFromContext(c.Request().Context())
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
			}
			if !user.Admin {
				return echo.NewHTTPError(http.StatusForbidden, "administrator access required")
			}
			return next(c)
		}
	}
}
