package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// userIDKey is the echo context key under which the authenticated account ID
// is stored.
const userIDKey = "user_id"

// UserIDFromEchoContext returns the authenticated account ID, or "".
func UserIDFromEchoContext(c echo.Context) string {
	uid, _ := c.Get(userIDKey).(string)
	return uid
}

// Skipper reports whether a request path bypasses authentication.
func Skipper(c echo.Context) bool {
	path := c.Request().URL.Path
	switch {
	case path == "/health", path == "/health/db":
		return true
	case strings.HasPrefix(path, "/api/v1/auth/"):
		return true
	}
	return false
}

// JWTMiddleware validates the Bearer access token on every request except the
// skipped paths and stores the account ID in the context.
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if Skipper(c) {
				return next(c)
			}

			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "malformed authorization header")
			}

			claims, err := ParseAccessToken(raw, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(userIDKey, claims.UserID)
			return next(c)
		}
	}
}

// DevAuthMiddleware bypasses authentication entirely. Only wired when
// ENV=development.
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(userIDKey, "dev-doctor")
			return next(c)
		}
	}
}
