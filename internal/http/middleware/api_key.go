package middleware

import (
	"net/http"
	"strings"

	"github.com/hookgw/hookgw/internal/repository"
	echo "github.com/labstack/echo/v4"
)

// UserIDFromCtx extracts the authenticated user id set by APIKeyMiddleware.
func UserIDFromCtx(c echo.Context) (string, bool) {
	v := c.Get("user_id")
	id, ok := v.(string)
	return id, ok && id != ""
}

// APIKeyMiddleware authenticates /v1 requests using the X-API-Key header.
// On success it stores the owning user id in context.
func APIKeyMiddleware(profiles repository.ProfilesRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := strings.TrimSpace(c.Request().Header.Get("X-API-Key"))
			if key == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing api key"})
			}
			p, err := profiles.GetByAPIKey(c.Request().Context(), key)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "auth error"})
			}
			if p == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
			}
			c.Set("user_id", p.ID)
			return next(c)
		}
	}
}
