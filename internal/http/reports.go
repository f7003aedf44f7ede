package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/hookgw/hookgw/internal/http/middleware"
	"github.com/hookgw/hookgw/internal/repository"
	echo "github.com/labstack/echo/v4"
)

func listRequestsHandler(chRepo repository.CHRequestsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := middleware.UserIDFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		endpointID := strings.TrimSpace(c.QueryParam("endpoint_id"))
		method := strings.ToUpper(strings.TrimSpace(c.QueryParam("method")))

		reqs, err := chRepo.ListByOwner(c.Request().Context(), userID, endpointID, method, limit, offset)
		if err != nil {
			c.Logger().Errorf("clickhouse list failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(reqs),
			"results": reqs,
		})
	}
}
