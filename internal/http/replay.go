package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hookgw/hookgw/internal/http/middleware"
	"github.com/hookgw/hookgw/internal/metrics"
	"github.com/hookgw/hookgw/internal/replay"
	"github.com/hookgw/hookgw/internal/repository"
	"github.com/hookgw/hookgw/internal/ssrf"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type replayReq struct {
	URL string `json:"url"`
}

// replayHandler re-delivers a captured request to a caller-chosen target.
// The target URL is SSRF-validated before any outbound dial.
func replayHandler(
	requests repository.RequestsRepository,
	endpoints repository.EndpointsRepository,
	client *replay.Client,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := middleware.UserIDFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		var req replayReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}
		req.URL = strings.TrimSpace(req.URL)
		if req.URL == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "url is required"})
		}

		ctx := c.Request().Context()

		captured, err := requests.GetByID(ctx, c.Param("id"))
		if err != nil {
			log.Errorf("request lookup failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		if captured == nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
		}

		// ownership check through the endpoint record
		endpoint, err := endpoints.GetByID(ctx, captured.EndpointID)
		if err != nil {
			log.Errorf("endpoint lookup failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		if endpoint == nil || endpoint.UserID != userID {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
		}

		status, err := client.Deliver(ctx, req.URL, captured)
		switch {
		case err == nil:
			metrics.ReplaysTotal.WithLabelValues("delivered").Inc()
			return c.JSON(http.StatusOK, map[string]any{
				"delivered":     true,
				"target_status": status,
			})
		case errors.Is(err, ssrf.ErrScheme),
			errors.Is(err, ssrf.ErrUserinfo),
			errors.Is(err, ssrf.ErrBlockedHostname),
			errors.Is(err, ssrf.ErrBlockedAddr),
			errors.Is(err, ssrf.ErrResolve):
			metrics.ReplaysTotal.WithLabelValues("unsafe_url").Inc()
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, replay.ErrBreakerOpen):
			metrics.ReplaysTotal.WithLabelValues("breaker_open").Inc()
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "target temporarily unavailable"})
		default:
			metrics.ReplaysTotal.WithLabelValues("failed").Inc()
			log.Errorf("replay delivery failed: %v", err)
			return c.JSON(http.StatusBadGateway, map[string]string{"error": "delivery failed"})
		}
	}
}
