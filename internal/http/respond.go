package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hookgw/hookgw/internal/metrics"
	"github.com/hookgw/hookgw/internal/model"
	"github.com/hookgw/hookgw/internal/ratelimit"
	"github.com/labstack/echo/v4"
)

// deniedHeaders can hijack the caller's session or navigate a browser; they
// are dropped from tenant response templates no matter what is configured.
var deniedHeaders = map[string]struct{}{
	"set-cookie":        {},
	"set-cookie2":       {},
	"location":          {},
	"refresh":           {},
	"link":              {},
	"content-length":    {},
	"transfer-encoding": {},
}

// notFound is the uniform 404: unknown username, unknown or paused endpoint,
// quota exhaustion, and bad segment counts all produce this exact response,
// so none of those states can be probed apart.
func notFound(c echo.Context) error {
	metrics.RequestsTotal.WithLabelValues("not_found").Inc()
	return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
}

// ambiguousSlug is the single deliberate exception to 404 uniformity: the
// legacy form matched endpoints owned by different users, and saying so
// discloses no tenant identity.
func ambiguousSlug(c echo.Context) error {
	metrics.RequestsTotal.WithLabelValues("not_found").Inc()
	return c.JSON(http.StatusNotFound, map[string]string{
		"error": "this endpoint address is ambiguous; use /wh/{username}/{slug}",
	})
}

func rateLimited(c echo.Context, r *ratelimit.Result) error {
	metrics.RequestsTotal.WithLabelValues("rate_limited").Inc()
	h := c.Response().Header()
	h.Set("Retry-After", strconv.Itoa(r.RetryAfter(time.Now())))
	setRateLimitHeaders(c, r)
	return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
}

func setRateLimitHeaders(c echo.Context, r *ratelimit.Result) {
	if r == nil {
		return
	}
	h := c.Response().Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(r.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(r.Remaining))
}

// dispatchConfigured renders the endpoint's stored response template.
func dispatchConfigured(c echo.Context, endpoint *model.Endpoint, limit *ratelimit.Result) error {
	status := endpoint.ResponseCode
	// a tenant-configured redirect would turn the capture URL into an open
	// redirector reachable without auth
	if status >= 300 && status < 400 {
		status = http.StatusOK
	}
	if status < 100 || status > 599 {
		status = http.StatusOK
	}

	contentType := "text/plain; charset=utf-8"
	for k, v := range endpoint.ResponseHeaders {
		lk := strings.ToLower(k)
		if _, denied := deniedHeaders[lk]; denied {
			continue
		}
		if lk == "content-type" {
			contentType = v
			continue
		}
		c.Response().Header().Set(k, v)
	}

	setRateLimitHeaders(c, limit)

	return c.Blob(status, contentType, []byte(endpoint.ResponseBody))
}
