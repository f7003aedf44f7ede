package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/hookgw/hookgw/internal/capture"
	"github.com/hookgw/hookgw/internal/logger"
	"github.com/hookgw/hookgw/internal/metrics"
	"github.com/hookgw/hookgw/internal/model"
	"github.com/hookgw/hookgw/internal/ratelimit"
	"github.com/hookgw/hookgw/internal/repository"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Recorder persists a captured request. Satisfied by *capture.Service.
type Recorder interface {
	Capture(ctx context.Context, endpoint *model.Endpoint, req model.CapturedRequest) error
}

// Gateway composes the full ingestion pipeline: rate limiting, endpoint
// resolution, quota admission, bounded body capture, persistence, and the
// tenant-configured response.
type Gateway struct {
	Profiles  repository.ProfilesRepository
	Endpoints repository.EndpointsRepository
	Subs      repository.SubscriptionsRepository
	Usage     repository.UsageRepository
	Limiter   *ratelimit.Limiter
	Recorder  Recorder
	MaxBody   int64
	FreeQuota int64
	ProQuota  int64 // 0 = unlimited
}

// handleCapture serves /wh/:username/:slug for every method. The method is
// recorded verbatim; it never changes control flow.
func (g *Gateway) handleCapture(c echo.Context) error {
	username := c.Param("username")
	slug := c.Param("slug")
	ctx := c.Request().Context()
	sourceIP := c.RealIP()

	// slug and IP windows need no datastore I/O; run them together and
	// reject before touching MySQL.
	var slugRes, ipRes *ratelimit.Result
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		slugRes = g.Limiter.CheckSlug(ctx, slug)
	}()
	if sourceIP != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ipRes = g.Limiter.CheckIP(ctx, sourceIP)
		}()
	}
	wg.Wait()

	if r := firstLimited(slugRes, ipRes); r != nil {
		return rateLimited(c, r)
	}

	// resolve tenant and endpoint; every miss is the same 404
	profile, err := g.Profiles.GetByUsername(ctx, username)
	if err != nil {
		logger.L().Error("profile lookup failed", zap.String("username", username), zap.Error(err))
		return notFound(c)
	}
	if profile == nil {
		return notFound(c)
	}

	endpoint, err := g.Endpoints.GetByOwnerSlug(ctx, profile.ID, slug)
	if err != nil {
		logger.L().Error("endpoint lookup failed",
			zap.String("user_id", profile.ID), zap.String("slug", slug), zap.Error(err))
		return notFound(c)
	}
	if endpoint == nil || !endpoint.IsActive {
		return notFound(c)
	}

	// account window needs the owner's plan, so it runs after resolution
	plan := g.effectivePlan(c, profile.ID)
	acctRes := g.Limiter.CheckAccount(ctx, profile.ID, plan, profile.RateLimitOverride)
	if acctRes != nil && !acctRes.Allowed {
		return rateLimited(c, acctRes)
	}

	merged := ratelimit.MostRestrictive(slugRes, ipRes, acctRes)

	if !g.admit(c, profile.ID, plan) {
		// quota exhaustion is indistinguishable from a missing endpoint
		metrics.RequestsTotal.WithLabelValues("quota_exceeded").Inc()
		return notFound(c)
	}

	// admission already incremented the counter; from here on a failure is
	// surfaced loudly, never rolled back
	body, size, kind := capture.LimitedRead(c.Request(), g.MaxBody)
	switch kind {
	case capture.ReadTooLarge:
		metrics.RequestsTotal.WithLabelValues("too_large").Inc()
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "payload too large"})
	case capture.ReadStreamError:
		metrics.RequestsTotal.WithLabelValues("error").Inc()
		logger.L().Error("body stream failed",
			zap.String("endpoint_id", endpoint.ID), zap.Int64("partial_bytes", size))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	record := capture.Build(endpoint, c.Request(), body, size, sourceIP)
	if err := g.Recorder.Capture(ctx, endpoint, record); err != nil {
		// the sender must not be told delivery succeeded when no record exists
		metrics.RequestsTotal.WithLabelValues("error").Inc()
		logger.L().Error("capture persist failed",
			zap.String("endpoint_id", endpoint.ID), zap.String("request_id", record.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	metrics.RequestsTotal.WithLabelValues("captured").Inc()
	return dispatchConfigured(c, endpoint, merged)
}

// handleLegacy serves the deprecated /wh/:slug form.
func (g *Gateway) handleLegacy(c echo.Context) error {
	slug := c.Param("slug")
	ctx := c.Request().Context()

	matches, err := g.Endpoints.ListBySlug(ctx, slug, 2)
	if err != nil {
		logger.L().Error("legacy slug lookup failed", zap.String("slug", slug), zap.Error(err))
		return notFound(c)
	}

	switch len(matches) {
	case 0:
		return notFound(c)
	case 1:
		owner, err := g.Profiles.GetByID(ctx, matches[0].UserID)
		if err != nil || owner == nil {
			return notFound(c)
		}
		location := "/wh/" + owner.Username + "/" + slug
		if qs := c.QueryString(); qs != "" {
			location += "?" + qs
		}
		// 308 keeps the method; a POST must not arrive at the new URL as a GET
		return c.Redirect(http.StatusPermanentRedirect, location)
	default:
		// two owners share this slug; no tenant identity is disclosed, so
		// this is the one 404 allowed to explain itself
		return ambiguousSlug(c)
	}
}

// handleUnknownPath covers /wh paths with the wrong segment count.
func (g *Gateway) handleUnknownPath(c echo.Context) error {
	return notFound(c)
}

// effectivePlan resolves the owner's billable plan; lookup failures resolve
// to free, same as a missing subscription row.
func (g *Gateway) effectivePlan(c echo.Context, userID string) model.Plan {
	sub, err := g.Subs.GetByUserID(c.Request().Context(), userID)
	if err != nil {
		logger.L().Warn("subscription lookup failed", zap.String("user_id", userID), zap.Error(err))
		return model.PlanFree
	}
	return sub.Effective()
}

// admit runs the atomic check-and-increment. Failure policy by tier:
//
//	component      failure                tier   outcome
//	quota check    primitive error        free   deny (bound usage in outage)
//	quota check    primitive error        pro    admit (don't block paying tenants)
//	quota check    counter at ceiling     any    deny
func (g *Gateway) admit(c echo.Context, userID string, plan model.Plan) bool {
	limit := g.FreeQuota
	if plan == model.PlanPro {
		limit = g.ProQuota
	}

	period := model.CurrentPeriod(time.Now())
	admitted, err := g.Usage.TryIncrement(c.Request().Context(), userID, period, limit)
	if err != nil {
		logger.L().Error("quota increment failed",
			zap.String("user_id", userID), zap.String("period", period), zap.Error(err))
		return plan == model.PlanPro
	}
	return admitted
}

// firstLimited returns the first denying result, preferring the lower
// remaining count so Retry-After reflects the tighter window.
func firstLimited(results ...*ratelimit.Result) *ratelimit.Result {
	var denied []*ratelimit.Result
	for _, r := range results {
		if r != nil && !r.Allowed {
			denied = append(denied, r)
		}
	}
	if len(denied) == 0 {
		return nil
	}
	return ratelimit.MostRestrictive(denied...)
}
