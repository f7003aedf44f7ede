package http

import (
	"context"
	"log"
	"net/http"

	"github.com/hookgw/hookgw/internal/capture"
	"github.com/hookgw/hookgw/internal/config"
	"github.com/hookgw/hookgw/internal/http/middleware"
	"github.com/hookgw/hookgw/internal/metrics"
	"github.com/hookgw/hookgw/internal/ratelimit"
	"github.com/hookgw/hookgw/internal/replay"
	"github.com/hookgw/hookgw/internal/repository"
	"github.com/hookgw/hookgw/internal/ssrf"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type Server struct{ e *echo.Echo }

func NewServer(cfg config.Config, mysqlDB, clickhouseDB *sqlx.DB, rds *redis.Client) *Server {
	// repos (MySQL)
	profilesRepo := repository.NewProfilesRepository(mysqlDB)
	endpointsRepo := repository.NewEndpointsRepository(mysqlDB)
	subsRepo := repository.NewSubscriptionsRepository(mysqlDB)
	usageRepo := repository.NewUsageRepository(mysqlDB)
	requestsRepo := repository.NewRequestsRepository(mysqlDB)
	outboxRepo := repository.NewOutboxRepository(mysqlDB)

	// repos (ClickHouse)
	chRequestsRepo := repository.NewCHRequestsRepository(clickhouseDB)

	// services
	var rlStore redis.Cmdable
	if rds != nil {
		rlStore = rds
	}
	limiter := ratelimit.New(rlStore, ratelimit.Limits{
		Slug: cfg.RateLimit.SlugPerMinute,
		IP:   cfg.RateLimit.IPPerMinute,
		Free: cfg.RateLimit.FreePerMinute,
		Pro:  cfg.RateLimit.ProPerMinute,
	})
	captureSvc := capture.New(mysqlDB, requestsRepo, outboxRepo, cfg.Kafka.CapturedTopic)
	replayClient := replay.NewClient(
		ssrf.New(nil),
		cfg.Replay.TimeoutMs,
		cfg.Replay.FailThreshold,
		cfg.Replay.OpenForMs,
	)

	gw := &Gateway{
		Profiles:  profilesRepo,
		Endpoints: endpointsRepo,
		Subs:      subsRepo,
		Usage:     usageRepo,
		Limiter:   limiter,
		Recorder:  captureSvc,
		MaxBody:   cfg.Capture.MaxBodyBytes,
		FreeQuota: cfg.Quota.FreeMonthly,
		ProQuota:  cfg.Quota.ProMonthly,
	}

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// capture surface (unauthenticated by design)
	e.Any("/wh/:username/:slug", gw.handleCapture)
	e.Any("/wh/:slug", gw.handleLegacy)
	e.Any("/wh/*", gw.handleUnknownPath)

	// tenant API
	authMW := middleware.APIKeyMiddleware(profilesRepo)
	v1 := e.Group("/v1", authMW)
	v1.GET("/requests", listRequestsHandler(chRequestsRepo))
	v1.POST("/requests/:id/replay", replayHandler(requestsRepo, endpointsRepo, replayClient))

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	log.Printf("http: listening on %s", addr)
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
