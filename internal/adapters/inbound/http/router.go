package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/medrail/casebook/internal/adapters/inbound/http/handlers"
	"github.com/medrail/casebook/internal/adapters/inbound/http/middleware"
	"github.com/medrail/casebook/internal/config"
	"github.com/medrail/casebook/internal/ports"
	"github.com/medrail/casebook/internal/usecases"
	"github.com/medrail/casebook/pkg/logger"
	"github.com/throttled/throttled/v2/store/memstore"
)

const (
	baseURL = "/v1"

	rateLimitStoreSize = 65536
)

type RouterConfig struct {
	App              *usecases.Application
	Logger           logger.Logger
	Config           *config.ServiceConfig
	IdempotencyCache ports.IdempotencyCache
}

func NewRouter(cfg RouterConfig) http.Handler {
	router := chi.NewRouter()

	// Core middlewares - always applied
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.RequestTracking())
	router.Use(middleware.Recovery(cfg.Logger))
	router.Use(chimiddleware.Timeout(cfg.Config.HTTPServer.WriteTimeout))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS([]string{"*"}))

	if cfg.Config.RateLimiting.Enabled {
		store, err := memstore.NewCtx(rateLimitStoreSize)
		if err != nil {
			cfg.Logger.Fatal().Err(err).Msg("failed to create rate limit store")
		}

		router.Use(middleware.RateLimiting(cfg.Config.RateLimiting, store, cfg.Logger))
		cfg.Logger.Info().
			Uint("requests_per_second", cfg.Config.RateLimiting.RequestsPerSecond).
			Msg("rate limiting enabled")
	}

	if cfg.Config.Idempotency.Enabled && cfg.IdempotencyCache != nil {
		router.Use(middleware.Idempotency(cfg.IdempotencyCache, cfg.Config.Idempotency, cfg.Logger))
		cfg.Logger.Info().Msg("idempotent mutation replay enabled")
	}

	// Access logging with health check filtering
	if cfg.Config.Logging.AccessLog.Enabled {
		healthFilter := middleware.NewHealthCheckFilter(cfg.Config.Logging.AccessLog.LogHealthChecks)

		router.Use(healthFilter.Middleware)
		router.Use(middleware.AccessLogger(cfg.Logger, !cfg.Config.IsProduction()))
		cfg.Logger.Info().
			Bool("log_health_checks", cfg.Config.Logging.AccessLog.LogHealthChecks).
			Msg("structured access logging enabled")
	}

	handler := handlers.NewCasebookHandler(cfg.App)

	router.Route(baseURL, func(r chi.Router) {
		r.Route("/cache-versions", func(r chi.Router) {
			r.Post("/check", handler.CheckCacheVersions)
			r.Post("/ack", handler.AcknowledgeMismatch)
			r.Post("/bump", handler.BumpCacheVersion)
		})

		r.Post("/sessions/logout", handler.ForceLogout)

		r.Route("/permissions", func(r chi.Router) {
			r.Get("/check", handler.CheckPermission)
			r.Post("/refresh", handler.RefreshPermissions)
		})

		r.Route("/catalog/{kind}", func(r chi.Router) {
			r.Get("/", handler.ListCatalog)
			r.Post("/", handler.CreateCatalogItem)
			r.Put("/{itemID}", handler.UpdateCatalogItem)
			r.Delete("/{itemID}", handler.DeleteCatalogItem)
		})

		r.Route("/health", func(r chi.Router) {
			r.Get("/", handler.HealthCheck)
			r.Get("/liveness", handler.LivenessCheck)
			r.Get("/readiness", handler.ReadinessCheck)
		})
	})

	return router
}
