package runtime

import (
	"context"
	"fmt"
	"net/http"

	inboundhttp "github.com/medrail/casebook/internal/adapters/inbound/http"
	"github.com/medrail/casebook/internal/adapters/realtime"
	"github.com/medrail/casebook/internal/adapters/repos"
	"github.com/medrail/casebook/internal/config"
	"github.com/medrail/casebook/internal/infrastructure"
	"github.com/medrail/casebook/internal/infrastructure/postgres"
	"github.com/medrail/casebook/internal/services"
	"github.com/medrail/casebook/internal/usecases"
	"github.com/medrail/casebook/pkg/circuitbreaker"
	"github.com/medrail/casebook/pkg/decorator"
	"github.com/medrail/casebook/pkg/logger"
	"github.com/medrail/casebook/pkg/metrics/noop"
	"github.com/medrail/casebook/pkg/tagcache"
)

func defaultOptions(ctx context.Context) []DependencyOption {
	return []DependencyOption{
		WithConfig(),
		WithLogger(),
		WithMetrics(),
		WithTracing(),
		WithDatabase(ctx),
		WithSessionStore(),
		WithTagCache(),
		WithRepositories(),
		WithServices(),
		WithRealtime(),
		WithApplication(),
		WithHTTPServer(),
	}
}

func WithConfig() DependencyOption {
	return func(d *dependencies) error {
		cfg, err := config.Init()
		if err != nil {
			return fmt.Errorf("initializing configuration: %w", err)
		}

		d.config = cfg

		return nil
	}
}

func WithLogger() DependencyOption {
	return func(d *dependencies) error {
		d.infra.logger = logger.New(d.config.Logging.Level, d.config.Logging.Format)

		return nil
	}
}

func WithMetrics() DependencyOption {
	return func(d *dependencies) error {
		d.infra.metricsClient = noop.NewMetricsClient()

		return nil
	}
}

func WithTracing() DependencyOption {
	return func(d *dependencies) error {
		if !d.config.Telemetry.Traces.Enabled || d.config.Telemetry.OTLPEndpoint == "" {
			d.infra.tracerProvider = infrastructure.NewNoopTracerProvider()

			return nil
		}

		tp, shutdown, err := infrastructure.NewTracerProvider(
			d.config.Telemetry.ServiceName,
			d.config.Telemetry.ServiceVersion,
			d.config.Telemetry.OTLPEndpoint,
		)
		if err != nil {
			return fmt.Errorf("initializing tracer: %w", err)
		}

		d.infra.tracerProvider = tp
		d.cleanupFuncs["tracer"] = shutdown

		return nil
	}
}

func WithDatabase(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		pool, err := postgres.NewPool(ctx, d.config.Database)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}

		d.infra.dbPool = pool
		d.cleanupFuncs["database"] = func(context.Context) error {
			pool.Close()

			return nil
		}

		return nil
	}
}

func WithSessionStore() DependencyOption {
	return func(d *dependencies) error {
		client := infrastructure.NewKeydbClient(d.config.SessionStore, d.infra.logger)
		d.infra.cacheClient = client
		d.cleanupFuncs["session_store"] = func(context.Context) error {
			return client.Close()
		}

		breaker := circuitbreaker.New[[]byte](circuitbreaker.Config{
			Name:             "session-store",
			Enabled:          d.config.CircuitBreaker.Enabled,
			MaxRequests:      d.config.CircuitBreaker.MaxRequests,
			Interval:         d.config.CircuitBreaker.Interval,
			Timeout:          d.config.CircuitBreaker.Timeout,
			FailureThreshold: d.config.CircuitBreaker.FailureThreshold,
		})

		d.repos.sessionStore = repos.NewKeydbSessionStore(client, breaker, d.infra.logger)

		return nil
	}
}

func WithTagCache() DependencyOption {
	return func(d *dependencies) error {
		cache := tagcache.New(tagcache.Config{
			MaxEntries:    d.config.CatalogCache.MaxEntries,
			MaxValueBytes: d.config.CatalogCache.MaxValueBytes,
			DefaultTTL:    d.config.CatalogCache.DefaultTTL,
		}, d.infra.logger)

		d.services.cache = cache
		d.cleanupFuncs["tag_cache"] = func(context.Context) error {
			cache.Destroy()

			return nil
		}

		return nil
	}
}

func WithRepositories() DependencyOption {
	return func(d *dependencies) error {
		scanner := repos.NewPgxScanner()

		d.repos.catalogRepo = repos.NewCatalogRepository(d.infra.dbPool, scanner, d.infra.logger)
		d.repos.versionsRepo = repos.NewCacheVersionsRepository(d.infra.dbPool, scanner, d.infra.logger)
		d.repos.permissionsRepo = repos.NewPermissionsRepository(d.infra.dbPool, scanner, d.infra.logger)
		d.repos.catalogCache = repos.NewCatalogCacheAdapter(d.services.cache)

		return nil
	}
}

func WithServices() DependencyOption {
	return func(d *dependencies) error {
		d.services.reconciler = services.NewReconciler(
			d.repos.versionsRepo,
			d.repos.sessionStore,
			d.config.Reconciler,
			d.infra.logger,
		)

		d.services.permissions = services.NewPermissionService(
			d.repos.permissionsRepo,
			d.services.cache,
			d.config.Permissions,
			d.infra.logger,
		)

		return nil
	}
}

func WithRealtime() DependencyOption {
	return func(d *dependencies) error {
		handler := services.NewChangeHandler(d.services.cache, d.services.permissions, d.infra.logger)

		d.services.listener = realtime.NewListener(
			postgres.ConnString(d.config.Database),
			d.config.Realtime,
			realtime.Handler(handler),
			d.infra.logger,
		)
		d.cleanupFuncs["realtime_listener"] = func(context.Context) error {
			return d.services.listener.Close()
		}

		return nil
	}
}

func WithApplication() DependencyOption {
	return func(d *dependencies) error {
		d.apps.app = usecases.NewApplication(
			d.repos.catalogRepo,
			d.repos.versionsRepo,
			d.services.reconciler,
			d.services.permissions,
			d.repos.catalogCache,
			decorator.CacheConfig{
				Enabled: true,
				TTL:     d.config.CatalogCache.DefaultTTL,
			},
			d.repos.catalogRepo,
			d.repos.sessionStore,
			d.infra.logger,
			d.infra.metricsClient,
			d.infra.tracerProvider,
		)

		return nil
	}
}

func WithHTTPServer() DependencyOption {
	return func(d *dependencies) error {
		router := inboundhttp.NewRouter(inboundhttp.RouterConfig{
			App:              d.apps.app,
			Logger:           d.infra.logger,
			Config:           d.config,
			IdempotencyCache: repos.NewKeydbIdempotencyCache(d.infra.cacheClient),
		})

		d.infra.httpServer = &http.Server{
			Handler:      router,
			ReadTimeout:  d.config.HTTPServer.ReadTimeout,
			WriteTimeout: d.config.HTTPServer.WriteTimeout,
			IdleTimeout:  d.config.HTTPServer.IdleTimeout,
		}
		d.cleanupFuncs["http_server"] = func(ctx context.Context) error {
			return d.infra.httpServer.Shutdown(ctx)
		}

		return nil
	}
}
