package runtime

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/medrail/casebook/internal/adapters/realtime"
	"github.com/medrail/casebook/internal/adapters/repos"
	"github.com/medrail/casebook/internal/config"
	"github.com/medrail/casebook/internal/infrastructure"
	"github.com/medrail/casebook/internal/services"
	"github.com/medrail/casebook/internal/usecases"
	"github.com/medrail/casebook/pkg/logger"
	"github.com/medrail/casebook/pkg/metrics"
	"github.com/medrail/casebook/pkg/tagcache"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	infrastructureDep struct {
		httpServer     *http.Server
		dbPool         *pgxpool.Pool
		cacheClient    *infrastructure.KeydbClient
		logger         logger.Logger
		metricsClient  metrics.Client
		tracerProvider otelTrace.TracerProvider
	}

	repositoriesDep struct {
		catalogRepo     *repos.CatalogRepository
		versionsRepo    *repos.CacheVersionsRepository
		permissionsRepo *repos.PermissionsRepository
		sessionStore    *repos.KeydbSessionStore
		catalogCache    *repos.CatalogCacheAdapter
	}

	servicesDep struct {
		cache       *tagcache.Cache
		reconciler  *services.Reconciler
		permissions *services.PermissionService
		listener    *realtime.Listener
	}

	applicationsDep struct {
		app *usecases.Application
	}

	dependencies struct {
		config *config.ServiceConfig

		infra infrastructureDep

		repos repositoriesDep

		services servicesDep

		apps applicationsDep

		cleanupFuncs map[string]func(ctx context.Context) error
	}

	DependencyOption func(*dependencies) error
)

func initializeDependencies(ctx context.Context, opts ...DependencyOption) (*dependencies, error) {
	deps := &dependencies{
		cleanupFuncs: make(map[string]func(ctx context.Context) error),
	}

	allOpts := append(defaultOptions(ctx), opts...)

	for _, opt := range allOpts {
		if err := opt(deps); err != nil {
			return nil, fmt.Errorf("failed to apply dependency option: %w", err)
		}
	}

	return deps, nil
}
