package usecases

import (
	"github.com/medrail/casebook/internal/domain/model"
	"github.com/medrail/casebook/internal/ports"
	"github.com/medrail/casebook/internal/services"
	"github.com/medrail/casebook/internal/usecases/commands"
	"github.com/medrail/casebook/internal/usecases/queries"
	"github.com/medrail/casebook/pkg/decorator"
	"github.com/medrail/casebook/pkg/logger"
	"github.com/medrail/casebook/pkg/metrics"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	Commands struct {
		CreateCatalogItem   commands.CreateCatalogItemCommandHandler
		UpdateCatalogItem   commands.UpdateCatalogItemCommandHandler
		DeleteCatalogItem   commands.DeleteCatalogItemCommandHandler
		BumpCacheVersion    commands.BumpCacheVersionCommandHandler
		AcknowledgeMismatch commands.AcknowledgeMismatchCommandHandler
		ForceLogout         commands.ForceLogoutCommandHandler
		RefreshPermissions  commands.RefreshPermissionsCommandHandler
	}

	Queries struct {
		CheckCacheVersions queries.CheckCacheVersionsQueryHandler
		CheckPermission    queries.CheckPermissionQueryHandler
		ListCatalog        queries.ListCatalogQueryHandler
		FetchLiveness      queries.FetchLivenessQueryHandler
		FetchReadiness     queries.FetchReadinessQueryHandler
		FetchHealthReport  queries.FetchHealthReportQueryHandler
	}

	Application struct {
		Commands Commands
		Queries  Queries
	}
)

func NewApplication(
	catalogRepo ports.CatalogRepository,
	versionsRepo ports.CacheVersionRepository,
	reconciler *services.Reconciler,
	permissions *services.PermissionService,
	catalogCache decorator.Cache[queries.ListCatalogQuery, []model.CatalogItem],
	catalogCacheConfig decorator.CacheConfig,
	dbHealthChecker ports.DatabaseHealthChecker,
	cacheHealthChecker ports.CacheHealthChecker,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) *Application {
	return &Application{
		Commands: Commands{
			CreateCatalogItem:   commands.NewCreateCatalogItemCommandHandler(catalogRepo, log, metricsClient, tracerProvider),
			UpdateCatalogItem:   commands.NewUpdateCatalogItemCommandHandler(catalogRepo, log, metricsClient, tracerProvider),
			DeleteCatalogItem:   commands.NewDeleteCatalogItemCommandHandler(catalogRepo, log, metricsClient, tracerProvider),
			BumpCacheVersion:    commands.NewBumpCacheVersionCommandHandler(versionsRepo, log, metricsClient, tracerProvider),
			AcknowledgeMismatch: commands.NewAcknowledgeMismatchCommandHandler(reconciler, log, metricsClient, tracerProvider),
			ForceLogout:         commands.NewForceLogoutCommandHandler(reconciler, log, metricsClient, tracerProvider),
			RefreshPermissions:  commands.NewRefreshPermissionsCommandHandler(permissions, log, metricsClient, tracerProvider),
		},
		Queries: Queries{
			CheckCacheVersions: queries.NewCheckCacheVersionsQueryHandler(reconciler, log, metricsClient, tracerProvider),
			CheckPermission:    queries.NewCheckPermissionQueryHandler(permissions, log, metricsClient, tracerProvider),
			ListCatalog:        queries.NewListCatalogQueryHandler(catalogRepo, catalogCache, catalogCacheConfig, log, metricsClient, tracerProvider),
			FetchLiveness:      queries.NewFetchLivenessQueryHandler(log, metricsClient, tracerProvider),
			FetchReadiness:     queries.NewFetchReadinessQueryHandler(dbHealthChecker, log, metricsClient, tracerProvider),
			FetchHealthReport:  queries.NewFetchHealthReportQueryHandler(dbHealthChecker, cacheHealthChecker, log, metricsClient, tracerProvider),
		},
	}
}
