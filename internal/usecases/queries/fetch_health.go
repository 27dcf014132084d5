package queries

import (
	"context"
	"time"

	"github.com/medrail/casebook/internal/ports"
	"github.com/medrail/casebook/pkg/decorator"
	"github.com/medrail/casebook/pkg/logger"
	"github.com/medrail/casebook/pkg/metrics"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	FetchHealthReportQuery struct{}

	ComponentHealth struct {
		Status string `json:"status"`
	}

	HealthReport struct {
		Status     string                     `json:"status"`
		Timestamp  time.Time                  `json:"timestamp"`
		Components map[string]ComponentHealth `json:"components"`
	}

	FetchHealthReportQueryHandler = decorator.QueryHandler[FetchHealthReportQuery, *HealthReport]

	fetchHealthReportQueryHandler struct {
		dbHealthChecker    ports.DatabaseHealthChecker
		cacheHealthChecker ports.CacheHealthChecker
	}
)

func NewFetchHealthReportQueryHandler(
	dbHealthChecker ports.DatabaseHealthChecker,
	cacheHealthChecker ports.CacheHealthChecker,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) FetchHealthReportQueryHandler {
	return decorator.ApplyQueryDecorators[FetchHealthReportQuery, *HealthReport](
		fetchHealthReportQueryHandler{
			dbHealthChecker:    dbHealthChecker,
			cacheHealthChecker: cacheHealthChecker,
		},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h fetchHealthReportQueryHandler) Execute(ctx context.Context, _ FetchHealthReportQuery) (*HealthReport, error) {
	report := &HealthReport{
		Status:     "healthy",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]ComponentHealth),
	}

	if err := h.dbHealthChecker.Ping(ctx); err != nil {
		report.Status = "degraded"
		report.Components["database"] = ComponentHealth{Status: "unavailable"}
	} else {
		report.Components["database"] = ComponentHealth{Status: "ok"}
	}

	if h.cacheHealthChecker.IsHealthy(ctx) {
		report.Components["session_store"] = ComponentHealth{Status: "ok"}
	} else {
		report.Status = "degraded"
		report.Components["session_store"] = ComponentHealth{Status: "unavailable"}
	}

	return report, nil
}
