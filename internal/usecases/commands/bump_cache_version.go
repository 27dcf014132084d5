package commands

import (
	"context"

	"github.com/medrail/casebook/internal/domain/model"
	"github.com/medrail/casebook/internal/ports"
	"github.com/medrail/casebook/pkg/decorator"
	"github.com/medrail/casebook/pkg/logger"
	"github.com/medrail/casebook/pkg/metrics"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	// BumpCacheVersionCommand forces a version bump without a catalog
	// write, e.g. after a bulk import done outside the API.
	BumpCacheVersionCommand struct {
		Country     string
		VersionType string
		TableName   string
		UpdatedBy   string
		Reason      string
	}

	BumpCacheVersionCommandHandler = decorator.CommandHandler[BumpCacheVersionCommand, model.CacheVersion]

	bumpCacheVersionCommandHandler struct {
		versionsRepo ports.CacheVersionRepository
	}
)

func NewBumpCacheVersionCommandHandler(
	versionsRepo ports.CacheVersionRepository,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) BumpCacheVersionCommandHandler {
	return decorator.ApplyCommandDecorators[BumpCacheVersionCommand, model.CacheVersion](
		bumpCacheVersionCommandHandler{versionsRepo: versionsRepo},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h bumpCacheVersionCommandHandler) Handle(ctx context.Context, cmd BumpCacheVersionCommand) (model.CacheVersion, error) {
	if cmd.Country == "" {
		return model.CacheVersion{}, model.ErrNoCountry
	}

	if !model.KnownVersionType(cmd.VersionType) {
		return model.CacheVersion{}, model.ErrUnknownVersion
	}

	return h.versionsRepo.Bump(ctx, cmd.Country, cmd.VersionType, cmd.TableName, cmd.UpdatedBy, cmd.Reason)
}
