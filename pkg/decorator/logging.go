package decorator

import (
	"context"
	"time"

	"github.com/medrail/casebook/pkg/logger"
)

type (
	commandLoggingDecorator[C Command, R any] struct {
		base   CommandHandler[C, R]
		logger logger.Logger
	}

	queryLoggingDecorator[Q Query, R Result] struct {
		base   QueryHandler[Q, R]
		logger logger.Logger
	}
)

func (d commandLoggingDecorator[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	actionName := generateActionName(cmd)

	log := d.logger.WithContext(ctx).With().
		Str("action", actionName).
		Str("action_type", "command").
		Logger()

	start := time.Now()

	result, err := d.base.Handle(ctx, cmd)
	if err != nil {
		log.Error().
			Err(err).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("command failed")

		return result, err
	}

	log.Debug().
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("command executed")

	return result, nil
}

func (d queryLoggingDecorator[Q, R]) Execute(ctx context.Context, query Q) (R, error) {
	actionName := generateActionName(query)

	log := d.logger.WithContext(ctx).With().
		Str("action", actionName).
		Str("action_type", "query").
		Logger()

	start := time.Now()

	result, err := d.base.Execute(ctx, query)
	if err != nil {
		log.Error().
			Err(err).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("query failed")

		return result, err
	}

	log.Debug().
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("query executed")

	return result, nil
}
