package decorator

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	otelTrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/medrail/casebook/pkg/decorator"

type (
	commandTracingDecorator[C Command, R any] struct {
		base           CommandHandler[C, R]
		tracerProvider otelTrace.TracerProvider
	}

	queryTracingDecorator[Q Query, R Result] struct {
		base           QueryHandler[Q, R]
		tracerProvider otelTrace.TracerProvider
	}
)

func (d commandTracingDecorator[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	ctx, span := d.startSpan(ctx, generateActionName(cmd))
	defer span.End()

	result, err := d.base.Handle(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return result, err
}

func (d commandTracingDecorator[C, R]) startSpan(ctx context.Context, name string) (context.Context, otelTrace.Span) {
	return startSpan(ctx, d.tracerProvider, name)
}

func (d queryTracingDecorator[Q, R]) Execute(ctx context.Context, query Q) (R, error) {
	ctx, span := startSpan(ctx, d.tracerProvider, generateActionName(query))
	defer span.End()

	result, err := d.base.Execute(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return result, err
}

func startSpan(ctx context.Context, provider otelTrace.TracerProvider, name string) (context.Context, otelTrace.Span) {
	if provider == nil {
		provider = otelTrace.NewNoopTracerProvider()
	}

	return provider.Tracer(tracerName).Start(ctx, name)
}
