package decorator

import (
	"context"
	"strings"
	"time"

	"github.com/medrail/casebook/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
)

type (
	commandMetricsDecorator[C Command, R any] struct {
		base   CommandHandler[C, R]
		client metrics.Client
	}

	queryMetricsDecorator[Q Query, R Result] struct {
		base   QueryHandler[Q, R]
		client metrics.Client
	}
)

func (d commandMetricsDecorator[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	start := time.Now()

	result, err := d.base.Handle(ctx, cmd)

	recordExecution(ctx, d.client, "command", generateActionName(cmd), start, err)

	return result, err
}

func (d queryMetricsDecorator[Q, R]) Execute(ctx context.Context, query Q) (R, error) {
	start := time.Now()

	result, err := d.base.Execute(ctx, query)

	recordExecution(ctx, d.client, "query", generateActionName(query), start, err)

	return result, err
}

func recordExecution(ctx context.Context, client metrics.Client, kind, action string, start time.Time, err error) {
	if client == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}

	attributes := []attribute.KeyValue{
		attribute.String("action", normalizeActionName(action)),
		attribute.String("status", status),
	}

	client.Inc(ctx, kind+"_executions_total", 1, attributes...)
	client.Inc(ctx, kind+"_duration_ms", time.Since(start).Milliseconds(), attributes...)
}

func normalizeActionName(action string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSuffix(action, "Command"), "Query"))
}
