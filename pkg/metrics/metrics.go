// Package metrics defines the client surface the decorator chain records
// command and query executions against.
package metrics

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
)

// Client counts named events. Implementations decide where the counters
// land; callers only supply a key and optional attributes.
type Client interface {
	Inc(ctx context.Context, key string, value any, attributes ...attribute.KeyValue)
	Handler() http.Handler
	Shutdown(ctx context.Context) error
}
