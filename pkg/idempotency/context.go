package idempotency

import "context"

type contextKey string

// ContextKeyIdempotency carries the validated idempotency key through the
// request context.
const ContextKeyIdempotency contextKey = "idempotencyKey"

// WithKey stores the idempotency key on the context.
func WithKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ContextKeyIdempotency, key)
}

// FromContext returns the idempotency key, reporting false when absent or
// empty.
func FromContext(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(ContextKeyIdempotency).(string)

	return key, ok && key != ""
}
