package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/medrail/casebook/pkg/logger"
)

type contextKey string

const (
	RequestIDHeader = "Request-Id"
	SessionIDHeader = "Session-Id"

	RequestIDKey contextKey = "requestID"
)

// RequestTracking assigns a request ID and propagates the caller's session
// ID into the request context so downstream log lines carry both.
func RequestTracking() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			ctx = context.WithValue(ctx, logger.ContextKeyRequestID, requestID)

			if sessionID := r.Header.Get(SessionIDHeader); sessionID != "" {
				ctx = context.WithValue(ctx, logger.ContextKeySessionID, sessionID)
			}

			w.Header().Set(RequestIDHeader, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}

	return ""
}
