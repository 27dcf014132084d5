package middleware_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/medrail/casebook/internal/adapters/inbound/http/middleware"
	"github.com/medrail/casebook/internal/config"
	"github.com/medrail/casebook/pkg/logger"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/throttled/throttled/v2/store/memstore"
)

type SecurityHeadersTestSuite struct {
	suite.Suite
}

func TestSecurityHeadersTestSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(SecurityHeadersTestSuite))
}

func (s *SecurityHeadersTestSuite) TestSecurityHeaders() {
	s.T().Parallel()

	cases := []struct {
		name     string
		header   string
		expected string
	}{
		{
			name:     "X-Content-Type-Options",
			header:   "X-Content-Type-Options",
			expected: "nosniff",
		},
		{
			name:     "X-Frame-Options",
			header:   "X-Frame-Options",
			expected: "DENY",
		},
		{
			name:     "Strict-Transport-Security",
			header:   "Strict-Transport-Security",
			expected: "max-age=31536000; includeSubDomains",
		},
		{
			name:     "API-Version",
			header:   "API-Version",
			expected: "v1",
		},
	}

	handler := middleware.SecurityHeaders()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, tc := range cases {
		s.Run(tc.name, func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			s.Equal(tc.expected, rec.Header().Get(tc.header))
		})
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	handler := middleware.CORS([]string{"*"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("passes through without origin", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/v1/catalog/doctors", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("answers preflight", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodOptions, "/v1/catalog/doctors", nil)
		req.Header.Set("Origin", "https://admin.example.com")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "https://admin.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("rejects unknown origin", func(t *testing.T) {
		t.Parallel()

		strictHandler := middleware.CORS([]string{"https://admin.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/v1/catalog/doctors", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()

		strictHandler.ServeHTTP(rec, req)

		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewBufferedTestLogger(&buf)

	handler := middleware.Recovery(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/catalog/doctors", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	require.Contains(t, buf.String(), "panic recovered")
	require.Contains(t, buf.String(), "boom")
}

func TestRequestTracking(t *testing.T) {
	t.Parallel()

	t.Run("generates a request id", func(t *testing.T) {
		t.Parallel()

		handler := middleware.RequestTracking()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NotEmpty(t, middleware.GetRequestID(r.Context()))
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("keeps the caller supplied request id", func(t *testing.T) {
		t.Parallel()

		handler := middleware.RequestTracking()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "req-42", middleware.GetRequestID(r.Context()))
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.RequestIDHeader, "req-42")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.Equal(t, "req-42", rec.Header().Get(middleware.RequestIDHeader))
	})
}

func TestHealthCheckFilterSkipsAccessLog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewBufferedTestLogger(&buf)

	filter := middleware.NewHealthCheckFilter(false)
	handler := filter.Middleware(middleware.AccessLogger(log, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Empty(t, buf.String())

	req = httptest.NewRequest(http.MethodGet, "/v1/catalog/doctors", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Contains(t, buf.String(), "/v1/catalog/doctors")
}

func TestRateLimiting(t *testing.T) {
	t.Parallel()

	newHandler := func(t *testing.T, cfg config.RateLimiting) http.Handler {
		t.Helper()

		store, err := memstore.NewCtx(100)
		require.NoError(t, err)

		return middleware.RateLimiting(cfg, store, logger.NewTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
	}

	t.Run("limits bursts per client", func(t *testing.T) {
		t.Parallel()

		handler := newHandler(t, config.RateLimiting{
			RequestsPerSecond: 1,
			BurstSize:         2,
		})

		var limited int
		for i := 0; i < 10; i++ {
			req := httptest.NewRequest(http.MethodGet, "/v1/catalog/doctors", nil)
			req.RemoteAddr = "10.0.0.1:51000"
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code == http.StatusTooManyRequests {
				limited++
				require.NotEmpty(t, rec.Header().Get("Retry-After"))
			}
		}

		require.NotZero(t, limited)
	})

	t.Run("skips configured paths", func(t *testing.T) {
		t.Parallel()

		handler := newHandler(t, config.RateLimiting{
			RequestsPerSecond: 1,
			BurstSize:         0,
			SkipPaths:         []string{"/v1/health"},
		})

		for i := 0; i < 10; i++ {
			req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
			req.RemoteAddr = "10.0.0.2:51000"
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("separate clients get separate budgets", func(t *testing.T) {
		t.Parallel()

		handler := newHandler(t, config.RateLimiting{
			RequestsPerSecond: 1,
			BurstSize:         0,
		})

		for i := 0; i < 5; i++ {
			req := httptest.NewRequest(http.MethodGet, "/v1/catalog/doctors", nil)
			req.RemoteAddr = fmt.Sprintf("10.0.1.%d:51000", i)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
		}
	})
}
