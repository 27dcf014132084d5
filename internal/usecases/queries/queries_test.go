package queries_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/medrail/casebook/internal/domain/model"
	"github.com/medrail/casebook/internal/infrastructure"
	"github.com/medrail/casebook/internal/ports"
	"github.com/medrail/casebook/internal/usecases/queries"
	"github.com/medrail/casebook/pkg/decorator"
	"github.com/medrail/casebook/pkg/logger"
	"github.com/medrail/casebook/pkg/metrics/noop"
	"github.com/stretchr/testify/require"
)

type mockVersionChecker struct {
	checkFn func(ctx context.Context, sessionID, country string) (model.MismatchReport, error)
}

func (m *mockVersionChecker) Check(ctx context.Context, sessionID, country string) (model.MismatchReport, error) {
	if m.checkFn != nil {
		return m.checkFn(ctx, sessionID, country)
	}

	return model.MismatchReport{}, nil
}

type mockPermissionAnswerer struct {
	allowed bool
}

func (m *mockPermissionAnswerer) HasPermission(context.Context, string, string) bool {
	return m.allowed
}

func (m *mockPermissionAnswerer) HasPermissionForUser(context.Context, string, string, string) bool {
	return m.allowed
}

type mockListCatalogRepo struct {
	listCalls atomic.Int64
	items     []model.CatalogItem
	err       error
}

func (m *mockListCatalogRepo) List(context.Context, model.CatalogKind, string) ([]model.CatalogItem, error) {
	m.listCalls.Add(1)

	return m.items, m.err
}

func (m *mockListCatalogRepo) Create(context.Context, model.CatalogKind, model.CatalogItem, ports.CatalogMutation) error {
	return nil
}

func (m *mockListCatalogRepo) Update(context.Context, model.CatalogKind, model.CatalogItem, ports.CatalogMutation) error {
	return nil
}

func (m *mockListCatalogRepo) Delete(context.Context, model.CatalogKind, model.CatalogID, string, ports.CatalogMutation) error {
	return nil
}

// memoryCatalogCache is a plain map cache for exercising the read-through
// decorator without the tagged cache. The decorator writes from a background
// goroutine, so access is mutex guarded.
type memoryCatalogCache struct {
	mu      sync.Mutex
	entries map[string][]model.CatalogItem
}

func newMemoryCatalogCache() *memoryCatalogCache {
	return &memoryCatalogCache{entries: make(map[string][]model.CatalogItem)}
}

func (c *memoryCatalogCache) Get(_ context.Context, query queries.ListCatalogQuery) ([]model.CatalogItem, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, ok := c.entries[query.Kind.Table+":"+query.Country]

	return items, ok, nil
}

func (c *memoryCatalogCache) Set(_ context.Context, query queries.ListCatalogQuery, result []model.CatalogItem, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[query.Kind.Table+":"+query.Country] = result

	return nil
}

func (c *memoryCatalogCache) has(query queries.ListCatalogQuery) bool {
	_, ok, _ := c.Get(context.Background(), query)

	return ok
}

type mockDBHealth struct{ err error }

func (m *mockDBHealth) Ping(context.Context) error { return m.err }

type mockCacheHealth struct{ healthy bool }

func (m *mockCacheHealth) IsHealthy(context.Context) bool { return m.healthy }

func TestCheckCacheVersionsQueryHandler(t *testing.T) {
	t.Parallel()

	log := logger.NewTestLogger()
	metricsClient := noop.NewMetricsClient()
	tracerProvider := infrastructure.NewNoopTracerProvider()

	t.Run("delegates to the reconciler", func(t *testing.T) {
		t.Parallel()

		checker := &mockVersionChecker{
			checkFn: func(_ context.Context, sessionID, country string) (model.MismatchReport, error) {
				require.Equal(t, "session-1", sessionID)
				require.Equal(t, "Singapore", country)

				return model.MismatchReport{Outdated: true, Signature: "abc123"}, nil
			},
		}

		handler := queries.NewCheckCacheVersionsQueryHandler(checker, log, metricsClient, tracerProvider)

		report, err := handler.Execute(t.Context(), queries.CheckCacheVersionsQuery{
			SessionID: "session-1",
			Country:   "Singapore",
		})
		require.NoError(t, err)
		require.True(t, report.Outdated)
		require.Equal(t, "abc123", report.Signature)
	})

	t.Run("rejects empty session", func(t *testing.T) {
		t.Parallel()

		handler := queries.NewCheckCacheVersionsQueryHandler(&mockVersionChecker{}, log, metricsClient, tracerProvider)

		_, err := handler.Execute(t.Context(), queries.CheckCacheVersionsQuery{Country: "Singapore"})
		require.ErrorIs(t, err, model.ErrEmptySessionID)
	})
}

func TestCheckPermissionQueryHandler(t *testing.T) {
	t.Parallel()

	log := logger.NewTestLogger()
	metricsClient := noop.NewMetricsClient()
	tracerProvider := infrastructure.NewNoopTracerProvider()

	t.Run("returns the decision", func(t *testing.T) {
		t.Parallel()

		handler := queries.NewCheckPermissionQueryHandler(&mockPermissionAnswerer{allowed: true}, log, metricsClient, tracerProvider)

		decision, err := handler.Execute(t.Context(), queries.CheckPermissionQuery{
			RoleID:   model.RoleOperations,
			ActionID: model.ActionCreateCase,
		})
		require.NoError(t, err)
		require.True(t, decision.Allowed)
		require.Equal(t, model.RoleOperations, decision.RoleID)
	})

	t.Run("validates role and action", func(t *testing.T) {
		t.Parallel()

		handler := queries.NewCheckPermissionQueryHandler(&mockPermissionAnswerer{}, log, metricsClient, tracerProvider)

		_, err := handler.Execute(t.Context(), queries.CheckPermissionQuery{ActionID: model.ActionCreateCase})
		require.ErrorIs(t, err, model.ErrInvalidRole)

		_, err = handler.Execute(t.Context(), queries.CheckPermissionQuery{RoleID: model.RoleOperations})
		require.ErrorIs(t, err, model.ErrInvalidAction)
	})
}

func TestListCatalogQueryHandler(t *testing.T) {
	t.Parallel()

	log := logger.NewTestLogger()
	metricsClient := noop.NewMetricsClient()
	tracerProvider := infrastructure.NewNoopTracerProvider()

	t.Run("serves repeats from the cache", func(t *testing.T) {
		t.Parallel()

		repo := &mockListCatalogRepo{
			items: []model.CatalogItem{model.NewCatalogItem("Singapore", "Spine Set A", time.Now())},
		}
		cache := newMemoryCatalogCache()

		handler := queries.NewListCatalogQueryHandler(
			repo,
			cache,
			decorator.CacheConfig{Enabled: true, TTL: time.Minute},
			log,
			metricsClient,
			tracerProvider,
		)

		query := queries.ListCatalogQuery{Kind: model.KindSurgerySets, Country: "Singapore"}

		first, err := handler.Execute(t.Context(), query)
		require.NoError(t, err)
		require.Len(t, first, 1)

		// The decorator populates the cache asynchronously.
		require.Eventually(t, func() bool {
			return cache.has(query)
		}, 2*time.Second, 10*time.Millisecond)

		second, err := handler.Execute(t.Context(), query)
		require.NoError(t, err)
		require.Len(t, second, 1)
		require.EqualValues(t, 1, repo.listCalls.Load())
	})

	t.Run("rejects missing country", func(t *testing.T) {
		t.Parallel()

		handler := queries.NewListCatalogQueryHandler(
			&mockListCatalogRepo{},
			newMemoryCatalogCache(),
			decorator.CacheConfig{},
			log,
			metricsClient,
			tracerProvider,
		)

		_, err := handler.Execute(t.Context(), queries.ListCatalogQuery{Kind: model.KindDoctors})
		require.ErrorIs(t, err, model.ErrNoCountry)
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		t.Parallel()

		repo := &mockListCatalogRepo{err: errors.New("connection refused")}

		handler := queries.NewListCatalogQueryHandler(
			repo,
			newMemoryCatalogCache(),
			decorator.CacheConfig{},
			log,
			metricsClient,
			tracerProvider,
		)

		_, err := handler.Execute(t.Context(), queries.ListCatalogQuery{Kind: model.KindDoctors, Country: "Singapore"})
		require.Error(t, err)
	})
}

func TestHealthQueries(t *testing.T) {
	t.Parallel()

	log := logger.NewTestLogger()
	metricsClient := noop.NewMetricsClient()
	tracerProvider := infrastructure.NewNoopTracerProvider()

	t.Run("liveness is static", func(t *testing.T) {
		t.Parallel()

		handler := queries.NewFetchLivenessQueryHandler(log, metricsClient, tracerProvider)

		result, err := handler.Execute(t.Context(), queries.FetchLivenessQuery{})
		require.NoError(t, err)
		require.Equal(t, "ok", result.Status)
	})

	t.Run("readiness follows the database", func(t *testing.T) {
		t.Parallel()

		handler := queries.NewFetchReadinessQueryHandler(&mockDBHealth{}, log, metricsClient, tracerProvider)

		result, err := handler.Execute(t.Context(), queries.FetchReadinessQuery{})
		require.NoError(t, err)
		require.True(t, result.Ready)

		handler = queries.NewFetchReadinessQueryHandler(&mockDBHealth{err: errors.New("down")}, log, metricsClient, tracerProvider)

		result, err = handler.Execute(t.Context(), queries.FetchReadinessQuery{})
		require.NoError(t, err)
		require.False(t, result.Ready)
	})

	t.Run("health report degrades per component", func(t *testing.T) {
		t.Parallel()

		handler := queries.NewFetchHealthReportQueryHandler(
			&mockDBHealth{},
			&mockCacheHealth{healthy: false},
			log,
			metricsClient,
			tracerProvider,
		)

		report, err := handler.Execute(t.Context(), queries.FetchHealthReportQuery{})
		require.NoError(t, err)
		require.Equal(t, "degraded", report.Status)
		require.Equal(t, "ok", report.Components["database"].Status)
		require.Equal(t, "unavailable", report.Components["session_store"].Status)
	})
}
