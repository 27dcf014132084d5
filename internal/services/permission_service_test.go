package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/medrail/casebook/internal/config"
	"github.com/medrail/casebook/internal/domain/model"
	"github.com/medrail/casebook/pkg/logger"
	"github.com/medrail/casebook/pkg/tagcache"
	"github.com/stretchr/testify/require"
)

type fakePermissionRepo struct {
	listCalls atomic.Int64
	listFn    func(ctx context.Context) ([]model.Permission, error)
	block     chan struct{}
}

func (f *fakePermissionRepo) ListAll(ctx context.Context) ([]model.Permission, error) {
	f.listCalls.Add(1)

	if f.block != nil {
		<-f.block
	}

	if f.listFn != nil {
		return f.listFn(ctx)
	}

	return []model.Permission{
		{RoleID: model.RoleOperations, ActionID: model.ActionCreateCase, Allowed: true},
		{RoleID: model.RoleOperations, ActionID: model.ActionViewCases, Allowed: true},
		{RoleID: model.RoleDriver, ActionID: model.ActionViewCases, Allowed: true},
		{RoleID: model.RoleDriver, ActionID: model.ActionEditSets, Allowed: false},
	}, nil
}

func newTestPermissionService(repo *fakePermissionRepo, users *tagcache.Cache, now *time.Time) *PermissionService {
	service := NewPermissionService(repo, users, config.Permissions{
		CacheTTL:        5 * time.Minute,
		RefreshLeeway:   time.Minute,
		RetryMaxElapsed: 100 * time.Millisecond,
	}, logger.NewTestLogger())

	service.now = func() time.Time { return *now }

	return service
}

// unavailableRepo keeps the table empty: every fetch fails.
func unavailableRepo() *fakePermissionRepo {
	return &fakePermissionRepo{
		listFn: func(context.Context) ([]model.Permission, error) {
			return nil, errors.New("connection refused")
		},
	}
}

func TestPermissionService_FailsSecureWhenEmpty(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	service := newTestPermissionService(unavailableRepo(), nil, &now)

	require.False(t, service.HasPermission(t.Context(), model.RoleOperations, model.ActionCreateCase))
	require.False(t, service.HasPermission(t.Context(), model.RoleAdmin, model.ActionCreateCase))
}

func TestPermissionService_CriticalAllowlistWhenEmpty(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	service := newTestPermissionService(unavailableRepo(), nil, &now)

	require.True(t, service.HasPermission(t.Context(), model.RoleDriver, model.ActionViewCases))
	require.True(t, service.HasPermission(t.Context(), model.RoleDriver, model.ActionLogout))

	require.True(t, service.HasPermission(t.Context(), model.RoleAdmin, model.ActionManageUsers))
	require.False(t, service.HasPermission(t.Context(), model.RoleOperations, model.ActionManageUsers))
}

func TestPermissionService_CriticalCheckTriggersSingleRefresh(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	repo := &fakePermissionRepo{block: make(chan struct{})}
	service := newTestPermissionService(repo, nil, &now)

	for range 5 {
		require.True(t, service.HasPermission(t.Context(), model.RoleDriver, model.ActionViewCases))
	}

	close(repo.block)

	// A non-critical permission only answers true once the table landed.
	require.Eventually(t, func() bool {
		return service.HasPermission(context.Background(), model.RoleOperations, model.ActionCreateCase)
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int64(1), repo.listCalls.Load())
}

func TestPermissionService_FreshTableAnswersFromMemory(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	repo := &fakePermissionRepo{}
	service := newTestPermissionService(repo, nil, &now)

	require.NoError(t, service.Initialize(t.Context(), false))

	require.True(t, service.HasPermission(t.Context(), model.RoleOperations, model.ActionCreateCase))
	require.False(t, service.HasPermission(t.Context(), model.RoleDriver, model.ActionCreateCase))

	// Allowed=false rows are dropped on load: allowlist, not denylist.
	require.False(t, service.HasPermission(t.Context(), model.RoleDriver, model.ActionEditSets))

	// A fresh table answers even critical actions from memory.
	require.False(t, service.HasPermission(t.Context(), model.RoleOperations, model.ActionLogout))

	require.Equal(t, int64(1), repo.listCalls.Load())
}

func TestPermissionService_InitializeIsIdempotent(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	repo := &fakePermissionRepo{}
	service := newTestPermissionService(repo, nil, &now)

	require.NoError(t, service.Initialize(t.Context(), false))
	require.NoError(t, service.Initialize(t.Context(), false))
	require.Equal(t, int64(1), repo.listCalls.Load())

	require.NoError(t, service.Initialize(t.Context(), true))
	require.Equal(t, int64(2), repo.listCalls.Load())
}

func TestPermissionService_ConcurrentInitializeSharesOneFetch(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	repo := &fakePermissionRepo{block: make(chan struct{})}
	service := newTestPermissionService(repo, nil, &now)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			require.NoError(t, service.Initialize(context.Background(), false))
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(repo.block)
	wg.Wait()

	require.Equal(t, int64(1), repo.listCalls.Load())
}

func TestPermissionService_StaleTableFailsSecure(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	repo := &fakePermissionRepo{}
	service := newTestPermissionService(repo, nil, &now)

	require.NoError(t, service.Initialize(t.Context(), false))
	require.True(t, service.HasPermission(t.Context(), model.RoleOperations, model.ActionCreateCase))

	now = now.Add(6 * time.Minute)

	require.False(t, service.HasPermission(t.Context(), model.RoleOperations, model.ActionCreateCase))
	require.True(t, service.HasPermission(t.Context(), model.RoleOperations, model.ActionViewCases))
}

func TestPermissionService_InitializeReturnsFetchError(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	repo := &fakePermissionRepo{
		listFn: func(context.Context) ([]model.Permission, error) {
			return nil, errors.New("connection refused")
		},
	}
	service := newTestPermissionService(repo, nil, &now)

	require.Error(t, service.Initialize(t.Context(), false))
	require.False(t, service.HasPermission(t.Context(), model.RoleOperations, model.ActionCreateCase))
}

func TestPermissionService_ClearAllResetsToEmpty(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	repo := &fakePermissionRepo{}
	service := newTestPermissionService(repo, nil, &now)

	require.NoError(t, service.Initialize(t.Context(), false))
	require.True(t, service.HasPermission(t.Context(), model.RoleOperations, model.ActionCreateCase))

	service.ClearAll()

	require.False(t, service.HasPermission(t.Context(), model.RoleOperations, model.ActionCreateCase))
	require.True(t, service.HasPermission(t.Context(), model.RoleOperations, model.ActionViewCases))
}

func TestPermissionService_UserScopedMemoization(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	repo := &fakePermissionRepo{}
	users := tagcache.New(tagcache.Config{}, logger.NewTestLogger())
	service := newTestPermissionService(repo, users, &now)

	require.NoError(t, service.Initialize(t.Context(), false))

	require.True(t, service.HasPermissionForUser(t.Context(), "user-1", model.RoleOperations, model.ActionCreateCase))
	require.Equal(t, 1, users.Len())

	service.ClearCache("user-1")
	require.Equal(t, 0, users.Len())

	require.True(t, service.HasPermissionForUser(t.Context(), "user-1", model.RoleOperations, model.ActionCreateCase))
	require.False(t, service.HasPermissionForUser(t.Context(), "user-1", model.RoleDriver, model.ActionCreateCase))
	require.Equal(t, 2, users.Len())

	service.ClearAll()
	require.Equal(t, 0, users.Len())
}
