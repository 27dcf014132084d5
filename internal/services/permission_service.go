package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/medrail/casebook/internal/config"
	"github.com/medrail/casebook/internal/domain/model"
	"github.com/medrail/casebook/internal/ports"
	"github.com/medrail/casebook/pkg/logger"
	"github.com/medrail/casebook/pkg/tagcache"
	"golang.org/x/sync/singleflight"
)

type tableState int

const (
	stateEmpty tableState = iota
	stateFresh
	stateStale
)

const (
	refreshKey = "permissions-refresh"

	// TagPermissions marks every permission-derived cache entry.
	TagPermissions = "permissions"
)

// criticalActions answer true while the table is empty or stale so a slow
// refresh never locks users out of basic navigation.
var criticalActions = map[string]bool{
	model.ActionViewCases: true,
	model.ActionLogout:    true,
}

// adminCriticalActions get the same treatment, but only for the admin role.
var adminCriticalActions = map[string]bool{
	model.ActionManageUsers:      true,
	model.ActionSystemSettings:   true,
	model.ActionPermissionMatrix: true,
	model.ActionAuditLogs:        true,
}

// UserTag renders the invalidation tag carried by user-scoped cache entries.
func UserTag(userID string) string {
	return "user:" + userID
}

// PermissionService keeps the role/action matrix in memory behind a TTL.
// Checks are synchronous table lookups; refreshes happen in the background.
//
// Policy: permission checks fail closed (deny on empty or stale table,
// except for the critical allowlists), in contrast to version checks which
// fail open. This is not a security control — enforcement lives in the
// database policies; the table only gates UI affordances.
type PermissionService struct {
	repo   ports.PermissionRepository
	users  *tagcache.Cache
	cfg    config.Permissions
	logger logger.Logger
	group  singleflight.Group

	mu        sync.RWMutex
	table     model.PermissionTable
	fetchedAt time.Time
	timer     *time.Timer

	now func() time.Time
}

// NewPermissionService creates the service. users may be nil, disabling
// user-scoped memoization.
func NewPermissionService(
	repo ports.PermissionRepository,
	users *tagcache.Cache,
	cfg config.Permissions,
	log logger.Logger,
) *PermissionService {
	return &PermissionService{
		repo:   repo,
		users:  users,
		cfg:    cfg,
		logger: log,
		now:    time.Now,
	}
}

// HasPermission answers from the in-memory table when it is fresh. Absence
// of an allow row means denied. An empty or stale table answers true only
// for the critical allowlists and kicks off one background refresh.
func (s *PermissionService) HasPermission(_ context.Context, roleID, actionID string) bool {
	s.mu.RLock()
	table := s.table
	state := s.stateLocked()
	s.mu.RUnlock()

	if state == stateFresh {
		return table.Allowed(roleID, actionID)
	}

	s.refreshAsync()

	if criticalActions[actionID] {
		return true
	}

	if roleID == model.RoleAdmin && adminCriticalActions[actionID] {
		return true
	}

	return false
}

// HasPermissionForUser memoizes fresh-table answers per user in the shared
// tagged cache, so ClearCache can drop one user's entries.
func (s *PermissionService) HasPermissionForUser(ctx context.Context, userID, roleID, actionID string) bool {
	key := userPermissionKey(userID, roleID, actionID)

	if s.users != nil {
		if cached, ok := s.users.Get(key); ok {
			if allowed, ok := cached.(bool); ok {
				return allowed
			}
		}
	}

	allowed := s.HasPermission(ctx, roleID, actionID)

	s.mu.RLock()
	fresh := s.stateLocked() == stateFresh
	s.mu.RUnlock()

	// Allowlist fallbacks are provisional, only fresh answers are cached.
	if fresh && s.users != nil {
		if err := s.users.Set(key, allowed,
			tagcache.WithTTL(s.cfg.CacheTTL),
			tagcache.WithTags(TagPermissions, UserTag(userID)),
		); err != nil {
			s.logger.Debug().Str("key", key).Err(err).Msg("failed to memoize permission check")
		}
	}

	return allowed
}

// Initialize loads the table unless it is already fresh. Concurrent callers
// share one in-flight fetch; forceRefresh abandons sharing and starts a new
// fetch even if one is running.
func (s *PermissionService) Initialize(ctx context.Context, forceRefresh bool) error {
	if !forceRefresh {
		s.mu.RLock()
		fresh := s.stateLocked() == stateFresh
		s.mu.RUnlock()

		if fresh {
			return nil
		}
	}

	if forceRefresh {
		s.group.Forget(refreshKey)
	}

	return s.refresh(ctx, forceRefresh)
}

// ClearCache drops one user's memoized entries.
func (s *PermissionService) ClearCache(userID string) {
	if s.users == nil {
		return
	}

	removed := s.users.InvalidateByTag(UserTag(userID))

	s.logger.Debug().Str("user_id", userID).Int("removed", removed).Msg("cleared user permission entries")
}

// ClearAll drops the table, every user-scoped entry, and cancels the
// renewal timer. The next check starts from the empty state.
func (s *PermissionService) ClearAll() {
	s.mu.Lock()
	s.table = nil
	s.fetchedAt = time.Time{}

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	if s.users != nil {
		s.users.InvalidateByTag(TagPermissions)
	}

	s.logger.Info().Msg("permission cache cleared")
}

func (s *PermissionService) refreshAsync() {
	go func() {
		if err := s.refresh(context.Background(), false); err != nil {
			s.logger.Warn().Err(err).Msg("background permission refresh failed")
		}
	}()
}

func (s *PermissionService) refresh(ctx context.Context, force bool) error {
	_, err, _ := s.group.Do(refreshKey, func() (any, error) {
		if !force {
			s.mu.RLock()
			fresh := s.stateLocked() == stateFresh
			s.mu.RUnlock()

			// Another caller refreshed while this one queued.
			if fresh {
				return nil, nil
			}
		}

		permissions, err := s.repo.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading permission matrix: %w", err)
		}

		table := model.BuildPermissionTable(permissions)

		s.mu.Lock()
		s.table = table
		s.fetchedAt = s.now()
		s.scheduleRenewalLocked()
		s.mu.Unlock()

		s.logger.Info().Int("roles", len(table)).Msg("permission matrix refreshed")

		return nil, nil
	})

	return err
}

// scheduleRenewalLocked arms the self-renewing timer one leeway before the
// table would go stale. Callers hold s.mu.
func (s *PermissionService) scheduleRenewalLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}

	delay := s.cfg.CacheTTL - s.cfg.RefreshLeeway
	if delay <= 0 {
		delay = s.cfg.CacheTTL / 2
	}
	if delay <= 0 {
		return
	}

	s.timer = time.AfterFunc(delay, s.renew)
}

// renew refreshes the table before expiry, retrying with exponential
// backoff. A successful refresh re-arms the timer; exhausted retries leave
// a stale table that the next check repairs.
func (s *PermissionService) renew() {
	expBackoff := backoff.NewExponentialBackOff()

	operation := func() (struct{}, error) {
		return struct{}{}, s.refresh(context.Background(), true)
	}

	if _, err := backoff.Retry(
		context.Background(),
		operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxElapsedTime(s.cfg.RetryMaxElapsed),
	); err != nil {
		s.logger.Error().Err(err).Msg("scheduled permission refresh failed")
	}
}

// stateLocked derives the cache state. Callers hold s.mu.
func (s *PermissionService) stateLocked() tableState {
	if s.table == nil {
		return stateEmpty
	}

	if s.now().Sub(s.fetchedAt) < s.cfg.CacheTTL {
		return stateFresh
	}

	return stateStale
}

func userPermissionKey(userID, roleID, actionID string) string {
	return "permissions:user:" + userID + ":" + roleID + ":" + actionID
}
