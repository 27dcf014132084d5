package services

import (
	"context"

	"github.com/medrail/casebook/internal/domain/model"
	"github.com/medrail/casebook/internal/ports"
	"github.com/medrail/casebook/pkg/logger"
	"github.com/medrail/casebook/pkg/tagcache"
)

// NewChangeHandler wires database change events into the caches: the table
// name is used directly as an invalidation tag, "table:<name>" subscribers
// are notified, and a change to the permission matrix drops the permission
// table so the next check reloads it.
func NewChangeHandler(
	cache *tagcache.Cache,
	permissions ports.PermissionChecker,
	log logger.Logger,
) func(ctx context.Context, event ports.ChangeEvent) {
	return func(_ context.Context, event ports.ChangeEvent) {
		removed := cache.InvalidateByTag(event.Table)

		cache.Notify("table:"+event.Table, tagcache.Event{
			Pattern: "table:" + event.Table,
			Tag:     event.Table,
		})

		if event.Table == model.TablePermissions && permissions != nil {
			permissions.ClearAll()
		}

		log.Debug().
			Str("table", event.Table).
			Str("event_type", event.EventType).
			Int("invalidated", removed).
			Msg("change event applied to caches")
	}
}
