package ports

import "context"

type (
	// ChangeEvent mirrors the payload published by the database triggers:
	// the table that changed, the operation, and the old/new rows as raw
	// JSON. The table name doubles as the cache invalidation tag.
	ChangeEvent struct {
		Table     string `json:"table"`
		EventType string `json:"event_type"`
		New       []byte `json:"new,omitempty"`
		Old       []byte `json:"old,omitempty"`
	}

	// ChangeFeed streams row-change events from the data store.
	ChangeFeed interface {
		Start(ctx context.Context) error
		Close() error
	}
)
