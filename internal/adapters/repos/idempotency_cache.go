package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/medrail/casebook/internal/infrastructure"
	"github.com/medrail/casebook/internal/ports"
)

// KeydbIdempotencyCache stores replayable mutation responses in KeyDB.
type KeydbIdempotencyCache struct {
	client *infrastructure.KeydbClient
}

func NewKeydbIdempotencyCache(client *infrastructure.KeydbClient) *KeydbIdempotencyCache {
	return &KeydbIdempotencyCache{client: client}
}

func (c *KeydbIdempotencyCache) Get(ctx context.Context, key string) (*ports.CachedResponse, error) {
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, infrastructure.ErrKeyNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading cached response: %w", err)
	}

	var response ports.CachedResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("decoding cached response: %w", err)
	}

	return &response, nil
}

func (c *KeydbIdempotencyCache) Set(ctx context.Context, key string, response *ports.CachedResponse, ttl time.Duration) error {
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("encoding cached response: %w", err)
	}

	return c.client.Set(ctx, key, data, ttl)
}

func (c *KeydbIdempotencyCache) SetLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, key+":lock", []byte("1"), ttl)
}

func (c *KeydbIdempotencyCache) ReleaseLock(ctx context.Context, key string) error {
	return c.client.Delete(ctx, key+":lock")
}
