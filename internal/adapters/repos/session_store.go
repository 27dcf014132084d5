package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/medrail/casebook/internal/domain/model"
	"github.com/medrail/casebook/internal/infrastructure"
	"github.com/medrail/casebook/internal/ports"
	"github.com/medrail/casebook/pkg/circuitbreaker"
	"github.com/medrail/casebook/pkg/logger"
)

// Key prefixes carried over from the browser client this service replaced;
// existing sessions keep resolving after a rollout.
const (
	storedVersionsPrefix  = "tm-cache-versions:"
	lastCheckPrefix       = "tm-last-version-check:"
	pendingMismatchPrefix = "tm-mismatch-pending:"
	ackSignaturePrefix    = "tm-mismatch-ack:"
)

// KeydbSessionStore holds per-session reconciliation state in KeyDB. Reads
// and writes go through a circuit breaker so a failing store degrades the
// reconciler instead of stalling every request.
type KeydbSessionStore struct {
	client  *infrastructure.KeydbClient
	breaker *circuitbreaker.CircuitBreaker[[]byte]
	logger  logger.Logger
}

func NewKeydbSessionStore(
	client *infrastructure.KeydbClient,
	breaker *circuitbreaker.CircuitBreaker[[]byte],
	log logger.Logger,
) *KeydbSessionStore {
	return &KeydbSessionStore{
		client:  client,
		breaker: breaker,
		logger:  log,
	}
}

// StoredVersions returns the versions the session has seen. A session with
// no record yet gets an empty map, not an error.
func (s *KeydbSessionStore) StoredVersions(ctx context.Context, sessionID string) (model.StoredVersions, error) {
	data, err := s.get(ctx, storedVersionsPrefix+sessionID)
	if err != nil {
		if errors.Is(err, infrastructure.ErrKeyNotFound) {
			return make(model.StoredVersions), nil
		}

		return nil, fmt.Errorf("getting stored versions: %w", err)
	}

	var versions model.StoredVersions
	if err := json.Unmarshal(data, &versions); err != nil {
		return nil, fmt.Errorf("unmarshalling stored versions: %w", err)
	}

	return versions, nil
}

func (s *KeydbSessionStore) SaveStoredVersions(ctx context.Context, sessionID string, versions model.StoredVersions) error {
	data, err := json.Marshal(versions)
	if err != nil {
		return fmt.Errorf("marshalling stored versions: %w", err)
	}

	return s.set(ctx, storedVersionsPrefix+sessionID, data)
}

func (s *KeydbSessionStore) LastCheck(ctx context.Context, sessionID string) (time.Time, bool, error) {
	data, err := s.get(ctx, lastCheckPrefix+sessionID)
	if err != nil {
		if errors.Is(err, infrastructure.ErrKeyNotFound) {
			return time.Time{}, false, nil
		}

		return time.Time{}, false, fmt.Errorf("getting last check: %w", err)
	}

	millis, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing last check timestamp: %w", err)
	}

	return time.UnixMilli(millis).UTC(), true, nil
}

func (s *KeydbSessionStore) SetLastCheck(ctx context.Context, sessionID string, at time.Time) error {
	return s.set(ctx, lastCheckPrefix+sessionID, []byte(strconv.FormatInt(at.UnixMilli(), 10)))
}

func (s *KeydbSessionStore) PendingMismatch(ctx context.Context, sessionID string) (*ports.PendingMismatch, error) {
	data, err := s.get(ctx, pendingMismatchPrefix+sessionID)
	if err != nil {
		if errors.Is(err, infrastructure.ErrKeyNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("getting pending mismatch: %w", err)
	}

	var pending ports.PendingMismatch
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, fmt.Errorf("unmarshalling pending mismatch: %w", err)
	}

	return &pending, nil
}

func (s *KeydbSessionStore) SetPendingMismatch(ctx context.Context, pending ports.PendingMismatch) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("marshalling pending mismatch: %w", err)
	}

	return s.set(ctx, pendingMismatchPrefix+pending.SessionID, data)
}

func (s *KeydbSessionStore) ClearPendingMismatch(ctx context.Context, sessionID string) error {
	return s.client.Delete(ctx, pendingMismatchPrefix+sessionID)
}

// ListPendingMismatches scans for every pending mismatch. The auto-logout
// sweeper drives this; entries that fail to decode are skipped and logged.
func (s *KeydbSessionStore) ListPendingMismatches(ctx context.Context) ([]ports.PendingMismatch, error) {
	var (
		cursor  uint64
		pending []ports.PendingMismatch
	)

	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, pendingMismatchPrefix+"*", 100)
		if err != nil {
			return nil, fmt.Errorf("scanning pending mismatches: %w", err)
		}

		for _, key := range keys {
			data, err := s.get(ctx, key)
			if err != nil {
				if errors.Is(err, infrastructure.ErrKeyNotFound) {
					continue
				}

				return nil, fmt.Errorf("getting pending mismatch %s: %w", key, err)
			}

			var entry ports.PendingMismatch
			if err := json.Unmarshal(data, &entry); err != nil {
				s.logger.Warn().Str("key", key).Err(err).Msg("skipping undecodable pending mismatch")

				continue
			}

			pending = append(pending, entry)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return pending, nil
}

func (s *KeydbSessionStore) AcknowledgedSignature(ctx context.Context, sessionID string) (string, error) {
	data, err := s.get(ctx, ackSignaturePrefix+sessionID)
	if err != nil {
		if errors.Is(err, infrastructure.ErrKeyNotFound) {
			return "", nil
		}

		return "", fmt.Errorf("getting acknowledged signature: %w", err)
	}

	return string(data), nil
}

func (s *KeydbSessionStore) SetAcknowledgedSignature(ctx context.Context, sessionID, signature string) error {
	return s.set(ctx, ackSignaturePrefix+sessionID, []byte(signature))
}

// Clear removes every key owned by the session. This is the forced-logout
// path: after it returns the session starts from a blank slate.
func (s *KeydbSessionStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Delete(
		ctx,
		storedVersionsPrefix+sessionID,
		lastCheckPrefix+sessionID,
		pendingMismatchPrefix+sessionID,
		ackSignaturePrefix+sessionID,
	)
}

func (s *KeydbSessionStore) IsHealthy(ctx context.Context) bool {
	return s.client.IsHealthy(ctx)
}

// get runs through the breaker but reports a key miss as success, so
// ordinary misses never count toward tripping it.
func (s *KeydbSessionStore) get(ctx context.Context, key string) ([]byte, error) {
	data, err := circuitbreaker.Execute(s.breaker, func() ([]byte, error) {
		value, err := s.client.Get(ctx, key)
		if errors.Is(err, infrastructure.ErrKeyNotFound) {
			return nil, nil
		}

		return value, err
	})
	if err != nil {
		return nil, err
	}

	if data == nil {
		return nil, infrastructure.ErrKeyNotFound
	}

	return data, nil
}

func (s *KeydbSessionStore) set(ctx context.Context, key string, value []byte) error {
	_, err := circuitbreaker.Execute(s.breaker, func() ([]byte, error) {
		return nil, s.client.Set(ctx, key, value, 0)
	})

	return err
}
