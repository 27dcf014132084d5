package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/medrail/casebook/internal/config"
	"github.com/medrail/casebook/internal/ports"
	"github.com/medrail/casebook/pkg/logger"
)

type (
	// Handler receives each decoded change event. Calls happen on the
	// listener goroutine, so handlers must not block for long.
	Handler func(ctx context.Context, event ports.ChangeEvent)

	// notificationConn is the slice of *pgx.Conn the listener needs.
	notificationConn interface {
		Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
		WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
		Close(ctx context.Context) error
	}

	// Listener holds a dedicated database connection subscribed to the
	// change channel that table triggers notify on. Lost connections are
	// re-established with exponential backoff; handlers see at-least-once
	// delivery while connected and may miss events across a reconnect,
	// which is acceptable because every event only invalidates caches.
	Listener struct {
		cfg     config.Realtime
		connect func(ctx context.Context) (notificationConn, error)
		handler Handler
		logger  logger.Logger

		cancel context.CancelFunc
		done   chan struct{}
	}
)

// NewListener creates a listener that dials the database with connString
// and forwards decoded events to handler.
func NewListener(connString string, cfg config.Realtime, handler Handler, log logger.Logger) *Listener {
	return &Listener{
		cfg: cfg,
		connect: func(ctx context.Context) (notificationConn, error) {
			return pgx.Connect(ctx, connString)
		},
		handler: handler,
		logger:  log,
		done:    make(chan struct{}),
	}
}

// Start launches the listen loop in the background. It returns once the
// first connection attempt has been scheduled, not once it has succeeded.
func (l *Listener) Start(ctx context.Context) error {
	if l.handler == nil {
		return fmt.Errorf("realtime listener requires a handler")
	}

	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	go l.run(runCtx)

	return nil
}

// Close stops the listen loop and waits for it to exit.
func (l *Listener) Close() error {
	if l.cancel == nil {
		return nil
	}

	l.cancel()
	<-l.done

	return nil
}

func (l *Listener) run(ctx context.Context) {
	defer close(l.done)

	for {
		conn, err := l.connectWithRetry(ctx)
		if err != nil {
			return
		}

		l.logger.Info().Str("channel", l.cfg.Channel).Msg("realtime listener connected")

		err = l.listen(ctx, conn)

		if closeErr := conn.Close(context.WithoutCancel(ctx)); closeErr != nil {
			l.logger.Warn().Err(closeErr).Msg("failed to close realtime connection")
		}

		if ctx.Err() != nil {
			return
		}

		l.logger.Warn().Err(err).Msg("realtime listener disconnected, reconnecting")
	}
}

// connectWithRetry dials until it succeeds or the context is canceled.
func (l *Listener) connectWithRetry(ctx context.Context) (notificationConn, error) {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = l.cfg.ReconnectMinDelay
	expBackoff.MaxInterval = l.cfg.ReconnectMaxDelay

	operation := func() (notificationConn, error) {
		conn, err := l.connect(ctx)
		if err != nil {
			l.logger.Warn().Err(err).Msg("realtime connection attempt failed")

			return nil, err
		}

		if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.cfg.Channel}.Sanitize()); err != nil {
			_ = conn.Close(context.WithoutCancel(ctx))

			return nil, fmt.Errorf("subscribing to channel %q: %w", l.cfg.Channel, err)
		}

		return conn, nil
	}

	return backoff.Retry(ctx, operation, backoff.WithBackOff(expBackoff))
}

func (l *Listener) listen(ctx context.Context, conn notificationConn) error {
	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var event ports.ChangeEvent
		if err := json.Unmarshal([]byte(notification.Payload), &event); err != nil {
			l.logger.Warn().
				Str("channel", notification.Channel).
				Err(err).
				Msg("skipping undecodable change notification")

			continue
		}

		if event.Table == "" {
			l.logger.Warn().Str("channel", notification.Channel).Msg("skipping change notification without table")

			continue
		}

		l.handler(ctx, event)
	}
}
