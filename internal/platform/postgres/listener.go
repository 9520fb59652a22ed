package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phrazzld/scry-worker/internal/events"
)

// TaskChangesChannel is the NOTIFY channel the tasks trigger publishes on.
const TaskChangesChannel = "task_changes"

const (
	defaultListenerBuffer = 64
	defaultReconnectDelay = 2 * time.Second
	unlistenTimeout       = 2 * time.Second
)

// notificationConn is one LISTENing session.
type notificationConn interface {
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Release()
}

// connectFunc opens a session already LISTENing on channel.
type connectFunc func(ctx context.Context, channel string) (notificationConn, error)

// Listener is an events.Source fed by PostgreSQL LISTEN/NOTIFY. Delivery is
// at-least-once from the moment a session is listening; notifications sent
// while reconnecting are lost, which the watcher's backfill sweep covers.
type Listener struct {
	connect        connectFunc
	channel        string
	bufferSize     int
	reconnectDelay time.Duration
	logger         *slog.Logger
}

var _ events.Source = (*Listener)(nil)

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

// WithChannel overrides the NOTIFY channel.
func WithChannel(channel string) ListenerOption {
	return func(l *Listener) { l.channel = channel }
}

// WithReconnectDelay sets the pause before re-establishing a dropped session.
func WithReconnectDelay(d time.Duration) ListenerOption {
	return func(l *Listener) { l.reconnectDelay = d }
}

// NewListener creates a Listener over pool.
func NewListener(pool *pgxpool.Pool, logger *slog.Logger, opts ...ListenerOption) *Listener {
	return newListener(poolConnector(pool), logger, opts...)
}

func newListener(connect connectFunc, logger *slog.Logger, opts ...ListenerOption) *Listener {
	l := &Listener{
		connect:        connect,
		channel:        TaskChangesChannel,
		bufferSize:     defaultListenerBuffer,
		reconnectDelay: defaultReconnectDelay,
		logger:         logger.With("component", "pg_listener"),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("channel", l.channel)
	return l
}

// Subscribe starts listening and returns the event stream. The first session
// is opened synchronously so a bad connection is reported to the caller; later
// drops are retried until ctx is done. The channel closes when ctx is done.
func (l *Listener) Subscribe(ctx context.Context) (<-chan events.ChangeEvent, error) {
	conn, err := l.connect(ctx, l.channel)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", l.channel, err)
	}

	out := make(chan events.ChangeEvent, l.bufferSize)
	go l.loop(ctx, conn, out)
	return out, nil
}

func (l *Listener) loop(ctx context.Context, conn notificationConn, out chan<- events.ChangeEvent) {
	defer close(out)

	for {
		err := l.drain(ctx, conn, out)
		conn.Release()
		if ctx.Err() != nil {
			return
		}
		l.logger.Warn("listen session dropped, reconnecting", "error", err)

		conn = l.reconnect(ctx)
		if conn == nil {
			return
		}
	}
}

// drain forwards notifications until the session or ctx fails.
func (l *Listener) drain(ctx context.Context, conn notificationConn, out chan<- events.ChangeEvent) error {
	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}

		ev, err := decodeNotification(n)
		if err != nil {
			l.logger.Warn("ignoring malformed notification", "error", err)
			continue
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Listener) reconnect(ctx context.Context) notificationConn {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.reconnectDelay):
		}

		conn, err := l.connect(ctx, l.channel)
		if err == nil {
			l.logger.Info("listen session re-established")
			return conn
		}
		l.logger.Warn("reconnect failed", "error", err)
	}
}

// notificationPayload is the JSON the tasks trigger sends.
type notificationPayload struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

func decodeNotification(n *pgconn.Notification) (events.ChangeEvent, error) {
	if n == nil {
		return events.ChangeEvent{}, errors.New("nil notification")
	}
	var p notificationPayload
	if err := json.Unmarshal([]byte(n.Payload), &p); err != nil {
		return events.ChangeEvent{}, fmt.Errorf("decode payload: %w", err)
	}
	if p.Collection == "" || p.ID == "" {
		return events.ChangeEvent{}, errors.New("payload lacks collection or id")
	}
	return events.ChangeEvent{
		Collection: p.Collection,
		DocumentID: p.ID,
		Snapshot:   json.RawMessage(n.Payload),
		ObservedAt: time.Now().UTC(),
	}, nil
}

// pooledConn adapts a pooled connection to notificationConn.
type pooledConn struct {
	conn *pgxpool.Conn
}

func (c *pooledConn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	return c.conn.Conn().WaitForNotification(ctx)
}

// Release drops the subscription before handing the session back.
func (c *pooledConn) Release() {
	if !c.conn.Conn().IsClosed() {
		ctx, cancel := context.WithTimeout(context.Background(), unlistenTimeout)
		_, _ = c.conn.Exec(ctx, "UNLISTEN *")
		cancel()
	}
	c.conn.Release()
}

func poolConnector(pool *pgxpool.Pool) connectFunc {
	return func(ctx context.Context, channel string) (notificationConn, error) {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
			conn.Release()
			return nil, err
		}
		return &pooledConn{conn: conn}, nil
	}
}
