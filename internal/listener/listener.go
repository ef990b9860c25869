package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gradlink/gradlink-backend/internal/cache"
	"github.com/gradlink/gradlink-backend/internal/platform/logger"
)

// Status is the listener's externally observable connection state.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"

	// StatusDisabled is terminal: the reconnect budget is exhausted and
	// the caches fall back to TTL-bounded staleness.
	StatusDisabled Status = "disabled"
)

const (
	DefaultChannel     = "gradlink_changes"
	DefaultMaxAttempts = 10

	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// ChangeEvent is the notification payload. Producers may attach extra
// fields; only these three matter here.
type ChangeEvent struct {
	Table       string `json:"table"`
	Operation   string `json:"operation"`
	IdentityKey string `json:"identity_key,omitempty"`
}

// notifyConn is the slice of a pgx connection the listener uses; tests
// substitute a fake.
type notifyConn interface {
	Exec(ctx context.Context, sql string) error
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

type dialFunc func(ctx context.Context) (notifyConn, error)

type pgxConn struct {
	conn *pgx.Conn
}

func (c *pgxConn) Exec(ctx context.Context, sql string) error {
	_, err := c.conn.Exec(ctx, sql)
	return err
}

func (c *pgxConn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	return c.conn.WaitForNotification(ctx)
}

func (c *pgxConn) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// ChangeListener holds one long-lived LISTEN connection, parses change
// notifications onto a queue, and evicts cache entries from a single
// invalidation worker. Connection trouble is retried with exponential
// backoff; the synchronous request path never depends on it.
type ChangeListener struct {
	log         *logger.Logger
	dial        dialFunc
	channel     string
	maxAttempts int

	identity   *cache.IdentityCache
	similarity *cache.SimilarityCache

	events chan ChangeEvent
	sleep  func(ctx context.Context, d time.Duration) bool

	mu     sync.Mutex
	status Status
	conn   notifyConn

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewChangeListener(dsn, channel string, maxAttempts int, identity *cache.IdentityCache, similarity *cache.SimilarityCache, log *logger.Logger) *ChangeListener {
	if strings.TrimSpace(channel) == "" {
		channel = DefaultChannel
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &ChangeListener{
		log:         log.With("service", "ChangeListener"),
		channel:     channel,
		maxAttempts: maxAttempts,
		identity:    identity,
		similarity:  similarity,
		events:      make(chan ChangeEvent, 64),
		status:      StatusDisconnected,
		sleep:       sleepCtx,
		dial: func(ctx context.Context) (notifyConn, error) {
			conn, err := pgx.Connect(ctx, dsn)
			if err != nil {
				return nil, err
			}
			return &pgxConn{conn: conn}, nil
		},
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (l *ChangeListener) Start(ctx context.Context) {
	if l == nil || l.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.wg.Add(2)
	go l.connectionLoop(ctx)
	go l.invalidationWorker(ctx)
}

// Status reports the current connection state synchronously.
func (l *ChangeListener) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Healthy issues a trivial round-trip query on a short-lived connection;
// the listen connection itself is busy blocking in WaitForNotification.
func (l *ChangeListener) Healthy(ctx context.Context) bool {
	conn, err := l.dial(ctx)
	if err != nil {
		return false
	}
	defer func() { _ = conn.Close(ctx) }()
	return conn.Exec(ctx, "SELECT 1") == nil
}

// Close cancels any pending reconnect timer, closes the connection, and
// downgrades close errors to warnings.
func (l *ChangeListener) Close() {
	if l == nil || l.cancel == nil {
		return
	}
	l.cancel()

	l.mu.Lock()
	conn := l.conn
	l.conn = nil
	l.mu.Unlock()

	if conn != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := conn.Close(closeCtx); err != nil {
			l.log.Warn("error closing listener connection", "error", err)
		}
	}
	l.wg.Wait()
	l.setStatus(StatusDisconnected)
}

func (l *ChangeListener) setStatus(s Status) {
	l.mu.Lock()
	l.status = s
	l.mu.Unlock()
}

func (l *ChangeListener) setConn(conn notifyConn) {
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
}

func (l *ChangeListener) connectionLoop(ctx context.Context) {
	defer l.wg.Done()

	backoff := initialBackoff
	attempts := 0

	for {
		if ctx.Err() != nil {
			return
		}
		if attempts == 0 {
			l.setStatus(StatusConnecting)
		} else {
			l.setStatus(StatusReconnecting)
		}

		connected, err := l.listenOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if connected {
			// A completed LISTEN session closes the failure series; the
			// next outage gets a fresh budget and the 1s starting delay.
			attempts = 0
			backoff = initialBackoff
		}

		attempts++
		if attempts >= l.maxAttempts {
			l.setStatus(StatusDisabled)
			l.log.Error("listener reconnect budget exhausted; disabling, caches degrade to TTL staleness",
				"attempts", attempts, "error", err)
			return
		}

		l.log.Warn("listener connection lost; scheduling reconnect",
			"attempt", attempts, "backoff", backoff.String(), "error", err)
		if !l.sleep(ctx, backoff) {
			return
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// listenOnce dials, subscribes, and pumps notifications until the
// connection fails or the context ends. The bool reports whether the
// subscription was established before the session ended.
func (l *ChangeListener) listenOnce(ctx context.Context) (bool, error) {
	conn, err := l.dial(ctx)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}

	listenSQL := "LISTEN " + pgx.Identifier{l.channel}.Sanitize()
	if err := conn.Exec(ctx, listenSQL); err != nil {
		_ = conn.Close(ctx)
		return false, fmt.Errorf("listen: %w", err)
	}

	l.setConn(conn)
	l.setStatus(StatusConnected)
	l.log.Info("listening for change notifications", "channel", l.channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			l.setConn(nil)
			_ = conn.Close(ctx)
			if ctx.Err() != nil {
				return true, ctx.Err()
			}
			return true, fmt.Errorf("wait for notification: %w", err)
		}
		l.enqueue(ctx, notification.Payload)
	}
}

func (l *ChangeListener) enqueue(ctx context.Context, payload string) {
	var event ChangeEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		l.log.Warn("dropping malformed change notification", "error", err)
		return
	}
	if event.Table == "" || event.Operation == "" {
		l.log.Warn("dropping change notification with missing fields", "payload", payload)
		return
	}
	select {
	case <-ctx.Done():
	case l.events <- event:
	}
}

func (l *ChangeListener) invalidationWorker(ctx context.Context) {
	defer l.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-l.events:
			l.apply(ctx, event)
		}
	}
}

func (l *ChangeListener) apply(ctx context.Context, event ChangeEvent) {
	switch event.Table {
	case "user":
		if event.IdentityKey == "" {
			return
		}
		userID, err := uuid.Parse(event.IdentityKey)
		if err != nil {
			l.log.Warn("change event carries unparsable identity key", "error", err)
			return
		}
		l.identity.Evict(ctx, userID)
		l.log.Debug("evicted identity cache entry", "user_id", event.IdentityKey, "operation", event.Operation)
	case "tag", "tag_similarity":
		l.similarity.Invalidate(ctx)
	default:
		// Unknown tables are a forward-compatibility case, not an error.
		l.log.Debug("ignoring change event for unwatched table", "table", event.Table)
	}
}
