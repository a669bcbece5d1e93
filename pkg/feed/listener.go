package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Listener subscribes to one team's change channel and forwards each
// decoded Change to a handler. One Listener exists per active team;
// switching teams means cancelling this one and starting another.
type Listener struct {
	pool   *pgxpool.Pool
	teamID string

	// OnSubscribe, if set, runs after every successful LISTEN, including
	// reconnects. Pointing it at the cache's full reload closes the gap
	// left by notifications missed while disconnected.
	OnSubscribe func(ctx context.Context) error
}

// NewListener creates a Listener for a team.
func NewListener(pool *pgxpool.Pool, teamID string) *Listener {
	return &Listener{pool: pool, teamID: teamID}
}

// Run listens until ctx is cancelled, calling fn for every change that
// belongs to the subscribed team. Notifications for any other team,
// possible when a connection is reused across a team switch, are
// dropped without being forwarded. Connection failures are retried
// with capped exponential backoff; only cancellation ends the loop.
func (l *Listener) Run(ctx context.Context, fn func(Change)) error {
	backoff := time.Second
	for {
		err := l.listen(ctx, fn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("change feed disconnected, retrying",
			"team", l.teamID, "backoff", backoff, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (l *Listener) listen(ctx context.Context, fn func(Change)) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen conn: %w", err)
	}
	defer conn.Release()

	channel := pgx.Identifier{Channel(l.teamID)}.Sanitize()
	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		return fmt.Errorf("listen %s: %w", channel, err)
	}
	slog.Info("change feed subscribed", "team", l.teamID)

	// Subscribe first, then resync: anything committed between the two
	// arrives as a change and reconciles idempotently on top.
	if l.OnSubscribe != nil {
		if err := l.OnSubscribe(ctx); err != nil {
			return fmt.Errorf("resync after subscribe: %w", err)
		}
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		var ch Change
		if err := json.Unmarshal([]byte(n.Payload), &ch); err != nil {
			slog.Warn("undecodable change payload", "team", l.teamID, "error", err)
			continue
		}
		if ch.TeamID != l.teamID {
			// Stale or cross-team notification; never forward.
			continue
		}
		fn(ch)
	}
}
