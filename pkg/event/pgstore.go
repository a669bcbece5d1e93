package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed event store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the events table if it doesn't exist. Events
// cascade away with their member or session, and the cascaded deletes
// still fire the change-feed triggers row by row.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS events (
			id         TEXT PRIMARY KEY,
			team_id    TEXT NOT NULL,
			member_id  TEXT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			outcome    TEXT NOT NULL,
			quality    TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_events_team ON events(team_id)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_events_member ON events(member_id)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id)`)
	return err
}

// Record inserts a new event and bumps the owning member's tally for
// the outcome, in one transaction. The FK on session_id rejects events
// for sessions that no longer exist.
func (s *PgStore) Record(ctx context.Context, teamID, memberID, sessionID string, outcome Outcome, quality Quality) (*Event, error) {
	e := &Event{
		ID:        uuid.Must(uuid.NewV7()).String(),
		TeamID:    teamID,
		MemberID:  memberID,
		SessionID: sessionID,
		Outcome:   outcome,
		Quality:   quality,
		CreatedAt: time.Now().Truncate(time.Microsecond),
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO events (id, team_id, member_id, session_id, outcome, quality, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.TeamID, e.MemberID, e.SessionID, string(e.Outcome), string(e.Quality), e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("record event: %w", err)
	}

	if err := adjustTally(ctx, tx, memberID, outcome, +1); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit event: %w", err)
	}
	return e, nil
}

// Delete removes an event and decrements the owner's tally, floored at
// zero, in one transaction. Deleting an already-deleted event is a
// no-op, which makes the operation safe to repeat.
func (s *PgStore) Delete(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var memberID string
	var outcome string
	err = tx.QueryRow(ctx, `
		DELETE FROM events WHERE id = $1 RETURNING member_id, outcome`, id).
		Scan(&memberID, &outcome)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}

	if err := adjustTally(ctx, tx, memberID, Outcome(outcome), -1); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit event delete: %w", err)
	}
	return nil
}

// ByTeam returns all events for a team in creation order.
func (s *PgStore) ByTeam(ctx context.Context, teamID string) ([]Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, team_id, member_id, session_id, outcome, quality, created_at
		FROM events WHERE team_id = $1 ORDER BY created_at ASC, id ASC`, teamID)
	if err != nil {
		return nil, fmt.Errorf("events by team: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.TeamID, &e.MemberID, &e.SessionID, &e.Outcome, &e.Quality, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func adjustTally(ctx context.Context, tx pgx.Tx, memberID string, outcome Outcome, delta int) error {
	col := "won"
	if outcome == OutcomeLost {
		col = "lost"
	}
	_, err := tx.Exec(ctx,
		fmt.Sprintf(`UPDATE members SET %s = GREATEST(0, %s + $1) WHERE id = $2`, col, col),
		delta, memberID)
	if err != nil {
		return fmt.Errorf("adjust %s tally for %s: %w", col, memberID, err)
	}
	return nil
}
