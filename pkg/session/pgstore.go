package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed session store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the sessions table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			team_id    TEXT NOT NULL,
			date       TIMESTAMPTZ NOT NULL,
			type       TEXT NOT NULL,
			title      TEXT NOT NULL DEFAULT '',
			notes      TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_sessions_team ON sessions(team_id)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_sessions_type ON sessions(team_id, type)`)
	return err
}

// Create inserts a new session.
func (s *PgStore) Create(ctx context.Context, teamID string, date time.Time, typ, title, notes string) (*Session, error) {
	sess := &Session{
		ID:        uuid.Must(uuid.NewV7()).String(),
		TeamID:    teamID,
		Date:      date.Truncate(time.Microsecond),
		Type:      typ,
		Title:     title,
		Notes:     notes,
		CreatedAt: time.Now().Truncate(time.Microsecond),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, team_id, date, type, title, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sess.ID, sess.TeamID, sess.Date, sess.Type, sess.Title, sess.Notes, sess.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// Get retrieves a single session by ID.
func (s *PgStore) Get(ctx context.Context, id string) (*Session, error) {
	sess, err := s.scanOne(ctx, `
		SELECT id, team_id, date, type, title, notes, created_at
		FROM sessions WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return sess, nil
}

// ByTeam returns all sessions of a team, most recent date first.
func (s *PgStore) ByTeam(ctx context.Context, teamID string) ([]Session, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, team_id, date, type, title, notes, created_at
		FROM sessions WHERE team_id = $1 ORDER BY date DESC, id DESC`, teamID)
	if err != nil {
		return nil, fmt.Errorf("sessions by team: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.TeamID, &sess.Date, &sess.Type, &sess.Title, &sess.Notes, &sess.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Retitle updates the session title, the only editable field.
func (s *PgStore) Retitle(ctx context.Context, id, title string) (*Session, error) {
	sess, err := s.scanOne(ctx, `
		UPDATE sessions SET title = $1 WHERE id = $2
		RETURNING id, team_id, date, type, title, notes, created_at`, title, id)
	if err != nil {
		return nil, fmt.Errorf("retitle session %s: %w", id, err)
	}
	return sess, nil
}

// Delete removes a session; its events cascade away, so the owning
// members' lifetime tallies are wound back in the same transaction to
// keep them equal to the events that remain.
func (s *PgStore) Delete(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE members m SET
			won  = GREATEST(0, m.won  - x.won),
			lost = GREATEST(0, m.lost - x.lost)
		FROM (
			SELECT member_id,
			       COUNT(*) FILTER (WHERE outcome = 'won')  AS won,
			       COUNT(*) FILTER (WHERE outcome = 'lost') AS lost
			FROM events WHERE session_id = $1
			GROUP BY member_id
		) x
		WHERE m.id = x.member_id`, id)
	if err != nil {
		return fmt.Errorf("unwind tallies for session %s: %w", id, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit session delete: %w", err)
	}
	return nil
}

func (s *PgStore) scanOne(ctx context.Context, query string, args ...any) (*Session, error) {
	var sess Session
	err := s.pool.QueryRow(ctx, query, args...).
		Scan(&sess.ID, &sess.TeamID, &sess.Date, &sess.Type, &sess.Title, &sess.Notes, &sess.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// PgTypeStore is a PostgreSQL-backed custom session-type store.
type PgTypeStore struct {
	pool *pgxpool.Pool
}

// NewPgTypeStore creates a PgTypeStore.
func NewPgTypeStore(pool *pgxpool.Pool) *PgTypeStore {
	return &PgTypeStore{pool: pool}
}

// EnsureTable creates the session_types table if it doesn't exist.
func (s *PgTypeStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS session_types (
			team_id TEXT NOT NULL,
			code    TEXT NOT NULL,
			name    TEXT NOT NULL,
			PRIMARY KEY (team_id, code)
		)`)
	return err
}

// Upsert creates or replaces a custom type definition.
func (s *PgTypeStore) Upsert(ctx context.Context, teamID, code, name string) (*CustomType, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO session_types (team_id, code, name) VALUES ($1, $2, $3)
		ON CONFLICT (team_id, code) DO UPDATE SET name = EXCLUDED.name`,
		teamID, code, name)
	if err != nil {
		return nil, fmt.Errorf("upsert session type %s: %w", code, err)
	}
	return &CustomType{TeamID: teamID, Code: code, Name: name}, nil
}

// Delete removes a custom type definition.
func (s *PgTypeStore) Delete(ctx context.Context, teamID, code string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM session_types WHERE team_id = $1 AND code = $2`, teamID, code)
	if err != nil {
		return fmt.Errorf("delete session type %s: %w", code, err)
	}
	return nil
}

// ByTeam returns all custom type definitions for a team.
func (s *PgTypeStore) ByTeam(ctx context.Context, teamID string) ([]CustomType, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT team_id, code, name FROM session_types WHERE team_id = $1 ORDER BY code ASC`, teamID)
	if err != nil {
		return nil, fmt.Errorf("session types by team: %w", err)
	}
	defer rows.Close()

	var types []CustomType
	for rows.Next() {
		var c CustomType
		if err := rows.Scan(&c.TeamID, &c.Code, &c.Name); err != nil {
			return nil, err
		}
		types = append(types, c)
	}
	return types, rows.Err()
}
