package member

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed member store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the members table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS members (
			id         TEXT PRIMARY KEY,
			team_id    TEXT NOT NULL,
			name       TEXT NOT NULL,
			tags       TEXT[] NOT NULL DEFAULT '{}',
			won        INTEGER NOT NULL DEFAULT 0,
			lost       INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_members_team ON members(team_id)`)
	return err
}

// Create inserts a new member with zeroed tallies.
func (s *PgStore) Create(ctx context.Context, teamID, name string, tags []string) (*Member, error) {
	if tags == nil {
		tags = []string{}
	}
	m := &Member{
		ID:        uuid.Must(uuid.NewV7()).String(),
		TeamID:    teamID,
		Name:      name,
		Tags:      tags,
		CreatedAt: time.Now().Truncate(time.Microsecond),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO members (id, team_id, name, tags, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.TeamID, m.Name, m.Tags, m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}
	return m, nil
}

// Get retrieves a single member by ID.
func (s *PgStore) Get(ctx context.Context, id string) (*Member, error) {
	m, err := s.scanOne(ctx, `
		SELECT id, team_id, name, tags, won, lost, created_at
		FROM members WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get member %s: %w", id, err)
	}
	return m, nil
}

// ByTeam returns all members of a team in creation order.
func (s *PgStore) ByTeam(ctx context.Context, teamID string) ([]Member, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, team_id, name, tags, won, lost, created_at
		FROM members WHERE team_id = $1 ORDER BY created_at ASC, id ASC`, teamID)
	if err != nil {
		return nil, fmt.Errorf("members by team: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.TeamID, &m.Name, &m.Tags, &m.Won, &m.Lost, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// Rename updates the display name.
func (s *PgStore) Rename(ctx context.Context, id, name string) (*Member, error) {
	m, err := s.scanOne(ctx, `
		UPDATE members SET name = $1 WHERE id = $2
		RETURNING id, team_id, name, tags, won, lost, created_at`, name, id)
	if err != nil {
		return nil, fmt.Errorf("rename member %s: %w", id, err)
	}
	return m, nil
}

// Retag replaces the tag set.
func (s *PgStore) Retag(ctx context.Context, id string, tags []string) (*Member, error) {
	if tags == nil {
		tags = []string{}
	}
	m, err := s.scanOne(ctx, `
		UPDATE members SET tags = $1 WHERE id = $2
		RETURNING id, team_id, name, tags, won, lost, created_at`, tags, id)
	if err != nil {
		return nil, fmt.Errorf("retag member %s: %w", id, err)
	}
	return m, nil
}

// AdjustTallies shifts won/lost by the given deltas, never below zero.
func (s *PgStore) AdjustTallies(ctx context.Context, id string, dWon, dLost int) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE members
		SET won = GREATEST(0, won + $1), lost = GREATEST(0, lost + $2)
		WHERE id = $3`, dWon, dLost, id)
	if err != nil {
		return fmt.Errorf("adjust tallies for %s: %w", id, err)
	}
	return nil
}

// Delete removes a member. Events reference members with ON DELETE
// CASCADE, so the member's events disappear in the same statement.
func (s *PgStore) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete member %s: %w", id, err)
	}
	return nil
}

func (s *PgStore) scanOne(ctx context.Context, query string, args ...any) (*Member, error) {
	var m Member
	err := s.pool.QueryRow(ctx, query, args...).
		Scan(&m.ID, &m.TeamID, &m.Name, &m.Tags, &m.Won, &m.Lost, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
