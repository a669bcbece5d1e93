package member

import (
	"context"
	"time"
)

// Member is a tracked roster participant.
type Member struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	Name      string    `json:"name"`
	Tags      []string  `json:"tags"` // session-type codes this member participates in
	Won       int       `json:"won"`  // lifetime tally, derived from events
	Lost      int       `json:"lost"` // lifetime tally, derived from events
	CreatedAt time.Time `json:"created_at"`
}

// HasTag reports whether the member carries the given session-type tag.
func (m *Member) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Store is the contract for member persistence.
type Store interface {
	Create(ctx context.Context, teamID, name string, tags []string) (*Member, error)
	Get(ctx context.Context, id string) (*Member, error)
	ByTeam(ctx context.Context, teamID string) ([]Member, error)
	Rename(ctx context.Context, id, name string) (*Member, error)
	Retag(ctx context.Context, id string, tags []string) (*Member, error)

	// AdjustTallies shifts the lifetime tallies by the given deltas,
	// flooring each at zero. Called inside event transactions.
	AdjustTallies(ctx context.Context, id string, dWon, dLost int) error

	// Delete removes the member; the member's events go with it.
	Delete(ctx context.Context, id string) error

	EnsureTable(ctx context.Context) error
}
