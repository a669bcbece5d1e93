package session

import (
	"context"
	"time"
)

// Session is a dated unit of activity (a training, a match) within
// which events are recorded.
type Session struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	Date      time.Time `json:"date"`
	Type      string    `json:"type"` // session-type code, fixed or custom
	Title     string    `json:"title,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CustomType extends the fixed session-type vocabulary with a
// team-defined code → display name pair. A custom entry may shadow a
// fixed code; fixed codes themselves can never be deleted.
type CustomType struct {
	TeamID string `json:"team_id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
}

// FixedTypes is the built-in session-type vocabulary.
var FixedTypes = map[string]string{
	"TR": "Training",
	"LG": "League",
	"FR": "Friendly",
	"CP": "Cup",
}

// IsFixedType reports whether code belongs to the built-in vocabulary.
func IsFixedType(code string) bool {
	_, ok := FixedTypes[code]
	return ok
}

// TypeName resolves a session-type code to its display name. Custom
// entries win over fixed ones; an unknown code resolves to itself.
func TypeName(code string, customs []CustomType) string {
	for _, c := range customs {
		if c.Code == code {
			return c.Name
		}
	}
	if name, ok := FixedTypes[code]; ok {
		return name
	}
	return code
}

// Store is the contract for session persistence.
type Store interface {
	Create(ctx context.Context, teamID string, date time.Time, typ, title, notes string) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	ByTeam(ctx context.Context, teamID string) ([]Session, error)
	Retitle(ctx context.Context, id, title string) (*Session, error)

	// Delete removes the session and, through the cascade, its events.
	Delete(ctx context.Context, id string) error

	EnsureTable(ctx context.Context) error
}

// TypeStore is the contract for custom session-type persistence.
type TypeStore interface {
	Upsert(ctx context.Context, teamID, code, name string) (*CustomType, error)
	Delete(ctx context.Context, teamID, code string) error
	ByTeam(ctx context.Context, teamID string) ([]CustomType, error)
	EnsureTable(ctx context.Context) error
}
