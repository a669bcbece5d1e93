package event

import (
	"context"
	"fmt"
	"time"
)

// Outcome is the binary result of a recorded event.
type Outcome string

const (
	OutcomeWon  Outcome = "won"
	OutcomeLost Outcome = "lost"
)

// ParseOutcome validates an outcome string.
func ParseOutcome(s string) (Outcome, error) {
	switch Outcome(s) {
	case OutcomeWon, OutcomeLost:
		return Outcome(s), nil
	}
	return "", fmt.Errorf("unknown outcome %q", s)
}

// Quality is the three-way execution grade of a recorded event.
type Quality string

const (
	QualityGood    Quality = "good"
	QualityNeutral Quality = "neutral"
	QualityPoor    Quality = "poor"
)

// ParseQuality validates a quality string.
func ParseQuality(s string) (Quality, error) {
	switch Quality(s) {
	case QualityGood, QualityNeutral, QualityPoor:
		return Quality(s), nil
	}
	return "", fmt.Errorf("unknown quality %q", s)
}

// Weight maps quality to its score contribution.
func (q Quality) Weight() int {
	switch q {
	case QualityGood:
		return 1
	case QualityPoor:
		return -1
	}
	return 0
}

// Event is a single recorded occurrence for one member in one session.
// Immutable once recorded; the only further operation is deletion.
type Event struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	MemberID  string    `json:"member_id"`
	SessionID string    `json:"session_id"`
	Outcome   Outcome   `json:"outcome"`
	Quality   Quality   `json:"quality"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the contract for event persistence. Record and Delete keep
// the owning member's lifetime tallies in step within one transaction,
// so the stored tallies always match the stored events.
type Store interface {
	Record(ctx context.Context, teamID, memberID, sessionID string, outcome Outcome, quality Quality) (*Event, error)
	Delete(ctx context.Context, id string) error
	ByTeam(ctx context.Context, teamID string) ([]Event, error)
	EnsureTable(ctx context.Context) error
}
