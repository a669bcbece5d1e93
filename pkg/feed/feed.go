// Package feed delivers change notifications from the store to the
// live cache. Triggers installed by EnsureTriggers emit a JSON row
// image on a per-team NOTIFY channel for every insert, update, and
// delete; Listener turns that channel into a stream of Change values.
package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Op is the kind of change a notification describes.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Entity names carried in Change.Entity.
const (
	EntityMember      = "member"
	EntitySession     = "session"
	EntityEvent       = "event"
	EntitySessionType = "session_type"
)

// Change is one decoded change notification. Data holds the row image:
// the new row for inserts and updates, the old row for deletes.
type Change struct {
	Entity string          `json:"entity"`
	Op     Op              `json:"op"`
	TeamID string          `json:"team_id"`
	Data   json.RawMessage `json:"data"`
}

// Channel returns the NOTIFY channel name for a team.
func Channel(teamID string) string {
	return "courtside_" + teamID
}

// EnsureTriggers installs the notify function and one trigger per
// tracked table. Cascaded deletes fire these row by row, so a member
// deletion is observed as its event deletions followed by the member's.
func EnsureTriggers(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE OR REPLACE FUNCTION courtside_notify() RETURNS trigger AS $$
		DECLARE
			rec RECORD;
		BEGIN
			IF TG_OP = 'DELETE' THEN
				rec := OLD;
			ELSE
				rec := NEW;
			END IF;
			PERFORM pg_notify('courtside_' || rec.team_id, json_build_object(
				'entity', TG_ARGV[0],
				'op', lower(TG_OP),
				'team_id', rec.team_id,
				'data', row_to_json(rec)
			)::text);
			RETURN rec;
		END;
		$$ LANGUAGE plpgsql`)
	if err != nil {
		return fmt.Errorf("create notify function: %w", err)
	}

	for table, entity := range map[string]string{
		"members":       EntityMember,
		"sessions":      EntitySession,
		"events":        EntityEvent,
		"session_types": EntitySessionType,
	} {
		_, err := pool.Exec(ctx, fmt.Sprintf(`
			CREATE OR REPLACE TRIGGER %s_notify
			AFTER INSERT OR UPDATE OR DELETE ON %s
			FOR EACH ROW EXECUTE FUNCTION courtside_notify('%s')`,
			table, table, entity))
		if err != nil {
			return fmt.Errorf("create %s trigger: %w", table, err)
		}
	}
	return nil
}
