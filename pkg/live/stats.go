package live

import (
	"sort"

	"courtside/pkg/event"
	"courtside/pkg/member"
)

// Stats is the aggregate for one member under one scope.
type Stats struct {
	Won   int     `json:"won"`
	Lost  int     `json:"lost"`
	Ratio float64 `json:"ratio"` // won when lost is zero, else won/lost
	Score float64 `json:"score"` // mean quality weight over scoped events, 0 if none
}

// Stats aggregates a member's events under the currently active scope.
func (c *Cache) Stats(memberID string) Stats {
	return c.StatsIn(memberID, c.Scope())
}

// StatsIn aggregates a member's events under an explicit scope.
//
// Unscoped won/lost come straight from the member's lifetime tallies,
// which the store keeps in step with the events it holds, so they are
// correct even for events recorded long before this cache was loaded. Scoped
// figures are counted from the cached fine-grained collection, which
// is re-filtered on every call because the predicate, not the data,
// is what a scope change alters.
func (c *Cache) StatsIn(memberID string, scope Scope) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var st Stats
	if scope.Kind == ScopeNone || scope.Kind == "" {
		if i := c.memberIndexLocked(memberID); i >= 0 {
			st.Won = c.memberList[i].Won
			st.Lost = c.memberList[i].Lost
		}
	} else {
		for _, e := range c.scopedLocked(scope) {
			if e.MemberID != memberID {
				continue
			}
			if e.Outcome == event.OutcomeWon {
				st.Won++
			} else {
				st.Lost++
			}
		}
	}

	st.Ratio = ratio(st.Won, st.Lost)
	st.Score = c.scoreLocked(memberID, scope)
	return st
}

// ScopedEvents returns the cached events visible under the active
// scope, in store order.
func (c *Cache) ScopedEvents() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	scope := c.scope
	if scope.Kind == "" {
		scope = Scope{Kind: ScopeNone}
	}
	evts := c.scopedLocked(scope)
	out := make([]event.Event, len(evts))
	copy(out, evts)
	return out
}

func (c *Cache) scopedLocked(scope Scope) []event.Event {
	switch scope.Kind {
	case ScopeSession:
		var out []event.Event
		for _, e := range c.eventList {
			if e.SessionID == scope.SessionID {
				out = append(out, e)
			}
		}
		return out
	case ScopeType:
		ids := make(map[string]bool)
		for _, s := range c.sessList {
			if s.Type == scope.TypeCode {
				ids[s.ID] = true
			}
		}
		var out []event.Event
		for _, e := range c.eventList {
			if ids[e.SessionID] {
				out = append(out, e)
			}
		}
		return out
	}
	return c.eventList
}

// scoreLocked is the mean quality weight (+1 good, 0 neutral, −1 poor)
// over the member's scoped events, 0 when there are none.
func (c *Cache) scoreLocked(memberID string, scope Scope) float64 {
	var sum, n int
	for _, e := range c.scopedLocked(scope) {
		if e.MemberID != memberID {
			continue
		}
		sum += e.Quality.Weight()
		n++
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func ratio(won, lost int) float64 {
	if lost == 0 {
		return float64(won)
	}
	return float64(won) / float64(lost)
}

// CanRemoveTag reports whether a session-type tag may be removed from
// a member: false exactly when at least one cached event of the member
// belongs to a session of that type.
func (c *Cache) CanRemoveTag(memberID, tag string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canRemoveTagLocked(memberID, tag)
}

func (c *Cache) canRemoveTagLocked(memberID, tag string) bool {
	types := make(map[string]string, len(c.sessList))
	for _, s := range c.sessList {
		types[s.ID] = s.Type
	}
	for _, e := range c.eventList {
		if e.MemberID == memberID && types[e.SessionID] == tag {
			return false
		}
	}
	return true
}

// LeaderboardRow pairs a member with its stats under the active scope.
type LeaderboardRow struct {
	Member member.Member `json:"member"`
	Stats  Stats         `json:"stats"`
}

// Leaderboard returns all members with their scoped stats, sorted
// descending on the requested key ("won", "lost", "ratio", "score").
// The sort is stable, so ties keep store order.
func (c *Cache) Leaderboard(key string) []LeaderboardRow {
	scope := c.Scope()
	members := c.Members()

	rows := make([]LeaderboardRow, 0, len(members))
	for _, m := range members {
		rows = append(rows, LeaderboardRow{Member: m, Stats: c.StatsIn(m.ID, scope)})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Stats, rows[j].Stats
		switch key {
		case "lost":
			return a.Lost > b.Lost
		case "ratio":
			return a.Ratio > b.Ratio
		case "score":
			return a.Score > b.Score
		default:
			return a.Won > b.Won
		}
	})
	return rows
}
