package live

import (
	"encoding/json"
	"log/slog"

	"courtside/pkg/event"
	"courtside/pkg/feed"
	"courtside/pkg/member"
	"courtside/pkg/session"
)

// Apply reconciles one change-feed notification into the cache.
//
// Every operation is idempotent at entity-identity granularity:
// inserts apply only if the id is absent, updates only if present,
// deletes only if present. That single rule makes the outcome
// independent of arrival order between an optimistic write and its
// echo: whichever lands second is a no-op.
func (c *Cache) Apply(ch feed.Change) {
	if ch.TeamID != c.teamID {
		staleChanges.Inc()
		return
	}

	c.mu.Lock()
	applied, err := c.applyLocked(ch)
	c.mu.Unlock()

	if err != nil {
		slog.Warn("undecodable change, skipping",
			"entity", ch.Entity, "op", ch.Op, "error", err)
		return
	}
	if !applied {
		changesDiscarded.Inc()
		return
	}
	changesApplied.WithLabelValues(ch.Entity, string(ch.Op)).Inc()
	c.broadcast(ch)
}

func (c *Cache) applyLocked(ch feed.Change) (bool, error) {
	switch ch.Entity {
	case feed.EntityMember:
		var m member.Member
		if err := json.Unmarshal(ch.Data, &m); err != nil {
			return false, err
		}
		switch ch.Op {
		case feed.OpInsert:
			return c.insertMemberLocked(m), nil
		case feed.OpUpdate:
			return c.updateMemberLocked(m), nil
		case feed.OpDelete:
			return c.removeMemberLocked(m.ID), nil
		}

	case feed.EntitySession:
		var s session.Session
		if err := json.Unmarshal(ch.Data, &s); err != nil {
			return false, err
		}
		switch ch.Op {
		case feed.OpInsert:
			return c.insertSessionLocked(s), nil
		case feed.OpUpdate:
			return c.updateSessionLocked(s), nil
		case feed.OpDelete:
			return c.removeSessionLocked(s.ID), nil
		}

	case feed.EntityEvent:
		var e event.Event
		if err := json.Unmarshal(ch.Data, &e); err != nil {
			return false, err
		}
		switch ch.Op {
		case feed.OpInsert:
			return c.insertEventLocked(e), nil
		case feed.OpUpdate:
			// Events are immutable; nothing observes this in practice.
			return false, nil
		case feed.OpDelete:
			return c.removeEventLocked(e.ID), nil
		}

	case feed.EntitySessionType:
		var t session.CustomType
		if err := json.Unmarshal(ch.Data, &t); err != nil {
			return false, err
		}
		switch ch.Op {
		case feed.OpInsert:
			return c.insertCustomLocked(t), nil
		case feed.OpUpdate:
			return c.updateCustomLocked(t), nil
		case feed.OpDelete:
			return c.removeCustomLocked(t.Code), nil
		}
	}
	return false, nil
}

// insertMemberLocked appends a member unless the id is already cached.
func (c *Cache) insertMemberLocked(m member.Member) bool {
	if c.memberIndexLocked(m.ID) >= 0 {
		return false
	}
	c.memberList = append(c.memberList, m)
	return true
}

// updateMemberLocked overwrites the member at its current position.
func (c *Cache) updateMemberLocked(m member.Member) bool {
	i := c.memberIndexLocked(m.ID)
	if i < 0 {
		return false
	}
	c.memberList[i] = m
	return true
}

// removeMemberLocked evicts a member and every cached event it owns.
func (c *Cache) removeMemberLocked(id string) bool {
	i := c.memberIndexLocked(id)
	if i < 0 {
		return false
	}
	c.memberList = append(c.memberList[:i], c.memberList[i+1:]...)

	kept := c.eventList[:0]
	for _, e := range c.eventList {
		if e.MemberID != id {
			kept = append(kept, e)
		}
	}
	c.eventList = kept
	return true
}

func (c *Cache) insertSessionLocked(s session.Session) bool {
	if c.sessionIndexLocked(s.ID) >= 0 {
		return false
	}
	c.sessList = append(c.sessList, s)
	return true
}

func (c *Cache) updateSessionLocked(s session.Session) bool {
	i := c.sessionIndexLocked(s.ID)
	if i < 0 {
		return false
	}
	c.sessList[i] = s
	return true
}

// removeSessionLocked evicts a session, its cached events (adjusting
// the owners' tallies, since the store decrements them too), and the
// scope selection if it pointed at the session.
func (c *Cache) removeSessionLocked(id string) bool {
	i := c.sessionIndexLocked(id)
	if i < 0 {
		return false
	}
	c.sessList = append(c.sessList[:i], c.sessList[i+1:]...)

	kept := c.eventList[:0]
	for _, e := range c.eventList {
		if e.SessionID != id {
			kept = append(kept, e)
		} else {
			c.nudgeTallyLocked(e.MemberID, e.Outcome, -1)
		}
	}
	c.eventList = kept

	if c.scope.Kind == ScopeSession && c.scope.SessionID == id {
		c.scope = Scope{}
	}
	return true
}

// insertEventLocked appends an event unless already cached, nudging
// the owner's lifetime tally for the outcome.
func (c *Cache) insertEventLocked(e event.Event) bool {
	if c.eventIndexLocked(e.ID) >= 0 {
		return false
	}
	c.eventList = append(c.eventList, e)
	c.nudgeTallyLocked(e.MemberID, e.Outcome, +1)
	return true
}

// removeEventLocked evicts an event if present, nudging the owner's
// tally back down. Absent ids are echoes of deletes already applied.
func (c *Cache) removeEventLocked(id string) bool {
	i := c.eventIndexLocked(id)
	if i < 0 {
		return false
	}
	e := c.eventList[i]
	c.eventList = append(c.eventList[:i], c.eventList[i+1:]...)
	c.nudgeTallyLocked(e.MemberID, e.Outcome, -1)
	return true
}

// nudgeTallyLocked shifts a member's cached lifetime tally, clamped at
// zero. A later member-update notification carries the store's own
// figures and overwrites these, so both paths converge.
func (c *Cache) nudgeTallyLocked(memberID string, outcome event.Outcome, delta int) {
	i := c.memberIndexLocked(memberID)
	if i < 0 {
		return
	}
	m := &c.memberList[i]
	switch outcome {
	case event.OutcomeWon:
		m.Won += delta
		if m.Won < 0 {
			m.Won = 0
		}
	case event.OutcomeLost:
		m.Lost += delta
		if m.Lost < 0 {
			m.Lost = 0
		}
	}
}

func (c *Cache) insertCustomLocked(t session.CustomType) bool {
	if c.customIndexLocked(t.Code) >= 0 {
		return false
	}
	c.customs = append(c.customs, t)
	return true
}

func (c *Cache) updateCustomLocked(t session.CustomType) bool {
	i := c.customIndexLocked(t.Code)
	if i < 0 {
		return false
	}
	c.customs[i] = t
	return true
}

// putCustomLocked is the optimistic upsert path.
func (c *Cache) putCustomLocked(t session.CustomType) bool {
	if !c.updateCustomLocked(t) {
		return c.insertCustomLocked(t)
	}
	return true
}

func (c *Cache) removeCustomLocked(code string) bool {
	i := c.customIndexLocked(code)
	if i < 0 {
		return false
	}
	c.customs = append(c.customs[:i], c.customs[i+1:]...)
	return true
}
