package live

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"courtside/pkg/event"
	"courtside/pkg/feed"
	"courtside/pkg/member"
	"courtside/pkg/session"
)

// The optimistic mutation layer. Every entry point follows the same
// shape: validate against the cache, issue the store write, and only
// after acknowledgment apply the store's canonical entity, under its
// store-assigned id, to the cache. The change feed later echoes the
// same write back, and Apply recognizes the id and discards it. On a
// store failure nothing is applied, so cache and store stay agreed.

// AddMember creates a roster member.
func (c *Cache) AddMember(ctx context.Context, name string, tags []string) (*member.Member, error) {
	m, err := c.members.Create(ctx, c.teamID, name, tags)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.insertMemberLocked(*m)
	c.mu.Unlock()
	c.announce(feed.EntityMember, feed.OpInsert, m)
	return m, nil
}

// RenameMember updates a member's display name.
func (c *Cache) RenameMember(ctx context.Context, id, name string) (*member.Member, error) {
	m, err := c.members.Rename(ctx, id, name)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.updateMemberLocked(*m)
	c.mu.Unlock()
	c.announce(feed.EntityMember, feed.OpUpdate, m)
	return m, nil
}

// RetagMember replaces a member's session-type tags. A tag with
// recorded events behind it cannot be dropped; the check runs against
// the cache before any store call.
func (c *Cache) RetagMember(ctx context.Context, id string, tags []string) (*member.Member, error) {
	c.mu.Lock()
	i := c.memberIndexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownMember, id)
	}
	next := make(map[string]bool, len(tags))
	for _, t := range tags {
		next[t] = true
	}
	for _, t := range c.memberList[i].Tags {
		if !next[t] && !c.canRemoveTagLocked(id, t) {
			c.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrTagInUse, t)
		}
	}
	c.mu.Unlock()

	m, err := c.members.Retag(ctx, id, tags)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.updateMemberLocked(*m)
	c.mu.Unlock()
	c.announce(feed.EntityMember, feed.OpUpdate, m)
	return m, nil
}

// DeleteMember removes a member and, with it, the member's events.
func (c *Cache) DeleteMember(ctx context.Context, id string) error {
	if err := c.members.Delete(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	removed := c.removeMemberLocked(id)
	c.mu.Unlock()
	if removed {
		c.announce(feed.EntityMember, feed.OpDelete, member.Member{ID: id, TeamID: c.teamID})
	}
	return nil
}

// AddSession creates a session.
func (c *Cache) AddSession(ctx context.Context, date time.Time, typ, title, notes string) (*session.Session, error) {
	s, err := c.sessions.Create(ctx, c.teamID, date, typ, title, notes)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.insertSessionLocked(*s)
	c.mu.Unlock()
	c.announce(feed.EntitySession, feed.OpInsert, s)
	return s, nil
}

// RetitleSession updates a session title, the one editable field.
func (c *Cache) RetitleSession(ctx context.Context, id, title string) (*session.Session, error) {
	s, err := c.sessions.Retitle(ctx, id, title)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.updateSessionLocked(*s)
	c.mu.Unlock()
	c.announce(feed.EntitySession, feed.OpUpdate, s)
	return s, nil
}

// DeleteSession removes a session and its events.
func (c *Cache) DeleteSession(ctx context.Context, id string) error {
	if err := c.sessions.Delete(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	removed := c.removeSessionLocked(id)
	c.mu.Unlock()
	if removed {
		c.announce(feed.EntitySession, feed.OpDelete, session.Session{ID: id, TeamID: c.teamID})
	}
	return nil
}

// RecordEvent records an occurrence for a member in the currently
// selected session. A single-session scope must be active: events
// belong to exactly one session, and the selection names it.
func (c *Cache) RecordEvent(ctx context.Context, memberID string, outcome event.Outcome, quality event.Quality) (*event.Event, error) {
	c.mu.Lock()
	if c.scope.Kind != ScopeSession {
		c.mu.Unlock()
		return nil, ErrNoScope
	}
	sessionID := c.scope.SessionID
	if c.memberIndexLocked(memberID) < 0 {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownMember, memberID)
	}
	c.mu.Unlock()

	e, err := c.events.Record(ctx, c.teamID, memberID, sessionID, outcome, quality)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.insertEventLocked(*e)
	c.mu.Unlock()
	c.announce(feed.EntityEvent, feed.OpInsert, e)
	return e, nil
}

// DeleteEvent removes a recorded event.
func (c *Cache) DeleteEvent(ctx context.Context, id string) error {
	if err := c.events.Delete(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	var evicted event.Event
	if i := c.eventIndexLocked(id); i >= 0 {
		evicted = c.eventList[i]
	}
	removed := c.removeEventLocked(id)
	c.mu.Unlock()
	if removed {
		c.announce(feed.EntityEvent, feed.OpDelete, evicted)
	}
	return nil
}

// PutCustomType creates or updates a custom session-type definition.
// Shadowing a built-in code is allowed; the custom name wins on lookup.
func (c *Cache) PutCustomType(ctx context.Context, code, name string) (*session.CustomType, error) {
	t, err := c.types.Upsert(ctx, c.teamID, code, name)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	existed := c.customIndexLocked(code) >= 0
	c.putCustomLocked(*t)
	c.mu.Unlock()
	op := feed.OpInsert
	if existed {
		op = feed.OpUpdate
	}
	c.announce(feed.EntitySessionType, op, t)
	return t, nil
}

// DeleteCustomType removes a custom definition. Built-in codes are not
// deletable; removing a custom shadow of one merely reverts the name.
func (c *Cache) DeleteCustomType(ctx context.Context, code string) error {
	c.mu.Lock()
	known := c.customIndexLocked(code) >= 0
	c.mu.Unlock()
	if !known {
		if session.IsFixedType(code) {
			return fmt.Errorf("%w: %s", ErrFixedType, code)
		}
		return fmt.Errorf("%w: %s", ErrUnknownType, code)
	}

	if err := c.types.Delete(ctx, c.teamID, code); err != nil {
		return err
	}
	c.mu.Lock()
	removed := c.removeCustomLocked(code)
	c.mu.Unlock()
	if removed {
		c.announce(feed.EntitySessionType, feed.OpDelete, session.CustomType{TeamID: c.teamID, Code: code})
	}
	return nil
}

// announce broadcasts a locally applied change to subscribers in the
// same shape the change feed uses.
func (c *Cache) announce(entity string, op feed.Op, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.broadcast(feed.Change{Entity: entity, Op: op, TeamID: c.teamID, Data: data})
}
