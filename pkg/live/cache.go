// Package live maintains a client-side mirror of one team's data:
// members, sessions, recorded events, and custom session types. Writes
// go to the store first and land in the cache only once acknowledged;
// the store's own change feed is then reconciled on top, so a change
// is applied exactly once whether it came from this client or another.
package live

import (
	"context"
	"fmt"
	"sync"

	"courtside/pkg/event"
	"courtside/pkg/feed"
	"courtside/pkg/member"
	"courtside/pkg/session"
)

// Cache is the synchronization engine for one team. All state behind
// mu; the only blocking calls (store writes, the full reload fetch)
// happen outside the lock.
type Cache struct {
	teamID   string
	members  member.Store
	sessions session.Store
	events   event.Store
	types    session.TypeStore

	mu         sync.Mutex
	loading    bool
	generation uint64
	memberList []member.Member
	sessList   []session.Session
	eventList  []event.Event
	customs    []session.CustomType
	scope      Scope

	subMu sync.RWMutex
	subs  map[chan feed.Change]struct{}
}

// New creates a Cache for a team. Call Load before serving reads.
func New(teamID string, members member.Store, sessions session.Store, events event.Store, types session.TypeStore) *Cache {
	return &Cache{
		teamID:   teamID,
		members:  members,
		sessions: sessions,
		events:   events,
		types:    types,
		subs:     make(map[chan feed.Change]struct{}),
	}
}

// TeamID returns the team this cache mirrors.
func (c *Cache) TeamID() string { return c.teamID }

// Load rebuilds the cache from the store in full. The fetched snapshot
// replaces whatever the cache held, so a reload always wins over
// changes applied while it was in flight; later feed changes then land
// on top of the fresh snapshot. The cache stays readable (and flagged
// as loading) for the duration.
func (c *Cache) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	members, err := c.members.ByTeam(ctx, c.teamID)
	if err != nil {
		return fmt.Errorf("load members: %w", err)
	}
	sessions, err := c.sessions.ByTeam(ctx, c.teamID)
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}
	events, err := c.events.ByTeam(ctx, c.teamID)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	customs, err := c.types.ByTeam(ctx, c.teamID)
	if err != nil {
		return fmt.Errorf("load session types: %w", err)
	}

	c.mu.Lock()
	c.memberList = members
	c.sessList = sessions
	c.eventList = events
	c.customs = customs
	c.generation++
	c.mu.Unlock()

	cacheReloads.Inc()
	return nil
}

// Loading reports whether a full rebuild is in flight.
func (c *Cache) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Generation returns the number of completed full rebuilds.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Members returns the cached roster in store order.
func (c *Cache) Members() []member.Member {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]member.Member, len(c.memberList))
	copy(out, c.memberList)
	return out
}

// Member returns a cached member by id.
func (c *Cache) Member(id string) (member.Member, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.memberList {
		if m.ID == id {
			return m, true
		}
	}
	return member.Member{}, false
}

// Sessions returns the cached sessions in store order.
func (c *Cache) Sessions() []session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]session.Session, len(c.sessList))
	copy(out, c.sessList)
	return out
}

// CustomTypes returns the cached custom session-type definitions.
func (c *Cache) CustomTypes() []session.CustomType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]session.CustomType, len(c.customs))
	copy(out, c.customs)
	return out
}

// TypeName resolves a session-type code against the cached vocabulary.
func (c *Cache) TypeName(code string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return session.TypeName(code, c.customs)
}

// EventCount returns the number of cached events, across all scopes.
func (c *Cache) EventCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.eventList)
}

// Subscribe returns a buffered channel receiving every change applied
// to the cache, from either write path. Slow receivers miss changes
// rather than block the engine.
func (c *Cache) Subscribe() chan feed.Change {
	ch := make(chan feed.Change, 64)
	c.subMu.Lock()
	c.subs[ch] = struct{}{}
	c.subMu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (c *Cache) Unsubscribe(ch chan feed.Change) {
	c.subMu.Lock()
	delete(c.subs, ch)
	c.subMu.Unlock()
	close(ch)
}

func (c *Cache) broadcast(ch feed.Change) {
	c.subMu.RLock()
	for sub := range c.subs {
		select {
		case sub <- ch:
		default:
			// subscriber is behind; drop to avoid blocking the engine
		}
	}
	c.subMu.RUnlock()
}

// locked lookups

func (c *Cache) memberIndexLocked(id string) int {
	for i := range c.memberList {
		if c.memberList[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Cache) sessionIndexLocked(id string) int {
	for i := range c.sessList {
		if c.sessList[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Cache) eventIndexLocked(id string) int {
	for i := range c.eventList {
		if c.eventList[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Cache) customIndexLocked(code string) int {
	for i := range c.customs {
		if c.customs[i].Code == code {
			return i
		}
	}
	return -1
}
