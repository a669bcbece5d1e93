package live

import "fmt"

// ScopeKind discriminates the three filtering contexts.
type ScopeKind string

const (
	ScopeNone    ScopeKind = "none"
	ScopeSession ScopeKind = "session"
	ScopeType    ScopeKind = "type"
)

// Scope is the active filtering context. Exactly one of the three
// kinds holds at a time; the zero value means no scope.
type Scope struct {
	Kind      ScopeKind `json:"kind"`
	SessionID string    `json:"session_id,omitempty"`
	TypeCode  string    `json:"type_code,omitempty"`
}

// Scope returns the active scope selector.
func (c *Cache) Scope() Scope {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scope.Kind == "" {
		return Scope{Kind: ScopeNone}
	}
	return c.scope
}

// SelectSession scopes stats to one session. Any active session-type
// filter is cleared; a session scope and a type filter never coexist.
func (c *Cache) SelectSession(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionIndexLocked(id) < 0 {
		return fmt.Errorf("%w: session %s", ErrUnknownSession, id)
	}
	c.scope = Scope{Kind: ScopeSession, SessionID: id}
	return nil
}

// SelectType scopes stats to all sessions of one type, clearing any
// single-session selection.
func (c *Cache) SelectType(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scope = Scope{Kind: ScopeType, TypeCode: code}
}

// ClearScope returns to the unscoped (lifetime) view.
func (c *Cache) ClearScope() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scope = Scope{}
}
