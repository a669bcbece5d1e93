package live

import "errors"

// Validation errors, surfaced to the caller before any store call is
// made. The cache is never touched when one of these fires.
var (
	// ErrNoScope: recording an event requires an active single-session
	// scope, since every event belongs to exactly one session.
	ErrNoScope = errors.New("no session selected")

	// ErrTagInUse: a session-type tag cannot be removed from a member
	// while any of the member's events belongs to a session of that type.
	ErrTagInUse = errors.New("tag has recorded events")

	// ErrUnknownSession: the scope selector must point at a cached session.
	ErrUnknownSession = errors.New("unknown session")

	// ErrUnknownMember: mutations must target a cached member.
	ErrUnknownMember = errors.New("unknown member")

	// ErrFixedType: built-in session types cannot be deleted, only
	// shadowed by custom definitions.
	ErrFixedType = errors.New("built-in session type cannot be deleted")

	// ErrUnknownType: deleting a custom type that was never defined.
	ErrUnknownType = errors.New("unknown session type")
)
