package live

import (
	"context"
	"errors"
	"testing"
	"time"

	"courtside/pkg/event"
	"courtside/pkg/feed"
)

// TestRecordEventRequiresSessionScope verifies the precondition: an
// event always belongs to a session, so one must be selected.
func TestRecordEventRequiresSessionScope(t *testing.T) {
	c, _ := newTestCache(t)
	memberID, _ := seedRoster(t, c)
	ctx := context.Background()

	c.ClearScope()
	if _, err := c.RecordEvent(ctx, memberID, event.OutcomeWon, event.QualityGood); !errors.Is(err, ErrNoScope) {
		t.Errorf("unscoped: err = %v, want ErrNoScope", err)
	}

	c.SelectType("TR")
	if _, err := c.RecordEvent(ctx, memberID, event.OutcomeWon, event.QualityGood); !errors.Is(err, ErrNoScope) {
		t.Errorf("type filter: err = %v, want ErrNoScope (a filter names no single session)", err)
	}

	if got := c.EventCount(); got != 0 {
		t.Errorf("event count = %d, want 0 after rejected records", got)
	}
}

// TestStoreFailureLeavesCacheUntouched verifies mutations are
// all-or-nothing: a failed store write leaves no speculative entity
// behind.
func TestStoreFailureLeavesCacheUntouched(t *testing.T) {
	c, fs := newTestCache(t)
	memberID, _ := seedRoster(t, c)
	ctx := context.Background()

	fs.fail = errors.New("store down")
	if _, err := c.AddMember(ctx, "Nia", nil); err == nil {
		t.Fatal("expected store error")
	}
	if got := len(c.Members()); got != 1 {
		t.Errorf("member count = %d, want 1 (no optimistic application before ack)", got)
	}

	fs.fail = errors.New("store down")
	if _, err := c.RecordEvent(ctx, memberID, event.OutcomeWon, event.QualityGood); err == nil {
		t.Fatal("expected store error")
	}
	if got := c.EventCount(); got != 0 {
		t.Errorf("event count = %d, want 0", got)
	}
	if st := c.StatsIn(memberID, Scope{Kind: ScopeNone}); st.Won != 0 {
		t.Errorf("won tally = %d, want 0 after failed write", st.Won)
	}
}

// TestRetagGuard verifies that a tag with events behind it cannot be
// dropped, and that the check happens before the store is called.
func TestRetagGuard(t *testing.T) {
	c, fs := newTestCache(t)
	memberID, _ := seedRoster(t, c)
	ctx := context.Background()

	if _, err := c.RecordEvent(ctx, memberID, event.OutcomeWon, event.QualityGood); err != nil {
		t.Fatalf("record: %v", err)
	}

	// Dropping TR must fail without reaching the store.
	fs.fail = errors.New("store must not be called")
	if _, err := c.RetagMember(ctx, memberID, []string{"LG"}); !errors.Is(err, ErrTagInUse) {
		t.Errorf("err = %v, want ErrTagInUse", err)
	}
	fs.fail = nil

	// Adding a tag while keeping TR is fine.
	m, err := c.RetagMember(ctx, memberID, []string{"TR", "LG"})
	if err != nil {
		t.Fatalf("retag: %v", err)
	}
	if !m.HasTag("LG") || !m.HasTag("TR") {
		t.Errorf("tags = %v, want TR and LG", m.Tags)
	}
}

// TestDeleteFixedType verifies the vocabulary rule: custom definitions
// may shadow built-in codes but the built-ins themselves are not
// deletable.
func TestDeleteFixedType(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if err := c.DeleteCustomType(ctx, "TR"); !errors.Is(err, ErrFixedType) {
		t.Errorf("err = %v, want ErrFixedType", err)
	}

	// Shadow it, then deleting the shadow reverts the name.
	if _, err := c.PutCustomType(ctx, "TR", "Morning Training"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if got := c.TypeName("TR"); got != "Morning Training" {
		t.Errorf("TypeName = %q, want shadow name", got)
	}
	if err := c.DeleteCustomType(ctx, "TR"); err != nil {
		t.Fatalf("delete shadow: %v", err)
	}
	if got := c.TypeName("TR"); got != "Training" {
		t.Errorf("TypeName = %q, want Training after shadow removed", got)
	}

	if err := c.DeleteCustomType(ctx, "XX"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("err = %v, want ErrUnknownType", err)
	}
}

// TestSubscribeSeesBothWritePaths verifies subscribers observe local
// acknowledged writes and feed-applied remote ones alike.
func TestSubscribeSeesBothWritePaths(t *testing.T) {
	c, _ := newTestCache(t)
	memberID, sessionID := seedRoster(t, c)
	ctx := context.Background()

	sub := c.Subscribe()
	defer c.Unsubscribe(sub)

	if _, err := c.RecordEvent(ctx, memberID, event.OutcomeWon, event.QualityGood); err != nil {
		t.Fatalf("record: %v", err)
	}
	c.Apply(mkChange(t, feed.EntityEvent, feed.OpInsert, event.Event{
		ID: "e-remote", TeamID: "team1", MemberID: memberID, SessionID: sessionID,
		Outcome: event.OutcomeLost, Quality: event.QualityNeutral,
	}))

	for i := 0; i < 2; i++ {
		select {
		case ch := <-sub:
			if ch.Entity != feed.EntityEvent || ch.Op != feed.OpInsert {
				t.Errorf("change %d = %s/%s, want event/insert", i, ch.Entity, ch.Op)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for change %d", i)
		}
	}
}

// TestEchoNotRebroadcast verifies discarded echoes produce no
// subscriber traffic: nothing changed, nothing to repaint.
func TestEchoNotRebroadcast(t *testing.T) {
	c, _ := newTestCache(t)
	memberID, _ := seedRoster(t, c)
	ctx := context.Background()

	e, err := c.RecordEvent(ctx, memberID, event.OutcomeWon, event.QualityGood)
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	sub := c.Subscribe()
	defer c.Unsubscribe(sub)

	c.Apply(mkChange(t, feed.EntityEvent, feed.OpInsert, e))

	select {
	case ch := <-sub:
		t.Errorf("unexpected broadcast for discarded echo: %s/%s", ch.Entity, ch.Op)
	case <-time.After(50 * time.Millisecond):
	}
}
