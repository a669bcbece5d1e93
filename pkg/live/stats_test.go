package live

import (
	"context"
	"testing"
	"time"

	"courtside/pkg/event"
)

// TestStatsSingleSessionScope covers the first recorded event: one won
// event of good quality in the selected session.
func TestStatsSingleSessionScope(t *testing.T) {
	c, _ := newTestCache(t)
	memberID, sessionID := seedRoster(t, c)

	if _, err := c.RecordEvent(context.Background(), memberID, event.OutcomeWon, event.QualityGood); err != nil {
		t.Fatalf("record: %v", err)
	}

	st := c.StatsIn(memberID, Scope{Kind: ScopeSession, SessionID: sessionID})
	if st.Won != 1 || st.Lost != 0 {
		t.Errorf("stats = {won:%d lost:%d}, want {won:1 lost:0}", st.Won, st.Lost)
	}
	if st.Score != 1.0 {
		t.Errorf("score = %v, want 1.0", st.Score)
	}
	if st.Ratio != 1 {
		t.Errorf("ratio = %v, want 1", st.Ratio)
	}
}

// TestStatsMixedOutcomes adds a lost/poor event on top: even ratio,
// score back to zero.
func TestStatsMixedOutcomes(t *testing.T) {
	c, _ := newTestCache(t)
	memberID, sessionID := seedRoster(t, c)
	ctx := context.Background()

	if _, err := c.RecordEvent(ctx, memberID, event.OutcomeWon, event.QualityGood); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := c.RecordEvent(ctx, memberID, event.OutcomeLost, event.QualityPoor); err != nil {
		t.Fatalf("record: %v", err)
	}

	st := c.StatsIn(memberID, Scope{Kind: ScopeSession, SessionID: sessionID})
	if st.Won != 1 || st.Lost != 1 {
		t.Errorf("stats = {won:%d lost:%d}, want {won:1 lost:1}", st.Won, st.Lost)
	}
	if st.Ratio != 1 {
		t.Errorf("ratio = %v, want 1", st.Ratio)
	}
	if st.Score != 0.0 {
		t.Errorf("score = %v, want 0.0", st.Score)
	}
}

// TestTypeScopeMatchesSessionScope verifies that when one session is
// the only session of its type, the type filter and the session scope
// agree on every figure.
func TestTypeScopeMatchesSessionScope(t *testing.T) {
	c, _ := newTestCache(t)
	memberID, sessionID := seedRoster(t, c)
	ctx := context.Background()

	if _, err := c.RecordEvent(ctx, memberID, event.OutcomeWon, event.QualityGood); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := c.RecordEvent(ctx, memberID, event.OutcomeLost, event.QualityNeutral); err != nil {
		t.Fatalf("record: %v", err)
	}

	bySession := c.StatsIn(memberID, Scope{Kind: ScopeSession, SessionID: sessionID})
	byType := c.StatsIn(memberID, Scope{Kind: ScopeType, TypeCode: "TR"})
	if bySession != byType {
		t.Errorf("session scope %+v != type scope %+v", bySession, byType)
	}
}

// TestTypeScopeFiltersOtherTypes verifies that a type filter excludes
// sessions of other types.
func TestTypeScopeFiltersOtherTypes(t *testing.T) {
	c, _ := newTestCache(t)
	memberID, _ := seedRoster(t, c)
	ctx := context.Background()

	if _, err := c.RecordEvent(ctx, memberID, event.OutcomeWon, event.QualityGood); err != nil {
		t.Fatalf("record: %v", err)
	}

	league, err := c.AddSession(ctx, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), "LG", "", "")
	if err != nil {
		t.Fatalf("add session: %v", err)
	}
	if err := c.SelectSession(league.ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := c.RecordEvent(ctx, memberID, event.OutcomeLost, event.QualityPoor); err != nil {
		t.Fatalf("record: %v", err)
	}

	st := c.StatsIn(memberID, Scope{Kind: ScopeType, TypeCode: "TR"})
	if st.Won != 1 || st.Lost != 0 {
		t.Errorf("TR stats = {won:%d lost:%d}, want {won:1 lost:0}", st.Won, st.Lost)
	}
	if st.Score != 1.0 {
		t.Errorf("TR score = %v, want 1.0 (league event excluded)", st.Score)
	}
}

// TestUnscopedStatsUseTallies verifies the O(1) unscoped path reads
// the lifetime tallies rather than counting events.
func TestUnscopedStatsUseTallies(t *testing.T) {
	c, fs := newTestCache(t)

	// A member arriving via full load with tallies from events recorded
	// before this cache existed, none of them loaded as fine-grained data.
	fs.members = append(fs.members, memberWithTallies("m-old", "Vera", 7, 3))
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	st := c.StatsIn("m-old", Scope{Kind: ScopeNone})
	if st.Won != 7 || st.Lost != 3 {
		t.Errorf("stats = {won:%d lost:%d}, want {won:7 lost:3}", st.Won, st.Lost)
	}
	if st.Ratio != 7.0/3.0 {
		t.Errorf("ratio = %v, want %v", st.Ratio, 7.0/3.0)
	}
}

// TestRatioWithoutLosses verifies the ratio convention: with zero
// losses the ratio is the win count itself.
func TestRatioWithoutLosses(t *testing.T) {
	if got := ratio(5, 0); got != 5 {
		t.Errorf("ratio(5,0) = %v, want 5", got)
	}
	if got := ratio(0, 0); got != 0 {
		t.Errorf("ratio(0,0) = %v, want 0", got)
	}
	if got := ratio(3, 2); got != 1.5 {
		t.Errorf("ratio(3,2) = %v, want 1.5", got)
	}
}

// TestCanRemoveTag verifies the guard: false exactly when the member
// has an event in a session of that type.
func TestCanRemoveTag(t *testing.T) {
	c, _ := newTestCache(t)
	memberID, _ := seedRoster(t, c)
	ctx := context.Background()

	if !c.CanRemoveTag(memberID, "TR") {
		t.Error("no events yet: TR should be removable")
	}
	if _, err := c.RecordEvent(ctx, memberID, event.OutcomeWon, event.QualityGood); err != nil {
		t.Fatalf("record: %v", err)
	}
	if c.CanRemoveTag(memberID, "TR") {
		t.Error("TR has an event behind it: must not be removable")
	}
	if !c.CanRemoveTag(memberID, "LG") {
		t.Error("LG has no events: should be removable")
	}
}

// TestLeaderboardStableTies verifies descending sort on the requested
// key with store order preserved among ties.
func TestLeaderboardStableTies(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	a, _ := c.AddMember(ctx, "Ann", nil)
	b, _ := c.AddMember(ctx, "Ben", nil)
	d, _ := c.AddMember(ctx, "Dan", nil)
	s, err := c.AddSession(ctx, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), "TR", "", "")
	if err != nil {
		t.Fatalf("add session: %v", err)
	}
	if err := c.SelectSession(s.ID); err != nil {
		t.Fatalf("select: %v", err)
	}

	// Dan wins twice, Ann and Ben once each (a tie).
	for _, id := range []string{d.ID, d.ID, a.ID, b.ID} {
		if _, err := c.RecordEvent(ctx, id, event.OutcomeWon, event.QualityNeutral); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	rows := c.Leaderboard("won")
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	got := []string{rows[0].Member.Name, rows[1].Member.Name, rows[2].Member.Name}
	want := []string{"Dan", "Ann", "Ben"} // tie keeps Ann before Ben
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("leaderboard order = %v, want %v", got, want)
			break
		}
	}
}
