package live

import (
	"context"
	"fmt"
	"sync"
	"time"

	"courtside/pkg/event"
	"courtside/pkg/member"
	"courtside/pkg/session"
)

// fakeStores is a single in-memory backend shared by the per-entity
// store fakes, mirroring the pg stores' behavior: store-assigned ids,
// tallies adjusted with event writes, cascades on delete. Set fail to
// make the next write call error without touching state.
type fakeStores struct {
	mu       sync.Mutex
	seq      int
	members  []member.Member
	sessions []session.Session
	events   []event.Event
	types    []session.CustomType
	fail     error
}

func (f *fakeStores) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%d", prefix, f.seq)
}

func (f *fakeStores) takeFail() error {
	err := f.fail
	f.fail = nil
	return err
}

func (f *fakeStores) memberIndex(id string) int {
	for i := range f.members {
		if f.members[i].ID == id {
			return i
		}
	}
	return -1
}

func (f *fakeStores) adjustTally(id string, outcome event.Outcome, delta int) {
	i := f.memberIndex(id)
	if i < 0 {
		return
	}
	m := &f.members[i]
	if outcome == event.OutcomeWon {
		m.Won += delta
		if m.Won < 0 {
			m.Won = 0
		}
	} else {
		m.Lost += delta
		if m.Lost < 0 {
			m.Lost = 0
		}
	}
}

func (f *fakeStores) dropEvents(keep func(event.Event) bool) {
	kept := f.events[:0]
	for _, e := range f.events {
		if keep(e) {
			kept = append(kept, e)
		}
	}
	f.events = kept
}

func memberWithTallies(id, name string, won, lost int) member.Member {
	return member.Member{
		ID:        id,
		TeamID:    "team1",
		Name:      name,
		Tags:      []string{},
		Won:       won,
		Lost:      lost,
		CreatedAt: time.Now(),
	}
}

type fakeMembers struct{ *fakeStores }

func (f fakeMembers) Create(_ context.Context, teamID, name string, tags []string) (*member.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFail(); err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	m := member.Member{
		ID:        f.nextID("m"),
		TeamID:    teamID,
		Name:      name,
		Tags:      tags,
		CreatedAt: time.Now(),
	}
	f.members = append(f.members, m)
	return &m, nil
}

func (f fakeMembers) Get(_ context.Context, id string) (*member.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.memberIndex(id); i >= 0 {
		m := f.members[i]
		return &m, nil
	}
	return nil, fmt.Errorf("member %s not found", id)
}

func (f fakeMembers) ByTeam(_ context.Context, teamID string) ([]member.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []member.Member
	for _, m := range f.members {
		if m.TeamID == teamID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f fakeMembers) Rename(_ context.Context, id, name string) (*member.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFail(); err != nil {
		return nil, err
	}
	i := f.memberIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("member %s not found", id)
	}
	f.members[i].Name = name
	m := f.members[i]
	return &m, nil
}

func (f fakeMembers) Retag(_ context.Context, id string, tags []string) (*member.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFail(); err != nil {
		return nil, err
	}
	i := f.memberIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("member %s not found", id)
	}
	if tags == nil {
		tags = []string{}
	}
	f.members[i].Tags = tags
	m := f.members[i]
	return &m, nil
}

func (f fakeMembers) AdjustTallies(_ context.Context, id string, dWon, dLost int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adjustTally(id, event.OutcomeWon, dWon)
	f.adjustTally(id, event.OutcomeLost, dLost)
	return nil
}

func (f fakeMembers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFail(); err != nil {
		return err
	}
	if i := f.memberIndex(id); i >= 0 {
		f.members = append(f.members[:i], f.members[i+1:]...)
	}
	f.dropEvents(func(e event.Event) bool { return e.MemberID != id })
	return nil
}

func (f fakeMembers) EnsureTable(context.Context) error { return nil }

type fakeSessions struct{ *fakeStores }

func (f fakeSessions) Create(_ context.Context, teamID string, date time.Time, typ, title, notes string) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFail(); err != nil {
		return nil, err
	}
	s := session.Session{
		ID:        f.nextID("s"),
		TeamID:    teamID,
		Date:      date,
		Type:      typ,
		Title:     title,
		Notes:     notes,
		CreatedAt: time.Now(),
	}
	f.sessions = append(f.sessions, s)
	return &s, nil
}

func (f fakeSessions) Get(_ context.Context, id string) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, fmt.Errorf("session %s not found", id)
}

func (f fakeSessions) ByTeam(_ context.Context, teamID string) ([]session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []session.Session
	for _, s := range f.sessions {
		if s.TeamID == teamID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f fakeSessions) Retitle(_ context.Context, id, title string) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFail(); err != nil {
		return nil, err
	}
	for i := range f.sessions {
		if f.sessions[i].ID == id {
			f.sessions[i].Title = title
			s := f.sessions[i]
			return &s, nil
		}
	}
	return nil, fmt.Errorf("session %s not found", id)
}

func (f fakeSessions) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFail(); err != nil {
		return err
	}
	for _, e := range f.events {
		if e.SessionID == id {
			f.adjustTally(e.MemberID, e.Outcome, -1)
		}
	}
	f.dropEvents(func(e event.Event) bool { return e.SessionID != id })
	for i := range f.sessions {
		if f.sessions[i].ID == id {
			f.sessions = append(f.sessions[:i], f.sessions[i+1:]...)
			break
		}
	}
	return nil
}

func (f fakeSessions) EnsureTable(context.Context) error { return nil }

type fakeEvents struct{ *fakeStores }

func (f fakeEvents) Record(_ context.Context, teamID, memberID, sessionID string, outcome event.Outcome, quality event.Quality) (*event.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFail(); err != nil {
		return nil, err
	}
	e := event.Event{
		ID:        f.nextID("e"),
		TeamID:    teamID,
		MemberID:  memberID,
		SessionID: sessionID,
		Outcome:   outcome,
		Quality:   quality,
		CreatedAt: time.Now(),
	}
	f.events = append(f.events, e)
	f.adjustTally(memberID, outcome, +1)
	return &e, nil
}

func (f fakeEvents) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFail(); err != nil {
		return err
	}
	for i := range f.events {
		if f.events[i].ID == id {
			f.adjustTally(f.events[i].MemberID, f.events[i].Outcome, -1)
			f.events = append(f.events[:i], f.events[i+1:]...)
			return nil
		}
	}
	return nil // deleting a deleted event is a no-op, like the pg store
}

func (f fakeEvents) ByTeam(_ context.Context, teamID string) ([]event.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []event.Event
	for _, e := range f.events {
		if e.TeamID == teamID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f fakeEvents) EnsureTable(context.Context) error { return nil }

type fakeTypes struct{ *fakeStores }

func (f fakeTypes) Upsert(_ context.Context, teamID, code, name string) (*session.CustomType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFail(); err != nil {
		return nil, err
	}
	for i := range f.types {
		if f.types[i].TeamID == teamID && f.types[i].Code == code {
			f.types[i].Name = name
			t := f.types[i]
			return &t, nil
		}
	}
	t := session.CustomType{TeamID: teamID, Code: code, Name: name}
	f.types = append(f.types, t)
	return &t, nil
}

func (f fakeTypes) Delete(_ context.Context, teamID, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFail(); err != nil {
		return err
	}
	for i := range f.types {
		if f.types[i].TeamID == teamID && f.types[i].Code == code {
			f.types = append(f.types[:i], f.types[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f fakeTypes) ByTeam(_ context.Context, teamID string) ([]session.CustomType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []session.CustomType
	for _, t := range f.types {
		if t.TeamID == teamID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f fakeTypes) EnsureTable(context.Context) error { return nil }
