package domain

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/raidroster/internal/services/roster/storage"
	"github.com/louisbranch/raidroster/internal/services/roster/storage/sqlite"
)

var testNow = time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

var (
	lead        = Actor{UserID: "lead", Role: storage.UserRoleLead}
	participant = Actor{UserID: "someone", Role: storage.UserRoleParticipant}
)

type fixture struct {
	svc   *Service
	store *sqlite.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "roster.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return &fixture{
		svc:   NewService(store, fixedClock(testNow), sequentialIDs("id")),
		store: store,
	}
}

func fixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}

func sequentialIDs(prefix string) func() (string, error) {
	var mu sync.Mutex
	n := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n), nil
	}
}

func (f *fixture) user(t *testing.T, external string) storage.UserRecord {
	t.Helper()
	user, err := f.svc.ResolveUser(context.Background(), Identity{ExternalIdentity: external, DisplayName: external})
	if err != nil {
		t.Fatalf("resolve user %s: %v", external, err)
	}
	return user
}

func (f *fixture) event(t *testing.T, title string) storage.EventRecord {
	t.Helper()
	event, err := f.svc.CreateEvent(context.Background(), lead, EventInput{
		Title:       title,
		ScheduledAt: testNow.Add(48 * time.Hour),
		Capacity:    20,
		Difficulty:  "heroic",
		LootType:    "unsaved",
	})
	if err != nil {
		t.Fatalf("create event %s: %v", title, err)
	}
	return event
}

func (f *fixture) character(t *testing.T, ownerID, name string, role storage.CharacterRole) storage.CharacterRecord {
	t.Helper()
	character, err := f.svc.CreateCharacter(context.Background(), ownerID, CharacterInput{
		Name:  name,
		Class: "paladin",
		Role:  string(role),
	})
	if err != nil {
		t.Fatalf("create character %s: %v", name, err)
	}
	return character
}

func (f *fixture) signup(t *testing.T, event storage.EventRecord, user storage.UserRecord, character storage.CharacterRecord) storage.SignupRecord {
	t.Helper()
	signup, err := f.svc.CreateSignup(context.Background(), CreateSignupInput{
		EventID:     event.ID,
		UserID:      user.ID,
		CharacterID: character.ID,
	})
	if err != nil {
		t.Fatalf("create signup: %v", err)
	}
	return signup
}

func (f *fixture) lockOf(t *testing.T, characterID string) string {
	t.Helper()
	character, err := f.store.GetCharacter(context.Background(), characterID)
	if err != nil {
		t.Fatalf("get character: %v", err)
	}
	return character.LockedForEvent
}

// assertLockInvariant checks that each character is locked to exactly the
// event of its committed signup, or unlocked when it has none.
func (f *fixture) assertLockInvariant(t *testing.T, ownerID string, eventIDs ...string) {
	t.Helper()
	ctx := context.Background()
	committedFor := map[string]string{}
	for _, eventID := range eventIDs {
		signups, err := f.store.ListSignups(ctx, eventID, `status = "committed"`)
		if err != nil {
			t.Fatalf("list committed signups: %v", err)
		}
		for _, s := range signups {
			if prev, dup := committedFor[s.CharacterID]; dup {
				t.Fatalf("character %s committed to %s and %s", s.CharacterID, prev, eventID)
			}
			committedFor[s.CharacterID] = eventID
		}
	}
	characters, err := f.store.ListCharactersByOwner(ctx, ownerID)
	if err != nil {
		t.Fatalf("list characters: %v", err)
	}
	for _, c := range characters {
		if c.LockedForEvent != committedFor[c.ID] {
			t.Fatalf("character %s locked_for_event = %q, committed for %q", c.Name, c.LockedForEvent, committedFor[c.ID])
		}
	}
}
