package render

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/louisbranch/raidroster/internal/services/roster/channel"
	"github.com/louisbranch/raidroster/internal/services/roster/storage"
)

var testEvent = storage.EventRecord{
	ID:          "evt-1",
	Title:       "Heroic Clear",
	ScheduledAt: time.Date(2026, 3, 20, 19, 30, 0, 0, time.UTC),
	Capacity:    20,
	Difficulty:  storage.DifficultyHeroic,
	LootType:    storage.LootTypeUnsaved,
	Description: "Bring flasks.",
	ChannelRef:  "chan-1",
}

func entries(role storage.CharacterRole, n int, prefix string) []storage.RosterEntry {
	out := make([]storage.RosterEntry, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, storage.RosterEntry{
			SignupID:      fmt.Sprintf("%s-s%d", prefix, i),
			CharacterName: fmt.Sprintf("%s%02d", prefix, i),
			Role:          role,
		})
	}
	return out
}

func english() *message.Printer {
	return message.NewPrinter(language.English)
}

func TestProjectEmptyRosterUsesPlaceholder(t *testing.T) {
	t.Parallel()

	rep := Project(english(), Input{Event: testEvent, Counts: storage.SignupCounts{Pending: 3}})

	for name, msg := range map[string]channel.Message{"announcement": rep.Announcement, "roster": rep.Roster} {
		if len(msg.Fields) != 1 {
			t.Fatalf("%s fields = %d, want 1", name, len(msg.Fields))
		}
		if msg.Fields[0].Value != "No picks yet." {
			t.Fatalf("%s roster value = %q, want placeholder", name, msg.Fields[0].Value)
		}
	}
}

func TestProjectAnnouncementCarriesScheduleTagsAndStatus(t *testing.T) {
	t.Parallel()

	rep := Project(english(), Input{
		Event:  testEvent,
		Counts: storage.SignupCounts{Pending: 4, Committed: 2},
		Roster: entries(storage.CharacterRoleTank, 2, "T"),
	})
	desc := rep.Announcement.Description

	wants := []string{
		fmt.Sprintf("<t:%d:f>", testEvent.ScheduledAt.Unix()),
		"**Heroic** • **unsaved**",
		"Bring flasks.",
		"Signups: **4** pending · Picks: **2**",
	}
	for _, want := range wants {
		if !strings.Contains(desc, want) {
			t.Fatalf("description %q missing %q", desc, want)
		}
	}
	if rep.Announcement.Color != AnnouncementColor {
		t.Fatalf("color = %x", rep.Announcement.Color)
	}
	if len(rep.Announcement.Buttons) != 2 {
		t.Fatalf("buttons = %d, want 2", len(rep.Announcement.Buttons))
	}
	if rep.Announcement.Buttons[0].CustomID != "raid:signup:evt-1" || rep.Announcement.Buttons[1].CustomID != "raid:withdraw:evt-1" {
		t.Fatalf("buttons = %+v", rep.Announcement.Buttons)
	}

	if rep.Roster.Title != "Roster – Heroic Clear" {
		t.Fatalf("roster title = %q", rep.Roster.Title)
	}
	if strings.Contains(rep.Roster.Description, "pending") {
		t.Fatalf("roster surface carries status line: %q", rep.Roster.Description)
	}
	if len(rep.Roster.Buttons) != 0 {
		t.Fatalf("roster surface has buttons")
	}
}

func TestProjectGroupsInRoleOrder(t *testing.T) {
	t.Parallel()

	roster := append(entries(storage.CharacterRoleRanged, 1, "R"), entries(storage.CharacterRoleTank, 2, "T")...)
	roster = append(roster, entries(storage.CharacterRoleHeal, 1, "H")...)

	rep := Project(english(), Input{Event: testEvent, Roster: roster})
	lines := strings.Split(rep.Roster.Fields[0].Value, "\n")

	if len(lines) != 3 {
		t.Fatalf("lines = %q, want 3 groups", lines)
	}
	if lines[0] != "🛡️ **Tanks (2)**: T01, T02" {
		t.Fatalf("line 0 = %q", lines[0])
	}
	if lines[1] != "✨ **Heals (1)**: H01" {
		t.Fatalf("line 1 = %q", lines[1])
	}
	if lines[2] != "🎯 **Ranged (1)**: R01" {
		t.Fatalf("line 2 = %q", lines[2])
	}
}

func TestProjectTruncatesLargeGroup(t *testing.T) {
	t.Parallel()

	rep := Project(english(), Input{Event: testEvent, Roster: entries(storage.CharacterRoleMelee, 25, "M")})
	line := rep.Roster.Fields[0].Value

	if !strings.HasPrefix(line, "⚔️ **Melee (25)**: M01, ") {
		t.Fatalf("line = %q", line)
	}
	if !strings.HasSuffix(line, "M20, +5 more") {
		t.Fatalf("line = %q, want 20 names then +5 more", line)
	}
	if strings.Contains(line, "M21") {
		t.Fatalf("line lists more than %d names: %q", MaxNames, line)
	}
}

func TestProjectTruncatesLongLine(t *testing.T) {
	t.Parallel()

	roster := make([]storage.RosterEntry, 0, 10)
	for i := 0; i < 10; i++ {
		roster = append(roster, storage.RosterEntry{
			CharacterName: fmt.Sprintf("%02d%s", i, strings.Repeat("x", 38)),
			Role:          storage.CharacterRoleHeal,
		})
	}

	line := Project(english(), Input{Event: testEvent, Roster: roster}).Roster.Fields[0].Value

	if n := utf8.RuneCountInString(line); n > MaxLineLength {
		t.Fatalf("line length = %d, want <= %d", n, MaxLineLength)
	}
	if !strings.Contains(line, "more") {
		t.Fatalf("line = %q, want a more marker", line)
	}
}

func TestProjectCapsRosterField(t *testing.T) {
	t.Parallel()

	var roster []storage.RosterEntry
	for _, role := range storage.CharacterRoles {
		for i := 0; i < 20; i++ {
			roster = append(roster, storage.RosterEntry{
				CharacterName: fmt.Sprintf("%s-%02d-%s", role, i, strings.Repeat("ä", 40)),
				Role:          role,
			})
		}
	}

	value := Project(english(), Input{Event: testEvent, Roster: roster}).Announcement.Fields[0].Value
	if n := utf8.RuneCountInString(value); n > MaxFieldLength {
		t.Fatalf("field length = %d, want <= %d", n, MaxFieldLength)
	}
}

func TestCapFieldCutsOnRuneBoundary(t *testing.T) {
	t.Parallel()

	value := capField(strings.Repeat("é", MaxFieldLength+5))
	if !utf8.ValidString(value) {
		t.Fatal("capped field is not valid UTF-8")
	}
	if !strings.HasSuffix(value, " …") {
		t.Fatalf("capped field missing ellipsis")
	}
	if n := utf8.RuneCountInString(value); n != fieldCutLength+2 {
		t.Fatalf("capped length = %d, want %d", n, fieldCutLength+2)
	}
	if got := capField("short"); got != "short" {
		t.Fatalf("capField(short) = %q", got)
	}
}

func TestProjectGermanCatalog(t *testing.T) {
	t.Parallel()

	printer := message.NewPrinter(language.German)
	rep := Project(printer, Input{Event: testEvent})

	if rep.Roster.Fields[0].Value != "Noch keine Picks." {
		t.Fatalf("placeholder = %q", rep.Roster.Fields[0].Value)
	}
	if rep.Announcement.Buttons[0].Label != "Anmelden" {
		t.Fatalf("signup label = %q", rep.Announcement.Buttons[0].Label)
	}

	rep = Project(printer, Input{Event: testEvent, Roster: entries(storage.CharacterRoleTank, 22, "T")})
	if !strings.HasSuffix(rep.Roster.Fields[0].Value, "+2 mehr") {
		t.Fatalf("german more marker missing: %q", rep.Roster.Fields[0].Value)
	}
}

func TestProjectUnscheduledEvent(t *testing.T) {
	t.Parallel()

	event := testEvent
	event.ScheduledAt = time.Time{}
	rep := Project(english(), Input{Event: event})
	if rep.Roster.Description != "📅 Date tbd" {
		t.Fatalf("description = %q", rep.Roster.Description)
	}
}

func TestProjectNilLocalizerFallsBackToKeys(t *testing.T) {
	t.Parallel()

	rep := Project(nil, Input{Event: testEvent})
	if rep.Roster.Fields[0].Value != "roster.empty" {
		t.Fatalf("value = %q", rep.Roster.Fields[0].Value)
	}
}

func TestGroupRosterSkipsEmptyRoles(t *testing.T) {
	t.Parallel()

	groups := GroupRoster(entries(storage.CharacterRoleMelee, 2, "M"))
	if len(groups) != 1 || groups[0].Role != storage.CharacterRoleMelee || len(groups[0].Entries) != 2 {
		t.Fatalf("groups = %+v", groups)
	}
	if got := GroupRoster(nil); len(got) != 0 {
		t.Fatalf("GroupRoster(nil) = %+v", got)
	}
}
