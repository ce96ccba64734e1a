// Package render projects event and roster state into channel messages and
// pushes them to the external notification channel.
package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/louisbranch/raidroster/internal/services/roster/channel"
	"github.com/louisbranch/raidroster/internal/services/roster/storage"
	"golang.org/x/text/message"
)

const (
	// MaxNames is the most names listed for one role group.
	MaxNames = 20
	// MaxLineLength bounds one rendered role group line, in characters.
	MaxLineLength = 250
	// MaxFieldLength is the external channel's limit for one field value.
	MaxFieldLength = 1024

	fieldCutLength = 1010

	AnnouncementColor = 0x5865F2
	RosterColor       = 0x00B894
	CancelledColor    = 0x99AAB5
)

// Localizer is the minimal message-printer contract required by the renderer.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// Input is the state one projection is computed from.
type Input struct {
	Event  storage.EventRecord
	Counts storage.SignupCounts
	// Roster holds the committed signups in commit order.
	Roster []storage.RosterEntry
}

// Representation is the rendered content of both external surfaces.
type Representation struct {
	Announcement channel.Message
	Roster       channel.Message
}

// Group is the committed signups of one role.
type Group struct {
	Role    storage.CharacterRole
	Entries []storage.RosterEntry
}

var roleIcons = map[storage.CharacterRole]string{
	storage.CharacterRoleTank:   "🛡️",
	storage.CharacterRoleHeal:   "✨",
	storage.CharacterRoleMelee:  "⚔️",
	storage.CharacterRoleRanged: "🎯",
}

// GroupRoster returns the non-empty role groups in display order.
func GroupRoster(entries []storage.RosterEntry) []Group {
	byRole := make(map[storage.CharacterRole][]storage.RosterEntry, len(storage.CharacterRoles))
	for _, entry := range entries {
		byRole[entry.Role] = append(byRole[entry.Role], entry)
	}
	groups := make([]Group, 0, len(storage.CharacterRoles))
	for _, role := range storage.CharacterRoles {
		if len(byRole[role]) == 0 {
			continue
		}
		groups = append(groups, Group{Role: role, Entries: byRole[role]})
	}
	return groups
}

// Project renders both surfaces. It has no side effects.
func Project(loc Localizer, input Input) Representation {
	rosterField := rosterField(loc, GroupRoster(input.Roster))
	return Representation{
		Announcement: channel.Message{
			Title:       input.Event.Title,
			Description: announcementDescription(loc, input),
			Color:       AnnouncementColor,
			Fields:      []channel.Field{rosterField},
			Buttons: []channel.Button{
				{
					Label:    localize(loc, "announcement.button.signup"),
					CustomID: channel.CustomID(channel.ActionSignup, input.Event.ID),
					Style:    channel.ButtonPrimary,
				},
				{
					Label:    localize(loc, "announcement.button.withdraw"),
					CustomID: channel.CustomID(channel.ActionWithdraw, input.Event.ID),
					Style:    channel.ButtonSecondary,
				},
			},
		},
		Roster: channel.Message{
			Title:       localize(loc, "roster.title", input.Event.Title),
			Description: schedule(loc, input.Event),
			Color:       RosterColor,
			Fields:      []channel.Field{rosterField},
		},
	}
}

// Cancelled renders the final state of both surfaces of a deleted event.
// Neither message carries buttons.
func Cancelled(loc Localizer, event storage.EventRecord) Representation {
	msg := channel.Message{
		Title:       localize(loc, "event.cancelled.title", event.Title),
		Description: localize(loc, "event.cancelled.body"),
		Color:       CancelledColor,
	}
	return Representation{Announcement: msg, Roster: msg}
}

func announcementDescription(loc Localizer, input Input) string {
	event := input.Event
	lines := []string{
		schedule(loc, event),
		fmt.Sprintf("**%s** • **%s**",
			localize(loc, "event.difficulty."+string(event.Difficulty)),
			localize(loc, "event.loot."+string(event.LootType)),
		),
	}
	if desc := strings.TrimSpace(event.Description); desc != "" {
		lines = append(lines, "", desc)
	}
	lines = append(lines, "", localize(loc, "announcement.status", input.Counts.Pending, input.Counts.Committed))
	return strings.Join(lines, "\n")
}

func schedule(loc Localizer, event storage.EventRecord) string {
	if event.ScheduledAt.IsZero() {
		return localize(loc, "event.schedule.tbd")
	}
	return localize(loc, "event.schedule", fmt.Sprintf("<t:%d:f>", event.ScheduledAt.Unix()))
}

func rosterField(loc Localizer, groups []Group) channel.Field {
	if len(groups) == 0 {
		return channel.Field{
			Name:  localize(loc, "roster.field.empty_title"),
			Value: localize(loc, "roster.empty"),
		}
	}
	lines := make([]string, 0, len(groups))
	for _, group := range groups {
		lines = append(lines, groupLine(loc, group))
	}
	return channel.Field{
		Name:  localize(loc, "roster.field.title"),
		Value: capField(strings.Join(lines, "\n")),
	}
}

// groupLine renders "icon **Label (n)**: a, b, +N more". Names stop at
// MaxNames or before the line would pass MaxLineLength; the first name is
// always shown.
func groupLine(loc Localizer, group Group) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s **%s (%d)**: ", roleIcons[group.Role], localize(loc, "role."+string(group.Role)), len(group.Entries))

	total := len(group.Entries)
	shown := 0
	for i, entry := range group.Entries {
		if i == MaxNames {
			break
		}
		name := entry.CharacterName
		if name == "" {
			name = "??"
		}
		sep := ""
		if i > 0 {
			sep = ", "
		}
		need := utf8.RuneCountInString(b.String()) + utf8.RuneCountInString(sep+name)
		if rest := total - i - 1; rest > 0 {
			need += utf8.RuneCountInString(", " + more(loc, rest))
		}
		if i > 0 && need > MaxLineLength {
			break
		}
		b.WriteString(sep)
		b.WriteString(name)
		shown++
	}
	if hidden := total - shown; hidden > 0 {
		b.WriteString(", ")
		b.WriteString(more(loc, hidden))
	}
	return b.String()
}

func more(loc Localizer, n int) string {
	return localize(loc, "roster.more", n)
}

func capField(value string) string {
	if utf8.RuneCountInString(value) <= MaxFieldLength {
		return value
	}
	runes := []rune(value)
	return string(runes[:fieldCutLength]) + " …"
}

func localize(loc Localizer, key message.Reference, args ...any) string {
	if loc == nil {
		if asString, ok := key.(string); ok {
			return asString
		}
		return ""
	}
	return loc.Sprintf(key, args...)
}
