package httpapi

import (
	"time"

	"github.com/louisbranch/raidroster/internal/services/roster/dispatch"
	"github.com/louisbranch/raidroster/internal/services/roster/render"
	"github.com/louisbranch/raidroster/internal/services/roster/storage"
)

type eventJSON struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	Capacity        int       `json:"capacity"`
	Difficulty      string    `json:"difficulty"`
	LootType        string    `json:"loot_type"`
	Description     string    `json:"description,omitempty"`
	CreatedBy       string    `json:"created_by,omitempty"`
	ChannelRef      string    `json:"channel_ref,omitempty"`
	AnnouncementRef string    `json:"announcement_ref,omitempty"`
	RosterRef       string    `json:"roster_ref,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toEventJSON(event storage.EventRecord) eventJSON {
	return eventJSON{
		ID:              event.ID,
		Title:           event.Title,
		ScheduledAt:     event.ScheduledAt,
		Capacity:        event.Capacity,
		Difficulty:      string(event.Difficulty),
		LootType:        string(event.LootType),
		Description:     event.Description,
		CreatedBy:       event.CreatedBy,
		ChannelRef:      event.ChannelRef,
		AnnouncementRef: event.AnnouncementRef,
		RosterRef:       event.RosterRef,
		CreatedAt:       event.CreatedAt,
		UpdatedAt:       event.UpdatedAt,
	}
}

type signupJSON struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	CharacterID string    `json:"character_id"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toSignupJSON(signup storage.SignupRecord) signupJSON {
	return signupJSON{
		ID:          signup.ID,
		EventID:     signup.EventID,
		UserID:      signup.UserID,
		CharacterID: signup.CharacterID,
		Role:        string(signup.Role),
		Status:      string(signup.Status),
		CreatedAt:   signup.CreatedAt,
		UpdatedAt:   signup.UpdatedAt,
	}
}

type characterJSON struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	Name           string    `json:"name"`
	Class          string    `json:"class"`
	Role           string    `json:"role"`
	ItemLevel      *int      `json:"item_level,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	LockedForEvent string    `json:"locked_for_event,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toCharacterJSON(character storage.CharacterRecord) characterJSON {
	return characterJSON{
		ID:             character.ID,
		OwnerID:        character.OwnerID,
		Name:           character.Name,
		Class:          character.Class,
		Role:           string(character.Role),
		ItemLevel:      character.ItemLevel,
		Notes:          character.Notes,
		LockedForEvent: character.LockedForEvent,
		CreatedAt:      character.CreatedAt,
		UpdatedAt:      character.UpdatedAt,
	}
}

type projectionJSON struct {
	Skipped         bool   `json:"skipped,omitempty"`
	AnnouncementRef string `json:"announcement_ref,omitempty"`
	RosterRef       string `json:"roster_ref,omitempty"`
	Recreated       int    `json:"recreated,omitempty"`
}

func toProjectionJSON(outcome *render.Outcome) *projectionJSON {
	if outcome == nil {
		return nil
	}
	return &projectionJSON{
		Skipped:         outcome.Skipped,
		AnnouncementRef: outcome.AnnouncementRef,
		RosterRef:       outcome.RosterRef,
		Recreated:       outcome.Recreated,
	}
}

type interactionJSON struct {
	Message    string          `json:"message,omitempty"`
	Signup     *signupJSON     `json:"signup,omitempty"`
	Withdrawn  *int            `json:"withdrawn,omitempty"`
	Projection *projectionJSON `json:"projection,omitempty"`
}

func toInteractionJSON(result dispatch.Result) interactionJSON {
	out := interactionJSON{
		Message:    result.Message,
		Projection: toProjectionJSON(result.Projection),
	}
	if result.Signup != nil {
		signup := toSignupJSON(*result.Signup)
		out.Signup = &signup
	}
	if result.Kind == dispatch.KindWithdraw {
		withdrawn := result.Withdrawn
		out.Withdrawn = &withdrawn
	}
	return out
}

func mapSlice[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, value := range in {
		out = append(out, fn(value))
	}
	return out
}
