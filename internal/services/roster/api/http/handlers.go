package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/louisbranch/raidroster/internal/platform/errors"
	"github.com/louisbranch/raidroster/internal/services/roster/dispatch"
	"github.com/louisbranch/raidroster/internal/services/roster/domain"
)

type createEventRequest struct {
	Title       string    `json:"title"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Capacity    int       `json:"capacity"`
	Difficulty  string    `json:"difficulty"`
	LootType    string    `json:"loot_type"`
	Description string    `json:"description"`
	ChannelRef  string    `json:"channel_ref"`
}

type updateEventRequest struct {
	Title       *string    `json:"title"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Capacity    *int       `json:"capacity"`
	Difficulty  *string    `json:"difficulty"`
	LootType    *string    `json:"loot_type"`
	Description *string    `json:"description"`
}

type setChannelRequest struct {
	ChannelRef string `json:"channel_ref"`
}

type createSignupRequest struct {
	CharacterID string `json:"character_id"`
}

type createCharacterRequest struct {
	Name      string `json:"name"`
	Class     string `json:"class"`
	Role      string `json:"role"`
	ItemLevel *int   `json:"item_level"`
	Notes     string `json:"notes"`
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	from := s.clock().UTC()
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, apperrors.New(apperrors.CodeValidation, "from must be an RFC 3339 timestamp"))
			return
		}
	}
	events, err := s.service.ListEvents(r.Context(), from, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": mapSlice(events, toEventJSON)})
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	event, err := s.service.CreateEvent(r.Context(), actor, domain.EventInput{
		Title:       req.Title,
		ScheduledAt: req.ScheduledAt,
		Capacity:    req.Capacity,
		Difficulty:  req.Difficulty,
		LootType:    req.LootType,
		Description: req.Description,
		ChannelRef:  req.ChannelRef,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.publishAfter(r.Context(), event.ID); err != nil {
		writeErrorWithResult(w, err, toEventJSON(event))
		return
	}
	s.respondEvent(w, r, http.StatusCreated, event.ID)
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	s.respondEvent(w, r, http.StatusOK, chi.URLParam(r, "eventID"))
}

// respondEvent reloads the event so stored message refs are included.
func (s *Server) respondEvent(w http.ResponseWriter, r *http.Request, status int, eventID string) {
	event, err := s.service.GetEvent(r.Context(), eventID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, toEventJSON(event))
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request) {
	var req updateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	event, err := s.service.UpdateEvent(r.Context(), actor, chi.URLParam(r, "eventID"), domain.EventPatch{
		Title:       req.Title,
		ScheduledAt: req.ScheduledAt,
		Capacity:    req.Capacity,
		Difficulty:  req.Difficulty,
		LootType:    req.LootType,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.publishAfter(r.Context(), event.ID); err != nil {
		writeErrorWithResult(w, err, toEventJSON(event))
		return
	}
	s.respondEvent(w, r, http.StatusOK, event.ID)
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	eventID := chi.URLParam(r, "eventID")
	// Loaded first for its message refs; a missing event surfaces from the delete.
	event, _ := s.service.GetEvent(r.Context(), eventID)
	if err := s.service.DeleteEvent(r.Context(), actor, eventID); err != nil {
		writeError(w, err)
		return
	}
	s.retireAfter(r.Context(), event)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setEventChannel(w http.ResponseWriter, r *http.Request) {
	var req setChannelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	event, err := s.service.SetEventChannel(r.Context(), actor, chi.URLParam(r, "eventID"), req.ChannelRef)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.publishAfter(r.Context(), event.ID); err != nil {
		writeErrorWithResult(w, err, toEventJSON(event))
		return
	}
	s.respondEvent(w, r, http.StatusOK, event.ID)
}

func (s *Server) reproject(w http.ResponseWriter, r *http.Request) {
	s.interact(w, r, http.StatusOK, dispatch.Interaction{
		Kind:    dispatch.KindReproject,
		EventID: chi.URLParam(r, "eventID"),
	})
}

func (s *Server) listSignups(w http.ResponseWriter, r *http.Request) {
	signups, err := s.service.ListSignups(r.Context(), chi.URLParam(r, "eventID"), r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"signups": mapSlice(signups, toSignupJSON)})
}

func (s *Server) createSignup(w http.ResponseWriter, r *http.Request) {
	var req createSignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.interact(w, r, http.StatusCreated, dispatch.Interaction{
		Kind:        dispatch.KindSelect,
		EventID:     chi.URLParam(r, "eventID"),
		CharacterID: req.CharacterID,
	})
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	s.interact(w, r, http.StatusOK, dispatch.Interaction{
		Kind:    dispatch.KindWithdraw,
		EventID: chi.URLParam(r, "eventID"),
	})
}

func (s *Server) availableCharacters(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	characters, err := s.service.AvailableCharacters(r.Context(), actor.UserID, chi.URLParam(r, "eventID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"characters": mapSlice(characters, toCharacterJSON)})
}

func (s *Server) getSignup(w http.ResponseWriter, r *http.Request) {
	signup, err := s.service.GetSignup(r.Context(), chi.URLParam(r, "signupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSignupJSON(signup))
}

func (s *Server) commit(w http.ResponseWriter, r *http.Request) {
	s.interact(w, r, http.StatusOK, dispatch.Interaction{
		Kind:     dispatch.KindCommit,
		SignupID: chi.URLParam(r, "signupID"),
	})
}

func (s *Server) uncommit(w http.ResponseWriter, r *http.Request) {
	s.interact(w, r, http.StatusOK, dispatch.Interaction{
		Kind:     dispatch.KindUnCommit,
		SignupID: chi.URLParam(r, "signupID"),
	})
}

// interact routes a signup operation through the dispatcher so the
// projection follows every mutation.
func (s *Server) interact(w http.ResponseWriter, r *http.Request, status int, in dispatch.Interaction) {
	in.Identity = identityFrom(r)
	result, err := s.dispatcher.Handle(r.Context(), in)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeExternalChannel) {
			writeErrorWithResult(w, err, toInteractionJSON(result))
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, status, toInteractionJSON(result))
}

func (s *Server) listCharacters(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	characters, err := s.service.ListCharacters(r.Context(), actor.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"characters": mapSlice(characters, toCharacterJSON)})
}

func (s *Server) createCharacter(w http.ResponseWriter, r *http.Request) {
	var req createCharacterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	character, err := s.service.CreateCharacter(r.Context(), actor.UserID, domain.CharacterInput{
		Name:      req.Name,
		Class:     req.Class,
		Role:      req.Role,
		ItemLevel: req.ItemLevel,
		Notes:     req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCharacterJSON(character))
}

func (s *Server) getCharacter(w http.ResponseWriter, r *http.Request) {
	character, err := s.service.GetCharacter(r.Context(), chi.URLParam(r, "characterID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCharacterJSON(character))
}
