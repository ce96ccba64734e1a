// Package httpapi exposes the roster over an administrative HTTP JSON API
// and serves a read-only HTML roster page.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	apperrors "github.com/louisbranch/raidroster/internal/platform/errors"
	"github.com/louisbranch/raidroster/internal/platform/requestctx"
	"github.com/louisbranch/raidroster/internal/services/roster/dispatch"
	"github.com/louisbranch/raidroster/internal/services/roster/domain"
	"github.com/louisbranch/raidroster/internal/services/roster/render"
	"github.com/louisbranch/raidroster/internal/services/roster/storage"
)

const (
	maxBodyBytes     = 1 << 20
	defaultListLimit = 50
	maxListLimit     = 200
)

// Service is the domain surface the API reads and mutates directly.
type Service interface {
	ActorFor(ctx context.Context, identity domain.Identity) (domain.Actor, error)
	CreateEvent(ctx context.Context, actor domain.Actor, input domain.EventInput) (storage.EventRecord, error)
	UpdateEvent(ctx context.Context, actor domain.Actor, eventID string, patch domain.EventPatch) (storage.EventRecord, error)
	DeleteEvent(ctx context.Context, actor domain.Actor, eventID string) error
	SetEventChannel(ctx context.Context, actor domain.Actor, eventID, channelRef string) (storage.EventRecord, error)
	GetEvent(ctx context.Context, eventID string) (storage.EventRecord, error)
	ListEvents(ctx context.Context, from time.Time, limit int) ([]storage.EventRecord, error)
	EventSummary(ctx context.Context, eventID string) (domain.Summary, error)
	GetSignup(ctx context.Context, signupID string) (storage.SignupRecord, error)
	ListSignups(ctx context.Context, eventID, filter string) ([]storage.SignupRecord, error)
	AvailableCharacters(ctx context.Context, userID, eventID string) ([]storage.CharacterRecord, error)
	CreateCharacter(ctx context.Context, ownerID string, input domain.CharacterInput) (storage.CharacterRecord, error)
	ListCharacters(ctx context.Context, ownerID string) ([]storage.CharacterRecord, error)
	GetCharacter(ctx context.Context, characterID string) (storage.CharacterRecord, error)
}

// Dispatcher runs signup interactions and re-projects after them.
type Dispatcher interface {
	Handle(ctx context.Context, in dispatch.Interaction) (dispatch.Result, error)
}

// Projector re-renders an event onto its external surfaces.
type Projector interface {
	Publish(ctx context.Context, eventID string) (render.Outcome, error)
	Retire(ctx context.Context, event storage.EventRecord) (int, error)
}

// Server holds the API dependencies.
type Server struct {
	service    Service
	dispatcher Dispatcher
	projector  Projector
	loc        render.Localizer
	tokens     TokenConfig
	clock      func() time.Time
	logger     *zap.Logger
}

// Config groups Server dependencies.
type Config struct {
	Service    Service
	Dispatcher Dispatcher
	Projector  Projector
	Localizer  render.Localizer
	Tokens     TokenConfig
	Clock      func() time.Time
	Logger     *zap.Logger
}

// NewServer builds the API server.
func NewServer(cfg Config) *Server {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Server{
		service:    cfg.Service,
		dispatcher: cfg.Dispatcher,
		projector:  cfg.Projector,
		loc:        cfg.Localizer,
		tokens:     cfg.Tokens,
		clock:      cfg.Clock,
		logger:     cfg.Logger,
	}
}

// Handler returns the routed API. extra is mounted unauthenticated, for
// example a metrics handler.
func (s *Server) Handler(extra map[string]http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	for pattern, handler := range extra {
		r.Handle(pattern, handler)
	}
	r.Get("/events/{eventID}/roster", s.rosterPage)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Authenticate(s.tokens))

		r.Get("/events", s.listEvents)
		r.Post("/events", s.createEvent)
		r.Route("/events/{eventID}", func(r chi.Router) {
			r.Get("/", s.getEvent)
			r.Patch("/", s.updateEvent)
			r.Delete("/", s.deleteEvent)
			r.Put("/channel", s.setEventChannel)
			r.Post("/reproject", s.reproject)
			r.Get("/signups", s.listSignups)
			r.Post("/signups", s.createSignup)
			r.Post("/withdraw", s.withdraw)
			r.Get("/available-characters", s.availableCharacters)
		})
		r.Get("/signups/{signupID}", s.getSignup)
		r.Post("/signups/{signupID}/commit", s.commit)
		r.Post("/signups/{signupID}/uncommit", s.uncommit)
		r.Get("/characters", s.listCharacters)
		r.Post("/characters", s.createCharacter)
		r.Get("/characters/{characterID}", s.getCharacter)
	})
	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := s.clock()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", s.clock().Sub(started)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func identityFrom(r *http.Request) domain.Identity {
	actor, _ := requestctx.ActorFromContext(r.Context())
	return domain.Identity{
		ExternalIdentity: actor.ExternalIdentity,
		DisplayName:      actor.DisplayName,
		Role:             storage.UserRole(actor.Role),
	}
}

func (s *Server) actor(r *http.Request) (domain.Actor, error) {
	return s.service.ActorFor(r.Context(), identityFrom(r))
}

// publishAfter re-projects eventID after a committed event mutation.
// Failures come back as EXTERNAL_CHANNEL next to the mutation's result.
func (s *Server) publishAfter(ctx context.Context, eventID string) error {
	if s.projector == nil {
		return nil
	}
	if _, err := s.projector.Publish(ctx, eventID); err != nil {
		s.logger.Warn("re-projection failed after event mutation", zap.String("event_id", eventID), zap.Error(err))
		if !apperrors.IsCode(err, apperrors.CodeExternalChannel) {
			err = apperrors.Wrap(apperrors.CodeExternalChannel, "re-project event", err)
		}
		return err
	}
	return nil
}

// retireAfter marks the messages of a deleted event as cancelled. The
// deletion is already committed, so failures are only logged.
func (s *Server) retireAfter(ctx context.Context, event storage.EventRecord) {
	if s.projector == nil || event.ID == "" {
		return
	}
	if _, err := s.projector.Retire(ctx, event); err != nil {
		s.logger.Warn("retiring deleted event messages failed", zap.String("event_id", event.ID), zap.Error(err))
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return apperrors.Wrap(apperrors.CodeValidation, "request body is not valid JSON", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorBody struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
	// Result carries the committed outcome when only the projection failed.
	Result any `json:"result,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	writeErrorWithResult(w, err, nil)
}

func writeErrorWithResult(w http.ResponseWriter, err error, result any) {
	code := apperrors.CodeOf(err)
	body := errorBody{Code: string(code), Message: "internal error"}
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		body.Message = domainErr.Message
		body.Metadata = domainErr.Metadata
	}
	writeJSON(w, code.HTTPStatus(), errorResponse{Error: body, Result: result})
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("limit %q must be a positive integer", raw))
	}
	return min(limit, maxListLimit), nil
}
