// Package dispatch turns inbound interactions into roster operations and
// keeps the external projection current after each mutation.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	apperrors "github.com/louisbranch/raidroster/internal/platform/errors"
	platformotel "github.com/louisbranch/raidroster/internal/platform/otel"
	"github.com/louisbranch/raidroster/internal/services/roster/channel"
	"github.com/louisbranch/raidroster/internal/services/roster/domain"
	"github.com/louisbranch/raidroster/internal/services/roster/metrics"
	"github.com/louisbranch/raidroster/internal/services/roster/render"
	"github.com/louisbranch/raidroster/internal/services/roster/storage"
)

// MaxOptions is the most characters offered in one selection.
const MaxOptions = 25

const (
	maxOptionLabel       = 100
	maxOptionDescription = 90
)

// Kind is the intent of an interaction.
type Kind string

const (
	// KindClaim asks which characters the caller could sign up.
	KindClaim     Kind = "claim"
	KindSelect    Kind = "select"
	KindWithdraw  Kind = "withdraw"
	KindCommit    Kind = "commit"
	KindUnCommit  Kind = "uncommit"
	KindReproject Kind = "reproject"
)

// Interaction is one inbound event. Delivery may repeat.
type Interaction struct {
	Kind     Kind
	Identity domain.Identity
	EventID  string
	// CharacterID is the chosen character of a selection.
	CharacterID string
	// SignupID targets commit and un-commit.
	SignupID string
}

// Option is one selectable character.
type Option struct {
	Label       string
	Value       string
	Description string
}

// Result is the reply to an interaction.
type Result struct {
	Kind Kind
	// Message is a localized, human-readable reply.
	Message string
	// Options and SelectID are set when a claim has eligible characters.
	Options  []Option
	SelectID string
	// Placeholder is the localized selection prompt.
	Placeholder string
	Signup      *storage.SignupRecord
	Withdrawn   int
	Projection  *render.Outcome
}

// Service is the domain surface the dispatcher drives.
type Service interface {
	ActorFor(ctx context.Context, identity domain.Identity) (domain.Actor, error)
	AvailableCharacters(ctx context.Context, userID, eventID string) ([]storage.CharacterRecord, error)
	CreateSignup(ctx context.Context, input domain.CreateSignupInput) (storage.SignupRecord, error)
	Withdraw(ctx context.Context, userID, eventID string) (int, error)
	Commit(ctx context.Context, actor domain.Actor, signupID string) (storage.SignupRecord, error)
	UnCommit(ctx context.Context, actor domain.Actor, signupID string) (storage.SignupRecord, error)
}

// Projector re-renders an event onto its external surfaces.
type Projector interface {
	Publish(ctx context.Context, eventID string) (render.Outcome, error)
}

// Config holds dispatcher settings.
type Config struct {
	// CharactersURL is linked when a caller has no eligible characters.
	CharactersURL string
}

// Dispatcher handles interactions synchronously.
type Dispatcher struct {
	service   Service
	projector Projector
	loc       render.Localizer
	cfg       Config
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// New builds a dispatcher. A nil logger is replaced by a no-op logger.
func New(service Service, projector Projector, loc render.Localizer, cfg Config, logger *zap.Logger, m *metrics.Metrics) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		service:   service,
		projector: projector,
		loc:       loc,
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
	}
}

// FromCustomID maps a control identifier and its selected values onto an
// interaction kind. ok is false for identifiers the roster does not own.
func FromCustomID(customID string, values []string) (Interaction, bool) {
	action, eventID, ok := channel.ParseCustomID(customID)
	if !ok {
		return Interaction{}, false
	}
	in := Interaction{EventID: eventID}
	switch action {
	case channel.ActionSignup:
		in.Kind = KindClaim
	case channel.ActionWithdraw:
		in.Kind = KindWithdraw
	case channel.ActionSelect:
		if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
			return Interaction{}, false
		}
		in.Kind = KindSelect
		in.CharacterID = strings.TrimSpace(values[0])
	}
	return in, true
}

// Handle resolves the caller, runs the operation, and re-projects the event
// after a mutation. When the mutation succeeded but the projection failed,
// the populated Result is returned together with an EXTERNAL_CHANNEL error.
func (d *Dispatcher) Handle(ctx context.Context, in Interaction) (Result, error) {
	ctx, span := platformotel.Tracer("raidroster/dispatch").Start(ctx, "dispatch.Handle")
	defer span.End()
	span.SetAttributes(
		attribute.String("raidroster.kind", string(in.Kind)),
		attribute.String("raidroster.event_id", in.EventID),
	)

	result, err := d.handle(ctx, in)
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		d.logger.Info("interaction failed",
			zap.String("kind", string(in.Kind)),
			zap.String("event_id", in.EventID),
			zap.String("code", string(apperrors.CodeOf(err))),
			zap.Error(err),
		)
	}
	d.metrics.Interaction(string(in.Kind), outcome)
	return result, err
}

func (d *Dispatcher) handle(ctx context.Context, in Interaction) (Result, error) {
	if d == nil || d.service == nil {
		return Result{}, fmt.Errorf("dispatcher is not configured")
	}
	actor, err := d.service.ActorFor(ctx, in.Identity)
	if err != nil {
		return Result{}, err
	}
	result := Result{Kind: in.Kind}

	switch in.Kind {
	case KindClaim:
		return d.claim(ctx, actor, in)
	case KindSelect:
		signup, err := d.service.CreateSignup(ctx, domain.CreateSignupInput{
			EventID:     in.EventID,
			UserID:      actor.UserID,
			CharacterID: in.CharacterID,
		})
		if err != nil {
			return Result{}, err
		}
		result.Signup = &signup
		result.Message = d.localize("dispatch.signup.created")
		return d.project(ctx, result, signup.EventID)
	case KindWithdraw:
		count, err := d.service.Withdraw(ctx, actor.UserID, in.EventID)
		if err != nil {
			return Result{}, err
		}
		result.Withdrawn = count
		if count == 0 {
			result.Message = d.localize("dispatch.withdraw.none")
			return result, nil
		}
		result.Message = d.localize("dispatch.withdraw.done", count)
		return d.project(ctx, result, in.EventID)
	case KindCommit, KindUnCommit:
		op := d.service.Commit
		key := "dispatch.commit.done"
		if in.Kind == KindUnCommit {
			op = d.service.UnCommit
			key = "dispatch.uncommit.done"
		}
		signup, err := op(ctx, actor, in.SignupID)
		if err != nil {
			return Result{}, err
		}
		result.Signup = &signup
		result.Message = d.localize(key)
		return d.project(ctx, result, signup.EventID)
	case KindReproject:
		if err := domain.Authorize(actor, domain.OpReproject); err != nil {
			return Result{}, err
		}
		outcome, err := d.projector.Publish(ctx, in.EventID)
		if err != nil {
			return Result{}, err
		}
		if outcome.Skipped {
			return Result{}, apperrors.New(apperrors.CodeEventChannelNotAttached, "event has no channel attached")
		}
		result.Projection = &outcome
		result.Message = d.localize("dispatch.reproject.done")
		return result, nil
	default:
		return Result{}, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("unknown interaction kind %q", in.Kind))
	}
}

func (d *Dispatcher) claim(ctx context.Context, actor domain.Actor, in Interaction) (Result, error) {
	characters, err := d.service.AvailableCharacters(ctx, actor.UserID, in.EventID)
	if err != nil {
		return Result{}, err
	}
	result := Result{Kind: KindClaim}
	if len(characters) == 0 {
		result.Message = d.localize("dispatch.claim.none", d.cfg.CharactersURL)
		return result, nil
	}
	if len(characters) > MaxOptions {
		characters = characters[:MaxOptions]
	}
	result.Options = make([]Option, 0, len(characters))
	for _, character := range characters {
		result.Options = append(result.Options, characterOption(character))
	}
	result.SelectID = channel.CustomID(channel.ActionSelect, in.EventID)
	result.Placeholder = d.localize("dispatch.claim.placeholder")
	result.Message = d.localize("dispatch.claim.prompt")
	return result, nil
}

// project re-renders eventID. A failure is reported as EXTERNAL_CHANNEL
// alongside the already-populated result.
func (d *Dispatcher) project(ctx context.Context, result Result, eventID string) (Result, error) {
	if d.projector == nil {
		return result, nil
	}
	outcome, err := d.projector.Publish(ctx, eventID)
	if err != nil {
		d.logger.Warn("re-projection failed after committed mutation",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		if !apperrors.IsCode(err, apperrors.CodeExternalChannel) {
			err = apperrors.Wrap(apperrors.CodeExternalChannel, "re-project event", err)
		}
		return result, err
	}
	result.Projection = &outcome
	return result, nil
}

func characterOption(character storage.CharacterRecord) Option {
	return Option{
		Label:       truncate(fmt.Sprintf("%s (%s/%s)", character.Name, character.Class, character.Role), maxOptionLabel),
		Value:       character.ID,
		Description: truncate(strings.TrimSpace(character.Notes), maxOptionDescription),
	}
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}

func (d *Dispatcher) localize(key string, args ...any) string {
	if d.loc == nil {
		return key
	}
	return d.loc.Sprintf(key, args...)
}

// Reply returns the text shown for a handled interaction. A committed
// mutation whose re-projection failed keeps its own message with the
// display failure appended.
func Reply(loc render.Localizer, result Result, err error) string {
	if err == nil {
		return result.Message
	}
	if result.Kind != "" && result.Message != "" && apperrors.IsCode(err, apperrors.CodeExternalChannel) {
		return result.Message + "\n" + ErrorMessage(loc, err)
	}
	return ErrorMessage(loc, err)
}

// ErrorMessage returns a localized, user-facing reply for err.
func ErrorMessage(loc render.Localizer, err error) string {
	key := "dispatch.error." + strings.ToLower(string(apperrors.CodeOf(err)))
	if loc == nil {
		return key
	}
	text := loc.Sprintf(key)
	if text == key {
		return loc.Sprintf("dispatch.error.unknown")
	}
	return text
}
