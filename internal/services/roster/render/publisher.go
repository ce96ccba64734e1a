package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	apperrors "github.com/louisbranch/raidroster/internal/platform/errors"
	platformotel "github.com/louisbranch/raidroster/internal/platform/otel"
	"github.com/louisbranch/raidroster/internal/services/roster/channel"
	"github.com/louisbranch/raidroster/internal/services/roster/metrics"
	"github.com/louisbranch/raidroster/internal/services/roster/storage"
)

const (
	SurfaceAnnouncement = "announcement"
	SurfaceRoster       = "roster"
)

// Store is the slice of the entity store the publisher reads and writes.
type Store interface {
	GetEvent(ctx context.Context, id string) (storage.EventRecord, error)
	CountSignups(ctx context.Context, eventID string) (storage.SignupCounts, error)
	ListRoster(ctx context.Context, eventID string) ([]storage.RosterEntry, error)
	SetEventRefs(ctx context.Context, eventID, announcementRef, rosterRef string, at time.Time) error
}

// Outcome describes one publish attempt.
type Outcome struct {
	// Skipped is set when the event has no external channel.
	Skipped         bool
	AnnouncementRef string
	RosterRef       string
	// Recreated counts surfaces whose stored message had vanished.
	Recreated int
}

// Publisher keeps an event's external surfaces in sync with its state.
type Publisher struct {
	store   Store
	channel channel.Channel
	loc     Localizer
	clock   func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics
	locks   eventLocks
}

// PublisherOption customises a Publisher.
type PublisherOption func(*Publisher)

// WithClock overrides the clock used to stamp reference updates.
func WithClock(clock func() time.Time) PublisherOption {
	return func(p *Publisher) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithLogger sets the publisher logger.
func WithLogger(logger *zap.Logger) PublisherOption {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics sets the counters the publisher records into.
func WithMetrics(m *metrics.Metrics) PublisherOption {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// NewPublisher builds a publisher pushing to ch.
func NewPublisher(store Store, ch channel.Channel, loc Localizer, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		store:   store,
		channel: ch,
		loc:     loc,
		clock:   time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish renders the event and creates or edits both surfaces. New message
// references are persisted only when every push succeeded. Push failures
// are returned as EXTERNAL_CHANNEL errors; committed roster state is never
// touched.
func (p *Publisher) Publish(ctx context.Context, eventID string) (Outcome, error) {
	ctx, span := platformotel.Tracer("raidroster/render").Start(ctx, "render.Publish")
	defer span.End()
	span.SetAttributes(attribute.String("raidroster.event_id", eventID))

	outcome, err := p.publish(ctx, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	span.SetAttributes(
		attribute.Bool("raidroster.skipped", outcome.Skipped),
		attribute.Int("raidroster.recreated", outcome.Recreated),
	)
	return outcome, err
}

func (p *Publisher) publish(ctx context.Context, eventID string) (Outcome, error) {
	if p == nil || p.store == nil {
		return Outcome{}, errors.New("publisher store is not configured")
	}
	release, err := p.locks.acquire(ctx, eventID)
	if err != nil {
		return Outcome{}, err
	}
	defer release()

	event, err := p.store.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Outcome{}, apperrors.New(apperrors.CodeNotFound, "event not found")
		}
		return Outcome{}, fmt.Errorf("load event: %w", err)
	}
	if event.ChannelRef == "" {
		p.metrics.Push(SurfaceAnnouncement, metrics.OutcomeSkipped)
		p.metrics.Push(SurfaceRoster, metrics.OutcomeSkipped)
		return Outcome{Skipped: true}, nil
	}
	if p.channel == nil {
		return Outcome{}, apperrors.New(apperrors.CodeExternalChannel, "notification channel is not configured")
	}

	counts, err := p.store.CountSignups(ctx, eventID)
	if err != nil {
		return Outcome{}, fmt.Errorf("count signups: %w", err)
	}
	roster, err := p.store.ListRoster(ctx, eventID)
	if err != nil {
		return Outcome{}, fmt.Errorf("list roster: %w", err)
	}
	rep := Project(p.loc, Input{Event: event, Counts: counts, Roster: roster})

	outcome := Outcome{}
	annRef, recreated, err := p.push(ctx, SurfaceAnnouncement, event.ChannelRef, event.AnnouncementRef, rep.Announcement)
	if err != nil {
		return Outcome{}, err
	}
	outcome.AnnouncementRef = annRef
	if recreated {
		outcome.Recreated++
	}
	rosterRef, recreated, err := p.push(ctx, SurfaceRoster, event.ChannelRef, event.RosterRef, rep.Roster)
	if err != nil {
		return Outcome{}, err
	}
	outcome.RosterRef = rosterRef
	if recreated {
		outcome.Recreated++
	}

	if annRef != event.AnnouncementRef || rosterRef != event.RosterRef {
		if err := p.store.SetEventRefs(ctx, eventID, annRef, rosterRef, p.clock().UTC()); err != nil {
			return Outcome{}, fmt.Errorf("store message refs: %w", err)
		}
	}
	return outcome, nil
}

// Retire replaces the stored messages of a deleted event with a cancelled
// notice without buttons. Messages that are already gone are skipped and
// nothing is created. It returns how many messages were edited.
func (p *Publisher) Retire(ctx context.Context, event storage.EventRecord) (int, error) {
	if p == nil || p.channel == nil || event.ChannelRef == "" {
		return 0, nil
	}
	ctx, span := platformotel.Tracer("raidroster/render").Start(ctx, "render.Retire")
	defer span.End()
	span.SetAttributes(attribute.String("raidroster.event_id", event.ID))

	release, err := p.locks.acquire(ctx, event.ID)
	if err != nil {
		return 0, err
	}
	defer release()

	rep := Cancelled(p.loc, event)
	surfaces := []struct {
		name string
		ref  string
		msg  channel.Message
	}{
		{SurfaceAnnouncement, event.AnnouncementRef, rep.Announcement},
		{SurfaceRoster, event.RosterRef, rep.Roster},
	}
	edited := 0
	var errs []error
	for _, surface := range surfaces {
		if surface.ref == "" {
			continue
		}
		err := p.channel.Edit(ctx, event.ChannelRef, surface.ref, surface.msg)
		switch {
		case err == nil:
			p.metrics.Push(surface.name, metrics.OutcomeOK)
			edited++
		case errors.Is(err, channel.ErrMessageNotFound):
			p.metrics.Push(surface.name, metrics.OutcomeSkipped)
		default:
			p.metrics.Push(surface.name, metrics.OutcomeError)
			errs = append(errs, fmt.Errorf("retire %s message: %w", surface.name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return edited, apperrors.Wrap(apperrors.CodeExternalChannel, "retire event messages", err)
	}
	return edited, nil
}

// push edits ref in place, or creates a message when there is no ref or the
// referenced message is gone. Calls run under the caller's context only.
func (p *Publisher) push(ctx context.Context, surface, channelRef, ref string, msg channel.Message) (string, bool, error) {
	recreated := false
	if ref != "" {
		err := p.channel.Edit(ctx, channelRef, ref, msg)
		switch {
		case err == nil:
			p.metrics.Push(surface, metrics.OutcomeOK)
			return ref, false, nil
		case errors.Is(err, channel.ErrMessageNotFound):
			p.logger.Info("projection message vanished, recreating",
				zap.String("surface", surface),
				zap.String("message_ref", ref),
			)
			p.metrics.Recreated()
			recreated = true
		default:
			p.metrics.Push(surface, metrics.OutcomeError)
			return "", false, apperrors.Wrap(apperrors.CodeExternalChannel, "edit "+surface+" message", err)
		}
	}

	newRef, err := p.channel.Create(ctx, channelRef, msg)
	if err != nil {
		p.metrics.Push(surface, metrics.OutcomeError)
		return "", false, apperrors.Wrap(apperrors.CodeExternalChannel, "create "+surface+" message", err)
	}
	p.metrics.Push(surface, metrics.OutcomeOK)
	return newRef, recreated, nil
}
