package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/raidroster/internal/services/roster/storage"
)

// EventInput describes a new event.
type EventInput struct {
	Title       string
	ScheduledAt time.Time
	Capacity    int
	Difficulty  string
	LootType    string
	Description string
	ChannelRef  string
}

// EventPatch carries the fields an update changes. Nil fields are kept.
type EventPatch struct {
	Title       *string
	ScheduledAt *time.Time
	Capacity    *int
	Difficulty  *string
	LootType    *string
	Description *string
}

// CreateEvent validates and stores a new event.
func (s *Service) CreateEvent(ctx context.Context, actor Actor, input EventInput) (storage.EventRecord, error) {
	if err := s.ready(); err != nil {
		return storage.EventRecord{}, err
	}
	if err := Authorize(actor, OpMutateEvent); err != nil {
		return storage.EventRecord{}, err
	}
	eventID, err := s.newID()
	if err != nil {
		return storage.EventRecord{}, err
	}
	now := s.nowUTC()
	event := storage.EventRecord{
		ID:          eventID,
		ScheduledAt: input.ScheduledAt.UTC(),
		Capacity:    input.Capacity,
		CreatedBy:   actor.UserID,
		ChannelRef:  strings.TrimSpace(input.ChannelRef),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.applyEventFields(&event, input.Title, input.Description, input.Difficulty, input.LootType); err != nil {
		return storage.EventRecord{}, err
	}
	if err := s.validateEvent(event); err != nil {
		return storage.EventRecord{}, err
	}
	if err := s.store.PutEvent(ctx, event); err != nil {
		return storage.EventRecord{}, err
	}
	return event, nil
}

// UpdateEvent applies patch to an existing event.
func (s *Service) UpdateEvent(ctx context.Context, actor Actor, eventID string, patch EventPatch) (storage.EventRecord, error) {
	if err := s.ready(); err != nil {
		return storage.EventRecord{}, err
	}
	if err := Authorize(actor, OpMutateEvent); err != nil {
		return storage.EventRecord{}, err
	}
	var updated storage.EventRecord
	err := s.withTx(ctx, "update event", func(tx storage.Tx) error {
		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return notFoundOr(err, "event")
		}
		title, description := event.Title, event.Description
		difficulty, lootType := string(event.Difficulty), string(event.LootType)
		if patch.Title != nil {
			title = *patch.Title
		}
		if patch.Description != nil {
			description = *patch.Description
		}
		if patch.Difficulty != nil {
			difficulty = *patch.Difficulty
		}
		if patch.LootType != nil {
			lootType = *patch.LootType
		}
		if patch.ScheduledAt != nil {
			event.ScheduledAt = patch.ScheduledAt.UTC()
		}
		if patch.Capacity != nil {
			event.Capacity = *patch.Capacity
		}
		if err := s.applyEventFields(&event, title, description, difficulty, lootType); err != nil {
			return err
		}
		if err := s.validateEvent(event); err != nil {
			return err
		}
		event.UpdatedAt = s.nowUTC()
		if err := tx.PutEvent(ctx, event); err != nil {
			return err
		}
		updated = event
		return nil
	})
	if err != nil {
		return storage.EventRecord{}, err
	}
	return updated, nil
}

// DeleteEvent removes an event with its signups and releases every
// character locked to it, in one transaction.
func (s *Service) DeleteEvent(ctx context.Context, actor Actor, eventID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := Authorize(actor, OpMutateEvent); err != nil {
		return err
	}
	return s.withTx(ctx, "delete event", func(tx storage.Tx) error {
		if err := tx.DeleteEvent(ctx, eventID); err != nil {
			return notFoundOr(err, "event")
		}
		return nil
	})
}

// SetEventChannel attaches the external channel the event's projection is
// pushed to. Stored message references are dropped when the channel
// changes since they belong to the old channel.
func (s *Service) SetEventChannel(ctx context.Context, actor Actor, eventID, channelRef string) (storage.EventRecord, error) {
	if err := s.ready(); err != nil {
		return storage.EventRecord{}, err
	}
	if err := Authorize(actor, OpMutateEvent); err != nil {
		return storage.EventRecord{}, err
	}
	channelRef = strings.TrimSpace(channelRef)
	if channelRef == "" {
		return storage.EventRecord{}, validationError("channel", "is required")
	}
	var updated storage.EventRecord
	err := s.withTx(ctx, "set event channel", func(tx storage.Tx) error {
		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return notFoundOr(err, "event")
		}
		if event.ChannelRef == channelRef {
			updated = event
			return nil
		}
		now := s.nowUTC()
		event.ChannelRef = channelRef
		event.UpdatedAt = now
		if err := tx.PutEvent(ctx, event); err != nil {
			return err
		}
		if err := tx.SetEventRefs(ctx, event.ID, "", "", now); err != nil {
			return err
		}
		event.AnnouncementRef, event.RosterRef = "", ""
		updated = event
		return nil
	})
	if err != nil {
		return storage.EventRecord{}, err
	}
	return updated, nil
}

// GetEvent loads one event.
func (s *Service) GetEvent(ctx context.Context, eventID string) (storage.EventRecord, error) {
	if err := s.ready(); err != nil {
		return storage.EventRecord{}, err
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return storage.EventRecord{}, notFoundOr(err, "event")
	}
	return event, nil
}

// ListEvents lists events scheduled at or after from.
func (s *Service) ListEvents(ctx context.Context, from time.Time, limit int) ([]storage.EventRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.ListEvents(ctx, from, limit)
}

// Summary is an event with its signup totals and committed roster.
type Summary struct {
	Event  storage.EventRecord
	Counts storage.SignupCounts
	Roster []storage.RosterEntry
}

// EventSummary loads the state a roster view is rendered from.
func (s *Service) EventSummary(ctx context.Context, eventID string) (Summary, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return Summary{}, err
	}
	counts, err := s.store.CountSignups(ctx, eventID)
	if err != nil {
		return Summary{}, fmt.Errorf("count signups: %w", err)
	}
	roster, err := s.store.ListRoster(ctx, eventID)
	if err != nil {
		return Summary{}, fmt.Errorf("list roster: %w", err)
	}
	return Summary{Event: event, Counts: counts, Roster: roster}, nil
}

func (s *Service) applyEventFields(event *storage.EventRecord, title, description, difficulty, lootType string) error {
	event.Title = s.sanitize(title)
	event.Description = s.sanitize(description)
	d, err := ParseDifficulty(difficulty)
	if err != nil {
		return err
	}
	l, err := ParseLootType(lootType)
	if err != nil {
		return err
	}
	event.Difficulty, event.LootType = d, l
	return nil
}

func (s *Service) validateEvent(event storage.EventRecord) error {
	if event.Title == "" {
		return validationError("title", "is required")
	}
	if err := checkLength("title", event.Title, maxTitleLength); err != nil {
		return err
	}
	if err := checkLength("description", event.Description, maxDescriptionLength); err != nil {
		return err
	}
	if event.ScheduledAt.IsZero() {
		return validationError("scheduled_at", "is required")
	}
	if err := validateCapacity(event.Capacity); err != nil {
		return err
	}
	return nil
}
