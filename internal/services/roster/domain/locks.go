package domain

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/raidroster/internal/platform/errors"
	"github.com/louisbranch/raidroster/internal/services/roster/storage"
)

// AvailableCharacters lists the user's characters that may sign up for the
// event: unlocked or locked to this event, and without a non-withdrawn
// signup for it. Ordered by name.
func (s *Service) AvailableCharacters(ctx context.Context, userID, eventID string) ([]storage.CharacterRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, notFoundOr(err, "event")
	}
	characters, err := s.store.ListAvailableCharacters(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	return characters, nil
}

// Lock reserves the character for eventID inside tx. Locking to the event
// already held is a no-op; a lock held for another event fails with
// CHARACTER_LOCKED.
func Lock(ctx context.Context, tx storage.Tx, characterID, eventID string, at time.Time) error {
	character, err := tx.GetCharacter(ctx, characterID)
	if err != nil {
		return notFoundOr(err, "character")
	}
	switch character.LockedForEvent {
	case eventID:
		return nil
	case "":
		return tx.SetCharacterLock(ctx, characterID, eventID, at)
	default:
		return characterLocked(character)
	}
}

// Unlock clears the character's lock inside tx when it is held for
// eventID. Any other state is left alone.
func Unlock(ctx context.Context, tx storage.Tx, characterID, eventID string, at time.Time) error {
	character, err := tx.GetCharacter(ctx, characterID)
	if err != nil {
		return notFoundOr(err, "character")
	}
	if character.LockedForEvent != eventID {
		return nil
	}
	return tx.SetCharacterLock(ctx, characterID, "", at)
}

func characterLocked(character storage.CharacterRecord) error {
	return apperrors.WithMetadata(apperrors.CodeCharacterLocked, "character is committed to another event",
		map[string]string{
			"character": character.Name,
			"event_id":  character.LockedForEvent,
		})
}
