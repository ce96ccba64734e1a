package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/raidroster/internal/platform/errors"
	"github.com/louisbranch/raidroster/internal/services/roster/storage"
)

// CreateSignupInput identifies the claim being made. An empty Role copies
// the character's role.
type CreateSignupInput struct {
	EventID     string
	UserID      string
	CharacterID string
	Role        storage.CharacterRole
}

// CreateSignup records a pending claim of a character for an event.
//
// The eligibility checks and the insert share one transaction. Should a
// concurrent claim for the same pair still reach the store first, the
// uniqueness violation surfaces as ALREADY_SIGNED_UP.
func (s *Service) CreateSignup(ctx context.Context, input CreateSignupInput) (storage.SignupRecord, error) {
	if err := s.ready(); err != nil {
		return storage.SignupRecord{}, err
	}
	eventID := strings.TrimSpace(input.EventID)
	characterID := strings.TrimSpace(input.CharacterID)
	if eventID == "" || characterID == "" || strings.TrimSpace(input.UserID) == "" {
		return storage.SignupRecord{}, apperrors.New(apperrors.CodeValidation, "event, user and character are required")
	}
	if input.Role != "" {
		if _, err := ParseCharacterRole(string(input.Role)); err != nil {
			return storage.SignupRecord{}, err
		}
	}
	signupID, err := s.newID()
	if err != nil {
		return storage.SignupRecord{}, err
	}

	var created storage.SignupRecord
	err = s.withTx(ctx, "create signup", func(tx storage.Tx) error {
		if _, err := tx.GetEvent(ctx, eventID); err != nil {
			return notFoundOr(err, "event")
		}
		character, err := tx.GetCharacter(ctx, characterID)
		if err != nil {
			return notFoundOr(err, "character")
		}
		if character.OwnerID != input.UserID {
			return apperrors.New(apperrors.CodeNotFound, "character not found")
		}

		if _, err := tx.GetActiveSignup(ctx, eventID, characterID); err == nil {
			return alreadySignedUp(character)
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if character.LockedForEvent != "" && character.LockedForEvent != eventID {
			return characterLocked(character)
		}

		role := input.Role
		if role == "" {
			role = character.Role
		}
		now := s.nowUTC()
		created = storage.SignupRecord{
			ID:          signupID,
			EventID:     eventID,
			UserID:      input.UserID,
			CharacterID: characterID,
			Role:        role,
			Status:      storage.SignupStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.InsertSignup(ctx, created); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return alreadySignedUp(character)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return storage.SignupRecord{}, err
	}
	return created, nil
}

// Withdraw moves every pending signup the user holds for the event to
// withdrawn and returns how many changed. Committed signups are kept; a
// lead has to un-commit them first.
func (s *Service) Withdraw(ctx context.Context, userID, eventID string) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	var count int
	err := s.withTx(ctx, "withdraw", func(tx storage.Tx) error {
		if _, err := tx.GetEvent(ctx, eventID); err != nil {
			return notFoundOr(err, "event")
		}
		n, err := tx.WithdrawPending(ctx, eventID, userID, s.nowUTC())
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Commit promotes a pending signup into the roster and locks its character
// to the event. Committing an already committed signup is a no-op.
func (s *Service) Commit(ctx context.Context, actor Actor, signupID string) (storage.SignupRecord, error) {
	if err := s.ready(); err != nil {
		return storage.SignupRecord{}, err
	}
	if err := Authorize(actor, OpCommit); err != nil {
		return storage.SignupRecord{}, err
	}
	return s.transition(ctx, signupID, storage.SignupStatusCommitted)
}

// UnCommit returns a committed signup to pending and releases its
// character's lock. Un-committing a pending signup is a no-op.
func (s *Service) UnCommit(ctx context.Context, actor Actor, signupID string) (storage.SignupRecord, error) {
	if err := s.ready(); err != nil {
		return storage.SignupRecord{}, err
	}
	if err := Authorize(actor, OpUnCommit); err != nil {
		return storage.SignupRecord{}, err
	}
	return s.transition(ctx, signupID, storage.SignupStatusPending)
}

// transition moves a signup between pending and committed and keeps the
// character lock in step within the same transaction.
func (s *Service) transition(ctx context.Context, signupID string, target storage.SignupStatus) (storage.SignupRecord, error) {
	var result storage.SignupRecord
	err := s.withTx(ctx, "transition signup", func(tx storage.Tx) error {
		signup, err := tx.GetSignup(ctx, signupID)
		if err != nil {
			return notFoundOr(err, "signup")
		}
		switch {
		case signup.Status == target:
			result = signup
			return nil
		case signup.Status == storage.SignupStatusWithdrawn:
			return apperrors.WithMetadata(apperrors.CodeSignupInvalidTransition,
				fmt.Sprintf("signup cannot move from %s to %s", signup.Status, target),
				map[string]string{"from": string(signup.Status), "to": string(target)})
		}

		now := s.nowUTC()
		if target == storage.SignupStatusCommitted {
			if err := Lock(ctx, tx, signup.CharacterID, signup.EventID, now); err != nil {
				return err
			}
		} else {
			if err := Unlock(ctx, tx, signup.CharacterID, signup.EventID, now); err != nil {
				return err
			}
		}
		if err := tx.UpdateSignupStatus(ctx, signup.ID, target, now); err != nil {
			return err
		}
		signup.Status = target
		signup.UpdatedAt = now
		result = signup
		return nil
	})
	if err != nil {
		return storage.SignupRecord{}, err
	}
	return result, nil
}

// GetSignup loads one signup.
func (s *Service) GetSignup(ctx context.Context, signupID string) (storage.SignupRecord, error) {
	if err := s.ready(); err != nil {
		return storage.SignupRecord{}, err
	}
	signup, err := s.store.GetSignup(ctx, signupID)
	if err != nil {
		return storage.SignupRecord{}, notFoundOr(err, "signup")
	}
	return signup, nil
}

// ListSignups lists an event's signups matching an AIP-160 filter over
// status, role, user_id, character_id and created_at.
func (s *Service) ListSignups(ctx context.Context, eventID, filter string) ([]storage.SignupRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, notFoundOr(err, "event")
	}
	signups, err := s.store.ListSignups(ctx, eventID, filter)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidFilter) {
			return nil, apperrors.Wrap(apperrors.CodeValidation, "invalid filter", err)
		}
		return nil, err
	}
	return signups, nil
}

func alreadySignedUp(character storage.CharacterRecord) error {
	return apperrors.WithMetadata(apperrors.CodeAlreadySignedUp, "character is already signed up for this event",
		map[string]string{"character": character.Name})
}
