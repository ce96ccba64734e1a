package domain

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/louisbranch/raidroster/internal/platform/errors"
	"github.com/louisbranch/raidroster/internal/services/roster/storage"
)

// CharacterInput describes a new character.
type CharacterInput struct {
	Name      string
	Class     string
	Role      string
	ItemLevel *int
	Notes     string
}

// CreateCharacter stores a character owned by ownerID. Names are unique per
// owner.
func (s *Service) CreateCharacter(ctx context.Context, ownerID string, input CharacterInput) (storage.CharacterRecord, error) {
	if err := s.ready(); err != nil {
		return storage.CharacterRecord{}, err
	}
	if strings.TrimSpace(ownerID) == "" {
		return storage.CharacterRecord{}, validationError("owner", "is required")
	}
	name := s.sanitize(input.Name)
	class := s.sanitize(input.Class)
	notes := s.sanitize(input.Notes)
	if name == "" {
		return storage.CharacterRecord{}, validationError("name", "is required")
	}
	if class == "" {
		return storage.CharacterRecord{}, validationError("class", "is required")
	}
	for _, check := range []error{
		checkLength("name", name, maxNameLength),
		checkLength("class", class, maxClassLength),
		checkLength("notes", notes, maxNotesLength),
		validateItemLevel(input.ItemLevel),
	} {
		if check != nil {
			return storage.CharacterRecord{}, check
		}
	}
	role, err := ParseCharacterRole(input.Role)
	if err != nil {
		return storage.CharacterRecord{}, err
	}

	characterID, err := s.newID()
	if err != nil {
		return storage.CharacterRecord{}, err
	}
	now := s.nowUTC()
	character := storage.CharacterRecord{
		ID:        characterID,
		OwnerID:   ownerID,
		Name:      name,
		Class:     class,
		Role:      role,
		ItemLevel: input.ItemLevel,
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.PutCharacter(ctx, character); err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			return storage.CharacterRecord{}, apperrors.WithMetadata(apperrors.CodeCharacterNameTaken,
				"character name already in use", map[string]string{"character": name})
		case errors.Is(err, storage.ErrNotFound):
			return storage.CharacterRecord{}, apperrors.New(apperrors.CodeNotFound, "owner not found")
		}
		return storage.CharacterRecord{}, err
	}
	return character, nil
}

// ListCharacters lists the characters owned by ownerID, by name.
func (s *Service) ListCharacters(ctx context.Context, ownerID string) ([]storage.CharacterRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.ListCharactersByOwner(ctx, ownerID)
}

// GetCharacter loads one character.
func (s *Service) GetCharacter(ctx context.Context, characterID string) (storage.CharacterRecord, error) {
	if err := s.ready(); err != nil {
		return storage.CharacterRecord{}, err
	}
	character, err := s.store.GetCharacter(ctx, characterID)
	if err != nil {
		return storage.CharacterRecord{}, notFoundOr(err, "character")
	}
	return character, nil
}
