package domain

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	apperrors "github.com/louisbranch/raidroster/internal/platform/errors"
	"github.com/louisbranch/raidroster/internal/services/roster/storage"
)

const (
	MinCapacity = 5
	MaxCapacity = 40

	MinItemLevel = 0
	MaxItemLevel = 1000

	maxTitleLength       = 100
	maxDescriptionLength = 1000
	maxNameLength        = 32
	maxClassLength       = 32
	maxNotesLength       = 200
)

// sanitize strips markup from free text and trims it. Entities escaped by
// the policy are decoded again since the text is never rendered as HTML by
// the store.
func (s *Service) sanitize(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(value)))
}

func validationError(field, message string) error {
	return apperrors.WithMetadata(apperrors.CodeValidation, field+" "+message,
		map[string]string{"field": field})
}

func checkLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return validationError(field, fmt.Sprintf("must be at most %d characters", max))
	}
	return nil
}

// ParseDifficulty validates a difficulty tag.
func ParseDifficulty(value string) (storage.Difficulty, error) {
	switch d := storage.Difficulty(strings.ToLower(strings.TrimSpace(value))); d {
	case storage.DifficultyNormal, storage.DifficultyHeroic, storage.DifficultyMythic:
		return d, nil
	}
	return "", validationError("difficulty", "must be normal, heroic or mythic")
}

// ParseLootType validates a loot type tag.
func ParseLootType(value string) (storage.LootType, error) {
	switch l := storage.LootType(strings.ToLower(strings.TrimSpace(value))); l {
	case storage.LootTypeUnsaved, storage.LootTypeSaved, storage.LootTypeVIP:
		return l, nil
	}
	return "", validationError("loot_type", "must be unsaved, saved or vip")
}

// ParseCharacterRole validates a character role.
func ParseCharacterRole(value string) (storage.CharacterRole, error) {
	role := storage.CharacterRole(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range storage.CharacterRoles {
		if role == known {
			return role, nil
		}
	}
	return "", validationError("role", "must be tank, heal, melee or ranged")
}

func validateCapacity(capacity int) error {
	if capacity < MinCapacity || capacity > MaxCapacity {
		return validationError("capacity", fmt.Sprintf("must be between %d and %d", MinCapacity, MaxCapacity))
	}
	return nil
}

func validateItemLevel(itemLevel *int) error {
	if itemLevel == nil {
		return nil
	}
	if *itemLevel < MinItemLevel || *itemLevel > MaxItemLevel {
		return validationError("item_level", fmt.Sprintf("must be between %d and %d", MinItemLevel, MaxItemLevel))
	}
	return nil
}
