package domain

import (
	"context"
	"testing"

	apperrors "github.com/louisbranch/raidroster/internal/platform/errors"
	"github.com/louisbranch/raidroster/internal/services/roster/storage"
)

func TestCreateCharacterValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	user := f.user(t, "discord:1")
	tooHigh, tooLow := 1001, -1

	tests := []struct {
		name  string
		input CharacterInput
		want  apperrors.Code
	}{
		{name: "missing name", input: CharacterInput{Class: "rogue", Role: "melee"}, want: apperrors.CodeValidation},
		{name: "missing class", input: CharacterInput{Name: "Garona", Role: "melee"}, want: apperrors.CodeValidation},
		{name: "bad role", input: CharacterInput{Name: "Garona", Class: "rogue", Role: "dps"}, want: apperrors.CodeValidation},
		{name: "item level high", input: CharacterInput{Name: "Garona", Class: "rogue", Role: "melee", ItemLevel: &tooHigh}, want: apperrors.CodeValidation},
		{name: "item level low", input: CharacterInput{Name: "Garona", Class: "rogue", Role: "melee", ItemLevel: &tooLow}, want: apperrors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateCharacter(context.Background(), user.ID, tt.input)
			if !apperrors.IsCode(err, tt.want) {
				t.Fatalf("err = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestCreateCharacterNameUniquePerOwner(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	first := f.user(t, "discord:1")
	second := f.user(t, "discord:2")
	f.character(t, first.ID, "Uther", storage.CharacterRoleHeal)

	_, err := f.svc.CreateCharacter(ctx, first.ID, CharacterInput{Name: "Uther", Class: "paladin", Role: "tank"})
	if !apperrors.IsCode(err, apperrors.CodeCharacterNameTaken) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeCharacterNameTaken)
	}
	f.character(t, second.ID, "Uther", storage.CharacterRoleHeal)

	list, err := f.svc.ListCharacters(ctx, first.ID)
	if err != nil {
		t.Fatalf("list characters: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("characters = %d, want 1", len(list))
	}
	if _, err := f.svc.GetCharacter(ctx, "missing"); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("get missing err = %v", err)
	}
}

func TestAvailableCharacters(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "discord:1")
	e1 := f.event(t, "Trial of the Crusader")
	e2 := f.event(t, "Ruby Sanctum")
	free := f.character(t, user.ID, "Alexstrasza", storage.CharacterRoleHeal)
	busy := f.character(t, user.ID, "Halion", storage.CharacterRoleTank)
	signup := f.signup(t, e2, user, busy)
	if _, err := f.svc.Commit(ctx, lead, signup.ID); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := f.svc.AvailableCharacters(ctx, user.ID, e1.ID)
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if len(got) != 1 || got[0].ID != free.ID {
		t.Fatalf("available = %+v, want only %s", got, free.Name)
	}

	got, err = f.svc.AvailableCharacters(ctx, user.ID, e2.ID)
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if len(got) != 1 || got[0].ID != free.ID {
		t.Fatalf("available for e2 = %+v, want only %s", got, free.Name)
	}

	if _, err := f.svc.AvailableCharacters(ctx, user.ID, "missing"); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("missing event err = %v", err)
	}
}
