package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/raidroster/internal/platform/errors"
	"github.com/louisbranch/raidroster/internal/services/roster/storage"
)

// Identity is what an identity resolver reports for a caller.
type Identity struct {
	ExternalIdentity string
	DisplayName      string
	Role             storage.UserRole
}

// ResolveUser returns the user for identity, creating it on first contact.
// Display name and role are refreshed on every call.
func (s *Service) ResolveUser(ctx context.Context, identity Identity) (storage.UserRecord, error) {
	if err := s.ready(); err != nil {
		return storage.UserRecord{}, err
	}
	external := strings.TrimSpace(identity.ExternalIdentity)
	if external == "" {
		return storage.UserRecord{}, apperrors.New(apperrors.CodeValidation, "external identity is required")
	}
	role := identity.Role
	switch role {
	case storage.UserRoleParticipant, storage.UserRoleLead, storage.UserRoleAdmin:
	case "":
		role = storage.UserRoleParticipant
	default:
		return storage.UserRecord{}, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("unknown user role %q", role))
	}
	displayName := s.sanitize(identity.DisplayName)
	if displayName == "" {
		displayName = external
	}

	userID, err := s.newID()
	if err != nil {
		return storage.UserRecord{}, err
	}
	now := s.nowUTC()
	user, err := s.store.UpsertUser(ctx, storage.UserRecord{
		ID:               userID,
		ExternalIdentity: external,
		DisplayName:      displayName,
		Role:             role,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		return storage.UserRecord{}, fmt.Errorf("resolve user: %w", err)
	}
	return user, nil
}

// ActorFor resolves identity and returns it as an Actor.
func (s *Service) ActorFor(ctx context.Context, identity Identity) (Actor, error) {
	user, err := s.ResolveUser(ctx, identity)
	if err != nil {
		return Actor{}, err
	}
	return Actor{UserID: user.ID, Role: user.Role}, nil
}

// GetUser loads one user.
func (s *Service) GetUser(ctx context.Context, userID string) (storage.UserRecord, error) {
	if err := s.ready(); err != nil {
		return storage.UserRecord{}, err
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.UserRecord{}, apperrors.New(apperrors.CodeNotFound, "user not found")
		}
		return storage.UserRecord{}, err
	}
	return user, nil
}
