// Package domain holds the roster coordination rules: the signup state
// machine, the character lock discipline and the access gate.
//
// Every state change runs inside one store transaction. Errors returned to
// callers are *errors.Error values carrying a stable code.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/microcosm-cc/bluemonday"

	apperrors "github.com/louisbranch/raidroster/internal/platform/errors"
	"github.com/louisbranch/raidroster/internal/platform/id"
	"github.com/louisbranch/raidroster/internal/services/roster/storage"
)

// ErrStoreNotConfigured indicates the service is missing persistence wiring.
var ErrStoreNotConfigured = errors.New("roster store is not configured")

// Actor is the resolved caller of an operation.
type Actor struct {
	UserID string
	Role   storage.UserRole
}

// Service orchestrates roster use-cases over the entity store.
type Service struct {
	store  storage.Store
	clock  func() time.Time
	newID  func() (string, error)
	policy *bluemonday.Policy
}

// NewService constructs roster domain use-cases. A nil clock or id
// generator falls back to wall time and random ids.
func NewService(store storage.Store, clock func() time.Time, newID func() (string, error)) *Service {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		store:  store,
		clock:  clock,
		newID:  newID,
		policy: bluemonday.StrictPolicy(),
	}
}

func (s *Service) ready() error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	return nil
}

func (s *Service) nowUTC() time.Time {
	return s.clock().UTC()
}

// withTx runs fn in a store transaction, passing domain errors through
// untouched and wrapping anything else.
func (s *Service) withTx(ctx context.Context, what string, fn func(tx storage.Tx) error) error {
	err := s.store.WithTx(ctx, fn)
	if err == nil {
		return nil
	}
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return fmt.Errorf("%s: %w", what, err)
}

// notFoundOr maps storage.ErrNotFound to a NOT_FOUND domain error and wraps
// anything else with context.
func notFoundOr(err error, what string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.New(apperrors.CodeNotFound, what+" not found")
	}
	return fmt.Errorf("load %s: %w", what, err)
}
