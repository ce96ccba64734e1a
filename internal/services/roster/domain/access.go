package domain

import (
	apperrors "github.com/louisbranch/raidroster/internal/platform/errors"
	"github.com/louisbranch/raidroster/internal/services/roster/storage"
)

// Operation names an action subject to the access gate.
type Operation string

const (
	OpCommit      Operation = "commit"
	OpUnCommit    Operation = "uncommit"
	OpMutateEvent Operation = "mutate_event"
	OpReproject   Operation = "reproject"
)

// Privileged reports whether role may perform privileged operations.
func Privileged(role storage.UserRole) bool {
	return role == storage.UserRoleLead || role == storage.UserRoleAdmin
}

// Authorize returns a FORBIDDEN error unless actor may perform op.
func Authorize(actor Actor, op Operation) error {
	if Privileged(actor.Role) {
		return nil
	}
	return apperrors.WithMetadata(apperrors.CodeForbidden, "operation requires lead or admin role",
		map[string]string{"operation": string(op)})
}
