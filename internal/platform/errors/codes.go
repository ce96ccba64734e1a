// Package errors provides coded domain errors shared by the roster service
// and its adapters.
package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unclassified failure.
	CodeUnknown Code = "UNKNOWN"

	// CodeValidation marks malformed input rejected before any state change.
	CodeValidation Code = "VALIDATION"
	// CodeNotFound marks an unknown event, character, user, or signup.
	CodeNotFound Code = "NOT_FOUND"
	// CodeForbidden marks a caller whose role does not allow the operation.
	CodeForbidden Code = "FORBIDDEN"
	// CodeUnauthenticated marks a request without a valid identity token.
	CodeUnauthenticated Code = "UNAUTHENTICATED"

	// Signup errors
	CodeAlreadySignedUp         Code = "ALREADY_SIGNED_UP"
	CodeCharacterLocked         Code = "CHARACTER_LOCKED"
	CodeSignupInvalidTransition Code = "SIGNUP_INVALID_TRANSITION"
	CodeCharacterNameTaken      Code = "CHARACTER_NAME_TAKEN"
	CodeEventChannelNotAttached Code = "EVENT_CHANNEL_NOT_ATTACHED"

	// CodeExternalChannel marks a failed push to the notification channel.
	// The entity-store mutation that preceded it is not rolled back.
	CodeExternalChannel Code = "EXTERNAL_CHANNEL"
)

// HTTPStatus maps domain codes to HTTP response statuses.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeAlreadySignedUp, CodeCharacterLocked, CodeCharacterNameTaken:
		return http.StatusConflict
	case CodeSignupInvalidTransition, CodeEventChannelNotAttached:
		return http.StatusUnprocessableEntity
	case CodeExternalChannel:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeValidation:
		return codes.InvalidArgument
	case CodeNotFound:
		return codes.NotFound
	case CodeForbidden:
		return codes.PermissionDenied
	case CodeUnauthenticated:
		return codes.Unauthenticated
	case CodeAlreadySignedUp, CodeCharacterNameTaken:
		return codes.AlreadyExists
	case CodeCharacterLocked, CodeSignupInvalidTransition, CodeEventChannelNotAttached:
		return codes.FailedPrecondition
	case CodeExternalChannel:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// Retryable reports whether repeating the same request may succeed without
// any change on the caller's side.
func (c Code) Retryable() bool {
	return c == CodeExternalChannel
}
