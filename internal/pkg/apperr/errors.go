package apperr

import (
	"errors"
	"fmt"
)

// Kind is a stable, machine-readable error classification. The HTTP layer
// maps kinds to status codes; callers branch on kinds, never on messages.
type Kind string

const (
	KindMissingField       Kind = "missing_field"
	KindInvalidDateRange   Kind = "invalid_date_range"
	KindPastStartDate      Kind = "past_start_date"
	KindValidation         Kind = "validation"
	KindVehicleUnavailable Kind = "vehicle_unavailable"
	KindTerminalState      Kind = "terminal_state_violation"
	KindInvalidTransition  Kind = "invalid_transition"
	KindNotFound           Kind = "not_found"
	KindPermissionDenied   Kind = "permission_denied"
	KindUnauthorized       Kind = "unauthorized"
	KindConflict           Kind = "conflict"
	KindStore              Kind = "store_error"
)

// Error is the service-wide typed error. Business-rule failures carry a
// kind and a human-readable message; store failures additionally wrap the
// underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a typed error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a typed error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewMissingField reports an absent or empty required field.
func NewMissingField(field string) *Error {
	return Newf(KindMissingField, "%s is required", field)
}

// NewInvalidDateRange reports a start date after the end date.
func NewInvalidDateRange(message string) *Error {
	return New(KindInvalidDateRange, message)
}

// NewPastStartDate reports a start date before the current day.
func NewPastStartDate(message string) *Error {
	return New(KindPastStartDate, message)
}

// NewValidation reports a generic invalid-input failure.
func NewValidation(message string) *Error {
	return New(KindValidation, message)
}

// NewVehicleUnavailable reports an overlapping active booking for a vehicle.
func NewVehicleUnavailable(message string) *Error {
	return New(KindVehicleUnavailable, message)
}

// NewTerminalState reports a transition attempted out of a terminal status.
func NewTerminalState(from string) *Error {
	return Newf(KindTerminalState, "booking is %s and can no longer change status", from)
}

// NewInvalidTransition reports a disallowed status transition.
func NewInvalidTransition(from, to string) *Error {
	return Newf(KindInvalidTransition, "cannot transition booking from %s to %s", from, to)
}

// NewNotFound reports a missing entity by type and identifier.
func NewNotFound(entity, id string) *Error {
	return Newf(KindNotFound, "%s %s not found", entity, id)
}

// NewPermissionDenied reports a role lacking the required permission.
func NewPermissionDenied(message string) *Error {
	return New(KindPermissionDenied, message)
}

// NewUnauthorized reports a missing or invalid credential.
func NewUnauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

// NewConflict reports a uniqueness or concurrent-modification conflict.
func NewConflict(message string) *Error {
	return New(KindConflict, message)
}

// NewStore wraps an underlying persistence failure. The caller decides
// whether to retry; this layer never does.
func NewStore(message string, err error) *Error {
	return &Error{Kind: KindStore, Message: message, Err: err}
}

// KindOf extracts the kind from err, or KindStore for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
