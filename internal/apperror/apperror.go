// Package apperror defines the error kinds shared by the repositories, services
// and HTTP handlers. Handlers map a Kind to a status code; everything else just
// returns or wraps the error.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind int

const (
	// KindStorage is an unexpected persistence failure. It is the zero value so
	// that an unclassified error is never reported as a client mistake.
	KindStorage Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "storage"
	}
}

// Resource names the entity a NotFound error refers to.
type Resource string

const (
	ResourcePlan Resource = "plan"
	ResourceUser Resource = "user"
)

// Error is the concrete error type carried through the layers.
type Error struct {
	Kind     Kind
	Resource Resource // set for KindNotFound
	Message  string   // safe to show to clients, except for KindStorage
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed or missing input.
func Validation(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

// NotFound reports a missing plan or user.
func NotFound(resource Resource, message string) error {
	return &Error{Kind: KindNotFound, Resource: resource, Message: message}
}

// UserNotFound is the NotFound error for a referenced user id.
func UserNotFound(id uint) error {
	return NotFound(ResourceUser, fmt.Sprintf("Usuario con id %d no encontrado.", id))
}

// PlanNotFound is the NotFound error for a plan id.
func PlanNotFound(id uint) error {
	return NotFound(ResourcePlan, fmt.Sprintf("Plan con id %d no encontrado.", id))
}

// Conflict reports a uniqueness violation, such as an email already registered.
func Conflict(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

// Unauthorized reports bad credentials or an invalid token.
func Unauthorized(message string) error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// Storage wraps an unexpected persistence failure.
func Storage(message string, err error) error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindStorage for errors that are not *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStorage
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// IsNotFound reports whether err is a NotFound error for resource.
func IsNotFound(err error, resource Resource) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == KindNotFound && appErr.Resource == resource
}

// Message returns the client-facing message of err, or fallback when err is not
// an *Error or is a storage failure.
func Message(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindStorage {
		return appErr.Message
	}
	return fallback
}
