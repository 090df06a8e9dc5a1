package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrBlocked           = errors.New("user is blocked")
)

// ValidationError reports a rejected field value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid is a shorthand for building a *ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// NotFound wraps ErrNotFound with the entity name and id.
func NotFound(entity string, id any) error {
	return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
}

// Forbidden wraps ErrForbidden with a reason.
func Forbidden(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrForbidden)
}

// Conflict wraps ErrConflict with a reason.
func Conflict(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrConflict)
}
