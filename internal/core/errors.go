package core

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is against these to classify a failure.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a classified domain error carrying a user-facing message.
type Error struct {
	Kind    error
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// ValidationError reports the first failing field of a payload.
func ValidationError(field, message string) *Error {
	return &Error{Kind: ErrValidation, Field: field, Message: message}
}

// NotFoundError reports a missing entity, e.g. "Budget not found".
func NotFoundError(entity string) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("%s not found", entity)}
}

func ConflictError(message string) *Error {
	return &Error{Kind: ErrConflict, Message: message}
}

func UnauthorizedError(message string) *Error {
	return &Error{Kind: ErrUnauthorized, Message: message}
}

// Message returns the user-facing message of a classified error, or "" when
// err carries none.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Error()
	}
	return ""
}
