package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrAccessDenied = errors.New("access denied")
)

// Error is a caller-facing failure. Kind is one of the sentinels above and
// Message is safe to return to clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func Validationf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func AccessDeniedf(format string, args ...any) error {
	return &Error{Kind: ErrAccessDenied, Message: fmt.Sprintf(format, args...)}
}
