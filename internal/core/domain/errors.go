package domain

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by the core unwraps to one of these.
var (
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrTooManyRequests = errors.New("too many requests")
	ErrInternal        = errors.New("internal error")
)

// Error is a client-facing failure. Message is safe to render; Class drives
// the status code.
type Error struct {
	Class   error
	Message string
	Details []string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Class }

// Errorf builds an *Error of the given class.
func Errorf(class error, format string, args ...any) *Error {
	return &Error{Class: class, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrUserNotFound       = &Error{Class: ErrNotFound, Message: "user does not exist"}
	ErrUserExists         = &Error{Class: ErrConflict, Message: "user with email or username already exists"}
	ErrInvalidCredentials = &Error{Class: ErrUnauthorized, Message: "invalid user credentials"}
	ErrInvalidToken       = &Error{Class: ErrUnauthorized, Message: "invalid or expired token"}
	ErrMalformedToken     = &Error{Class: ErrUnauthorized, Message: "malformed token"}
	ErrRefreshTokenReused = &Error{Class: ErrUnauthorized, Message: "refresh token is expired or used"}
	ErrChannelNotFound    = &Error{Class: ErrNotFound, Message: "channel does not exist"}
	ErrTooManyAttempts    = &Error{Class: ErrTooManyRequests, Message: "too many failed login attempts, try again later"}
)
