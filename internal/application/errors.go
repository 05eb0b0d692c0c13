package application

import (
	"errors"
	"fmt"
)

// Error taxonomy. Handlers map these to HTTP status codes with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountNotActive   = errors.New("account is not active")
	ErrExpiredToken       = errors.New("token has expired")
	ErrMalformedToken     = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
	ErrForbidden          = errors.New("access denied")
	ErrNotFound           = errors.New("user not found")
)

// kindError carries a caller-facing message while matching its sentinel via errors.Is.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

func conflictError(format string, args ...any) error {
	return newError(ErrConflict, format, args...)
}
