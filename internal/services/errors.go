package services

import "errors"

// Error kinds. Handlers dispatch on them with errors.Is.
var (
	ErrValidation            = errors.New("validation error")
	ErrConflict              = errors.New("conflict")
	ErrNotFound              = errors.New("not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrExpired               = errors.New("expired")
	ErrInvalidCode           = errors.New("invalid code")
	ErrBadCredentials        = errors.New("bad credentials")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrAlreadyConfirmed      = errors.New("already confirmed")
	ErrUpstream              = errors.New("upstream failure")
)

// Error carries a kind and the client-facing detail message.
type Error struct {
	Kind   error
	Detail string
}

func (e *Error) Error() string { return e.Detail }
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, detail string) error {
	return &Error{Kind: kind, Detail: detail}
}

// Detail returns the client-facing message of err, or fallback when err
// carries none.
func Detail(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Detail != "" {
		return e.Detail
	}
	return fallback
}
