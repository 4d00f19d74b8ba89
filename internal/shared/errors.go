package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates rejected user input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized indicates a request without an authenticated session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials indicates sign-in failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken indicates a sign-up with an already registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrSessionMissing occurs when a handler runs without the session middleware.
	ErrSessionMissing = errors.New("session missing")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
