package api

import (
	"errors"
	"fmt"
	"strings"
)

// Domain error taxonomy. Local, deterministic errors are surfaced directly to
// the caller and never retried; ErrRemoteUnavailable is retried internally
// with bounded backoff before it reaches this level; ErrConflict only appears
// after the optimistic-concurrency retry budget is exhausted.
var (
	ErrNotFound          = errors.New("requested item not found")
	ErrAlreadyExists     = errors.New("item already exists")
	ErrConflict          = errors.New("concurrent write conflict, retries exhausted")
	ErrUnauthenticated   = errors.New("authentication required or invalid credentials")
	ErrSessionInvalid    = errors.New("session unknown or expired")
	ErrInvalidOTP        = errors.New("one-time passcode does not match")
	ErrExpiredOTP        = errors.New("one-time passcode expired")
	ErrSchemaNotFound    = errors.New("no schema registered for collection")
	ErrRemoteUnavailable = errors.New("remote store unavailable")
)

// ValidationError reports every missing required field and every field whose
// value does not match its declared type, so a caller can fix the whole
// payload in one round trip.
type ValidationError struct {
	Collection    string
	MissingFields []string
	WrongTypes    map[string]string // field -> expected type
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.MissingFields) > 0 {
		parts = append(parts, fmt.Sprintf("missing required fields: %s", strings.Join(e.MissingFields, ", ")))
	}
	for field, want := range e.WrongTypes {
		parts = append(parts, fmt.Sprintf("field %q is not of type %s", field, want))
	}
	if len(parts) == 0 {
		parts = append(parts, "invalid record")
	}
	return fmt.Sprintf("validation failed for collection %q: %s", e.Collection, strings.Join(parts, "; "))
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
