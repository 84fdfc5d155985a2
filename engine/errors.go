package engine

import (
	"errors"
	"fmt"
)

// ErrSessionExpired is wrapped into the fetch error produced by a 401
// response, after the unauthorized observer has been notified.
var ErrSessionExpired = errors.New("session expired")

// FetchError is a failed call to the remote API. It is surfaced to the
// view as an inline error state, distinct from an empty result set.
type FetchError struct {
	Status  int    // HTTP status, 0 for transport failures
	URL     string
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("fetch failed (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("fetch failed: %s", e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// AuthError is a failed credential exchange. Login returns it as a
// value the caller inspects; session state is left untouched.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
