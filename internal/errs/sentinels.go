// Package errs contains sentinel errors shared by the store, auth and HTTP layers.
package errs

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates failed authentication.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrRateLimited indicates too many attempts from one client.
	ErrRateLimited = errors.New("rate limited")
)

var sentinels = []error{ErrNotFound, ErrValidation, ErrUnauthorized, ErrAlreadyExists, ErrRateLimited}

// Message returns err's text without a leading sentinel prefix, so
// fmt.Errorf("%w: Invalid credentials", ErrUnauthorized) yields "Invalid credentials".
func Message(err error) string {
	msg := err.Error()
	for _, s := range sentinels {
		if errors.Is(err, s) {
			if rest, ok := strings.CutPrefix(msg, s.Error()+": "); ok {
				return rest
			}
		}
	}
	return msg
}
