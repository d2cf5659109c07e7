package client

import (
	"errors"
	"fmt"
	"net/http"

	"premium-homes/internal/errs"
)

// ErrCannotConnect matches every transport-level failure.
var ErrCannotConnect = errors.New("cannot connect to server")

// ConnectError is returned when the server could not be reached at all.
type ConnectError struct {
	BaseURL string
	Err     error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("Cannot connect to server at %s. Please make sure the backend is running.", e.BaseURL)
}

func (e *ConnectError) Unwrap() error { return e.Err }

func (e *ConnectError) Is(target error) bool { return target == ErrCannotConnect }

// ValidationError is raised locally before any request is sent.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == errs.ErrValidation }

// APIError is a non-2xx response. Message is the server's error text when it
// sent one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Is lets callers test API errors against the shared sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case errs.ErrValidation:
		return e.Status == http.StatusBadRequest
	case errs.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case errs.ErrNotFound:
		return e.Status == http.StatusNotFound
	case errs.ErrAlreadyExists:
		return e.Status == http.StatusConflict
	case errs.ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	}
	return false
}
