package api

import (
	"errors"
	"fmt"
)

// Sentinel causes wrapped by FetchError and CommandError.
var (
	// ErrUnavailable is returned when the backend cannot be reached.
	ErrUnavailable = errors.New("vodum backend unavailable")

	// ErrUnexpectedStatus is returned for a non-success HTTP status.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrNotJSON is returned when a response does not carry JSON.
	ErrNotJSON = errors.New("response is not JSON")

	// ErrDecode is returned when a JSON body cannot be decoded.
	ErrDecode = errors.New("invalid response body")
)

// FetchError reports a failed data fetch.
type FetchError struct {
	Resource    string // e.g. "tasks", "logs?limit=200"
	StatusCode  int    // 0 if no response was received
	ContentType string
	Err         error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s failed (HTTP %d): %v", e.Resource, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s failed: %v", e.Resource, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// CommandError reports a failed action request.
type CommandError struct {
	Action     string
	Path       string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (%s) failed (HTTP %d): %v", e.Action, e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s (%s) failed: %v", e.Action, e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err is or wraps a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsCommandError reports whether err is or wraps a CommandError.
func IsCommandError(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce)
}

// IsUnavailable reports whether the backend could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// StatusCode extracts the HTTP status from a FetchError or CommandError.
func StatusCode(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.StatusCode
	}
	return 0
}
