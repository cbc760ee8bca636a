package unogs

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors
var (
	// ErrNotFound indicates there is no cache entry for a key
	ErrNotFound = errors.New("cache entry not found")
	// ErrRateLimitExceeded indicates the lock file forbids further requests
	ErrRateLimitExceeded = errors.New("unable to proceed: rate limit reached")
	// ErrInvariantViolation indicates a lock was requested while a pending
	// record was still in place, so the rollover guess was wrong.
	ErrInvariantViolation = errors.New("rate limit refresh logic incorrect")
	// ErrInvalidLockRecord indicates a lock file that could not be parsed
	ErrInvalidLockRecord = errors.New("invalid lock record")
)

// FetchError represents a non-successful response from the API
type FetchError struct {
	StatusCode int
	Reason     string
	URL        string
}

// Error implements the error interface
func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to download %s: %d %s", e.URL, e.StatusCode, e.Reason)
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *FetchError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsRateLimited checks if the remote side refused the request for quota reasons
func (e *FetchError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// MalformedResponseError indicates a body that is not a JSON document
type MalformedResponseError struct {
	Key string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response for %s: %v", e.Key, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
