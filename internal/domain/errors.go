package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrRepositoryUnavailable indicates the package has no usable source
	// repository (no URL in the registry metadata, or the clone failed).
	// Disqualifies the git strategy; never fatal to the run.
	ErrRepositoryUnavailable = errors.New("repository unavailable")

	// ErrTagNotFound indicates a version could not be resolved to a tag.
	// Disqualifies the git strategy; never fatal to the run.
	ErrTagNotFound = errors.New("tag not found")

	// ErrArtifactUnavailable indicates no matching distribution exists or
	// the download failed. Terminal for the change.
	ErrArtifactUnavailable = errors.New("artifact unavailable")

	// ErrExtractionFailed indicates a corrupt or unsupported archive.
	// Terminal for the change.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrComparisonFailed indicates an internal comparator failure. This is
	// a defect, not an expected condition, and is surfaced as-is.
	ErrComparisonFailed = errors.New("comparison failed")
)

// FetchError represents an error from a registry HTTP request.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError
func NewFetchError(url string, statusCode int, err error) *FetchError {
	return &FetchError{URL: url, StatusCode: statusCode, Err: err}
}

// RetryableError indicates an error that can be retried
type RetryableError struct {
	Err        error
	RetryAfter int // Seconds to wait before retry, 0 if unknown
}

func (e *RetryableError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("retryable error (retry after %ds): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("retryable error: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return true
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		switch fetchErr.StatusCode {
		case 429, 502, 503, 504:
			return true
		}
	}

	return false
}
