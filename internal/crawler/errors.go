package crawler

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by transports when the site reports a page as absent.
var ErrNotFound = errors.New("page not found")

// StatusError reports a non-2xx, non-404 response. It is treated as transient.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// FetchFailure is returned once every fetch attempt for a URL has failed.
type FetchFailure struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchFailure) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchFailure) Unwrap() error {
	return e.Err
}
