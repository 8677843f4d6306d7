package crawler

import "time"

// Page is the result of fetching one listing page.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
	// NotFound marks the end-of-listing signal; Body is empty.
	NotFound bool
	// FromCache is set when the body was served by the fetch cache.
	FromCache bool
}

// StopReason describes why a crawl ended.
type StopReason string

// Terminal states of a crawl.
const (
	StopBound     StopReason = "bound_reached"
	StopEmptyPage StopReason = "empty_page"
	StopNotFound  StopReason = "not_found"
	StopError     StopReason = "error"
	StopCanceled  StopReason = "canceled"
)
