package crawler

import (
	"context"
	"fmt"
)

// ThrottledFetcher waits on a Limiter before every request. It sits below the
// retry stage so each attempt is paced, and below the cache so hits are free.
type ThrottledFetcher struct {
	next    Fetcher
	limiter Limiter
}

// NewThrottledFetcher wraps next. A nil limiter returns next unchanged.
func NewThrottledFetcher(next Fetcher, limiter Limiter) Fetcher {
	if limiter == nil {
		return next
	}
	return &ThrottledFetcher{next: next, limiter: limiter}
}

// Fetch waits for the limiter, then delegates.
func (f *ThrottledFetcher) Fetch(ctx context.Context, url string) (Page, error) {
	if err := f.limiter.Wait(ctx, url); err != nil {
		return Page{}, fmt.Errorf("throttle %s: %w", url, err)
	}
	return f.next.Fetch(ctx, url)
}
