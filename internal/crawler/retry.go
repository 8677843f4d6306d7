package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/productscraper/internal/logging"
	"github.com/JakeFAU/productscraper/internal/metrics"
)

// RetryPolicy bounds the attempts made for a single page.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy makes three attempts one second apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: time.Second}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// RetryingFetcher retries transient fetch failures with a fixed delay.
// A not-found response ends the listing and is never retried.
type RetryingFetcher struct {
	next   Fetcher
	policy RetryPolicy
	logger *zap.Logger
}

// NewRetryingFetcher wraps next with policy.
func NewRetryingFetcher(next Fetcher, policy RetryPolicy, logger *zap.Logger) *RetryingFetcher {
	return &RetryingFetcher{
		next:   next,
		policy: policy,
		logger: logging.OrNop(logger),
	}
}

// Fetch returns the page, an explicit NotFound page, or a *FetchFailure.
func (f *RetryingFetcher) Fetch(ctx context.Context, url string) (Page, error) {
	maxAttempts := f.policy.attempts()

	var (
		lastErr error
		made    int
	)
	for made < maxAttempts {
		made++
		page, err := f.next.Fetch(ctx, url)
		if err == nil {
			metrics.ObservePage(url, metrics.PageOK)
			return page, nil
		}
		if errors.Is(err, ErrNotFound) {
			f.logger.Info("page not found; end of listing", zap.String("url", url))
			metrics.ObservePage(url, metrics.PageNotFound)
			return Page{URL: url, StatusCode: 404, NotFound: true}, nil
		}
		lastErr = err
		if made == maxAttempts || ctx.Err() != nil {
			break
		}

		f.logger.Warn("fetch failed; retrying",
			zap.String("url", url),
			zap.Int("attempt", made),
			zap.Duration("delay", f.policy.Delay),
			zap.Error(err),
		)
		metrics.ObserveFetchRetry(url)
		if err := sleep(ctx, f.policy.Delay); err != nil {
			lastErr = fmt.Errorf("retry wait: %w", err)
			break
		}
	}

	metrics.ObservePage(url, metrics.PageError)
	return Page{}, &FetchFailure{URL: url, Attempts: made, Err: lastErr}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
