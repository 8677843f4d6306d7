package crawler

import (
	"context"
	"time"

	"github.com/JakeFAU/productscraper/internal/product"
)

// Fetcher fetches a URL and returns the page body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// Cache stores fetched page bodies with a time-based expiry.
// Get reports found=false for keys that were never set or have expired.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Limiter blocks until a request to url may proceed.
type Limiter interface {
	Wait(ctx context.Context, url string) error
}

// Extractor turns one page body into the valid product records it contains.
type Extractor interface {
	Extract(body []byte) ([]product.Record, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
