package crawler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/productscraper/internal/logging"
	"github.com/JakeFAU/productscraper/internal/metrics"
)

// FetchKeyNamespace prefixes every fetch cache key.
const FetchKeyNamespace = "productscraper:page:"

// DefaultCacheTTL is how long a fetched page stays in the cache.
const DefaultCacheTTL = time.Hour

// FetchKey returns the cache key for a fetch target.
func FetchKey(url string) string {
	return FetchKeyNamespace + url
}

// CachedFetcher checks the cache before delegating to the retry stage.
// Cache errors are logged and treated as misses; they never fail a fetch.
type CachedFetcher struct {
	cache  Cache
	next   Fetcher
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedFetcher builds the two-stage fetch pipeline. A nil cache disables
// the cache stage.
func NewCachedFetcher(cache Cache, next Fetcher, ttl time.Duration, logger *zap.Logger) *CachedFetcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedFetcher{
		cache:  cache,
		next:   next,
		ttl:    ttl,
		logger: logging.OrNop(logger),
	}
}

// Fetch serves url from the cache when possible, otherwise fetches and caches it.
func (f *CachedFetcher) Fetch(ctx context.Context, url string) (Page, error) {
	key := FetchKey(url)
	if body, ok := f.lookup(ctx, key); ok {
		f.logger.Debug("cache hit", zap.String("url", url))
		metrics.ObservePage(url, metrics.PageCached)
		return Page{URL: url, StatusCode: http.StatusOK, Body: body, FromCache: true}, nil
	}

	page, err := f.next.Fetch(ctx, url)
	if err != nil {
		return Page{}, err
	}
	if !page.NotFound {
		f.store(ctx, key, page.Body)
	}
	return page, nil
}

func (f *CachedFetcher) lookup(ctx context.Context, key string) ([]byte, bool) {
	if f.cache == nil {
		return nil, false
	}
	body, ok, err := f.cache.Get(ctx, key)
	switch {
	case err != nil:
		f.logger.Warn("cache read failed; fetching", zap.String("key", key), zap.Error(err))
		metrics.ObserveCache(metrics.CacheReadError)
		return nil, false
	case !ok:
		metrics.ObserveCache(metrics.CacheMiss)
		return nil, false
	default:
		metrics.ObserveCache(metrics.CacheHit)
		return body, true
	}
}

func (f *CachedFetcher) store(ctx context.Context, key string, body []byte) {
	if f.cache == nil {
		return
	}
	if err := f.cache.Set(ctx, key, body, f.ttl); err != nil {
		f.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		metrics.ObserveCache(metrics.CacheWriteError)
	}
}
