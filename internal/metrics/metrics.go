// Package metrics exposes Prometheus collectors for the product scraper.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scraperPagesTotal          *prometheus.CounterVec
	scraperFetchRetriesTotal   *prometheus.CounterVec
	scraperCacheOpsTotal       *prometheus.CounterVec
	scraperProductsDropped     prometheus.Counter
	scraperStoreRecordsTotal   *prometheus.CounterVec
	scraperRateLimitDelay      *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Page fetch outcomes.
const (
	PageOK       = "ok"
	PageNotFound = "not_found"
	PageError    = "error"
	PageCached   = "cached"
)

// Cache operation outcomes.
const (
	CacheHit        = "hit"
	CacheMiss       = "miss"
	CacheReadError  = "read_error"
	CacheWriteError = "write_error"
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scraperPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_pages_total",
				Help: "Total number of listing pages fetched, labeled by site and outcome.",
			},
			[]string{"site", "status"},
		)

		scraperFetchRetriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_fetch_retries_total",
				Help: "Total number of page fetch retries, labeled by site.",
			},
			[]string{"site"},
		)

		scraperCacheOpsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_cache_operations_total",
				Help: "Total number of fetch cache operations, labeled by result.",
			},
			[]string{"result"},
		)

		scraperProductsDropped = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_products_dropped_total",
				Help: "Total number of scraped products discarded by validation.",
			},
		)

		scraperStoreRecordsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_store_records_total",
				Help: "Total number of records merged into the product store, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		scraperRateLimitDelay = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scraper_rate_limit_delay_seconds",
				Help:    "Histogram of rate limit wait durations, labeled by site.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"site"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObservePage counts a page fetch outcome.
func ObservePage(rawURL, status string) {
	Init()
	scraperPagesTotal.WithLabelValues(SanitizeSite(rawURL), status).Inc()
}

// ObserveFetchRetry counts a retried page fetch.
func ObserveFetchRetry(rawURL string) {
	Init()
	scraperFetchRetriesTotal.WithLabelValues(SanitizeSite(rawURL)).Inc()
}

// ObserveCache counts a cache lookup or write result.
func ObserveCache(result string) {
	Init()
	scraperCacheOpsTotal.WithLabelValues(result).Inc()
}

// ObserveDroppedProduct counts a product candidate rejected by validation.
func ObserveDroppedProduct() {
	Init()
	scraperProductsDropped.Inc()
}

// ObserveStoreWrite records the outcome counts of one store merge.
func ObserveStoreWrite(added, updated, unchanged, rejected int) {
	Init()
	scraperStoreRecordsTotal.WithLabelValues("added").Add(float64(added))
	scraperStoreRecordsTotal.WithLabelValues("updated").Add(float64(updated))
	scraperStoreRecordsTotal.WithLabelValues("unchanged").Add(float64(unchanged))
	scraperStoreRecordsTotal.WithLabelValues("rejected").Add(float64(rejected))
}

// ObserveRateLimitDelay records how long a fetch waited on the rate limiter.
func ObserveRateLimitDelay(site string, duration time.Duration) {
	Init()
	scraperRateLimitDelay.WithLabelValues(site).Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
