// Package main hosts the productscraper entrypoint.
//
// Commands:
//   - crawl: walks page 1, 2, ... of scraper.page_url_template until the page
//     bound, an empty page, a 404 or a fetch error, then merges the products
//     into the JSON store (and the Postgres mirror when store.postgres_dsn is
//     set). Page fetches go through the fetch cache (Redis, memory or none)
//     and are retried retry.max_attempts times.
//   - serve: exposes the stored products on GET /products, plus /healthz,
//     /readyz and /metrics. Shuts down cleanly on SIGINT/SIGTERM.
//
// Configuration comes from an optional YAML file (--config) and
// PRODUCTSCRAPER_* environment variables, e.g. PRODUCTSCRAPER_SCRAPER_TOKEN or
// PRODUCTSCRAPER_CACHE_REDIS_ADDR.
//
//	productscraper --config config.yaml crawl --pages 5
//	productscraper serve --port 8000
package main
