// Package api hosts the read-only HTTP server for the scraped product set.
// Notable routes:
//   - GET / for a welcome message.
//   - GET /products for the full persisted product list.
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
package api
