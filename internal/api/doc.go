// Package api hosts the HTTP server, middleware, and REST handlers for
// operator access. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - /v1/scouts for scout definition CRUD and session launches.
//   - /v1/sessions for session status, cancellation, results, and CSV export.
package api
