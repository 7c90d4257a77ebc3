// Package observability provides structured logging and metrics for the
// Mala back office.
//
// This package implements:
//   - Structured logging with request-scoped fields (zap-based)
//   - Prometheus metrics for guard decisions, landing redirects and logins
//   - Request ID propagation into log lines
package observability
