// Package observability provides structured logging and metrics for the
// authorization pipeline.
//
// This package implements:
//   - Structured logging (zap-based), json in production and console in development
//   - OpenTelemetry metrics for authorization decisions and key-set refreshes
package observability
