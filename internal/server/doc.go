// Package server implements the HTTP surface of the upload service: health
// and readiness probes, the image and document upload endpoints, optional
// catalog lookups, and Prometheus metrics. It wires middleware (request id,
// access logging, CORS, security headers, rate limiting) around a
// net/http ServeMux and provides lifecycle helpers used by tests and the
// production binary.
package server
