// Package server exposes an [indexwatch.Tracker] over HTTP.
//
// It serves the reconciled project collection as JSON, accepts indexing
// triggers, streams project changes as Server-Sent Events and optionally
// serves Prometheus metrics. Error bodies use the same {"detail": "..."}
// shape as the indexing backend.
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
