// Package api is the operator HTTP surface of the worker: device token
// registration, task inspection, and the read-only conversation viewer.
// Handlers translate HTTP concerns into store calls and map store and
// domain errors onto status codes without leaking internal details.
package api
