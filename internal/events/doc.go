// Package events carries document-store change notifications to consumers.
//
// A Source produces a stream of ChangeEvents, one per created document. The
// Postgres implementation lives in platform/postgres; Feed is an in-memory
// Source used for tests and local runs. Delivery is at-least-once: the same
// document may be announced more than once and consumers must tolerate that.
package events
