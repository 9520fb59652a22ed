// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying document store from the worker's
// core logic: task records, the posts that receive generated artifacts,
// recipient delivery tokens and the read-only conversation history.
package store
