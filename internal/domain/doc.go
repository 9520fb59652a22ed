// Package domain contains the core entities of the worker: task records and
// their lifecycle, the content records that receive generated artifacts,
// recipient delivery tokens and the read-only conversation history.
// It is independent of any storage or transport.
package domain
