// Package postgres provides the PostgreSQL implementations of the store
// interfaces, the embedded schema migrations, and a LISTEN/NOTIFY event
// source that announces newly created task records.
package postgres
