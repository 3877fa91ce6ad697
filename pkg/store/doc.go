// Package store defines the read-only record access relation widgets and
// choices endpoints depend on, together with the Catalog of model
// definitions shared by every backend. Backends live in sub-packages:
// memory (tests and demos), sqlstore (database/sql, used with the pure Go
// SQLite driver) and pgstore (pgx connection pool).
package store
