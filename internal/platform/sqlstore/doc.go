// Package sqlstore implements the store interfaces on database/sql. One code
// path serves PostgreSQL (through the pgx stdlib driver) and SQLite (through
// modernc.org/sqlite); the Dialect type absorbs the differences in
// placeholders, timestamp encoding and row locking. Schema migrations for both
// dialects are embedded and applied with goose.
package sqlstore
