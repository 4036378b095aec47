// Package sqlstore keeps refresh tokens and accounts in PostgreSQL (pgx) or
// SQLite (modernc), with schema managed by embedded goose migrations.
//
// Rotation is a single conditional UPDATE ... RETURNING, so the database
// serialises concurrent presentations of the same token. Timestamps are stored
// as unix milliseconds in both dialects.
package sqlstore
