// Package sqlitestore is a subscription Store backed by a single SQLite file,
// for deployments without Postgres.
package sqlitestore
