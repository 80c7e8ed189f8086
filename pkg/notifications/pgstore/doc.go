// Package pgstore implements the subscription Store and the delivery
// attempt log on Postgres. The schema lives in internal/db/migrations and is
// applied with pg.Migrate.
package pgstore
