// Package migrations holds the goose SQL migrations for the Postgres
// registry and the delivery attempt log.
package migrations

import "embed"

// FS is passed to pg.Migrate with Dir.
//
//go:embed *.sql
var FS embed.FS

const Dir = "."
