// Package pg bootstraps PostgreSQL access with pgx/v5: pool creation with
// retries, goose migrations from an embedded filesystem, a readiness check
// and a few SQLSTATE helpers.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	if err := pg.Migrate(ctx, pool, migrations.FS, ".", cfg, log); err != nil {
//	    return err
//	}
package pg
