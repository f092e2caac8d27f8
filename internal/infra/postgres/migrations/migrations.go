package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the Postgres schema, registered by the files in this package.
var Migrations = migrate.NewMigrations()
