package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds every schema change; each file registers itself from init
// so bun can derive the version from the file name.
var Migrations = migrate.NewMigrations()
