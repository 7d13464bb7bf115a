package migration

import (
	"context"

	"github.com/packbid/backend/internal/entity"
)

// Migrators maps a version to its migration. Version "auto" synchronizes the
// schema with the current entities and subsumes every other version.
var Migrators = map[string]func(context.Context) error{
	"0000": migrate0000,
	"auto": AutoMigrate,
}

// When this migrator is called, no need to call other migrators.
func AutoMigrate(ctx context.Context) error {
	return entity.MigrateTable(ctx)
}
