package db

import (
	"context"
	"fmt"

	migrate "github.com/rubenv/sql-migrate"

	"github.com/72mo2c/pero-system-sub002/db/migrations"
	"github.com/72mo2c/pero-system-sub002/internal/utils"
)

// Migrate applies up to count migrations of the given router against dbURL. A count of 0 applies all of them.
func Migrate(dbURL string, dir migrate.MigrationDirection, count int, migrationRouter migrations.MigrationRouter) (int, error) {
	dbConnectionPool, err := OpenDBConnectionPool(dbURL)
	if err != nil {
		return 0, fmt.Errorf("database URL '%s': %w", utils.TruncateString(dbURL, len(dbURL)/4), err)
	}
	defer dbConnectionPool.Close()

	return MigrateWithPool(context.Background(), dbConnectionPool, dir, count, migrationRouter)
}

// MigrateWithPool is like Migrate but reuses an existing connection pool.
func MigrateWithPool(ctx context.Context, dbConnectionPool DBConnectionPool, dir migrate.MigrationDirection, count int, migrationRouter migrations.MigrationRouter) (int, error) {
	ms := migrate.MigrationSet{
		TableName: migrationRouter.TableName,
	}

	m := migrate.HttpFileSystemMigrationSource{FileSystem: migrationRouter.FS}
	db, err := dbConnectionPool.SqlDB(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching sql.DB: %w", err)
	}
	return ms.ExecMax(db, dbConnectionPool.DriverName(), m, dir, count)
}
