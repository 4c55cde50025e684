package dbtest

import (
	"testing"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/stellar/go-stellar-sdk/support/db/dbtest"

	"github.com/72mo2c/pero-system-sub002/db/migrations"
)

func OpenWithoutMigrations(t *testing.T) *dbtest.DB {
	db := dbtest.Postgres(t)
	return db
}

func openWithMigrations(t *testing.T, routers ...migrations.MigrationRouter) *dbtest.DB {
	db := OpenWithoutMigrations(t)

	conn := db.Open()
	defer conn.Close()

	for _, router := range routers {
		ms := migrate.MigrationSet{TableName: router.TableName}
		m := migrate.HttpFileSystemMigrationSource{FileSystem: router.FS}
		_, err := ms.ExecMax(conn.DB, "postgres", m, migrate.Up, 0)
		if err != nil {
			t.Fatal(err)
		}
	}

	return db
}

// Open returns a test database with the tenant registry migrations applied.
func Open(t *testing.T) *dbtest.DB {
	return openWithMigrations(t, migrations.RegistryMigrationRouter)
}

// OpenWithTenantMigrationsOnly returns a test database shaped like a provisioned tenant database.
func OpenWithTenantMigrationsOnly(t *testing.T) *dbtest.DB {
	return openWithMigrations(t, migrations.TenantMigrationRouter)
}
