package migrations

import (
	"net/http"

	registrymigrations "github.com/72mo2c/pero-system-sub002/db/migrations/registry-migrations"
	tenantmigrations "github.com/72mo2c/pero-system-sub002/db/migrations/tenant-migrations"
)

type MigrationRouter struct {
	TableName string
	FS        http.FileSystem
}

var (
	// RegistryMigrationRouter migrates the main database that holds the tenant registry.
	RegistryMigrationRouter = MigrationRouter{TableName: "registry_migrations", FS: http.FS(registrymigrations.FS)}
	// TenantMigrationRouter is the schema template applied to every tenant database.
	TenantMigrationRouter = MigrationRouter{TableName: "tenant_migrations", FS: http.FS(tenantmigrations.FS)}
)

// ExpectedTenantTables lists the tables a fully provisioned tenant database contains, excluding the migrations
// bookkeeping table.
func ExpectedTenantTables() []string {
	return []string{
		"locations",
		"products",
		"stock_levels",
		"stock_movements",
		"users",
		"warehouses",
	}
}
