package tenant

import (
	"context"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/72mo2c/pero-system-sub002/db"
)

// CreateTenantFixture inserts a pending tenant through the registry, so every default is applied.
func CreateTenantFixture(t *testing.T, ctx context.Context, dbConnectionPool db.DBConnectionPool, tenantID, email string) *Tenant {
	t.Helper()

	return CreateTenantFixtureWithManager(t, ctx, NewManager(WithDatabase(dbConnectionPool)), tenantID, email)
}

func CreateTenantFixtureWithManager(t *testing.T, ctx context.Context, m *Manager, tenantID, email string) *Tenant {
	t.Helper()

	tnt, err := m.CreateTenant(ctx, &TenantInsert{
		TenantID:         tenantID,
		CompanyName:      "Company " + tenantID,
		ContactPerson:    "Jane Doe",
		Email:            email,
		SubscriptionPlan: BasicPlan,
		CreatedBy:        "fixture",
	})
	require.NoError(t, err)
	return tnt
}

// SetTenantStatusFixture forces the tenant status, marking it provisioned when the status requires it.
func SetTenantStatusFixture(t *testing.T, ctx context.Context, dbConnectionPool db.DBConnectionPool, id int64, status TenantStatus) *Tenant {
	t.Helper()

	const q = `
		UPDATE tenants AS t
		SET status = $2, provisioned_at = CASE WHEN $2 IN ('active', 'suspended') THEN COALESCE(t.provisioned_at, NOW()) ELSE t.provisioned_at END
		WHERE t.id = $1
		RETURNING ` + tenantColumns

	var tnt Tenant
	err := dbConnectionPool.GetContext(ctx, &tnt, q, id, status)
	require.NoError(t, err)
	return &tnt
}

func DeleteAllTenantsFixture(t *testing.T, ctx context.Context, dbConnectionPool db.DBConnectionPool) {
	t.Helper()

	_, err := dbConnectionPool.ExecContext(ctx, "DELETE FROM tenants")
	require.NoError(t, err)
}

// RandomDatabasePrefixFixture returns a tenant database prefix unique to the test, so tests sharing a server never
// see each other's databases. Databases created under it are dropped when the test ends.
func RandomDatabasePrefixFixture(t *testing.T, dbConnectionPool db.DBConnectionPool) string {
	t.Helper()

	var n int
	err := dbConnectionPool.GetContext(context.Background(), &n, "SELECT (random() * 100000000)::int")
	require.NoError(t, err)

	prefix := fmt.Sprintf("wt_%d_", n)
	t.Cleanup(func() {
		DropDatabasesWithPrefixFixture(t, context.Background(), dbConnectionPool, prefix)
	})
	return prefix
}

func DatabaseExistsFixture(t *testing.T, ctx context.Context, dbConnectionPool db.DBConnectionPool, databaseName string) bool {
	t.Helper()

	var exists bool
	err := dbConnectionPool.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", databaseName)
	require.NoError(t, err)
	return exists
}

func CreateDatabaseFixture(t *testing.T, ctx context.Context, dbConnectionPool db.DBConnectionPool, databaseName string) {
	t.Helper()

	_, err := dbConnectionPool.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(databaseName)))
	require.NoError(t, err)
}

func DropDatabaseFixture(t *testing.T, ctx context.Context, dbConnectionPool db.DBConnectionPool, databaseName string) {
	t.Helper()

	_, err := dbConnectionPool.ExecContext(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s WITH (FORCE)", pq.QuoteIdentifier(databaseName)))
	require.NoError(t, err)
}

func DropDatabasesWithPrefixFixture(t *testing.T, ctx context.Context, dbConnectionPool db.DBConnectionPool, prefix string) {
	t.Helper()

	var names []string
	err := dbConnectionPool.SelectContext(ctx, &names, "SELECT datname FROM pg_database WHERE datname LIKE $1 ESCAPE '\\'", escapeLike(prefix)+"%")
	require.NoError(t, err)

	for _, name := range names {
		DropDatabaseFixture(t, ctx, dbConnectionPool, name)
	}
}

// TenantDatabaseHasTablesFixture asserts the public schema of a tenant database has exactly the given tables, not
// counting the migrations bookkeeping table.
func TenantDatabaseHasTablesFixture(t *testing.T, ctx context.Context, tenantConnectionPool db.DBConnectionPool, migrationsTable string, tableNames []string) {
	t.Helper()

	const q = `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE' AND table_name <> $1
		ORDER BY table_name
	`

	var tables []string
	err := tenantConnectionPool.SelectContext(ctx, &tables, q, migrationsTable)
	require.NoError(t, err)
	assert.ElementsMatch(t, tableNames, tables)
}
