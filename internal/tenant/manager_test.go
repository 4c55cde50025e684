package tenant

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/72mo2c/pero-system-sub002/db"
	"github.com/72mo2c/pero-system-sub002/db/dbtest"
	"github.com/72mo2c/pero-system-sub002/internal/data"
	"github.com/72mo2c/pero-system-sub002/internal/utils"
)

func openManagerTestPool(t *testing.T) db.DBConnectionPool {
	t.Helper()

	dbt := dbtest.Open(t)
	t.Cleanup(func() { dbt.Close() })
	dbConnectionPool, err := db.OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	t.Cleanup(func() { dbConnectionPool.Close() })
	return dbConnectionPool
}

func fixedClock(day string) func() time.Time {
	now, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return now.Add(10 * time.Hour) }
}

func Test_Manager_CreateTenant(t *testing.T) {
	dbConnectionPool := openManagerTestPool(t)
	ctx := context.Background()

	m := NewManager(WithDatabase(dbConnectionPool), WithClock(fixedClock("2025-03-01")))

	t.Run("returns error when the insert is nil", func(t *testing.T) {
		tnt, err := m.CreateTenant(ctx, nil)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Fields, "body")
		assert.Nil(t, tnt)
	})

	t.Run("collects every violated field rule", func(t *testing.T) {
		tnt, err := m.CreateTenant(ctx, &TenantInsert{
			TenantID:         "1acme",
			CompanyName:      "A",
			Email:            "not-an-email",
			Phone:            utils.StringPtr("123"),
			SubscriptionPlan: "gold",
			CreatedBy:        "admin",
		})
		assert.Nil(t, tnt)

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.ElementsMatch(t,
			[]string{"tenant_id", "company_name", "contact_person", "email", "phone", "subscription_plan"},
			keysOf(validationErr.Fields),
		)

		count, err := m.CountTenants(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("inserts a pending tenant with the plan default dates", func(t *testing.T) {
		tnt, err := m.CreateTenant(ctx, &TenantInsert{
			TenantID:         "  Acme ",
			CompanyName:      "Acme Co",
			ContactPerson:    "A. Person",
			Email:            "Ops@Acme.com",
			SubscriptionPlan: BasicPlan,
			CreatedBy:        "admin",
		})
		require.NoError(t, err)

		assert.NotZero(t, tnt.ID)
		assert.Equal(t, "acme", tnt.TenantID)
		assert.Equal(t, "ops@acme.com", tnt.Email)
		assert.Equal(t, PendingTenantStatus, tnt.Status)
		assert.Equal(t, "warehouse_tenant_acme", tnt.DatabaseName)
		assert.Equal(t, m.DatabaseNameFor("acme"), tnt.DatabaseName)
		assert.Equal(t, "2025-03-01", tnt.SubscriptionStart.Format("2006-01-02"))
		assert.Equal(t, "2025-03-31", tnt.SubscriptionEnd.Format("2006-01-02"))
		assert.Nil(t, tnt.ProvisionedAt)
		assert.Nil(t, tnt.CompanyNameEN)
		assert.Equal(t, "admin", tnt.CreatedBy)

		found, err := m.GetTenantByTenantID(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, tnt.ID, found.ID)
		assert.Equal(t, PendingTenantStatus, found.Status)
	})

	t.Run("keeps explicit subscription dates", func(t *testing.T) {
		start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
		tnt, err := m.CreateTenant(ctx, &TenantInsert{
			TenantID:          "globex",
			CompanyName:       "Globex",
			ContactPerson:     "Hank Scorpio",
			Email:             "hank@globex.com",
			SubscriptionPlan:  EnterprisePlan,
			SubscriptionStart: &start,
			SubscriptionEnd:   &end,
			CreatedBy:         "admin",
		})
		require.NoError(t, err)
		assert.Equal(t, "2025-05-01", tnt.SubscriptionStart.Format("2006-01-02"))
		assert.Equal(t, "2026-04-30", tnt.SubscriptionEnd.Format("2006-01-02"))
	})

	t.Run("rejects a duplicated tenant_id or email without writing a row", func(t *testing.T) {
		before, err := m.CountTenants(ctx, nil)
		require.NoError(t, err)

		tnt, err := m.CreateTenant(ctx, &TenantInsert{
			TenantID:         "acme",
			CompanyName:      "Acme Again",
			ContactPerson:    "B. Person",
			Email:            "OPS@acme.com",
			SubscriptionPlan: TrialPlan,
			CreatedBy:        "admin",
		})
		assert.Nil(t, tnt)
		var conflictErr *ConflictError
		require.ErrorAs(t, err, &conflictErr)
		assert.ElementsMatch(t, []string{"tenant_id", "email"}, conflictErr.Fields)

		tnt, err = m.CreateTenant(ctx, &TenantInsert{
			TenantID:         "acme_two",
			CompanyName:      "Acme Two",
			ContactPerson:    "B. Person",
			Email:            "ops@acme.com",
			SubscriptionPlan: TrialPlan,
			CreatedBy:        "admin",
		})
		assert.Nil(t, tnt)
		require.ErrorAs(t, err, &conflictErr)
		assert.Equal(t, []string{"email"}, conflictErr.Fields)

		after, err := m.CountTenants(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func Test_Manager_CreateTenant_uniqueViolationBackstop(t *testing.T) {
	mockDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	dbConnectionPool := db.NewDBConnectionPoolImplementation(sqlx.NewDb(mockDB, "postgres"), "postgres://localhost/registry")
	m := NewManager(WithDatabase(dbConnectionPool))

	sqlMock.ExpectQuery("SELECT tenant_id, LOWER\\(email\\) AS email FROM tenants").
		WithArgs("acme", "ops@acme.com").
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id", "email"}))
	sqlMock.ExpectQuery("INSERT INTO tenants").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "tenants_email_unique"})

	tnt, err := m.CreateTenant(context.Background(), &TenantInsert{
		TenantID:         "acme",
		CompanyName:      "Acme Co",
		ContactPerson:    "A. Person",
		Email:            "ops@acme.com",
		SubscriptionPlan: TrialPlan,
		CreatedBy:        "admin",
	})
	assert.Nil(t, tnt)
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, []string{"email"}, conflictErr.Fields)
	require.NoError(t, sqlMock.ExpectationsWereMet())
}

func Test_Manager_connectionFailure(t *testing.T) {
	mockDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	dbConnectionPool := db.NewDBConnectionPoolImplementation(sqlx.NewDb(mockDB, "postgres"), "postgres://localhost/registry")
	m := NewManager(WithDatabase(dbConnectionPool))

	sqlMock.ExpectQuery("SELECT").WillReturnError(&pq.Error{Code: "08006"})

	tnt, err := m.GetTenantByID(context.Background(), 1)
	assert.Nil(t, tnt)
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "registry", connErr.Target)
	require.NoError(t, sqlMock.ExpectationsWereMet())
}

func Test_Manager_GetTenant(t *testing.T) {
	dbConnectionPool := openManagerTestPool(t)
	ctx := context.Background()

	m := NewManager(WithDatabase(dbConnectionPool))
	tnt := CreateTenantFixture(t, ctx, dbConnectionPool, "initech", "bill@initech.com")

	t.Run("returns ErrTenantDoesNotExist when the tenant is missing", func(t *testing.T) {
		got, err := m.GetTenantByID(ctx, tnt.ID+1000)
		assert.ErrorIs(t, err, ErrTenantDoesNotExist)
		assert.Nil(t, got)

		got, err = m.GetTenantByTenantID(ctx, "unknown")
		assert.ErrorIs(t, err, ErrTenantDoesNotExist)
		assert.Nil(t, got)
	})

	t.Run("resolves numeric references as the surrogate id", func(t *testing.T) {
		got, err := m.GetTenantByIDOrTenantID(ctx, " "+itoa(tnt.ID)+" ")
		require.NoError(t, err)
		assert.Equal(t, "initech", got.TenantID)
	})

	t.Run("resolves other references as the tenant ID", func(t *testing.T) {
		got, err := m.GetTenantByIDOrTenantID(ctx, "INITECH")
		require.NoError(t, err)
		assert.Equal(t, tnt.ID, got.ID)
	})
}

func Test_Manager_SearchTenants(t *testing.T) {
	dbConnectionPool := openManagerTestPool(t)
	ctx := context.Background()

	m := NewManager(WithDatabase(dbConnectionPool))
	acme := CreateTenantFixture(t, ctx, dbConnectionPool, "acme", "ops@acme.com")
	globex := CreateTenantFixture(t, ctx, dbConnectionPool, "globex", "hank@globex.com")
	initech := CreateTenantFixture(t, ctx, dbConnectionPool, "initech", "bill@initech.com")
	SetTenantStatusFixture(t, ctx, dbConnectionPool, globex.ID, ActiveTenantStatus)

	_, err := dbConnectionPool.ExecContext(ctx, "UPDATE tenants SET subscription_start = '2020-01-01', subscription_end = '2020-02-01' WHERE id = $1", initech.ID)
	require.NoError(t, err)

	tenantIDs := func(page *TenantsPage) []string {
		ids := make([]string, 0, len(page.Tenants))
		for _, tnt := range page.Tenants {
			ids = append(ids, tnt.TenantID)
		}
		return ids
	}

	t.Run("orders by creation time descending by default", func(t *testing.T) {
		page, err := m.SearchTenants(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"initech", "globex", "acme"}, tenantIDs(page))
		assert.Equal(t, 3, page.Total)
		assert.Equal(t, data.DefaultPage, page.Page)
		assert.Equal(t, data.DefaultPageLimit, page.PageLimit)
	})

	t.Run("matches free text across the company name, email and tenant ID", func(t *testing.T) {
		page, err := m.SearchTenants(ctx, &QueryParams{Query: "GLOBEX"})
		require.NoError(t, err)
		assert.Equal(t, []string{"globex"}, tenantIDs(page))

		page, err = m.SearchTenants(ctx, &QueryParams{Query: "%"})
		require.NoError(t, err)
		assert.Empty(t, page.Tenants)
		assert.Zero(t, page.Total)
	})

	t.Run("filters by status", func(t *testing.T) {
		page, err := m.SearchTenants(ctx, &QueryParams{Filters: map[FilterKey]interface{}{FilterKeyStatus: PendingTenantStatus}})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"acme", "initech"}, tenantIDs(page))
	})

	t.Run("filters by expiry", func(t *testing.T) {
		page, err := m.SearchTenants(ctx, &QueryParams{Filters: map[FilterKey]interface{}{FilterKeyExpired: "true"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"initech"}, tenantIDs(page))

		page, err = m.SearchTenants(ctx, &QueryParams{Filters: map[FilterKey]interface{}{FilterKeyExpired: false}})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"acme", "globex"}, tenantIDs(page))
	})

	t.Run("paginates and keeps the total", func(t *testing.T) {
		page, err := m.SearchTenants(ctx, &QueryParams{Page: 2, PageLimit: 2, SortBy: data.SortFieldTenantID, SortOrder: data.SortOrderASC})
		require.NoError(t, err)
		assert.Equal(t, []string{"initech"}, tenantIDs(page))
		assert.Equal(t, 3, page.Total)
		assert.Equal(t, 2, page.TotalPages())
	})

	t.Run("falls back to the default order for unknown sort fields", func(t *testing.T) {
		page, err := m.SearchTenants(ctx, &QueryParams{SortBy: "password", SortOrder: data.SortOrderASC})
		require.NoError(t, err)
		assert.Equal(t, []string{"acme", "globex", "initech"}, tenantIDs(page))
		assert.Equal(t, acme.ID, page.Tenants[0].ID)
	})
}

func Test_Manager_StatusTransitions(t *testing.T) {
	dbConnectionPool := openManagerTestPool(t)
	ctx := context.Background()

	m := NewManager(WithDatabase(dbConnectionPool))

	t.Run("CompareAndSwapStatus only moves a tenant in the expected status", func(t *testing.T) {
		tnt := CreateTenantFixture(t, ctx, dbConnectionPool, "cas_one", "cas_one@example.com")

		updated, err := m.CompareAndSwapStatus(ctx, tnt.ID, PendingTenantStatus, CancelledTenantStatus)
		require.NoError(t, err)
		assert.Equal(t, CancelledTenantStatus, updated.Status)

		updated, err = m.CompareAndSwapStatus(ctx, tnt.ID, PendingTenantStatus, CancelledTenantStatus)
		assert.ErrorIs(t, err, ErrStatusConflict)
		assert.ErrorContains(t, err, "tenant cas_one is cancelled")
		assert.Nil(t, updated)

		updated, err = m.CompareAndSwapStatus(ctx, tnt.ID+1000, PendingTenantStatus, CancelledTenantStatus)
		assert.ErrorIs(t, err, ErrTenantDoesNotExist)
		assert.Nil(t, updated)
	})

	t.Run("UpdateStatus rejects unknown statuses", func(t *testing.T) {
		tnt, err := m.UpdateStatus(ctx, 1, "approved")
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Nil(t, tnt)
	})

	t.Run("active requires a provisioned tenant", func(t *testing.T) {
		tnt := CreateTenantFixture(t, ctx, dbConnectionPool, "not_provisioned", "np@example.com")

		_, err := m.UpdateStatus(ctx, tnt.ID, ActiveTenantStatus)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tenants_active_requires_provisioning")
	})

	t.Run("claim, fail and claim again, then provision", func(t *testing.T) {
		tnt := CreateTenantFixture(t, ctx, dbConnectionPool, "claimed", "claimed@example.com")

		claimed, err := m.ClaimForProvisioning(ctx, tnt.ID, time.Hour)
		require.NoError(t, err)
		assert.Equal(t, ProvisioningTenantStatus, claimed.Status)

		_, err = m.ClaimForProvisioning(ctx, tnt.ID, time.Hour)
		assert.ErrorIs(t, err, ErrStatusConflict)

		failed, err := m.MarkProvisioningFailed(ctx, tnt.ID, "apply_schema: boom")
		require.NoError(t, err)
		assert.Equal(t, PendingTenantStatus, failed.Status)
		require.NotNil(t, failed.ProvisioningError)
		assert.Equal(t, "apply_schema: boom", *failed.ProvisioningError)

		_, err = m.ClaimForProvisioning(ctx, tnt.ID, time.Hour)
		require.NoError(t, err)

		provisioned, err := m.MarkProvisioned(ctx, tnt.ID)
		require.NoError(t, err)
		assert.Equal(t, ActiveTenantStatus, provisioned.Status)
		assert.True(t, provisioned.IsProvisioned())
		assert.Nil(t, provisioned.ProvisioningError)

		_, err = m.MarkProvisioned(ctx, tnt.ID)
		assert.ErrorIs(t, err, ErrStatusConflict)
	})

	t.Run("a stale provisioning claim can be reclaimed", func(t *testing.T) {
		tnt := CreateTenantFixture(t, ctx, dbConnectionPool, "stale", "stale@example.com")
		_, err := m.ClaimForProvisioning(ctx, tnt.ID, time.Hour)
		require.NoError(t, err)

		_, err = dbConnectionPool.ExecContext(ctx, "ALTER TABLE tenants DISABLE TRIGGER refresh_tenants_updated_at")
		require.NoError(t, err)
		_, err = dbConnectionPool.ExecContext(ctx, "UPDATE tenants SET updated_at = NOW() - INTERVAL '2 hours' WHERE id = $1", tnt.ID)
		require.NoError(t, err)
		_, err = dbConnectionPool.ExecContext(ctx, "ALTER TABLE tenants ENABLE TRIGGER refresh_tenants_updated_at")
		require.NoError(t, err)

		reclaimed, err := m.ClaimForProvisioning(ctx, tnt.ID, time.Hour)
		require.NoError(t, err)
		assert.Equal(t, ProvisioningTenantStatus, reclaimed.Status)
	})
}

func Test_Manager_ExtendSubscription(t *testing.T) {
	dbConnectionPool := openManagerTestPool(t)
	ctx := context.Background()

	m := NewManager(WithDatabase(dbConnectionPool))
	tnt := CreateTenantFixture(t, ctx, dbConnectionPool, "extend", "extend@example.com")
	_, err := dbConnectionPool.ExecContext(ctx, "UPDATE tenants SET subscription_start = '2025-01-01', subscription_end = '2025-06-30' WHERE id = $1", tnt.ID)
	require.NoError(t, err)

	t.Run("rejects days out of range", func(t *testing.T) {
		for _, days := range []int{0, -1, 366} {
			got, err := m.ExtendSubscription(ctx, tnt.ID, days, time.Now())
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Contains(t, validationErr.Fields, "days")
			assert.Nil(t, got)
		}
	})

	t.Run("extends from the current end date when it is in the future", func(t *testing.T) {
		today := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
		got, err := m.ExtendSubscription(ctx, tnt.ID, 30, today)
		require.NoError(t, err)
		assert.Equal(t, "2025-07-30", got.SubscriptionEnd.Format("2006-01-02"))
	})

	t.Run("extends from today when the subscription already expired", func(t *testing.T) {
		today := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
		got, err := m.ExtendSubscription(ctx, tnt.ID, 10, today)
		require.NoError(t, err)
		assert.Equal(t, "2025-09-11", got.SubscriptionEnd.Format("2006-01-02"))
	})

	t.Run("returns ErrTenantDoesNotExist for unknown tenants", func(t *testing.T) {
		got, err := m.ExtendSubscription(ctx, tnt.ID+1000, 10, time.Now())
		assert.ErrorIs(t, err, ErrTenantDoesNotExist)
		assert.Nil(t, got)
	})
}

func Test_Manager_DeleteTenant(t *testing.T) {
	dbConnectionPool := openManagerTestPool(t)
	ctx := context.Background()

	m := NewManager(WithDatabase(dbConnectionPool))
	tnt := CreateTenantFixture(t, ctx, dbConnectionPool, "deleted", "deleted@example.com")

	deleted, err := m.DeleteTenant(ctx, tnt.ID)
	require.NoError(t, err)
	assert.Equal(t, "deleted", deleted.TenantID)

	_, err = m.GetTenantByID(ctx, tnt.ID)
	assert.ErrorIs(t, err, ErrTenantDoesNotExist)

	_, err = m.DeleteTenant(ctx, tnt.ID)
	assert.True(t, errors.Is(err, ErrTenantDoesNotExist))
}

func Test_Manager_OrphanedDatabases(t *testing.T) {
	dbConnectionPool := openManagerTestPool(t)
	ctx := context.Background()

	prefix := RandomDatabasePrefixFixture(t, dbConnectionPool)
	m := NewManager(WithDatabase(dbConnectionPool), WithTenantDatabasePrefix(prefix))

	registered := CreateTenantFixtureWithManager(t, ctx, m, "kept", "kept@example.com")
	CreateDatabaseFixture(t, ctx, dbConnectionPool, registered.DatabaseName)
	CreateDatabaseFixture(t, ctx, dbConnectionPool, prefix+"orphan")

	orphans, err := m.ListOrphanedDatabases(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{prefix + "orphan"}, orphans)

	isRegistered, err := m.IsDatabaseRegistered(ctx, registered.DatabaseName)
	require.NoError(t, err)
	assert.True(t, isRegistered)

	isRegistered, err = m.IsDatabaseRegistered(ctx, prefix+"orphan")
	require.NoError(t, err)
	assert.False(t, isRegistered)

	_, err = m.DeleteTenant(ctx, registered.ID)
	require.NoError(t, err)

	orphans, err = m.ListOrphanedDatabases(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{registered.DatabaseName, prefix + "orphan"}, orphans)
}

func keysOf(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func itoa(i int64) string {
	return strconv.FormatInt(i, 10)
}
