package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/72mo2c/pero-system-sub002/db"
	"github.com/72mo2c/pero-system-sub002/db/dbtest"
	"github.com/72mo2c/pero-system-sub002/internal/activitylog"
	"github.com/72mo2c/pero-system-sub002/internal/message"
	"github.com/72mo2c/pero-system-sub002/internal/monitor"
	"github.com/72mo2c/pero-system-sub002/internal/provisioning"
	"github.com/72mo2c/pero-system-sub002/internal/tenant"
)

func Test_Manager_tenantLifecycleAgainstPostgres(t *testing.T) {
	ctx := context.Background()

	dbt := dbtest.Open(t)
	defer dbt.Close()
	mainPool, err := db.OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	defer mainPool.Close()

	prefix := tenant.RandomDatabasePrefixFixture(t, mainPool)
	defer tenant.DropDatabasesWithPrefixFixture(t, ctx, mainPool, prefix)

	monitorService := monitor.NewMockMonitorService(t).ExpectAnyMetrics()

	provider, err := tenant.NewMultiTenantDataSourceRouter(tenant.DataSourceRouterOptions{
		MainDBConnectionPool: mainPool,
		TenantDatabasePrefix: prefix,
	})
	require.NoError(t, err)
	defer provider.Close()

	executor, err := provisioning.NewManager(provisioning.ManagerOptions{
		ConnectionProvider:   provider,
		MonitorService:       monitorService,
		TenantDatabasePrefix: prefix,
	})
	require.NoError(t, err)

	activityLogger, err := activitylog.NewLogger(mainPool, monitorService)
	require.NoError(t, err)

	registry := tenant.NewManager(tenant.WithDatabase(mainPool), tenant.WithTenantDatabasePrefix(prefix))

	m, err := NewManager(ManagerOptions{
		Registry:       registry,
		Executor:       executor,
		ActivityLogger: activityLogger,
		MonitorService: monitorService,
		Now:            func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	result, err := m.SubmitTenant(ctx, "admin", &tenant.TenantInsert{
		TenantID:         "acme",
		CompanyName:      "Acme Logistics",
		ContactPerson:    "Jane Doe",
		Email:            "jane@acme.test",
		SubscriptionPlan: tenant.BasicPlan,
	}, false)
	require.NoError(t, err)
	acme := result.Tenant
	assert.Equal(t, tenant.PendingTenantStatus, acme.Status)
	assert.Equal(t, prefix+"acme", acme.DatabaseName)

	result, err = m.ApproveTenant(ctx, "admin", acme.ID)
	require.NoError(t, err)
	assert.False(t, result.Degraded)
	assert.Equal(t, tenant.ActiveTenantStatus, result.Tenant.Status)
	assert.NotNil(t, result.Tenant.ProvisionedAt)
	assert.True(t, tenant.DatabaseExistsFixture(t, ctx, mainPool, acme.DatabaseName))

	_, err = m.ApproveTenant(ctx, "admin", acme.ID)
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, tenant.ActiveTenantStatus, stateErr.Status)

	suspended, err := m.ToggleActive(ctx, "admin", acme.ID)
	require.NoError(t, err)
	assert.Equal(t, tenant.SuspendedTenantStatus, suspended.Status)

	_, err = m.DeleteTenant(ctx, "admin", acme.ID)
	require.NoError(t, err)
	_, err = registry.GetTenantByID(ctx, acme.ID)
	assert.ErrorIs(t, err, tenant.ErrTenantDoesNotExist)

	// The database outlives the registry row until it is purged.
	assert.True(t, tenant.DatabaseExistsFixture(t, ctx, mainPool, acme.DatabaseName))
	orphaned, err := registry.ListOrphanedDatabases(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{acme.DatabaseName}, orphaned)

	require.NoError(t, m.PurgeTenantDatabase(ctx, "admin", acme.DatabaseName))
	assert.False(t, tenant.DatabaseExistsFixture(t, ctx, mainPool, acme.DatabaseName))

	entries, err := activityLogger.List(ctx, &activitylog.QueryParams{})
	require.NoError(t, err)
	actions := make([]activitylog.Action, 0, len(entries.Entries))
	for _, e := range entries.Entries {
		actions = append(actions, e.Action)
	}
	assert.ElementsMatch(t, []activitylog.Action{
		activitylog.TenantDatabasePurgedAction,
		activitylog.TenantDeletedAction,
		activitylog.TenantSuspendedAction,
		activitylog.TenantApprovedAction,
		activitylog.TenantCreatedAction,
	}, actions)
}

func Test_tenantActivatedMessage(t *testing.T) {
	msg, err := tenantActivatedMessage(testTenant(tenant.ActiveTenantStatus), "WMS Cloud")
	require.NoError(t, err)

	assert.Equal(t, "jane@acme.test", msg.ToEmail)
	assert.Equal(t, "Your WMS Cloud workspace is ready", msg.Title)
	assert.Contains(t, msg.Body, "<strong>Acme Logistics</strong>")
	assert.Contains(t, msg.Body, "<td>basic</td>")
	assert.Contains(t, msg.Body, "The WMS Cloud Team")
	assert.Empty(t, msg.ToPhoneNumber)
	assert.Equal(t, []message.MessageChannel{message.MessageChannelEmail}, msg.SupportedChannels())

	withPhone := testTenant(tenant.ActiveTenantStatus)
	phone := "+14155111111"
	withPhone.Phone = &phone
	msg, err = tenantActivatedMessage(withPhone, "WMS Cloud")
	require.NoError(t, err)
	assert.Equal(t, "WMS Cloud: your workspace acme is ready. Your basic subscription runs until 2025-06-30.", msg.SMSBody)
	assert.Equal(t, []message.MessageChannel{message.MessageChannelEmail, message.MessageChannelSMS}, msg.SupportedChannels())
}
