package tenant

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/72mo2c/pero-system-sub002/db"
)

type TenantManagerMock struct {
	mock.Mock
}

var _ ManagerInterface = (*TenantManagerMock)(nil)

func (m *TenantManagerMock) DatabaseNameFor(tenantID string) string {
	return m.Called(tenantID).String(0)
}

func (m *TenantManagerMock) CreateTenant(ctx context.Context, ti *TenantInsert) (*Tenant, error) {
	args := m.Called(ctx, ti)
	return tenantOrNil(args.Get(0)), args.Error(1)
}

func (m *TenantManagerMock) GetTenantByID(ctx context.Context, id int64) (*Tenant, error) {
	args := m.Called(ctx, id)
	return tenantOrNil(args.Get(0)), args.Error(1)
}

func (m *TenantManagerMock) GetTenantByTenantID(ctx context.Context, tenantID string) (*Tenant, error) {
	args := m.Called(ctx, tenantID)
	return tenantOrNil(args.Get(0)), args.Error(1)
}

func (m *TenantManagerMock) GetTenantByIDOrTenantID(ctx context.Context, ref string) (*Tenant, error) {
	args := m.Called(ctx, ref)
	return tenantOrNil(args.Get(0)), args.Error(1)
}

func (m *TenantManagerMock) SearchTenants(ctx context.Context, qp *QueryParams) (*TenantsPage, error) {
	args := m.Called(ctx, qp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TenantsPage), args.Error(1)
}

func (m *TenantManagerMock) CountTenants(ctx context.Context, qp *QueryParams) (int, error) {
	args := m.Called(ctx, qp)
	return args.Int(0), args.Error(1)
}

func (m *TenantManagerMock) UpdateStatus(ctx context.Context, id int64, status TenantStatus) (*Tenant, error) {
	args := m.Called(ctx, id, status)
	return tenantOrNil(args.Get(0)), args.Error(1)
}

func (m *TenantManagerMock) CompareAndSwapStatus(ctx context.Context, id int64, from, to TenantStatus) (*Tenant, error) {
	args := m.Called(ctx, id, from, to)
	return tenantOrNil(args.Get(0)), args.Error(1)
}

func (m *TenantManagerMock) ClaimForProvisioning(ctx context.Context, id int64, staleAfter time.Duration) (*Tenant, error) {
	args := m.Called(ctx, id, staleAfter)
	return tenantOrNil(args.Get(0)), args.Error(1)
}

func (m *TenantManagerMock) MarkProvisioned(ctx context.Context, id int64) (*Tenant, error) {
	args := m.Called(ctx, id)
	return tenantOrNil(args.Get(0)), args.Error(1)
}

func (m *TenantManagerMock) MarkProvisioningFailed(ctx context.Context, id int64, summary string) (*Tenant, error) {
	args := m.Called(ctx, id, summary)
	return tenantOrNil(args.Get(0)), args.Error(1)
}

func (m *TenantManagerMock) ExtendSubscription(ctx context.Context, id int64, days int, today time.Time) (*Tenant, error) {
	args := m.Called(ctx, id, days, today)
	return tenantOrNil(args.Get(0)), args.Error(1)
}

func (m *TenantManagerMock) DeleteTenant(ctx context.Context, id int64) (*Tenant, error) {
	args := m.Called(ctx, id)
	return tenantOrNil(args.Get(0)), args.Error(1)
}

func (m *TenantManagerMock) ListOrphanedDatabases(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *TenantManagerMock) IsDatabaseRegistered(ctx context.Context, databaseName string) (bool, error) {
	args := m.Called(ctx, databaseName)
	return args.Bool(0), args.Error(1)
}

func tenantOrNil(v interface{}) *Tenant {
	if v == nil {
		return nil
	}
	return v.(*Tenant)
}

type ConnectionProviderMock struct {
	mock.Mock
}

var _ ConnectionProvider = (*ConnectionProviderMock)(nil)

func (m *ConnectionProviderMock) DatabaseNameFor(tenantID string) string {
	return m.Called(tenantID).String(0)
}

func (m *ConnectionProviderMock) MainDSN() string {
	return m.Called().String(0)
}

func (m *ConnectionProviderMock) ConnectionForMain(ctx context.Context) (db.DBConnectionPool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(db.DBConnectionPool), args.Error(1)
}

func (m *ConnectionProviderMock) ConnectionForTenant(ctx context.Context, tenantID string) (db.DBConnectionPool, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(db.DBConnectionPool), args.Error(1)
}

func (m *ConnectionProviderMock) GetDataSource(ctx context.Context) (db.DBConnectionPool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(db.DBConnectionPool), args.Error(1)
}

func (m *ConnectionProviderMock) Evict(databaseName string) {
	m.Called(databaseName)
}

func (m *ConnectionProviderMock) Close() error {
	return m.Called().Error(0)
}
