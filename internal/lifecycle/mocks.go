package lifecycle

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/72mo2c/pero-system-sub002/internal/tenant"
)

type LifecycleManagerMock struct {
	mock.Mock
}

var _ ManagerInterface = (*LifecycleManagerMock)(nil)

func (m *LifecycleManagerMock) SubmitTenant(ctx context.Context, actor string, ti *tenant.TenantInsert, approveImmediately bool) (*ApprovalResult, error) {
	args := m.Called(ctx, actor, ti, approveImmediately)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ApprovalResult), args.Error(1)
}

func (m *LifecycleManagerMock) ApproveTenant(ctx context.Context, actor string, id int64) (*ApprovalResult, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ApprovalResult), args.Error(1)
}

func (m *LifecycleManagerMock) ToggleActive(ctx context.Context, actor string, id int64) (*tenant.Tenant, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *LifecycleManagerMock) ExtendSubscription(ctx context.Context, actor string, id int64, days int) (*tenant.Tenant, error) {
	args := m.Called(ctx, actor, id, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *LifecycleManagerMock) CancelTenant(ctx context.Context, actor string, id int64) (*tenant.Tenant, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *LifecycleManagerMock) DeleteTenant(ctx context.Context, actor string, id int64) (*tenant.Tenant, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *LifecycleManagerMock) PurgeTenantDatabase(ctx context.Context, actor string, databaseName string) error {
	return m.Called(ctx, actor, databaseName).Error(0)
}
