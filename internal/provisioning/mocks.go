package provisioning

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type ExecutorMock struct {
	mock.Mock
}

func (m *ExecutorMock) Provision(ctx context.Context, tenantID string) error {
	return m.Called(ctx, tenantID).Error(0)
}

func (m *ExecutorMock) DropDatabase(ctx context.Context, databaseName string) error {
	return m.Called(ctx, databaseName).Error(0)
}

var _ ExecutorInterface = (*ExecutorMock)(nil)
