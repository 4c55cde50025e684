package activitylog

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type LoggerMock struct {
	mock.Mock
}

func (m *LoggerMock) Record(ctx context.Context, actor string, action Action, tenantID string, details Details) {
	m.Called(ctx, actor, action, tenantID, details)
}

func (m *LoggerMock) List(ctx context.Context, qp *QueryParams) (*EntriesPage, error) {
	args := m.Called(ctx, qp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*EntriesPage), args.Error(1)
}

var _ LoggerInterface = (*LoggerMock)(nil)
