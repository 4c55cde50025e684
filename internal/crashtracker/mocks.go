package crashtracker

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockCrashTrackerClient is a testify mock of CrashTrackerClient. Clone returns the mock itself unless the test sets
// another return value.
type MockCrashTrackerClient struct {
	mock.Mock
}

func (m *MockCrashTrackerClient) LogAndReportErrors(ctx context.Context, err error, msg string) {
	m.Called(ctx, err, msg)
}

func (m *MockCrashTrackerClient) LogAndReportMessages(ctx context.Context, msg string) {
	m.Called(ctx, msg)
}

func (m *MockCrashTrackerClient) FlushEvents(waitTime time.Duration) bool {
	return m.Called(waitTime).Bool(0)
}

func (m *MockCrashTrackerClient) Recover() {
	m.Called()
}

func (m *MockCrashTrackerClient) Clone() CrashTrackerClient {
	args := m.Called()
	if len(args) > 0 {
		if clone, ok := args.Get(0).(CrashTrackerClient); ok {
			return clone
		}
	}
	return m
}

var _ CrashTrackerClient = (*MockCrashTrackerClient)(nil)
