package monitor

import (
	"net/http"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockMonitorService is a testify mock of MonitorServiceInterface. Tests that only care about the code under test
// usually stub every metric call with ExpectAnyMetrics.
type MockMonitorService struct {
	mock.Mock
}

// NewMockMonitorService creates a MockMonitorService whose expectations are asserted when the test ends.
func NewMockMonitorService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockMonitorService {
	m := &MockMonitorService{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// ExpectAnyMetrics accepts any number of counter, duration and histogram calls.
func (m *MockMonitorService) ExpectAnyMetrics() *MockMonitorService {
	m.On("MonitorCounters", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("MonitorDuration", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("MonitorHistogram", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return m
}

func (m *MockMonitorService) Start(opts MetricOptions) error {
	return m.Called(opts).Error(0)
}

func (m *MockMonitorService) GetMetricType() (MetricType, error) {
	args := m.Called()
	metricType, _ := args.Get(0).(MetricType)
	return metricType, args.Error(1)
}

func (m *MockMonitorService) GetMetricHttpHandler() (http.Handler, error) {
	args := m.Called()
	handler, _ := args.Get(0).(http.Handler)
	return handler, args.Error(1)
}

func (m *MockMonitorService) MonitorHttpRequestDuration(duration time.Duration, labels HTTPRequestLabels) error {
	return m.Called(duration, labels).Error(0)
}

func (m *MockMonitorService) MonitorDBQueryDuration(duration time.Duration, tag MetricTag, labels DBQueryLabels) error {
	return m.Called(duration, tag, labels).Error(0)
}

func (m *MockMonitorService) MonitorCounters(tag MetricTag, labels map[string]string) error {
	return m.Called(tag, labels).Error(0)
}

func (m *MockMonitorService) MonitorDuration(duration time.Duration, tag MetricTag, labels map[string]string) error {
	return m.Called(duration, tag, labels).Error(0)
}

func (m *MockMonitorService) MonitorHistogram(value float64, tag MetricTag, labels map[string]string) error {
	return m.Called(value, tag, labels).Error(0)
}

var _ MonitorServiceInterface = (*MockMonitorService)(nil)
