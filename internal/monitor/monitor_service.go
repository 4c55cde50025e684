package monitor

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrClientNotInitialized = errors.New("client was not initialized")

//go:generate mockery --name=MonitorServiceInterface --case=underscore --structname=MockMonitorService
type MonitorServiceInterface interface {
	Start(opts MetricOptions) error
	GetMetricType() (MetricType, error)
	GetMetricHttpHandler() (http.Handler, error)
	MonitorHttpRequestDuration(duration time.Duration, labels HTTPRequestLabels) error
	MonitorDBQueryDuration(duration time.Duration, tag MetricTag, labels DBQueryLabels) error
	MonitorCounters(tag MetricTag, labels map[string]string) error
	MonitorDuration(duration time.Duration, tag MetricTag, labels map[string]string) error
	MonitorHistogram(value float64, tag MetricTag, labels map[string]string) error
}

var _ MonitorServiceInterface = (*MonitorService)(nil)

type MonitorService struct {
	monitorClient MonitorClient
}

func (m *MonitorService) Start(opts MetricOptions) error {
	if m.monitorClient != nil {
		return fmt.Errorf("service already initialized")
	}

	monitorClient, err := GetClient(opts)
	if err != nil {
		return fmt.Errorf("error creating monitor client: %w", err)
	}

	m.monitorClient = monitorClient

	return nil
}

// withClient runs fn against the client, or returns ErrClientNotInitialized before Start.
func (m *MonitorService) withClient(fn func(c MonitorClient)) error {
	if m.monitorClient == nil {
		return ErrClientNotInitialized
	}
	fn(m.monitorClient)
	return nil
}

func (m *MonitorService) GetMetricType() (MetricType, error) {
	var metricType MetricType
	err := m.withClient(func(c MonitorClient) { metricType = c.GetMetricType() })
	return metricType, err
}

func (m *MonitorService) GetMetricHttpHandler() (http.Handler, error) {
	var handler http.Handler
	err := m.withClient(func(c MonitorClient) { handler = c.GetMetricHttpHandler() })
	return handler, err
}

func (m *MonitorService) MonitorHttpRequestDuration(duration time.Duration, labels HTTPRequestLabels) error {
	return m.withClient(func(c MonitorClient) { c.MonitorHttpRequestDuration(duration, labels) })
}

func (m *MonitorService) MonitorDBQueryDuration(duration time.Duration, tag MetricTag, labels DBQueryLabels) error {
	return m.withClient(func(c MonitorClient) { c.MonitorDBQueryDuration(duration, tag, labels) })
}

func (m *MonitorService) MonitorDuration(duration time.Duration, tag MetricTag, labels map[string]string) error {
	return m.withClient(func(c MonitorClient) { c.MonitorDuration(duration, tag, labels) })
}

func (m *MonitorService) MonitorHistogram(value float64, tag MetricTag, labels map[string]string) error {
	return m.withClient(func(c MonitorClient) { c.MonitorHistogram(value, tag, labels) })
}

func (m *MonitorService) MonitorCounters(tag MetricTag, labels map[string]string) error {
	return m.withClient(func(c MonitorClient) { c.MonitorCounters(tag, labels) })
}
