package monitor

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

// MetricType selects the backend the metrics are exported to.
type MetricType string

const MetricTypePrometheus MetricType = "PROMETHEUS"

func MetricTypes() []MetricType {
	return []MetricType{MetricTypePrometheus}
}

func ParseMetricType(metricTypeStr string) (MetricType, error) {
	mType := MetricType(strings.ToUpper(strings.TrimSpace(metricTypeStr)))
	if !slices.Contains(MetricTypes(), mType) {
		return "", fmt.Errorf("invalid metric type %q, valid values are %v", mType, MetricTypes())
	}
	return mType, nil
}

// MetricOptions configure the monitor client. A non-empty Environment is exported on every series as the
// `environment` label, so several deployments can share one Prometheus.
type MetricOptions struct {
	MetricType  MetricType
	Environment string
}

//go:generate mockery --name=MonitorClient --case=underscore --structname=MockMonitorClient
type MonitorClient interface {
	GetMetricHttpHandler() http.Handler
	GetMetricType() MetricType
	MonitorHttpRequestDuration(duration time.Duration, labels HTTPRequestLabels)
	MonitorDBQueryDuration(duration time.Duration, tag MetricTag, labels DBQueryLabels)
	MonitorCounters(tag MetricTag, labels map[string]string)
	MonitorDuration(duration time.Duration, tag MetricTag, labels map[string]string)
	MonitorHistogram(value float64, tag MetricTag, labels map[string]string)
}

func GetClient(opts MetricOptions) (MonitorClient, error) {
	switch opts.MetricType {
	case MetricTypePrometheus:
		return NewPrometheusClient(opts.Environment)
	default:
		return nil, fmt.Errorf("unsupported metric type %q", opts.MetricType)
	}
}
