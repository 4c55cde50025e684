package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "wms_admin"

func PrometheusMetrics() map[MetricTag]prometheus.Collector {
	metrics := make(map[MetricTag]prometheus.Collector)

	for tag, summaryVec := range SummaryVecMetrics {
		metrics[tag] = summaryVec
	}

	for tag, counter := range CounterMetrics {
		metrics[tag] = counter
	}

	for tag, histogramVec := range HistogramVecMetrics {
		metrics[tag] = histogramVec
	}

	for tag, counterVec := range CounterVecMetrics {
		metrics[tag] = counterVec
	}

	return metrics
}

var SummaryVecMetrics = map[MetricTag]*prometheus.SummaryVec{
	HTTPRequestDurationTag: prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: metricsNamespace, Subsystem: "http", Name: string(HTTPRequestDurationTag),
		Help: "HTTP requests durations, sliding window = 10m",
	},
		[]string{"status", "route", "method"},
	),
	SuccessfulQueryDurationTag: prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: metricsNamespace, Subsystem: "db", Name: string(SuccessfulQueryDurationTag),
		Help: "Successful DB query durations",
	},
		[]string{"query_type"},
	),
	FailureQueryDurationTag: prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: metricsNamespace, Subsystem: "db", Name: string(FailureQueryDurationTag),
		Help: "Failure DB query durations",
	},
		[]string{"query_type"},
	),
	ProvisioningDurationTag: prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: metricsNamespace, Subsystem: "tenants", Name: string(ProvisioningDurationTag),
		Help: "Tenant database provisioning durations, labelled by the failed step",
	},
		ProvisioningLabelNames,
	),
}

var CounterMetrics = map[MetricTag]prometheus.Counter{
	ActivityLogWriteFailureTag: prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: "audit", Name: string(ActivityLogWriteFailureTag),
		Help: "A counter of the activity log entries that could not be written",
	}),
}

var HistogramVecMetrics = map[MetricTag]*prometheus.HistogramVec{
	MessageSendDurationTag: prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace, Subsystem: "notifications", Name: string(MessageSendDurationTag),
		Help: "A histogram of the notification email send durations",
	},
		MessageLabelNames,
	),
}

var CounterVecMetrics = map[MetricTag]*prometheus.CounterVec{
	TenantLifecycleEventsTag: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: "tenants", Name: string(TenantLifecycleEventsTag),
		Help: "Tenant lifecycle operations by action and result",
	},
		TenantLifecycleLabelNames,
	),
	SchedulerJobExecutionsTag: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: "scheduler", Name: string(SchedulerJobExecutionsTag),
		Help: "Scheduler job executions by job and result",
	},
		SchedulerJobLabelNames,
	),
	TenantDatabaseHealthChecksTag: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: "tenants", Name: string(TenantDatabaseHealthChecksTag),
		Help: "Tenant database health checks by result",
	},
		TenantDatabaseHealthLabelNames,
	),
}
