package monitor

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stellar/go-stellar-sdk/support/log"
)

type prometheusClient struct {
	httpHandler http.Handler
}

func (prometheusClient) GetMetricType() MetricType {
	return MetricTypePrometheus
}

func (p *prometheusClient) GetMetricHttpHandler() http.Handler {
	return p.httpHandler
}

func (p *prometheusClient) MonitorHttpRequestDuration(duration time.Duration, labels HTTPRequestLabels) {
	SummaryVecMetrics[HTTPRequestDurationTag].With(prometheus.Labels{
		"status": labels.Status,
		"route":  labels.Route,
		"method": labels.Method,
	}).Observe(duration.Seconds())
}

func (p *prometheusClient) MonitorDBQueryDuration(duration time.Duration, tag MetricTag, labels DBQueryLabels) {
	p.MonitorDuration(duration, tag, map[string]string{"query_type": labels.QueryType})
}

func (p *prometheusClient) MonitorDuration(duration time.Duration, tag MetricTag, labels map[string]string) {
	summary, ok := SummaryVecMetrics[tag]
	if !ok {
		log.Errorf("metric not registered in Prometheus SummaryVecMetrics: %s", tag)
		return
	}
	summary.With(labels).Observe(duration.Seconds())
}

func (p *prometheusClient) MonitorCounters(tag MetricTag, labels map[string]string) {
	if len(labels) != 0 {
		if counterVecMetric, ok := CounterVecMetrics[tag]; ok {
			counterVecMetric.With(labels).Inc()
		} else {
			log.Errorf("metric not registered in Prometheus CounterVecMetrics: %s", tag)
		}
	} else {
		if counterMetric, ok := CounterMetrics[tag]; ok {
			counterMetric.Inc()
		} else {
			log.Errorf("metric not registered in Prometheus CounterMetrics: %s", tag)
		}
	}
}

func (p *prometheusClient) MonitorHistogram(value float64, tag MetricTag, labels map[string]string) {
	histogram, ok := HistogramVecMetrics[tag]
	if !ok {
		log.Errorf("metric not registered in Prometheus HistogramVecMetrics: %s", tag)
		return
	}
	histogram.With(labels).Observe(value)
}

// NewPrometheusClient registers every known metric, plus the Go runtime and process collectors, in a registry of its
// own, so creating more than one client never panics on duplicate registration. A non-empty environment becomes a
// constant `environment` label on every series.
func NewPrometheusClient(environment string) (*prometheusClient, error) {
	metricsRegistry := prometheus.NewRegistry()

	var registerer prometheus.Registerer = metricsRegistry
	if environment != "" {
		registerer = prometheus.WrapRegistererWith(prometheus.Labels{"environment": environment}, metricsRegistry)
	}

	metrics := PrometheusMetrics()
	var metricTag MetricTag
	for _, tag := range metricTag.ListAll() {
		collector, ok := metrics[tag]
		if !ok {
			return nil, fmt.Errorf("metric not registered in prometheus metrics: %s", tag)
		}
		if err := registerer.Register(collector); err != nil {
			return nil, fmt.Errorf("registering metric %s: %w", tag, err)
		}
	}

	runtimeCollectors := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: metricsNamespace}),
	}
	for _, c := range runtimeCollectors {
		if err := registerer.Register(c); err != nil {
			return nil, fmt.Errorf("registering runtime collector: %w", err)
		}
	}

	return &prometheusClient{httpHandler: promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{})}, nil
}

var _ MonitorClient = (*prometheusClient)(nil)
