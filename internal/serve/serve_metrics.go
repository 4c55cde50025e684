package serve

import (
	"fmt"
	"time"

	"github.com/go-chi/chi/v5"
	supporthttp "github.com/stellar/go-stellar-sdk/support/http"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/72mo2c/pero-system-sub002/internal/monitor"
)

type MetricsServeOptions struct {
	Port        int
	Environment string

	MonitorService monitor.MonitorServiceInterface
}

// MetricsServe exposes /metrics on its own port, so it can stay off the public admin listener.
func MetricsServe(opts MetricsServeOptions, httpServer HTTPServerInterface) error {
	handler, err := handleMetricsHTTP(opts)
	if err != nil {
		return fmt.Errorf("setting up the metrics handler: %w", err)
	}

	metricType, err := opts.MonitorService.GetMetricType()
	if err != nil {
		return fmt.Errorf("getting the metric type: %w", err)
	}

	metricsAddr := fmt.Sprintf(":%d", opts.Port)
	httpServer.Run(supporthttp.Config{
		ListenAddr:   metricsAddr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  2 * time.Minute,
		OnStarting: func() {
			log.Infof("Starting %s metrics server", metricType)
			log.Infof("Listening on %s", metricsAddr)
		},
		OnStopping: func() {
			log.Infof("Stopping %s metrics server", metricType)
		},
	})
	return nil
}

func handleMetricsHTTP(opts MetricsServeOptions) (*chi.Mux, error) {
	metricHTTPHandler, err := opts.MonitorService.GetMetricHttpHandler()
	if err != nil {
		return nil, fmt.Errorf("getting metric http.Handler: %w", err)
	}

	mux := chi.NewMux()
	mux.Handle("/metrics", metricHTTPHandler)
	return mux, nil
}
