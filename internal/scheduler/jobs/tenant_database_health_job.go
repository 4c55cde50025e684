package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/72mo2c/pero-system-sub002/internal/monitor"
	"github.com/72mo2c/pero-system-sub002/internal/tenant"
)

const tenantDatabaseHealthJobName = "tenant_database_health_job"

type TenantDatabaseHealthJobOptions struct {
	ConnectionProvider tenant.ConnectionProvider
	MonitorService     monitor.MonitorServiceInterface
	JobIntervalSeconds int
}

// tenantDatabaseHealthJob pings the database of the tenant found in the context.
type tenantDatabaseHealthJob struct {
	provider       tenant.ConnectionProvider
	monitorService monitor.MonitorServiceInterface
	interval       int
}

func NewTenantDatabaseHealthJob(opts TenantDatabaseHealthJobOptions) (Job, error) {
	if opts.ConnectionProvider == nil {
		return nil, fmt.Errorf("connection provider cannot be nil")
	}
	if opts.MonitorService == nil {
		return nil, fmt.Errorf("monitor service cannot be nil")
	}

	return &tenantDatabaseHealthJob{
		provider:       opts.ConnectionProvider,
		monitorService: opts.MonitorService,
		interval:       opts.JobIntervalSeconds,
	}, nil
}

func (j *tenantDatabaseHealthJob) Execute(ctx context.Context) error {
	err := j.ping(ctx)

	result := monitor.SuccessResult
	if err != nil {
		result = monitor.FailureResult
	}
	if metricErr := j.monitorService.MonitorCounters(monitor.TenantDatabaseHealthChecksTag, map[string]string{"result": result}); metricErr != nil {
		log.Ctx(ctx).Errorf("monitoring tenant database health check: %v", metricErr)
	}

	return err
}

func (j *tenantDatabaseHealthJob) ping(ctx context.Context) error {
	t, err := tenant.GetTenantFromContext(ctx)
	if err != nil {
		return fmt.Errorf("getting tenant from context: %w", err)
	}

	pool, err := j.provider.GetDataSource(ctx)
	if err != nil {
		return fmt.Errorf("connecting to the database of tenant %s: %w", t.TenantID, err)
	}

	if err = pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging the database of tenant %s: %w", t.TenantID, err)
	}
	return nil
}

func (j *tenantDatabaseHealthJob) GetInterval() time.Duration {
	return intervalOrMinimum(j.interval)
}

func (j *tenantDatabaseHealthJob) GetName() string {
	return tenantDatabaseHealthJobName
}

func (j *tenantDatabaseHealthJob) IsJobMultiTenant() bool {
	return true
}

var _ Job = (*tenantDatabaseHealthJob)(nil)
