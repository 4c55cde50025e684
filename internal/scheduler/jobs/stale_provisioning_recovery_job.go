package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/72mo2c/pero-system-sub002/internal/activitylog"
	"github.com/72mo2c/pero-system-sub002/internal/tenant"
)

const (
	staleProvisioningRecoveryJobName = "stale_provisioning_recovery_job"
	interruptedProvisioningSummary   = "provisioning was interrupted before it finished, approve the tenant again to retry"
)

type StaleProvisioningRecoveryJobOptions struct {
	Registry       tenant.ManagerInterface
	ActivityLogger activitylog.LoggerInterface
	// StaleAfter is how long a tenant can stay in provisioning before it is considered abandoned.
	StaleAfter         time.Duration
	JobIntervalSeconds int
	Now                func() time.Time
}

// staleProvisioningRecoveryJob moves the tenants left in provisioning by a crashed process back to pending, so they
// show up as failed approvals instead of staying in progress forever.
type staleProvisioningRecoveryJob struct {
	registry       tenant.ManagerInterface
	activityLogger activitylog.LoggerInterface
	staleAfter     time.Duration
	interval       time.Duration
	now            func() time.Time
}

func NewStaleProvisioningRecoveryJob(opts StaleProvisioningRecoveryJobOptions) (Job, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if opts.ActivityLogger == nil {
		return nil, fmt.Errorf("activity logger cannot be nil")
	}
	if opts.StaleAfter <= 0 {
		return nil, fmt.Errorf("stale after must be positive")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &staleProvisioningRecoveryJob{
		registry:       opts.Registry,
		activityLogger: opts.ActivityLogger,
		staleAfter:     opts.StaleAfter,
		interval:       intervalOrMinimum(opts.JobIntervalSeconds),
		now:            opts.Now,
	}, nil
}

func (j *staleProvisioningRecoveryJob) Execute(ctx context.Context) error {
	inProgress, err := tenant.ListAllTenants(ctx, j.registry, map[tenant.FilterKey]interface{}{
		tenant.FilterKeyStatus: tenant.ProvisioningTenantStatus,
	})
	if err != nil {
		return fmt.Errorf("listing tenants in provisioning: %w", err)
	}

	var errs []error
	for _, t := range inProgress {
		if j.now().Sub(t.UpdatedAt) < j.staleAfter {
			continue
		}

		if _, err := j.registry.MarkProvisioningFailed(ctx, t.ID, interruptedProvisioningSummary); err != nil {
			if errors.Is(err, tenant.ErrStatusConflict) {
				log.Ctx(ctx).Debugf("tenant %s left provisioning while being recovered", t.TenantID)
				continue
			}
			errs = append(errs, fmt.Errorf("recovering tenant %s: %w", t.TenantID, err))
			continue
		}

		j.activityLogger.Record(ctx, SchedulerActor, activitylog.TenantProvisioningFailedAction, t.TenantID, activitylog.Details{
			"summary":          interruptedProvisioningSummary,
			"provisioning_for": j.now().Sub(t.UpdatedAt).Round(time.Second).String(),
		})
		log.Ctx(ctx).Warnf("tenant %s was stuck in provisioning since %s and was moved back to pending", t.TenantID, t.UpdatedAt.Format(time.RFC3339))
	}

	return errors.Join(errs...)
}

func (j *staleProvisioningRecoveryJob) GetInterval() time.Duration {
	return j.interval
}

func (j *staleProvisioningRecoveryJob) GetName() string {
	return staleProvisioningRecoveryJobName
}

func (j *staleProvisioningRecoveryJob) IsJobMultiTenant() bool {
	return false
}

var _ Job = (*staleProvisioningRecoveryJob)(nil)
