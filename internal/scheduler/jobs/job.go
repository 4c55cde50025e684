package jobs

import (
	"context"
	"time"
)

const DefaultMinimumJobIntervalSeconds = 5

// SchedulerActor is the actor recorded in the activity log for changes made by scheduled jobs.
const SchedulerActor = "scheduler"

// Job is a task run periodically by the scheduler. Multi-tenant jobs run once per provisioned tenant, with that tenant
// saved in the context.
type Job interface {
	Execute(context.Context) error
	GetInterval() time.Duration
	GetName() string
	IsJobMultiTenant() bool
}

func intervalOrMinimum(intervalSeconds int) time.Duration {
	if intervalSeconds < DefaultMinimumJobIntervalSeconds {
		intervalSeconds = DefaultMinimumJobIntervalSeconds
	}
	return time.Duration(intervalSeconds) * time.Second
}
