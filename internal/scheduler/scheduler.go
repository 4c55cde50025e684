package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/72mo2c/pero-system-sub002/internal/crashtracker"
	"github.com/72mo2c/pero-system-sub002/internal/monitor"
	"github.com/72mo2c/pero-system-sub002/internal/scheduler/jobs"
	"github.com/72mo2c/pero-system-sub002/internal/tenant"
)

// Scheduler manages a list of jobs and executes them at their specified intervals.
// It uses a job queue to distribute jobs to workers.
type Scheduler struct {
	jobs               map[string]jobs.Job
	cancel             context.CancelFunc
	crashTrackerClient crashtracker.CrashTrackerClient
	registry           tenant.ManagerInterface
	monitorService     monitor.MonitorServiceInterface
	jobQueue           chan jobs.Job
	// enqueuedJobs keeps a job from being enqueued again while it is still waiting or running.
	enqueuedJobs sync.Map
	workers      sync.WaitGroup
}

type SchedulerOptions struct {
	Registry           tenant.ManagerInterface
	CrashTrackerClient crashtracker.CrashTrackerClient
	MonitorService     monitor.MonitorServiceInterface
}

type SchedulerJobRegisterOption func(*Scheduler)

// SchedulerWorkerCount is the number of workers that will be started to process jobs
const SchedulerWorkerCount = 3

// StartScheduler registers the jobs and runs them until ctx is cancelled. This method blocks until the workers stopped.
func StartScheduler(ctx context.Context, opts SchedulerOptions, schedulerJobRegisters ...SchedulerJobRegisterOption) {
	// Call crash tracker FlushEvents to flush buffered events before the scheduler terminates
	defer opts.CrashTrackerClient.FlushEvents(2 * time.Second)
	// Call crash tracker Recover for recover from unhandled panics
	defer opts.CrashTrackerClient.Recover()

	ctx, cancel := context.WithCancel(ctx)
	scheduler := newScheduler(cancel)
	scheduler.crashTrackerClient = opts.CrashTrackerClient
	scheduler.registry = opts.Registry
	scheduler.monitorService = opts.MonitorService

	for _, schedulerJobRegister := range schedulerJobRegisters {
		schedulerJobRegister(scheduler)
	}

	scheduler.start(ctx)

	<-ctx.Done()
	scheduler.stop()
	scheduler.workers.Wait()
}

// newScheduler creates a new scheduler.
func newScheduler(cancel context.CancelFunc) *Scheduler {
	return &Scheduler{
		jobs:     make(map[string]jobs.Job),
		cancel:   cancel,
		jobQueue: make(chan jobs.Job),
	}
}

// addJob adds a job to the scheduler. This method does not start the job. To start the job, call start().
func (s *Scheduler) addJob(job jobs.Job) {
	log.Infof("registering job to scheduler [name: %s], [interval: %s], [isMultiTenant: %t]",
		job.GetName(), job.GetInterval(), job.IsJobMultiTenant())
	s.jobs[job.GetName()] = job
}

// start starts the workers and one ticker per job.
func (s *Scheduler) start(ctx context.Context) {
	if len(s.jobs) == 0 {
		log.Ctx(ctx).Info("No jobs to start")
		s.stop()
		return
	}
	log.Ctx(ctx).Infof("Starting scheduler with %d workers...", SchedulerWorkerCount)

	for i := 1; i <= SchedulerWorkerCount; i++ {
		s.workers.Add(1)
		go func(workerID int, crashTrackerClient crashtracker.CrashTrackerClient) {
			defer s.workers.Done()
			s.worker(ctx, workerID, crashTrackerClient)
		}(i, s.crashTrackerClient.Clone())
	}

	for _, job := range s.jobs {
		go func(job jobs.Job) {
			ticker := time.NewTicker(job.GetInterval())
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					s.enqueue(ctx, job)
				case <-ctx.Done():
					return
				}
			}
		}(job)
	}
}

func (s *Scheduler) enqueue(ctx context.Context, job jobs.Job) {
	jobName := job.GetName()
	if _, alreadyEnqueued := s.enqueuedJobs.LoadOrStore(jobName, true); alreadyEnqueued {
		log.Ctx(ctx).Debugf("Skipping job %s, already in queue", jobName)
		return
	}

	log.Ctx(ctx).Debugf("Enqueuing job: %s", jobName)
	select {
	case s.jobQueue <- job:
	case <-ctx.Done():
		s.enqueuedJobs.Delete(jobName)
	}
}

// stop uses the context to stop the scheduler and all jobs.
func (s *Scheduler) stop() {
	log.Info("Stopping scheduler...")
	s.cancel()
}

// worker processes jobs from the job queue.
func (s *Scheduler) worker(ctx context.Context, workerID int, crashTrackerClient crashtracker.CrashTrackerClient) {
	for {
		select {
		case job := <-s.jobQueue:
			s.executeJob(ctx, job, workerID, crashTrackerClient)
			s.enqueuedJobs.Delete(job.GetName())
		case <-ctx.Done():
			log.Ctx(ctx).Infof("Worker %d stopping...", workerID)
			return
		}
	}
}

// executeJob executes a job and reports any errors to the crash tracker. Multi-tenant jobs run once per provisioned
// tenant, with the tenant saved in the context.
func (s *Scheduler) executeJob(ctx context.Context, job jobs.Job, workerID int, crashTrackerClient crashtracker.CrashTrackerClient) {
	defer func() {
		if r := recover(); r != nil {
			crashTrackerClient.LogAndReportErrors(ctx, fmt.Errorf("panic: %v", r), fmt.Sprintf("job %s panicked on worker %d", job.GetName(), workerID))
			s.monitorJob(ctx, job, monitor.FailureResult)
		}
	}()

	if !job.IsJobMultiTenant() {
		log.Ctx(ctx).Debugf("Processing job %s on worker %d", job.GetName(), workerID)
		if err := job.Execute(ctx); err != nil {
			crashTrackerClient.LogAndReportErrors(ctx, err, fmt.Sprintf("error processing job %s on worker %d", job.GetName(), workerID))
			s.monitorJob(ctx, job, monitor.FailureResult)
			return
		}
		s.monitorJob(ctx, job, monitor.SuccessResult)
		return
	}

	tenants, err := tenant.ListProvisionedTenants(ctx, s.registry)
	if err != nil {
		crashTrackerClient.LogAndReportErrors(ctx, err, fmt.Sprintf("error getting provisioned tenants for job %s on worker %d", job.GetName(), workerID))
		s.monitorJob(ctx, job, monitor.FailureResult)
		return
	}

	result := monitor.SuccessResult
	for _, t := range tenants {
		log.Ctx(ctx).Debugf("Processing job %s for tenant %s on worker %d", job.GetName(), t.TenantID, workerID)
		tenantCtx := tenant.SaveTenantInContext(ctx, &t)
		if err = job.Execute(tenantCtx); err != nil {
			crashTrackerClient.LogAndReportErrors(tenantCtx, err, fmt.Sprintf("error processing job %s for tenant %s on worker %d", job.GetName(), t.TenantID, workerID))
			result = monitor.FailureResult
		}
	}
	s.monitorJob(ctx, job, result)
}

func (s *Scheduler) monitorJob(ctx context.Context, job jobs.Job, result string) {
	if s.monitorService == nil {
		return
	}
	labels := monitor.SchedulerJobLabels{Job: job.GetName(), Result: result}.ToMap()
	if err := s.monitorService.MonitorCounters(monitor.SchedulerJobExecutionsTag, labels); err != nil {
		log.Ctx(ctx).Errorf("monitoring execution of job %s: %v", job.GetName(), err)
	}
}

func WithStaleProvisioningRecoveryJob(opts jobs.StaleProvisioningRecoveryJobOptions) SchedulerJobRegisterOption {
	return func(s *Scheduler) {
		j, err := jobs.NewStaleProvisioningRecoveryJob(opts)
		if err != nil {
			log.Errorf("error creating stale provisioning recovery job: %v", err)
			return
		}
		s.addJob(j)
	}
}

func WithTenantDatabaseHealthJob(opts jobs.TenantDatabaseHealthJobOptions) SchedulerJobRegisterOption {
	return func(s *Scheduler) {
		j, err := jobs.NewTenantDatabaseHealthJob(opts)
		if err != nil {
			log.Errorf("error creating tenant database health job: %v", err)
			return
		}
		s.addJob(j)
	}
}
