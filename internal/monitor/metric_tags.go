package monitor

type MetricTag string

const (
	SuccessfulQueryDurationTag MetricTag = "successful_queries_duration"
	FailureQueryDurationTag    MetricTag = "failure_queries_duration"
	HTTPRequestDurationTag     MetricTag = "requests_duration_seconds"
	// Tenant lifecycle:
	TenantLifecycleEventsTag   MetricTag = "tenant_lifecycle_events_total"
	ProvisioningDurationTag    MetricTag = "tenant_provisioning_duration_seconds"
	ActivityLogWriteFailureTag MetricTag = "activity_log_write_failures_total"
	// Notifications:
	MessageSendDurationTag MetricTag = "message_send_duration_seconds"
	// Scheduler:
	SchedulerJobExecutionsTag     MetricTag = "scheduler_job_executions_total"
	TenantDatabaseHealthChecksTag MetricTag = "tenant_database_health_checks_total"
)

func (m MetricTag) ListAll() []MetricTag {
	return []MetricTag{
		SuccessfulQueryDurationTag,
		FailureQueryDurationTag,
		HTTPRequestDurationTag,
		TenantLifecycleEventsTag,
		ProvisioningDurationTag,
		ActivityLogWriteFailureTag,
		MessageSendDurationTag,
		SchedulerJobExecutionsTag,
		TenantDatabaseHealthChecksTag,
	}
}
