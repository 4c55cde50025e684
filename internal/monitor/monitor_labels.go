package monitor

type HTTPRequestLabels struct {
	Status string
	Route  string
	Method string
}

type DBQueryLabels struct {
	QueryType string
}

type TenantLifecycleLabels struct {
	Action string
	Result string
}

func (l TenantLifecycleLabels) ToMap() map[string]string {
	return map[string]string{
		"action": l.Action,
		"result": l.Result,
	}
}

var TenantLifecycleLabelNames = []string{"action", "result"}

type ProvisioningLabels struct {
	// Step is the provisioning step that failed, empty on success.
	Step   string
	Result string
}

func (l ProvisioningLabels) ToMap() map[string]string {
	return map[string]string{
		"step":   l.Step,
		"result": l.Result,
	}
}

var ProvisioningLabelNames = []string{"step", "result"}

type MessageLabels struct {
	Provider string
	Status   string
}

func (l MessageLabels) ToMap() map[string]string {
	return map[string]string{
		"provider": l.Provider,
		"status":   l.Status,
	}
}

var MessageLabelNames = []string{"provider", "status"}

type SchedulerJobLabels struct {
	Job    string
	Result string
}

func (l SchedulerJobLabels) ToMap() map[string]string {
	return map[string]string{
		"job":    l.Job,
		"result": l.Result,
	}
}

var SchedulerJobLabelNames = []string{"job", "result"}

var TenantDatabaseHealthLabelNames = []string{"result"}

const (
	SuccessResult = "success"
	FailureResult = "failure"
)
