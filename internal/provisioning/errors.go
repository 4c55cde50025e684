package provisioning

import (
	"errors"
	"fmt"
)

var (
	ErrCreateDatabaseFailed        = errors.New("creating tenant database failed")
	ErrConnectTenantDatabaseFailed = errors.New("connecting to tenant database failed")
	ErrApplySchemaFailed           = errors.New("applying tenant schema failed")
	ErrInvalidDatabaseName         = errors.New("database name is outside the tenant database namespace")
	ErrInvalidTenantID             = errors.New("tenant ID cannot name a tenant database")
)

type Step string

const (
	ValidateStep       Step = "validate"
	CreateDatabaseStep Step = "create_database"
	ConnectStep        Step = "connect"
	ApplySchemaStep    Step = "apply_schema"
	VerifySchemaStep   Step = "verify_schema"
)

// sentinel is the error every failure of the step wraps.
func (s Step) sentinel() error {
	switch s {
	case ValidateStep:
		return ErrInvalidTenantID
	case CreateDatabaseStep:
		return ErrCreateDatabaseFailed
	case ConnectStep:
		return ErrConnectTenantDatabaseFailed
	default:
		return ErrApplySchemaFailed
	}
}

// ProvisioningError reports the step at which provisioning a tenant database stopped. Steps already completed are
// not rolled back, so calling Provision again resumes the work.
type ProvisioningError struct {
	TenantID string
	Step     Step
	// Retryable is false when running the same step again cannot succeed without operator action.
	Retryable bool
	Err       error
}

func newProvisioningError(tenantID string, step Step, cause error) *ProvisioningError {
	return &ProvisioningError{
		TenantID:  tenantID,
		Step:      step,
		Retryable: isRetryable(cause),
		Err:       fmt.Errorf("%w: %w", step.sentinel(), cause),
	}
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning tenant %s failed at step %s: %v", e.TenantID, e.Step, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// Summary describes the failure without driver details, so it can be stored in the registry and shown to operators.
func (e *ProvisioningError) Summary() string {
	summary := fmt.Sprintf("%s (step %s)", e.Step.sentinel(), e.Step)
	if !e.Retryable && e.Step != ValidateStep {
		summary += ", the database server refused the operation"
	}
	return summary
}
