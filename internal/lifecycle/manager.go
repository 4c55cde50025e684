package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/72mo2c/pero-system-sub002/internal/activitylog"
	"github.com/72mo2c/pero-system-sub002/internal/message"
	"github.com/72mo2c/pero-system-sub002/internal/monitor"
	"github.com/72mo2c/pero-system-sub002/internal/provisioning"
	"github.com/72mo2c/pero-system-sub002/internal/tenant"
	"github.com/72mo2c/pero-system-sub002/internal/utils"
)

const (
	DefaultStaleProvisioningAfter = 15 * time.Minute
	DefaultPlatformName           = "Warehouse Cloud"

	defaultProvisioningFailureSummary = "provisioning failed"
	approvalNotStartedSummary         = "the tenant was saved but its approval could not start"
	failureNotRecordedSummary         = "the failure could not be recorded and the tenant stays in provisioning until the stale claim is recovered"
)

// ApprovalResult is the outcome of submitting or approving a tenant. Degraded is set when the tenant exists but its
// database could not be provisioned. The tenant is usually back in pending with the failure summary stored, and
// approving it again retries the provisioning. A degraded result always comes with a non-nil error.
type ApprovalResult struct {
	Tenant   *tenant.Tenant
	Degraded bool
	// Summary describes why a degraded approval did not finish, without driver details.
	Summary string
}

// FailureSummary returns Summary, falling back to the failure stored on the tenant.
func (r *ApprovalResult) FailureSummary() string {
	if r.Summary != "" {
		return r.Summary
	}
	if r.Tenant != nil && r.Tenant.ProvisioningError != nil {
		return *r.Tenant.ProvisioningError
	}
	return "unknown error"
}

//go:generate mockery --name=ManagerInterface --case=underscore --structname=LifecycleManagerMock
type ManagerInterface interface {
	SubmitTenant(ctx context.Context, actor string, ti *tenant.TenantInsert, approveImmediately bool) (*ApprovalResult, error)
	ApproveTenant(ctx context.Context, actor string, id int64) (*ApprovalResult, error)
	ToggleActive(ctx context.Context, actor string, id int64) (*tenant.Tenant, error)
	ExtendSubscription(ctx context.Context, actor string, id int64, days int) (*tenant.Tenant, error)
	CancelTenant(ctx context.Context, actor string, id int64) (*tenant.Tenant, error)
	DeleteTenant(ctx context.Context, actor string, id int64) (*tenant.Tenant, error)
	PurgeTenantDatabase(ctx context.Context, actor string, databaseName string) error
}

// Manager drives the tenant status changes. Every change is made with a conditional update on the registry, so
// concurrent operators cannot both win the same transition.
type Manager struct {
	registry               tenant.ManagerInterface
	executor               provisioning.ExecutorInterface
	activityLogger         activitylog.LoggerInterface
	monitorService         monitor.MonitorServiceInterface
	messageDispatcher      message.MessageDispatcherInterface
	platformName           string
	staleProvisioningAfter time.Duration
	now                    func() time.Time
}

var _ ManagerInterface = (*Manager)(nil)

type ManagerOptions struct {
	Registry       tenant.ManagerInterface
	Executor       provisioning.ExecutorInterface
	ActivityLogger activitylog.LoggerInterface
	MonitorService monitor.MonitorServiceInterface
	// MessageDispatcher is optional. When set, the tenant contact is notified once the tenant is active, by email or
	// by SMS when the email cannot be delivered.
	MessageDispatcher message.MessageDispatcherInterface
	PlatformName      string
	// StaleProvisioningAfter is how long a tenant can stay in provisioning before another approval may take it over.
	StaleProvisioningAfter time.Duration
	Now                    func() time.Time
}

func NewManager(opts ManagerOptions) (*Manager, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("tenant registry cannot be nil")
	}

	if opts.Executor == nil {
		return nil, fmt.Errorf("provisioning executor cannot be nil")
	}

	if opts.ActivityLogger == nil {
		return nil, fmt.Errorf("activity logger cannot be nil")
	}

	if opts.MonitorService == nil {
		return nil, fmt.Errorf("monitor service cannot be nil")
	}

	m := &Manager{
		registry:               opts.Registry,
		executor:               opts.Executor,
		activityLogger:         opts.ActivityLogger,
		monitorService:         opts.MonitorService,
		messageDispatcher:      opts.MessageDispatcher,
		platformName:           opts.PlatformName,
		staleProvisioningAfter: opts.StaleProvisioningAfter,
		now:                    opts.Now,
	}
	if m.platformName == "" {
		m.platformName = DefaultPlatformName
	}
	if m.staleProvisioningAfter <= 0 {
		m.staleProvisioningAfter = DefaultStaleProvisioningAfter
	}
	if m.now == nil {
		m.now = time.Now
	}

	return m, nil
}

// SubmitTenant registers a tenant in pending and, when approveImmediately is set, approves it right away.
func (m *Manager) SubmitTenant(ctx context.Context, actor string, ti *tenant.TenantInsert, approveImmediately bool) (*ApprovalResult, error) {
	if ti == nil {
		return nil, fmt.Errorf("tenant insert cannot be nil")
	}
	ti.CreatedBy = actor

	t, err := m.registry.CreateTenant(ctx, ti)
	if err != nil {
		m.countEvent(ctx, SubmitAction, err)
		return nil, fmt.Errorf("creating tenant: %w", err)
	}
	m.countEvent(ctx, SubmitAction, nil)

	m.activityLogger.Record(ctx, actor, activitylog.TenantCreatedAction, t.TenantID, activitylog.Details{
		"company_name":      t.CompanyName,
		"subscription_plan": t.SubscriptionPlan,
		"database_name":     t.DatabaseName,
	})
	log.Ctx(ctx).Infof("tenant %s created by %s", t.TenantID, actor)

	if !approveImmediately {
		return &ApprovalResult{Tenant: t}, nil
	}

	result, err := m.ApproveTenant(ctx, actor, t.ID)
	if err != nil && result == nil {
		// The tenant row exists even though the approval never reached the executor.
		return &ApprovalResult{Tenant: t, Degraded: true, Summary: approvalNotStartedSummary}, err
	}
	return result, err
}

// ApproveTenant provisions the database of a pending tenant and activates it. When provisioning fails, the returned
// result is Degraded and the error wraps a *provisioning.ProvisioningError.
func (m *Manager) ApproveTenant(ctx context.Context, actor string, id int64) (*ApprovalResult, error) {
	current, err := m.registry.GetTenantByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting tenant %d: %w", id, err)
	}
	if current.Status != tenant.PendingTenantStatus && current.Status != tenant.ProvisioningTenantStatus {
		m.countEvent(ctx, ApproveAction, errInvalidState)
		return nil, &InvalidStateError{TenantID: current.TenantID, Action: ApproveAction, Status: current.Status}
	}

	claimed, err := m.registry.ClaimForProvisioning(ctx, id, m.staleProvisioningAfter)
	if err != nil {
		err = m.transitionError(ctx, id, ApproveAction, err)
		m.countEvent(ctx, ApproveAction, err)
		return nil, err
	}

	log.Ctx(ctx).Infof("provisioning tenant %s", claimed.TenantID)
	provisionErr := m.executor.Provision(ctx, claimed.TenantID)
	if provisionErr != nil {
		return m.handleProvisioningFailure(ctx, actor, claimed, provisionErr)
	}

	active, err := m.registry.MarkProvisioned(ctx, id)
	if err != nil {
		m.countEvent(ctx, ApproveAction, err)
		return nil, fmt.Errorf("marking tenant %s as provisioned: %w", claimed.TenantID, err)
	}
	m.countEvent(ctx, ApproveAction, nil)

	m.activityLogger.Record(ctx, actor, activitylog.TenantApprovedAction, active.TenantID, activitylog.Details{
		"database_name": active.DatabaseName,
	})
	log.Ctx(ctx).Infof("tenant %s approved by %s", active.TenantID, actor)

	m.notifyActivated(ctx, active)

	return &ApprovalResult{Tenant: active}, nil
}

func (m *Manager) handleProvisioningFailure(ctx context.Context, actor string, claimed *tenant.Tenant, provisionErr error) (*ApprovalResult, error) {
	m.countEvent(ctx, ApproveAction, provisionErr)
	log.Ctx(ctx).Errorf("provisioning tenant %s: %v", claimed.TenantID, provisionErr)

	summary := defaultProvisioningFailureSummary
	details := activitylog.Details{"database_name": claimed.DatabaseName}
	var provisioningErr *provisioning.ProvisioningError
	if errors.As(provisionErr, &provisioningErr) {
		summary = provisioningErr.Summary()
		details["step"] = provisioningErr.Step
		details["retryable"] = provisioningErr.Retryable
	}
	details["summary"] = summary

	m.activityLogger.Record(ctx, actor, activitylog.TenantProvisioningFailedAction, claimed.TenantID, details)

	reverted, err := m.registry.MarkProvisioningFailed(ctx, claimed.ID, summary)
	if err != nil {
		// The tenant stays in provisioning until the claim goes stale and the recovery job reverts it.
		return &ApprovalResult{Tenant: claimed, Degraded: true, Summary: summary + ", " + failureNotRecordedSummary},
			fmt.Errorf("%w. [additional errors]: recording the provisioning failure of tenant %s: %w", provisionErr, claimed.TenantID, err)
	}

	return &ApprovalResult{Tenant: reverted, Degraded: true, Summary: summary}, provisionErr
}

// ToggleActive suspends an active tenant or reactivates a suspended one.
func (m *Manager) ToggleActive(ctx context.Context, actor string, id int64) (*tenant.Tenant, error) {
	current, err := m.registry.GetTenantByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting tenant %d: %w", id, err)
	}

	target := tenant.SuspendedTenantStatus
	auditAction := activitylog.TenantSuspendedAction
	if current.Status == tenant.SuspendedTenantStatus {
		target = tenant.ActiveTenantStatus
		auditAction = activitylog.TenantActivatedAction
	}

	updated, err := m.transition(ctx, current, ToggleAction, target)
	if err != nil {
		return nil, err
	}

	m.activityLogger.Record(ctx, actor, auditAction, updated.TenantID, activitylog.Details{
		"from": current.Status,
		"to":   updated.Status,
	})
	log.Ctx(ctx).Infof("tenant %s is now %s", updated.TenantID, updated.Status)

	return updated, nil
}

// CancelTenant moves the tenant to the terminal cancelled status. The registry row and the database are kept.
func (m *Manager) CancelTenant(ctx context.Context, actor string, id int64) (*tenant.Tenant, error) {
	current, err := m.registry.GetTenantByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting tenant %d: %w", id, err)
	}

	updated, err := m.transition(ctx, current, CancelAction, tenant.CancelledTenantStatus)
	if err != nil {
		return nil, err
	}

	m.activityLogger.Record(ctx, actor, activitylog.TenantCancelledAction, updated.TenantID, activitylog.Details{
		"from": current.Status,
	})
	log.Ctx(ctx).Infof("tenant %s cancelled by %s", updated.TenantID, actor)

	return updated, nil
}

// transition validates the status change against the state machine and applies it with a compare-and-swap.
func (m *Manager) transition(ctx context.Context, current *tenant.Tenant, action Action, target tenant.TenantStatus) (*tenant.Tenant, error) {
	if err := TenantStateMachine(current.Status).TransitionTo(target); err != nil {
		m.countEvent(ctx, action, errInvalidState)
		return nil, &InvalidStateError{TenantID: current.TenantID, Action: action, Status: current.Status}
	}

	updated, err := m.registry.CompareAndSwapStatus(ctx, current.ID, current.Status, target)
	if err != nil {
		err = m.transitionError(ctx, current.ID, action, err)
		m.countEvent(ctx, action, err)
		return nil, err
	}

	m.countEvent(ctx, action, nil)
	return updated, nil
}

// transitionError turns a lost compare-and-swap into an *InvalidStateError carrying the status that won.
func (m *Manager) transitionError(ctx context.Context, id int64, action Action, err error) error {
	if !errors.Is(err, tenant.ErrStatusConflict) {
		return fmt.Errorf("updating tenant %d: %w", id, err)
	}

	current, getErr := m.registry.GetTenantByID(ctx, id)
	if getErr != nil {
		return fmt.Errorf("getting tenant %d: %w", id, getErr)
	}
	return &InvalidStateError{TenantID: current.TenantID, Action: action, Status: current.Status}
}

// ExtendSubscription pushes the subscription end by days, counting from today when the subscription already ended.
func (m *Manager) ExtendSubscription(ctx context.Context, actor string, id int64, days int) (*tenant.Tenant, error) {
	current, err := m.registry.GetTenantByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting tenant %d: %w", id, err)
	}

	updated, err := m.registry.ExtendSubscription(ctx, id, days, utils.TruncateToDate(m.now()))
	if err != nil {
		m.countEvent(ctx, ExtendAction, err)
		return nil, fmt.Errorf("extending the subscription of tenant %s: %w", current.TenantID, err)
	}
	m.countEvent(ctx, ExtendAction, nil)

	m.activityLogger.Record(ctx, actor, activitylog.TenantSubscriptionExtendedAction, updated.TenantID, activitylog.Details{
		"days":         days,
		"previous_end": current.SubscriptionEnd.Format(time.DateOnly),
		"new_end":      updated.SubscriptionEnd.Format(time.DateOnly),
	})

	return updated, nil
}

// DeleteTenant removes the registry row whatever the status. The tenant database is kept and shows up as orphaned.
func (m *Manager) DeleteTenant(ctx context.Context, actor string, id int64) (*tenant.Tenant, error) {
	deleted, err := m.registry.DeleteTenant(ctx, id)
	if err != nil {
		m.countEvent(ctx, DeleteAction, err)
		return nil, fmt.Errorf("deleting tenant %d: %w", id, err)
	}
	m.countEvent(ctx, DeleteAction, nil)

	m.activityLogger.Record(ctx, actor, activitylog.TenantDeletedAction, deleted.TenantID, activitylog.Details{
		"status":        deleted.Status,
		"database_name": deleted.DatabaseName,
	})
	log.Ctx(ctx).Warnf("tenant %s deleted by %s, database %s was kept", deleted.TenantID, actor, deleted.DatabaseName)

	return deleted, nil
}

// PurgeTenantDatabase drops a tenant database that no registered tenant points to.
func (m *Manager) PurgeTenantDatabase(ctx context.Context, actor string, databaseName string) error {
	registered, err := m.registry.IsDatabaseRegistered(ctx, databaseName)
	if err != nil {
		m.countEvent(ctx, PurgeAction, err)
		return fmt.Errorf("checking database %s: %w", databaseName, err)
	}
	if registered {
		m.countEvent(ctx, PurgeAction, ErrDatabaseStillRegistered)
		return fmt.Errorf("%w: %s", ErrDatabaseStillRegistered, databaseName)
	}

	if err = m.executor.DropDatabase(ctx, databaseName); err != nil {
		m.countEvent(ctx, PurgeAction, err)
		return fmt.Errorf("purging database %s: %w", databaseName, err)
	}
	m.countEvent(ctx, PurgeAction, nil)

	m.activityLogger.Record(ctx, actor, activitylog.TenantDatabasePurgedAction, "", activitylog.Details{
		"database_name": databaseName,
	})

	return nil
}

var errInvalidState = errors.New("invalid state")

func (m *Manager) countEvent(ctx context.Context, action Action, err error) {
	labels := monitor.TenantLifecycleLabels{Action: string(action), Result: monitor.SuccessResult}
	if err != nil {
		labels.Result = monitor.FailureResult
	}
	if monitorErr := m.monitorService.MonitorCounters(monitor.TenantLifecycleEventsTag, labels.ToMap()); monitorErr != nil {
		log.Ctx(ctx).Errorf("monitoring tenant lifecycle event: %v", monitorErr)
	}
}
