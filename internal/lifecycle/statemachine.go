package lifecycle

import (
	"github.com/72mo2c/pero-system-sub002/internal/data"
	"github.com/72mo2c/pero-system-sub002/internal/tenant"
)

type Action string

const (
	SubmitAction  Action = "submit"
	ApproveAction Action = "approve"
	ToggleAction  Action = "toggle"
	ExtendAction  Action = "extend"
	CancelAction  Action = "cancel"
	DeleteAction  Action = "delete"
	PurgeAction   Action = "purge"
)

// TenantTransitions lists the status changes a tenant can go through. Deleting a tenant removes the row and is
// allowed from any status, so it is not a transition.
func TenantTransitions() []data.StateTransition[tenant.TenantStatus] {
	return []data.StateTransition[tenant.TenantStatus]{
		{From: tenant.PendingTenantStatus, To: tenant.ProvisioningTenantStatus},
		{From: tenant.ProvisioningTenantStatus, To: tenant.ActiveTenantStatus},
		{From: tenant.ProvisioningTenantStatus, To: tenant.PendingTenantStatus},
		{From: tenant.ActiveTenantStatus, To: tenant.SuspendedTenantStatus},
		{From: tenant.SuspendedTenantStatus, To: tenant.ActiveTenantStatus},
		{From: tenant.PendingTenantStatus, To: tenant.CancelledTenantStatus},
		{From: tenant.ActiveTenantStatus, To: tenant.CancelledTenantStatus},
		{From: tenant.SuspendedTenantStatus, To: tenant.CancelledTenantStatus},
	}
}

func TenantStateMachine(initial tenant.TenantStatus) *data.StateMachine[tenant.TenantStatus] {
	return data.NewStateMachine(initial, TenantTransitions())
}

// CanTransition reports whether a tenant in status from can be moved to status to.
func CanTransition(from, to tenant.TenantStatus) bool {
	return TenantStateMachine(from).CanTransitionTo(to)
}
