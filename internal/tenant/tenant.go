package tenant

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

var rxTenantID = regexp.MustCompile(`^[a-z][a-z0-9_]{2,39}$`)

// IsValidTenantID reports whether id can be used as a tenant business key. The same pattern is enforced by the
// `tenants_tenant_id_format` check constraint.
func IsValidTenantID(id string) bool {
	return rxTenantID.MatchString(id)
}

type TenantStatus string

const (
	PendingTenantStatus      TenantStatus = "pending"
	ProvisioningTenantStatus TenantStatus = "provisioning"
	ActiveTenantStatus       TenantStatus = "active"
	SuspendedTenantStatus    TenantStatus = "suspended"
	CancelledTenantStatus    TenantStatus = "cancelled"
)

func TenantStatuses() []TenantStatus {
	return []TenantStatus{PendingTenantStatus, ProvisioningTenantStatus, ActiveTenantStatus, SuspendedTenantStatus, CancelledTenantStatus}
}

func (s TenantStatus) IsValid() bool {
	return slices.Contains(TenantStatuses(), s)
}

func ParseTenantStatus(s string) (TenantStatus, error) {
	status := TenantStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid tenant status %q", s)
	}
	return status, nil
}

type Tenant struct {
	ID                int64            `json:"id" db:"id"`
	TenantID          string           `json:"tenant_id" db:"tenant_id"`
	CompanyName       string           `json:"company_name" db:"company_name"`
	CompanyNameEN     *string          `json:"company_name_en" db:"company_name_en"`
	ContactPerson     string           `json:"contact_person" db:"contact_person"`
	Email             string           `json:"email" db:"email"`
	Phone             *string          `json:"phone" db:"phone"`
	Address           *string          `json:"address" db:"address"`
	City              *string          `json:"city" db:"city"`
	SubscriptionPlan  SubscriptionPlan `json:"subscription_plan" db:"subscription_plan"`
	SubscriptionStart time.Time        `json:"subscription_start" db:"subscription_start"`
	SubscriptionEnd   time.Time        `json:"subscription_end" db:"subscription_end"`
	Status            TenantStatus     `json:"status" db:"status"`
	DatabaseName      string           `json:"database_name" db:"database_name"`
	ProvisioningError *string          `json:"provisioning_error,omitempty" db:"provisioning_error"`
	ProvisionedAt     *time.Time       `json:"provisioned_at" db:"provisioned_at"`
	CreatedBy         string           `json:"created_by" db:"created_by"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at" db:"updated_at"`
}

// IsExpired reports whether the subscription ended before today. Expiry is independent of the status.
func (t *Tenant) IsExpired(today time.Time) bool {
	return t.SubscriptionEnd.Before(today)
}

// IsProvisioned reports whether the tenant database was successfully provisioned at least once.
func (t *Tenant) IsProvisioned() bool {
	return t.ProvisionedAt != nil
}
