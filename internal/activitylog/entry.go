package activitylog

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Action string

const (
	TenantCreatedAction              Action = "tenant.created"
	TenantApprovedAction             Action = "tenant.approved"
	TenantProvisioningFailedAction   Action = "tenant.provisioning_failed"
	TenantSuspendedAction            Action = "tenant.suspended"
	TenantActivatedAction            Action = "tenant.activated"
	TenantSubscriptionExtendedAction Action = "tenant.subscription_extended"
	TenantCancelledAction            Action = "tenant.cancelled"
	TenantDeletedAction              Action = "tenant.deleted"
	TenantDatabasePurgedAction       Action = "tenant.database_purged"
)

func Actions() []Action {
	return []Action{
		TenantCreatedAction,
		TenantApprovedAction,
		TenantProvisioningFailedAction,
		TenantSuspendedAction,
		TenantActivatedAction,
		TenantSubscriptionExtendedAction,
		TenantCancelledAction,
		TenantDeletedAction,
		TenantDatabasePurgedAction,
	}
}

// Details is free-form context stored as JSONB next to an entry.
type Details map[string]interface{}

func (d Details) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshaling activity details: %w", err)
	}
	return b, nil
}

func (d *Details) Scan(src interface{}) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*d = Details{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for activity details", src)
	}

	details := Details{}
	if err := json.Unmarshal(b, &details); err != nil {
		return fmt.Errorf("unmarshaling activity details: %w", err)
	}
	*d = details
	return nil
}

// Entry is one audited operator action. TenantID is the business key and is kept after the tenant is deleted.
type Entry struct {
	ID        string    `json:"id" db:"id"`
	Actor     string    `json:"actor" db:"actor"`
	Action    Action    `json:"action" db:"action"`
	TenantID  *string   `json:"tenant_id" db:"tenant_id"`
	Details   Details   `json:"details" db:"details"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type QueryParams struct {
	TenantID  string
	Action    Action
	Page      int
	PageLimit int
}

type EntriesPage struct {
	Entries   []Entry `json:"entries"`
	Total     int     `json:"total"`
	Page      int     `json:"page"`
	PageLimit int     `json:"page_limit"`
}
