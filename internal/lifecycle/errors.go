package lifecycle

import (
	"errors"
	"fmt"

	"github.com/72mo2c/pero-system-sub002/internal/tenant"
)

var ErrDatabaseStillRegistered = errors.New("database belongs to a registered tenant")

// InvalidStateError is returned when an action is not allowed from the current status of the tenant.
type InvalidStateError struct {
	TenantID string
	Action   Action
	Status   tenant.TenantStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s tenant %s while it is %s", e.Action, e.TenantID, e.Status)
}
