package httphandler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/72mo2c/pero-system-sub002/internal/lifecycle"
	"github.com/72mo2c/pero-system-sub002/internal/provisioning"
	"github.com/72mo2c/pero-system-sub002/internal/serve/httperror"
	"github.com/72mo2c/pero-system-sub002/internal/tenant"
)

// tenantHTTPError translates registry and lifecycle errors into the HTTP error rendered to the operator. ref is the
// tenant reference taken from the URL, used in not found messages.
func tenantHTTPError(ctx context.Context, err error, ref string, fallbackMsg string) *httperror.HTTPError {
	var validationErr *tenant.ValidationError
	var conflictErr *tenant.ConflictError
	var stateErr *lifecycle.InvalidStateError
	var connErr *tenant.ConnectionError

	switch {
	case errors.As(err, &validationErr):
		extras := make(map[string]interface{}, len(validationErr.Fields))
		for field, msg := range validationErr.Fields {
			extras[field] = msg
		}
		return httperror.BadRequest("invalid request body", err, extras).WithErrorCode(httperror.Code400_0)

	case errors.As(err, &conflictErr):
		extras := make(map[string]interface{}, len(conflictErr.Fields))
		for _, field := range conflictErr.Fields {
			extras[field] = "already in use by another tenant"
		}
		msg := fmt.Sprintf("A tenant with the same %s already exists.", strings.Join(conflictErr.Fields, " and "))
		return httperror.Conflict(msg, err, extras).WithErrorCode(httperror.Code409_0)

	case errors.As(err, &stateErr):
		extras := map[string]interface{}{"status": stateErr.Status}
		return httperror.Conflict(stateErr.Error(), err, extras).WithErrorCode(httperror.Code409_1)

	case errors.Is(err, tenant.ErrStatusConflict):
		return httperror.Conflict("The tenant was changed by another operator. Reload it and try again.", err, nil).
			WithErrorCode(httperror.Code409_1)

	case errors.Is(err, lifecycle.ErrDatabaseStillRegistered):
		return httperror.Conflict("The database belongs to a registered tenant and cannot be purged.", err, nil).
			WithErrorCode(httperror.Code409_2)

	case errors.Is(err, tenant.ErrTenantDoesNotExist):
		return httperror.NotFound(fmt.Sprintf("tenant %s does not exist", ref), err, nil)

	case errors.Is(err, provisioning.ErrInvalidDatabaseName):
		return httperror.BadRequest("The database name is not a tenant database.", err, nil)

	case tenant.IsTenantDatabaseMissing(err):
		return httperror.NotFound(fmt.Sprintf("the database of tenant %s does not exist", ref), err, nil)

	case errors.As(err, &connErr):
		return httperror.ServiceUnavailable(ctx, err)

	default:
		return httperror.InternalError(ctx, fallbackMsg, err, nil)
	}
}
