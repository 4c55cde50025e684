package validators

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/72mo2c/pero-system-sub002/internal/activitylog"
	corevalidators "github.com/72mo2c/pero-system-sub002/internal/validators"
)

type ActivityQueryValidator struct {
	QueryValidator
}

func NewActivityQueryValidator() *ActivityQueryValidator {
	return &ActivityQueryValidator{
		QueryValidator: QueryValidator{Validator: corevalidators.NewValidator()},
	}
}

// ValidateActivityRequest parses the activity log filters. It returns nil when the request has errors.
func (qv *ActivityQueryValidator) ValidateActivityRequest(r *http.Request) *activitylog.QueryParams {
	page, pageLimit := qv.ParsePagination(r)

	query := r.URL.Query()
	action := activitylog.Action(strings.TrimSpace(query.Get("action")))
	if action != "" {
		qv.Check(slices.Contains(activitylog.Actions(), action), "action", fmt.Sprintf("invalid parameter. valid values are: %v", activitylog.Actions()))
	}

	if qv.HasErrors() {
		return nil
	}

	return &activitylog.QueryParams{
		TenantID:  strings.TrimSpace(query.Get("tenant_id")),
		Action:    action,
		Page:      page,
		PageLimit: pageLimit,
	}
}
