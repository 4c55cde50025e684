package validators

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/72mo2c/pero-system-sub002/internal/data"
	"github.com/72mo2c/pero-system-sub002/internal/tenant"
	corevalidators "github.com/72mo2c/pero-system-sub002/internal/validators"
)

type TenantQueryValidator struct {
	QueryValidator
}

func NewTenantQueryValidator() *TenantQueryValidator {
	return &TenantQueryValidator{
		QueryValidator: QueryValidator{
			Validator:         corevalidators.NewValidator(),
			DefaultSortField:  data.SortFieldCreatedAt,
			DefaultSortOrder:  data.SortOrderDESC,
			AllowedSortFields: tenant.AllowedSortFields(),
		},
	}
}

// ValidateSearchRequest parses the tenant search parameters. It returns nil when the request has errors.
func (qv *TenantQueryValidator) ValidateSearchRequest(r *http.Request) *tenant.QueryParams {
	page, pageLimit := qv.ParsePagination(r)
	sortBy, sortOrder := qv.ParseSorting(r)

	query := r.URL.Query()
	filters := make(map[tenant.FilterKey]interface{})

	if value := strings.TrimSpace(query.Get(string(tenant.FilterKeyStatus))); value != "" {
		status, err := tenant.ParseTenantStatus(value)
		qv.CheckError(err, string(tenant.FilterKeyStatus), fmt.Sprintf("invalid parameter. valid values are: %v", tenant.TenantStatuses()))
		filters[tenant.FilterKeyStatus] = status
	}

	if value := strings.TrimSpace(query.Get(string(tenant.FilterKeyPlan))); value != "" {
		plan := tenant.SubscriptionPlan(strings.ToLower(value))
		qv.Check(plan.IsValid(), string(tenant.FilterKeyPlan), fmt.Sprintf("invalid parameter. valid values are: %v", tenant.PlanNames()))
		filters[tenant.FilterKeyPlan] = plan
	}

	if value := strings.TrimSpace(query.Get(string(tenant.FilterKeyExpired))); value != "" {
		expired, err := strconv.ParseBool(value)
		qv.CheckError(err, string(tenant.FilterKeyExpired), "invalid parameter. valid values are 'true' and 'false'")
		filters[tenant.FilterKeyExpired] = expired
	}

	if value := strings.TrimSpace(query.Get(string(tenant.FilterKeyCreatedBy))); value != "" {
		filters[tenant.FilterKeyCreatedBy] = value
	}

	if qv.HasErrors() {
		return nil
	}

	return &tenant.QueryParams{
		Query:     strings.TrimSpace(query.Get("q")),
		Page:      page,
		PageLimit: pageLimit,
		SortBy:    sortBy,
		SortOrder: sortOrder,
		Filters:   filters,
	}
}
