package tenant

import "github.com/72mo2c/pero-system-sub002/internal/data"

type QueryParams struct {
	Query     string
	Page      int
	PageLimit int
	SortBy    data.SortField
	SortOrder data.SortOrder
	Filters   map[FilterKey]interface{}
}

type FilterKey string

const (
	FilterKeyStatus    FilterKey = "status"
	FilterKeyPlan      FilterKey = "subscription_plan"
	FilterKeyExpired   FilterKey = "expired"
	FilterKeyCreatedBy FilterKey = "created_by"
)

// AllowedSortFields lists the columns a tenant search can be ordered by.
func AllowedSortFields() []data.SortField {
	return []data.SortField{
		data.SortFieldCreatedAt,
		data.SortFieldUpdatedAt,
		data.SortFieldCompanyName,
		data.SortFieldTenantID,
		data.SortFieldEmail,
		data.SortFieldStatus,
		data.SortFieldSubscriptionEnd,
	}
}

func AllowedFilters() []FilterKey {
	return []FilterKey{FilterKeyStatus, FilterKeyPlan, FilterKeyExpired, FilterKeyCreatedBy}
}

// TenantsPage is one page of a tenant search plus the total number of matches.
type TenantsPage struct {
	Tenants   []Tenant `json:"tenants"`
	Total     int      `json:"total"`
	Page      int      `json:"page"`
	PageLimit int      `json:"page_limit"`
}

// TotalPages returns the number of pages needed to show every match.
func (p *TenantsPage) TotalPages() int {
	if p.PageLimit <= 0 {
		return 1
	}
	return (p.Total + p.PageLimit - 1) / p.PageLimit
}
