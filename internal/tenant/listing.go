package tenant

import (
	"context"
	"fmt"

	"github.com/72mo2c/pero-system-sub002/internal/data"
)

// ListAllTenants pages through the registry, oldest first, and returns every tenant matching the filters.
func ListAllTenants(ctx context.Context, registry ManagerInterface, filters map[FilterKey]interface{}) ([]Tenant, error) {
	var tenants []Tenant
	for page := 1; ; page++ {
		tenantsPage, err := registry.SearchTenants(ctx, &QueryParams{
			Page:      page,
			PageLimit: data.MaxPageLimit,
			SortBy:    data.SortFieldCreatedAt,
			SortOrder: data.SortOrderASC,
			Filters:   filters,
		})
		if err != nil {
			return nil, fmt.Errorf("listing tenants page %d: %w", page, err)
		}

		tenants = append(tenants, tenantsPage.Tenants...)
		if page >= tenantsPage.TotalPages() {
			return tenants, nil
		}
	}
}

// ListProvisionedTenants returns the tenants that own a database, whatever their status.
func ListProvisionedTenants(ctx context.Context, registry ManagerInterface) ([]Tenant, error) {
	tenants, err := ListAllTenants(ctx, registry, nil)
	if err != nil {
		return nil, err
	}

	provisioned := make([]Tenant, 0, len(tenants))
	for _, t := range tenants {
		if t.IsProvisioned() {
			provisioned = append(provisioned, t)
		}
	}
	return provisioned, nil
}
