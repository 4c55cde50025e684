package tenant

import "context"

type tenantContextKey struct{}

// SaveTenantInContext returns a child context scoped to t. Tenant identity only travels through contexts.
func SaveTenantInContext(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, t)
}

// GetTenantFromContext returns the tenant previously stored with SaveTenantInContext.
func GetTenantFromContext(ctx context.Context) (*Tenant, error) {
	currentTenant, ok := ctx.Value(tenantContextKey{}).(*Tenant)
	if !ok || currentTenant == nil {
		return nil, ErrTenantNotFoundInContext
	}
	return currentTenant, nil
}
