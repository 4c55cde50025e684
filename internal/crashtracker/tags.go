package crashtracker

import (
	"context"

	"github.com/72mo2c/pero-system-sub002/internal/requestctx"
	"github.com/72mo2c/pero-system-sub002/internal/tenant"
)

// reportTags returns the request scoped identifiers attached to every report.
func reportTags(ctx context.Context) map[string]string {
	tags := map[string]string{
		"operator_id": requestctx.MustGetOperatorIDFromContext(ctx),
	}
	if currentTenant, err := tenant.GetTenantFromContext(ctx); err == nil {
		tags["tenant_id"] = currentTenant.TenantID
	}
	return tags
}

func tagsAsFields(tags map[string]string) map[string]interface{} {
	fields := make(map[string]interface{}, len(tags))
	for k, v := range tags {
		fields[k] = v
	}
	return fields
}
