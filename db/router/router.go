package router

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultTenantDatabasePrefix is prepended to the tenant ID to build the tenant database name.
const DefaultTenantDatabasePrefix = "warehouse_tenant_"

// DatabaseNameFor returns the name of the isolated database of a tenant. It is the only place where the prefix and the
// tenant ID are joined.
func DatabaseNameFor(prefix, tenantID string) string {
	return prefix + tenantID
}

// HasTenantDatabasePrefix reports whether databaseName belongs to the tenant database namespace.
func HasTenantDatabasePrefix(prefix, databaseName string) bool {
	return prefix != "" && strings.HasPrefix(databaseName, prefix) && len(databaseName) > len(prefix)
}

// GetDSNForTenant returns the DSN of a tenant database. It is the main database DSN with the path replaced by the
// tenant database name, so host, credentials and options are shared.
func GetDSNForTenant(dataSourceName, databaseName string) (string, error) {
	if databaseName == "" {
		return "", fmt.Errorf("database name cannot be empty")
	}

	u, err := url.Parse(dataSourceName)
	if err != nil {
		return "", fmt.Errorf("parsing database DSN: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("unsupported database DSN scheme %q", u.Scheme)
	}

	u.Path = "/" + databaseName
	u.RawPath = ""

	return u.String(), nil
}

// GetDatabaseNameFromDSN returns the database name of a DSN.
func GetDatabaseNameFromDSN(dataSourceName string) (string, error) {
	u, err := url.Parse(dataSourceName)
	if err != nil {
		return "", fmt.Errorf("parsing database DSN: %w", err)
	}
	return strings.TrimPrefix(u.Path, "/"), nil
}
