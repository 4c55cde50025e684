package data

import (
	"fmt"
	"strings"
)

type SortOrder string

const (
	SortOrderASC  SortOrder = "ASC"
	SortOrderDESC SortOrder = "DESC"
)

// ParseSortOrder parses a case-insensitive sort order. An empty value yields def.
func ParseSortOrder(s string, def SortOrder) (SortOrder, error) {
	switch SortOrder(strings.ToUpper(strings.TrimSpace(s))) {
	case "":
		return def, nil
	case SortOrderASC:
		return SortOrderASC, nil
	case SortOrderDESC:
		return SortOrderDESC, nil
	default:
		return "", fmt.Errorf("invalid sort order %q", s)
	}
}

type SortField string

const (
	SortFieldCompanyName     SortField = "company_name"
	SortFieldTenantID        SortField = "tenant_id"
	SortFieldEmail           SortField = "email"
	SortFieldStatus          SortField = "status"
	SortFieldSubscriptionEnd SortField = "subscription_end"
	SortFieldCreatedAt       SortField = "created_at"
	SortFieldUpdatedAt       SortField = "updated_at"
)

const (
	DefaultPage      = 1
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)
