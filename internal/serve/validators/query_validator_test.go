package validators

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/72mo2c/pero-system-sub002/internal/activitylog"
	"github.com/72mo2c/pero-system-sub002/internal/data"
	"github.com/72mo2c/pero-system-sub002/internal/tenant"
)

func Test_TenantQueryValidator_ValidateSearchRequest(t *testing.T) {
	testCases := []struct {
		name           string
		url            string
		expectedParams *tenant.QueryParams
		expectedErrors map[string]string
	}{
		{
			name: "no query parameters returns the defaults",
			url:  "/tenants",
			expectedParams: &tenant.QueryParams{
				Page:      1,
				PageLimit: 20,
				SortBy:    data.SortFieldCreatedAt,
				SortOrder: data.SortOrderDESC,
				Filters:   map[tenant.FilterKey]interface{}{},
			},
		},
		{
			name: "every parameter",
			url:  "/tenants?q=+acme+&page=2&page_limit=50&sort=company_name&direction=asc&status=Active&subscription_plan=BASIC&expired=true&created_by=admin",
			expectedParams: &tenant.QueryParams{
				Query:     "acme",
				Page:      2,
				PageLimit: 50,
				SortBy:    data.SortFieldCompanyName,
				SortOrder: data.SortOrderASC,
				Filters: map[tenant.FilterKey]interface{}{
					tenant.FilterKeyStatus:    tenant.ActiveTenantStatus,
					tenant.FilterKeyPlan:      tenant.BasicPlan,
					tenant.FilterKeyExpired:   true,
					tenant.FilterKeyCreatedBy: "admin",
				},
			},
		},
		{
			name: "collects every invalid parameter",
			url:  "/tenants?page=zero&page_limit=500&sort=password&direction=sideways&status=approved&subscription_plan=gold&expired=maybe",
			expectedErrors: map[string]string{
				"page":              "parameter must be an integer",
				"page_limit":        "parameter must be between 1 and 100",
				"sort":              "invalid sort field name",
				"direction":         "invalid sort order. valid values are 'asc' and 'desc'",
				"status":            "invalid parameter. valid values are: [pending provisioning active suspended cancelled]",
				"subscription_plan": "invalid parameter. valid values are: [trial basic professional enterprise]",
				"expired":           "invalid parameter. valid values are 'true' and 'false'",
			},
		},
		{
			name:           "page must be positive",
			url:            "/tenants?page=0",
			expectedErrors: map[string]string{"page": "parameter must be greater than or equal to 1"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			qv := NewTenantQueryValidator()
			params := qv.ValidateSearchRequest(httptest.NewRequest("GET", tc.url, nil))

			if tc.expectedErrors != nil {
				assert.Nil(t, params)
				assert.Equal(t, tc.expectedErrors, qv.FieldErrors())
				return
			}
			assert.False(t, qv.HasErrors())
			assert.Equal(t, tc.expectedParams, params)
		})
	}
}

func Test_ActivityQueryValidator_ValidateActivityRequest(t *testing.T) {
	t.Run("valid filters", func(t *testing.T) {
		qv := NewActivityQueryValidator()
		params := qv.ValidateActivityRequest(httptest.NewRequest("GET", "/activity?tenant_id=acme&action=tenant.approved&page=3", nil))
		require.False(t, qv.HasErrors())
		assert.Equal(t, &activitylog.QueryParams{
			TenantID:  "acme",
			Action:    activitylog.TenantApprovedAction,
			Page:      3,
			PageLimit: 20,
		}, params)
	})

	t.Run("unknown action", func(t *testing.T) {
		qv := NewActivityQueryValidator()
		params := qv.ValidateActivityRequest(httptest.NewRequest("GET", "/activity?action=tenant.renamed", nil))
		assert.Nil(t, params)
		assert.Equal(t, []string{"action"}, qv.Keys())
	})
}
