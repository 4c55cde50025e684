package tenant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/72mo2c/pero-system-sub002/internal/data"
)

func Test_ListAllTenants(t *testing.T) {
	ctx := context.Background()
	filters := map[FilterKey]interface{}{FilterKeyStatus: ProvisioningTenantStatus}

	t.Run("pages until the last page", func(t *testing.T) {
		registry := &TenantManagerMock{}
		registry.
			On("SearchTenants", ctx, mock.MatchedBy(func(qp *QueryParams) bool {
				return qp.Page == 1 && qp.PageLimit == data.MaxPageLimit && qp.SortOrder == data.SortOrderASC && qp.Filters[FilterKeyStatus] == ProvisioningTenantStatus
			})).
			Return(&TenantsPage{Tenants: []Tenant{{TenantID: "acme"}}, Total: data.MaxPageLimit + 1, Page: 1, PageLimit: data.MaxPageLimit}, nil).
			Once().
			On("SearchTenants", ctx, mock.MatchedBy(func(qp *QueryParams) bool { return qp.Page == 2 })).
			Return(&TenantsPage{Tenants: []Tenant{{TenantID: "globex"}}, Total: data.MaxPageLimit + 1, Page: 2, PageLimit: data.MaxPageLimit}, nil).
			Once()

		tenants, err := ListAllTenants(ctx, registry, filters)
		require.NoError(t, err)
		require.Len(t, tenants, 2)
		assert.Equal(t, "acme", tenants[0].TenantID)
		assert.Equal(t, "globex", tenants[1].TenantID)
		registry.AssertExpectations(t)
	})

	t.Run("stops on an empty registry", func(t *testing.T) {
		registry := &TenantManagerMock{}
		registry.
			On("SearchTenants", ctx, mock.Anything).
			Return(&TenantsPage{Tenants: []Tenant{}, Total: 0, Page: 1, PageLimit: data.MaxPageLimit}, nil).
			Once()

		tenants, err := ListAllTenants(ctx, registry, nil)
		require.NoError(t, err)
		assert.Empty(t, tenants)
		registry.AssertExpectations(t)
	})

	t.Run("returns the search error", func(t *testing.T) {
		registry := &TenantManagerMock{}
		registry.On("SearchTenants", ctx, mock.Anything).Return(nil, errors.New("connection reset")).Once()

		_, err := ListAllTenants(ctx, registry, nil)
		require.EqualError(t, err, "listing tenants page 1: connection reset")
		registry.AssertExpectations(t)
	})
}

func Test_ListProvisionedTenants(t *testing.T) {
	ctx := context.Background()
	provisionedAt := time.Now()

	registry := &TenantManagerMock{}
	registry.
		On("SearchTenants", ctx, mock.Anything).
		Return(&TenantsPage{
			Tenants: []Tenant{
				{TenantID: "acme", Status: SuspendedTenantStatus, ProvisionedAt: &provisionedAt},
				{TenantID: "globex", Status: PendingTenantStatus},
			},
			Total:     2,
			Page:      1,
			PageLimit: data.MaxPageLimit,
		}, nil).
		Once()

	tenants, err := ListProvisionedTenants(ctx, registry)
	require.NoError(t, err)
	require.Len(t, tenants, 1)
	assert.Equal(t, "acme", tenants[0].TenantID)
	registry.AssertExpectations(t)
}
