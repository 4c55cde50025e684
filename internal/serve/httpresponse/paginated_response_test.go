package httpresponse

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewPaginatedResponse(t *testing.T) {
	t.Run("rejects a non-positive page limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tenants?page=1&page_limit=0", nil)
		_, err := NewPaginatedResponse(req, []string{"acme"}, 1, 0, 1)
		assert.ErrorIs(t, err, ErrInvalidPageLimit)
	})

	t.Run("empty result renders an empty array", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tenants?q=nothing", nil)
		resp, err := NewPaginatedResponse[string](req, nil, 1, 20, 0)
		require.NoError(t, err)
		assert.Equal(t, PaginationInfo{Page: 1, PageLimit: 20}, resp.Pagination)
		assert.JSONEq(t, `[]`, string(resp.Data))
	})

	t.Run("middle page links both ways and keeps the filters", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tenants?status=active&page=2&page_limit=2", nil)
		resp, err := NewPaginatedResponse(req, []string{"acme", "globex"}, 2, 2, 5)
		require.NoError(t, err)
		assert.Equal(t, PaginationInfo{
			Page:      2,
			PageLimit: 2,
			Next:      "/tenants?page=3&page_limit=2&status=active",
			Prev:      "/tenants?page=1&page_limit=2&status=active",
			Pages:     3,
			Total:     5,
		}, resp.Pagination)
		assert.JSONEq(t, `["acme", "globex"]`, string(resp.Data))
	})

	t.Run("page past the end points back to the last page", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tenants?page=9", nil)
		resp, err := NewPaginatedResponse[string](req, nil, 9, 20, 21)
		require.NoError(t, err)
		assert.Empty(t, resp.Pagination.Next)
		assert.Equal(t, "/tenants?page=2", resp.Pagination.Prev)
	})
}
