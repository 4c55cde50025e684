package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func Test_GetRoutePattern(t *testing.T) {
	var pattern string
	r := chi.NewRouter()
	r.Get("/tenants/{id}", func(w http.ResponseWriter, r *http.Request) {
		pattern = GetRoutePattern(r)
	})

	req := httptest.NewRequest(http.MethodGet, "/tenants/acme", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "/tenants/{id}", pattern)

	req = httptest.NewRequest(http.MethodGet, "/tenants/acme", nil)
	assert.Equal(t, "undefined", GetRoutePattern(req))
}
