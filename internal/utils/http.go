package utils

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GetRoutePattern returns the chi route pattern matched by the request, e.g. `/tenants/{id}`.
func GetRoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "undefined"
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}

	routePath := r.URL.Path
	if r.URL.RawPath != "" {
		routePath = r.URL.RawPath
	}

	tctx := chi.NewRouteContext()
	if rctx.Routes == nil || !rctx.Routes.Match(tctx, r.Method, routePath) {
		return "undefined"
	}

	// tctx has the updated pattern, since Match mutates it
	return tctx.RoutePattern()
}
