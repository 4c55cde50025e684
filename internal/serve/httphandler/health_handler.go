package httphandler

import (
	"context"
	"net/http"

	"github.com/stellar/go-stellar-sdk/support/log"
	"github.com/stellar/go-stellar-sdk/support/render/httpjson"

	"github.com/72mo2c/pero-system-sub002/db"
)

type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// HealthResponse uses the health check response format for HTTP APIs:
// https://datatracker.ietf.org/doc/html/draft-inadarei-api-health-check-06#name-api-health-response
type HealthResponse struct {
	Status    Status            `json:"status"`
	Version   string            `json:"version,omitempty"`
	ServiceID string            `json:"service_id,omitempty"`
	ReleaseID string            `json:"release_id,omitempty"`
	Services  map[string]Status `json:"services,omitempty"`
}

// HealthHandler reports whether the admin API can serve operators. Only the registry database is checked here. Tenant
// databases are checked by GET /tenants/{id}/database and by the tenant database health job.
type HealthHandler struct {
	Version            string
	ServiceID          string
	ReleaseID          string
	RegistryDBConnPool db.DBConnectionPool
}

func (h HealthHandler) checks() map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"registry_database": h.RegistryDBConnPool.Ping,
	}
}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := HealthResponse{
		Status:    StatusPass,
		Version:   h.Version,
		ServiceID: h.ServiceID,
		ReleaseID: h.ReleaseID,
		Services:  map[string]Status{},
	}
	for name, check := range h.checks() {
		if err := check(ctx); err != nil {
			log.Ctx(ctx).Warnf("health check %s failed: %v", name, err)
			resp.Services[name] = StatusFail
			resp.Status = StatusFail
			continue
		}
		resp.Services[name] = StatusPass
	}

	statusCode := http.StatusOK
	if resp.Status == StatusFail {
		statusCode = http.StatusServiceUnavailable
	}
	httpjson.RenderStatus(w, statusCode, resp, httpjson.JSON)
}
