package httphandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stellar/go-stellar-sdk/support/render/httpjson"

	"github.com/72mo2c/pero-system-sub002/internal/lifecycle"
	"github.com/72mo2c/pero-system-sub002/internal/requestctx"
	"github.com/72mo2c/pero-system-sub002/internal/tenant"
)

type OrphanedDatabasesResponse struct {
	Databases []string `json:"databases"`
}

// DatabasesHandler manages the tenant databases left behind by deleted tenants.
type DatabasesHandler struct {
	Registry         tenant.ManagerInterface
	LifecycleManager lifecycle.ManagerInterface
}

func (h DatabasesHandler) GetOrphaned(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	databases, err := h.Registry.ListOrphanedDatabases(ctx)
	if err != nil {
		tenantHTTPError(ctx, err, "", "Cannot list orphaned databases").Render(w)
		return
	}
	if databases == nil {
		databases = []string{}
	}

	httpjson.RenderStatus(w, http.StatusOK, OrphanedDatabasesResponse{Databases: databases}, httpjson.JSON)
}

func (h DatabasesHandler) Purge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	databaseName := chi.URLParam(r, "name")

	if err := h.LifecycleManager.PurgeTenantDatabase(ctx, requestctx.MustGetOperatorIDFromContext(ctx), databaseName); err != nil {
		tenantHTTPError(ctx, err, "", "Cannot purge database").Render(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
