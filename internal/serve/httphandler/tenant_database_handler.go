package httphandler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/go-chi/chi/v5"
	"github.com/stellar/go-stellar-sdk/support/log"
	"github.com/stellar/go-stellar-sdk/support/render/httpjson"

	"github.com/72mo2c/pero-system-sub002/internal/serve/httperror"
	"github.com/72mo2c/pero-system-sub002/internal/tenant"
)

const tenantLookupCacheTTL = 30 * time.Second

type TenantTable struct {
	Name        string `json:"name" db:"name"`
	RowEstimate int64  `json:"row_estimate" db:"row_estimate"`
}

type TenantDatabaseResponse struct {
	TenantID     string        `json:"tenant_id"`
	DatabaseName string        `json:"database_name"`
	SizeBytes    int64         `json:"size_bytes"`
	Tables       []TenantTable `json:"tables"`
}

// TenantDatabaseHandler inspects the database of a provisioned tenant. Tenant lookups are cached for a short time,
// since operators tend to refresh the same tenant page.
type TenantDatabaseHandler struct {
	Registry           tenant.ManagerInterface
	ConnectionProvider tenant.ConnectionProvider
	cache              *ristretto.Cache
}

func NewTenantDatabaseHandler(registry tenant.ManagerInterface, connectionProvider tenant.ConnectionProvider) *TenantDatabaseHandler {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		log.Errorf("Failed to create tenant lookup cache: %v", err)
		cache = nil
	}

	return &TenantDatabaseHandler{
		Registry:           registry,
		ConnectionProvider: connectionProvider,
		cache:              cache,
	}
}

func (h *TenantDatabaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref := chi.URLParam(r, "id")

	t, err := h.lookupTenant(ctx, ref)
	if err != nil {
		tenantHTTPError(ctx, err, ref, "Cannot get tenant by ID or tenant ID").Render(w)
		return
	}

	if !t.IsProvisioned() {
		msg := fmt.Sprintf("tenant %s has no provisioned database while it is %s", t.TenantID, t.Status)
		httperror.Conflict(msg, nil, map[string]interface{}{"status": t.Status}).WithErrorCode(httperror.Code409_1).Render(w)
		return
	}

	tenantPool, err := h.ConnectionProvider.GetDataSource(tenant.SaveTenantInContext(ctx, t))
	if err != nil {
		h.forget(ref)
		tenantHTTPError(ctx, err, t.TenantID, "Cannot connect to the tenant database").Render(w)
		return
	}

	response := TenantDatabaseResponse{
		TenantID:     t.TenantID,
		DatabaseName: t.DatabaseName,
		Tables:       []TenantTable{},
	}

	if err = tenantPool.GetContext(ctx, &response.SizeBytes, "SELECT pg_database_size(current_database())"); err != nil {
		tenantHTTPError(ctx, err, t.TenantID, "Cannot read the tenant database size").Render(w)
		return
	}

	const tablesQuery = `
		SELECT relname AS name, n_live_tup AS row_estimate
		FROM pg_stat_user_tables
		ORDER BY relname
	`
	if err = tenantPool.SelectContext(ctx, &response.Tables, tablesQuery); err != nil {
		tenantHTTPError(ctx, err, t.TenantID, "Cannot list the tenant database tables").Render(w)
		return
	}

	httpjson.RenderStatus(w, http.StatusOK, response, httpjson.JSON)
}

func (h *TenantDatabaseHandler) lookupTenant(ctx context.Context, ref string) (*tenant.Tenant, error) {
	if h.cache != nil {
		if cached, found := h.cache.Get(ref); found {
			if t, ok := cached.(*tenant.Tenant); ok {
				return t, nil
			}
			h.cache.Del(ref)
		}
	}

	t, err := h.Registry.GetTenantByIDOrTenantID(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("getting tenant %s: %w", ref, err)
	}

	// Only provisioned tenants are cached, a pending tenant may be approved at any moment.
	if h.cache != nil && t.IsProvisioned() {
		h.cache.SetWithTTL(ref, t, 1, tenantLookupCacheTTL)
	}
	return t, nil
}

func (h *TenantDatabaseHandler) forget(ref string) {
	if h.cache != nil {
		h.cache.Del(ref)
	}
}

// Forget drops the cached lookups of t, under both its numeric id and its tenant ID.
func (h *TenantDatabaseHandler) Forget(t *tenant.Tenant) {
	if t == nil {
		return
	}
	h.forget(strconv.FormatInt(t.ID, 10))
	h.forget(t.TenantID)
}
