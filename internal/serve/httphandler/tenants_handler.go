package httphandler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stellar/go-stellar-sdk/support/http/httpdecode"
	"github.com/stellar/go-stellar-sdk/support/log"
	"github.com/stellar/go-stellar-sdk/support/render/httpjson"

	"github.com/72mo2c/pero-system-sub002/internal/lifecycle"
	"github.com/72mo2c/pero-system-sub002/internal/requestctx"
	"github.com/72mo2c/pero-system-sub002/internal/serve/httperror"
	"github.com/72mo2c/pero-system-sub002/internal/serve/httpresponse"
	"github.com/72mo2c/pero-system-sub002/internal/serve/validators"
	"github.com/72mo2c/pero-system-sub002/internal/tenant"
)

// ProvisioningFailedStatus is reported when a tenant was approved but its database could not be provisioned.
const ProvisioningFailedStatus = "failed"

// DegradedApprovalResponse is rendered with 202 Accepted when the approval went through but provisioning failed.
type DegradedApprovalResponse struct {
	Tenant       *tenant.Tenant `json:"tenant"`
	Provisioning string         `json:"provisioning"`
	Message      string         `json:"message"`
}

// TenantLookupCache is a cache of tenant lookups that must not outlive a status change or a deletion.
type TenantLookupCache interface {
	Forget(t *tenant.Tenant)
}

type TenantsHandler struct {
	Registry         tenant.ManagerInterface
	LifecycleManager lifecycle.ManagerInterface
	// LookupCache is optional.
	LookupCache TenantLookupCache
}

func (h TenantsHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	validator := validators.NewTenantQueryValidator()
	queryParams := validator.ValidateSearchRequest(r)
	if validator.HasErrors() {
		httperror.BadRequest("request invalid", nil, validator.Errors).WithErrorCode(httperror.Code400_1).Render(w)
		return
	}

	tenantsPage, err := h.Registry.SearchTenants(ctx, queryParams)
	if err != nil {
		tenantHTTPError(ctx, err, "", "Cannot retrieve tenants").Render(w)
		return
	}

	response, err := httpresponse.NewPaginatedResponse(r, tenantsPage.Tenants, tenantsPage.Page, tenantsPage.PageLimit, tenantsPage.Total)
	if err != nil {
		httperror.InternalError(ctx, "Cannot write paginated response for tenants", err, nil).Render(w)
		return
	}

	httpjson.RenderStatus(w, http.StatusOK, response, httpjson.JSON)
}

func (h TenantsHandler) Post(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqBody *validators.TenantRequest
	if err := httpdecode.DecodeJSON(r, &reqBody); err != nil {
		httperror.BadRequest("invalid request body", err, nil).WithErrorCode(httperror.Code400_0).Render(w)
		return
	}

	actor := requestctx.MustGetOperatorIDFromContext(ctx)

	validator := validators.NewTenantValidator()
	tenantInsert := validator.ValidateCreateTenantRequest(reqBody, actor)
	if validator.HasErrors() {
		httperror.BadRequest("invalid request body", nil, validator.Errors).WithErrorCode(httperror.Code400_0).Render(w)
		return
	}

	result, err := h.LifecycleManager.SubmitTenant(ctx, actor, tenantInsert, reqBody.ApproveImmediately)
	if result != nil && result.Degraded {
		renderDegradedApproval(ctx, w, result, err)
		return
	}
	if err != nil {
		tenantHTTPError(ctx, err, tenantInsert.TenantID, "Cannot create tenant").Render(w)
		return
	}

	httpjson.RenderStatus(w, http.StatusCreated, result.Tenant, httpjson.JSON)
}

// GetByIDOrTenantID finds a tenant by its numeric id or its tenant ID.
func (h TenantsHandler) GetByIDOrTenantID(w http.ResponseWriter, r *http.Request) {
	t, ok := h.resolveTenant(w, r)
	if !ok {
		return
	}

	httpjson.RenderStatus(w, http.StatusOK, t, httpjson.JSON)
}

func (h TenantsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	t, ok := h.resolveTenant(w, r)
	if !ok {
		return
	}

	result, err := h.LifecycleManager.ApproveTenant(ctx, requestctx.MustGetOperatorIDFromContext(ctx), t.ID)
	if result != nil && result.Degraded {
		renderDegradedApproval(ctx, w, result, err)
		return
	}
	if err != nil {
		tenantHTTPError(ctx, err, t.TenantID, "Cannot approve tenant").Render(w)
		return
	}

	httpjson.RenderStatus(w, http.StatusOK, result.Tenant, httpjson.JSON)
}

func (h TenantsHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	t, ok := h.resolveTenant(w, r)
	if !ok {
		return
	}

	updated, err := h.LifecycleManager.ToggleActive(ctx, requestctx.MustGetOperatorIDFromContext(ctx), t.ID)
	if err != nil {
		tenantHTTPError(ctx, err, t.TenantID, "Cannot toggle tenant status").Render(w)
		return
	}
	h.forgetTenant(updated)

	httpjson.RenderStatus(w, http.StatusOK, updated, httpjson.JSON)
}

func (h TenantsHandler) ExtendSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqBody *validators.ExtendSubscriptionRequest
	if err := httpdecode.DecodeJSON(r, &reqBody); err != nil {
		httperror.BadRequest("invalid request body", err, nil).WithErrorCode(httperror.Code400_0).Render(w)
		return
	}

	validator := validators.NewTenantValidator()
	days := validator.ValidateExtendSubscriptionRequest(reqBody)
	if validator.HasErrors() {
		httperror.BadRequest("invalid request body", nil, validator.Errors).WithErrorCode(httperror.Code400_0).Render(w)
		return
	}

	t, ok := h.resolveTenant(w, r)
	if !ok {
		return
	}

	updated, err := h.LifecycleManager.ExtendSubscription(ctx, requestctx.MustGetOperatorIDFromContext(ctx), t.ID, days)
	if err != nil {
		tenantHTTPError(ctx, err, t.TenantID, "Cannot extend tenant subscription").Render(w)
		return
	}

	httpjson.RenderStatus(w, http.StatusOK, updated, httpjson.JSON)
}

func (h TenantsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	t, ok := h.resolveTenant(w, r)
	if !ok {
		return
	}

	updated, err := h.LifecycleManager.CancelTenant(ctx, requestctx.MustGetOperatorIDFromContext(ctx), t.ID)
	if err != nil {
		tenantHTTPError(ctx, err, t.TenantID, "Cannot cancel tenant").Render(w)
		return
	}
	h.forgetTenant(updated)

	httpjson.RenderStatus(w, http.StatusOK, updated, httpjson.JSON)
}

// Delete removes the tenant from the registry. Its database is kept until it is purged.
func (h TenantsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	t, ok := h.resolveTenant(w, r)
	if !ok {
		return
	}

	deleted, err := h.LifecycleManager.DeleteTenant(ctx, requestctx.MustGetOperatorIDFromContext(ctx), t.ID)
	if err != nil {
		tenantHTTPError(ctx, err, t.TenantID, "Cannot delete tenant").Render(w)
		return
	}
	h.forgetTenant(t)

	httpjson.RenderStatus(w, http.StatusOK, deleted, httpjson.JSON)
}

func (h TenantsHandler) resolveTenant(w http.ResponseWriter, r *http.Request) (*tenant.Tenant, bool) {
	ctx := r.Context()
	ref := chi.URLParam(r, "id")

	t, err := h.Registry.GetTenantByIDOrTenantID(ctx, ref)
	if err != nil {
		tenantHTTPError(ctx, err, ref, "Cannot get tenant by ID or tenant ID").Render(w)
		return nil, false
	}
	return t, true
}

func (h TenantsHandler) forgetTenant(t *tenant.Tenant) {
	if h.LookupCache != nil {
		h.LookupCache.Forget(t)
	}
}

// renderDegradedApproval answers 202 for a tenant that exists without a provisioned database. The cause is logged,
// only its summary is rendered.
func renderDegradedApproval(ctx context.Context, w http.ResponseWriter, result *lifecycle.ApprovalResult, cause error) {
	summary := result.FailureSummary()
	log.Ctx(ctx).Warnf("tenant %s approved without a database: %s: %v", result.Tenant.TenantID, summary, cause)

	httpjson.RenderStatus(w, http.StatusAccepted, DegradedApprovalResponse{
		Tenant:       result.Tenant,
		Provisioning: ProvisioningFailedStatus,
		Message:      fmt.Sprintf("The tenant was approved but its database could not be provisioned: %s. Approve it again to retry.", summary),
	}, httpjson.JSON)
}
