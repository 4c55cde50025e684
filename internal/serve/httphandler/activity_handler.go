package httphandler

import (
	"net/http"

	"github.com/stellar/go-stellar-sdk/support/render/httpjson"

	"github.com/72mo2c/pero-system-sub002/internal/activitylog"
	"github.com/72mo2c/pero-system-sub002/internal/serve/httperror"
	"github.com/72mo2c/pero-system-sub002/internal/serve/httpresponse"
	"github.com/72mo2c/pero-system-sub002/internal/serve/validators"
)

type ActivityHandler struct {
	ActivityLogger activitylog.LoggerInterface
}

// GetAll lists the audited operator actions, newest first.
func (h ActivityHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	validator := validators.NewActivityQueryValidator()
	queryParams := validator.ValidateActivityRequest(r)
	if validator.HasErrors() {
		httperror.BadRequest("request invalid", nil, validator.Errors).WithErrorCode(httperror.Code400_1).Render(w)
		return
	}

	entriesPage, err := h.ActivityLogger.List(ctx, queryParams)
	if err != nil {
		httperror.InternalError(ctx, "Cannot retrieve activity log entries", err, nil).Render(w)
		return
	}

	response, err := httpresponse.NewPaginatedResponse(r, entriesPage.Entries, entriesPage.Page, entriesPage.PageLimit, entriesPage.Total)
	if err != nil {
		httperror.InternalError(ctx, "Cannot write paginated response for activity log entries", err, nil).Render(w)
		return
	}

	httpjson.RenderStatus(w, http.StatusOK, response, httpjson.JSON)
}
