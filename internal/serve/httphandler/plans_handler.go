package httphandler

import (
	"net/http"

	"github.com/stellar/go-stellar-sdk/support/render/httpjson"

	"github.com/72mo2c/pero-system-sub002/internal/tenant"
)

type PlanResponse struct {
	tenant.PlanDetails
	FormattedPrice string `json:"formatted_price"`
}

type PlansHandler struct{}

func (h PlansHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	plans := tenant.Plans()
	response := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		response = append(response, PlanResponse{PlanDetails: p, FormattedPrice: p.FormattedPrice()})
	}

	httpjson.RenderStatus(w, http.StatusOK, response, httpjson.JSON)
}
