package httphandler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_PlansHandler_GetAll(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/plans", nil)
	http.HandlerFunc(PlansHandler{}.GetAll).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var plans []map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &plans))
	require.Len(t, plans, 4)

	assert.Equal(t, "trial", plans[0]["plan"])
	assert.Equal(t, "0.00 USD", plans[0]["formatted_price"])
	assert.Equal(t, float64(14), plans[0]["duration_days"])

	assert.Equal(t, "basic", plans[1]["plan"])
	assert.Equal(t, "49.00 USD", plans[1]["formatted_price"])

	assert.Equal(t, "enterprise", plans[3]["plan"])
	assert.Equal(t, float64(365), plans[3]["duration_days"])
}
