package serve

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	supporthttp "github.com/stellar/go-stellar-sdk/support/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/72mo2c/pero-system-sub002/internal/monitor"
)

func Test_MetricsServe(t *testing.T) {
	mMonitorService := &monitor.MockMonitorService{}
	defer mMonitorService.AssertExpectations(t)

	mMonitorService.
		On("GetMetricHttpHandler").
		Return(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			_, _ = w.Write([]byte("wms_admin_up 1"))
		}), nil).
		Once()
	mMonitorService.
		On("GetMetricType").
		Return(monitor.MetricTypePrometheus, nil).
		Once()

	opts := MetricsServeOptions{
		Port:           8002,
		MonitorService: mMonitorService,
	}

	mHTTPServer := mockHTTPServer{}
	defer mHTTPServer.AssertExpectations(t)
	mHTTPServer.On("Run", mock.AnythingOfType("http.Config")).Run(func(args mock.Arguments) {
		conf, ok := args.Get(0).(supporthttp.Config)
		require.True(t, ok, "should be of type supporthttp.Config")
		assert.Equal(t, ":8002", conf.ListenAddr)
		assert.Equal(t, time.Second*5, conf.ReadTimeout)
		assert.Equal(t, time.Second*10, conf.WriteTimeout)
		assert.Equal(t, time.Minute*2, conf.IdleTimeout)
		assert.Nil(t, conf.TLS)

		rr := httptest.NewRecorder()
		conf.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "wms_admin_up 1", rr.Body.String())
	}).Once()

	err := MetricsServe(opts, &mHTTPServer)
	require.NoError(t, err)
}

func Test_MetricsServe_handlerError(t *testing.T) {
	mMonitorService := &monitor.MockMonitorService{}
	defer mMonitorService.AssertExpectations(t)

	mMonitorService.
		On("GetMetricHttpHandler").
		Return(nil, errors.New("client not initialized")).
		Once()

	err := MetricsServe(MetricsServeOptions{Port: 8002, MonitorService: mMonitorService}, &mockHTTPServer{})
	require.EqualError(t, err, "setting up the metrics handler: getting metric http.Handler: client not initialized")
}
