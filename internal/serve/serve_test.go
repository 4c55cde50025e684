package serve

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	supporthttp "github.com/stellar/go-stellar-sdk/support/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/72mo2c/pero-system-sub002/db"
	"github.com/72mo2c/pero-system-sub002/db/dbtest"
	"github.com/72mo2c/pero-system-sub002/internal/activitylog"
	"github.com/72mo2c/pero-system-sub002/internal/crashtracker"
	"github.com/72mo2c/pero-system-sub002/internal/lifecycle"
	"github.com/72mo2c/pero-system-sub002/internal/monitor"
	"github.com/72mo2c/pero-system-sub002/internal/serve/middleware"
	"github.com/72mo2c/pero-system-sub002/internal/tenant"
)

type mockHTTPServer struct {
	mock.Mock
}

func (m *mockHTTPServer) Run(conf supporthttp.Config) {
	m.Called(conf)
}

func Test_Serve(t *testing.T) {
	dbt := dbtest.Open(t)
	defer dbt.Close()

	mockCrashTrackerClient := &crashtracker.MockCrashTrackerClient{}
	defer mockCrashTrackerClient.AssertExpectations(t)

	opts := ServeOptions{
		CrashTrackerClient:   mockCrashTrackerClient,
		DatabaseDSN:          dbt.DSN,
		TenantDatabasePrefix: "warehouse_tenant_",
		Environment:          "test",
		GitCommit:            "1234567890abcdef",
		Port:                 8000,
		Version:              "x.y.z",
		MonitorService:       &monitor.MockMonitorService{},
		AdminAccount:         "admin",
		AdminApiKey:          "secret",
		OperatorTokenSecret:  "operator_secret_1234",
		PlatformName:         "WMS Cloud",
	}

	mHTTPServer := mockHTTPServer{}
	defer mHTTPServer.AssertExpectations(t)
	mHTTPServer.On("Run", mock.AnythingOfType("http.Config")).Run(func(args mock.Arguments) {
		conf, ok := args.Get(0).(supporthttp.Config)
		require.True(t, ok, "should be of type supporthttp.Config")
		assert.Equal(t, ":8000", conf.ListenAddr)
		assert.Equal(t, time.Minute*3, conf.TCPKeepAlive)
		assert.Equal(t, time.Second*50, conf.ShutdownGracePeriod)
		assert.Equal(t, time.Second*5, conf.ReadTimeout)
		assert.Equal(t, time.Second*35, conf.WriteTimeout)
		assert.Equal(t, time.Minute*2, conf.IdleTimeout)
		assert.Nil(t, conf.TLS)
		assert.NotNil(t, conf.Handler)
		conf.OnStopping()
	}).Once()
	mockCrashTrackerClient.On("FlushEvents", 2*time.Second).Return(false).Once()
	mockCrashTrackerClient.On("Recover").Once()

	err := Serve(opts, &mHTTPServer)
	require.NoError(t, err)
}

func Test_Serve_invalidOperatorTokenSecret(t *testing.T) {
	dbt := dbtest.Open(t)
	defer dbt.Close()

	mockCrashTrackerClient := &crashtracker.MockCrashTrackerClient{}
	mockCrashTrackerClient.On("FlushEvents", 2*time.Second).Return(false).Once()
	mockCrashTrackerClient.On("Recover").Once()
	defer mockCrashTrackerClient.AssertExpectations(t)

	opts := ServeOptions{
		CrashTrackerClient:  mockCrashTrackerClient,
		DatabaseDSN:         dbt.DSN,
		MonitorService:      &monitor.MockMonitorService{},
		OperatorTokenSecret: "short",
	}

	err := Serve(opts, &mockHTTPServer{})
	require.EqualError(t, err, "starting dependencies: creating operator token manager: operator token secret is required to have at least 12 characters")
}

type handleHTTPDeps struct {
	registry         *tenant.TenantManagerMock
	lifecycleManager *lifecycle.LifecycleManagerMock
	activityLogger   *activitylog.LoggerMock
	tokenManager     *middleware.OperatorTokenManager
	mux              http.Handler
}

func newHandleHTTPDeps(t *testing.T) handleHTTPDeps {
	t.Helper()

	dbt := dbtest.OpenWithoutMigrations(t)
	t.Cleanup(dbt.Close)
	dbConnectionPool, err := db.OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	t.Cleanup(func() { dbConnectionPool.Close() })

	tokenManager, err := middleware.NewOperatorTokenManager("operator_secret_1234")
	require.NoError(t, err)

	monitorService := &monitor.MockMonitorService{}
	monitorService.On("MonitorHttpRequestDuration", mock.Anything, mock.Anything).Return(nil)

	deps := handleHTTPDeps{
		registry:         &tenant.TenantManagerMock{},
		lifecycleManager: &lifecycle.LifecycleManagerMock{},
		activityLogger:   &activitylog.LoggerMock{},
		tokenManager:     tokenManager,
	}
	t.Cleanup(func() {
		deps.registry.AssertExpectations(t)
		deps.lifecycleManager.AssertExpectations(t)
		deps.activityLogger.AssertExpectations(t)
	})

	deps.mux = handleHTTP(ServeOptions{
		Version:              "x.y.z",
		GitCommit:            "1234567890abcdef",
		MonitorService:       monitorService,
		AdminAccount:         "admin",
		AdminApiKey:          "secret",
		dbConnectionPool:     dbConnectionPool,
		connectionProvider:   &tenant.ConnectionProviderMock{},
		registry:             deps.registry,
		lifecycleManager:     deps.lifecycleManager,
		activityLogger:       deps.activityLogger,
		operatorTokenManager: tokenManager,
	})
	return deps
}

func Test_handleHTTP_authentication(t *testing.T) {
	deps := newHandleHTTPDeps(t)

	t.Run("health does not require authentication", func(t *testing.T) {
		rr := httptest.NewRecorder()
		deps.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	protectedRoutes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/plans"},
		{http.MethodGet, "/tenants"},
		{http.MethodPost, "/tenants"},
		{http.MethodGet, "/tenants/acme"},
		{http.MethodDelete, "/tenants/acme"},
		{http.MethodPost, "/tenants/acme/approve"},
		{http.MethodPost, "/tenants/acme/toggle-status"},
		{http.MethodPost, "/tenants/acme/extend-subscription"},
		{http.MethodPost, "/tenants/acme/cancel"},
		{http.MethodGet, "/tenants/acme/database"},
		{http.MethodGet, "/databases/orphaned"},
		{http.MethodDelete, "/databases/warehouse_tenant_acme"},
		{http.MethodGet, "/activity"},
	}
	for _, route := range protectedRoutes {
		t.Run(route.method+" "+route.path+" requires authentication", func(t *testing.T) {
			rr := httptest.NewRecorder()
			deps.mux.ServeHTTP(rr, httptest.NewRequest(route.method, route.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}

	t.Run("unknown routes return 404", func(t *testing.T) {
		rr := httptest.NewRecorder()
		deps.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/warehouses", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.JSONEq(t, `{"error": "Resource not found."}`, rr.Body.String())
	})

	t.Run("authenticated requests reach the handlers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/plans", nil)
		req.SetBasicAuth("admin", "secret")
		rr := httptest.NewRecorder()
		deps.mux.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func Test_handleHTTP_operatorIdentity(t *testing.T) {
	deps := newHandleHTTPDeps(t)

	cancelled := &tenant.Tenant{ID: 7, TenantID: "acme", Status: tenant.CancelledTenantStatus}
	deps.registry.
		On("GetTenantByIDOrTenantID", mock.Anything, "acme").
		Return(&tenant.Tenant{ID: 7, TenantID: "acme", Status: tenant.ActiveTenantStatus}, nil).
		Twice()

	t.Run("the admin account is the actor without an operator token", func(t *testing.T) {
		deps.lifecycleManager.
			On("CancelTenant", mock.Anything, "admin", int64(7)).
			Return(cancelled, nil).
			Once()

		req := httptest.NewRequest(http.MethodPost, "/tenants/acme/cancel", nil)
		req.SetBasicAuth("admin", "secret")
		rr := httptest.NewRecorder()
		deps.mux.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("the operator token subject is the actor", func(t *testing.T) {
		token, err := deps.tokenManager.GenerateToken("ops@wms.test", time.Hour)
		require.NoError(t, err)

		deps.lifecycleManager.
			On("CancelTenant", mock.Anything, "ops@wms.test", int64(7)).
			Return(cancelled, nil).
			Once()

		req := httptest.NewRequest(http.MethodPost, "/tenants/acme/cancel", nil)
		req.SetBasicAuth("admin", "secret")
		req.Header.Set(middleware.OperatorTokenHeader, token)
		rr := httptest.NewRecorder()
		deps.mux.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
