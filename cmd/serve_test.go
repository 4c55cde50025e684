package cmd

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cmdUtils "github.com/72mo2c/pero-system-sub002/cmd/utils"
	"github.com/72mo2c/pero-system-sub002/db"
	"github.com/72mo2c/pero-system-sub002/internal/message"
	"github.com/72mo2c/pero-system-sub002/internal/monitor"
	"github.com/72mo2c/pero-system-sub002/internal/serve"
)

type mockServer struct {
	wg sync.WaitGroup
	mock.Mock
}

var _ ServerServiceInterface = (*mockServer)(nil)

func (m *mockServer) StartServe(opts serve.ServeOptions, httpServer serve.HTTPServerInterface) {
	m.Called(opts, httpServer)
	m.wg.Wait()
}

func (m *mockServer) StartMetricsServe(opts serve.MetricsServeOptions, httpServer serve.HTTPServerInterface) {
	m.Called(opts, httpServer)
	m.wg.Done()
}

// registeredMessenger returns the type of the messenger registered for channel, or "" when there is none.
func registeredMessenger(dispatcher message.MessageDispatcherInterface, channel message.MessageChannel) message.MessengerType {
	if dispatcher == nil {
		return ""
	}
	client, err := dispatcher.GetClient(channel)
	if err != nil {
		return ""
	}
	return client.MessengerType()
}

func Test_serve_wasCalled(t *testing.T) {
	rootCmd := SetupCLI("x.y.z", "1234567890abcdef")
	rootCmd.SetArgs([]string{"serve", "--help"})
	var out bytes.Buffer
	rootCmd.SetOut(&out)

	err := rootCmd.Execute()
	require.NoError(t, err)

	assert.Contains(t, out.String(), "wms-admin serve [flags]", "should have printed help message for serve command")
	assert.Contains(t, out.String(), "--operator-token-secret")
	assert.Contains(t, out.String(), "--db-statement-timeout-seconds")
	assert.Contains(t, out.String(), "--sms-sender-type")
}

func Test_serve(t *testing.T) {
	cmdUtils.ClearTestEnvironment(t)

	mMonitorService := &monitor.MockMonitorService{}
	mMonitorService.
		On("Start", monitor.MetricOptions{MetricType: monitor.MetricTypePrometheus, Environment: "staging"}).
		Return(nil).
		Once()

	mServer := mockServer{}
	mServer.wg.Add(1)
	mServer.
		On("StartMetricsServe", serve.MetricsServeOptions{
			Port:           8002,
			Environment:    "staging",
			MonitorService: mMonitorService,
		}, &serve.HTTPServer{}).
		Once()
	mServer.
		On("StartServe", mock.MatchedBy(func(opts serve.ServeOptions) bool {
			return opts.Port == 8000 &&
				opts.Environment == "staging" &&
				opts.GitCommit == "1234567890abcdef" &&
				opts.Version == "x.y.z" &&
				opts.DatabaseDSN == "postgres://localhost:5432/wms_main?sslmode=disable" &&
				opts.TenantDatabasePrefix == "wms_" &&
				opts.AdminAccount == "admin" &&
				opts.AdminApiKey == "secret-key" &&
				opts.OperatorTokenSecret == "" &&
				assert.ObjectsAreEqual([]string{"https://admin.wms.test"}, opts.CorsAllowedOrigins) &&
				opts.RateLimitPerMinute == 60 &&
				opts.PlatformName == "Acme WMS" &&
				opts.TenantPoolTTL == 10*time.Minute &&
				opts.StaleProvisioningAfter == 5*time.Minute &&
				opts.DBPoolConfig.StatementTimeout == 12*time.Second &&
				opts.DBPoolConfig.MaxOpenConns == db.DefaultDBPoolConfig.MaxOpenConns &&
				registeredMessenger(opts.MessageDispatcher, message.MessageChannelEmail) == message.MessengerTypeDryRun &&
				registeredMessenger(opts.MessageDispatcher, message.MessageChannelSMS) == message.MessengerTypeDryRun &&
				opts.CrashTrackerClient != nil &&
				opts.SchedulerOptions == serve.SchedulerOptions{Enabled: true, ProvisioningRecoveryIntervalSeconds: 30, DatabaseHealthIntervalSeconds: 300} &&
				opts.MonitorService == mMonitorService
		}), &serve.HTTPServer{}).
		Once()

	rootCmd := SetupCLI("x.y.z", "1234567890abcdef")
	replaceCommand(t, rootCmd, (&ServeCommand{}).Command(&mServer, mMonitorService))
	rootCmd.SetArgs([]string{
		"--environment", "staging",
		"--tenant-database-prefix", "wms_",
		"serve",
		"--admin-account", "admin",
		"--admin-api-key", "secret-key",
		"--cors-allowed-origins", "https://admin.wms.test",
		"--rate-limit-per-minute", "60",
		"--platform-name", "Acme WMS",
		"--tenant-pool-ttl-minutes", "10",
		"--stale-provisioning-minutes", "5",
		"--db-statement-timeout-seconds", "12",
		"--scheduler-provisioning-recovery-interval-seconds", "30",
		"--sms-sender-type", "dry_run",
	})

	err := rootCmd.Execute()
	require.NoError(t, err)

	mServer.AssertExpectations(t)
	mMonitorService.AssertExpectations(t)
}
