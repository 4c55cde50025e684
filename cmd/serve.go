package cmd

import (
	"go/types"
	"time"

	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	cmdUtils "github.com/72mo2c/pero-system-sub002/cmd/utils"
	"github.com/72mo2c/pero-system-sub002/internal/crashtracker"
	"github.com/72mo2c/pero-system-sub002/internal/lifecycle"
	"github.com/72mo2c/pero-system-sub002/internal/message"
	"github.com/72mo2c/pero-system-sub002/internal/monitor"
	"github.com/72mo2c/pero-system-sub002/internal/serve"
	"github.com/72mo2c/pero-system-sub002/internal/tenant"
)

type ServeCommand struct{}

type ServerServiceInterface interface {
	StartServe(opts serve.ServeOptions, httpServer serve.HTTPServerInterface)
	StartMetricsServe(opts serve.MetricsServeOptions, httpServer serve.HTTPServerInterface)
}

type ServerService struct{}

var _ ServerServiceInterface = (*ServerService)(nil)

func (s *ServerService) StartServe(opts serve.ServeOptions, httpServer serve.HTTPServerInterface) {
	err := serve.Serve(opts, httpServer)
	if err != nil {
		log.Fatalf("Error starting server: %s", err.Error())
	}
}

func (s *ServerService) StartMetricsServe(opts serve.MetricsServeOptions, httpServer serve.HTTPServerInterface) {
	err := serve.MetricsServe(opts, httpServer)
	if err != nil {
		log.Fatalf("Error starting metrics server: %s", err.Error())
	}
}

// serveDurationOptions holds the options given in minutes, converted to durations once the options are read.
type serveDurationOptions struct {
	TenantPoolTTLMinutes          int
	StaleProvisioningAfterMinutes int
}

func (c *ServeCommand) Command(serverService ServerServiceInterface, monitorService monitor.MonitorServiceInterface) *cobra.Command {
	serveOpts := serve.ServeOptions{}
	metricsServeOpts := serve.MetricsServeOptions{}
	crashTrackerOptions := crashtracker.CrashTrackerOptions{}
	emailOpts := message.MessengerOptions{}
	var smsMessengerType message.MessengerType
	dbPoolOptions := cmdUtils.DBPoolOptions{}
	durationOpts := serveDurationOptions{}
	var metricType monitor.MetricType

	configOpts := config.ConfigOptions{
		{
			Name:        "port",
			Usage:       "Port where the server will be listening on",
			OptType:     types.Int,
			ConfigKey:   &serveOpts.Port,
			FlagDefault: 8000,
			Required:    true,
		},
		{
			Name:        "metrics-port",
			Usage:       "Port where the metrics server will be listening on",
			OptType:     types.Int,
			ConfigKey:   &metricsServeOpts.Port,
			FlagDefault: 8002,
			Required:    true,
		},
		{
			Name:           "metrics-type",
			Usage:          `Metric monitor type. Options: "PROMETHEUS"`,
			OptType:        types.String,
			CustomSetValue: cmdUtils.SetConfigOptionMetricType,
			ConfigKey:      &metricType,
			FlagDefault:    string(monitor.MetricTypePrometheus),
			Required:       true,
		},
		{
			Name:      "admin-account",
			Usage:     "The account used in the Basic Authentication of the administration API",
			OptType:   types.String,
			ConfigKey: &serveOpts.AdminAccount,
			Required:  true,
		},
		{
			Name:      "admin-api-key",
			Usage:     "The API key used in the Basic Authentication of the administration API",
			OptType:   types.String,
			ConfigKey: &serveOpts.AdminApiKey,
			Required:  true,
		},
		{
			Name:      "operator-token-secret",
			Usage:     "The secret used to verify the X-Operator-Token header naming the operator of each request. When empty, actions are attributed to the admin account.",
			OptType:   types.String,
			ConfigKey: &serveOpts.OperatorTokenSecret,
			Required:  false,
		},
		{
			Name:           "cors-allowed-origins",
			Usage:          `Cors URLs that are allowed to access the endpoints, separated by ","`,
			OptType:        types.String,
			CustomSetValue: cmdUtils.SetCorsAllowedOrigins,
			ConfigKey:      &serveOpts.CorsAllowedOrigins,
			FlagDefault:    "http://localhost:3000",
			Required:       true,
		},
		{
			Name:        "rate-limit-per-minute",
			Usage:       "Maximum number of requests per minute from the same IP address. Zero disables the limit.",
			OptType:     types.Int,
			ConfigKey:   &serveOpts.RateLimitPerMinute,
			FlagDefault: 120,
			Required:    false,
		},
		{
			Name:        "max-tenant-pools",
			Usage:       "Maximum number of tenant database connection pools kept open at the same time",
			OptType:     types.Int,
			ConfigKey:   &serveOpts.MaxTenantPools,
			FlagDefault: tenant.DefaultMaxTenantPools,
			Required:    false,
		},
		{
			Name:        "tenant-pool-ttl-minutes",
			Usage:       "Minutes an unused tenant database connection pool is kept open",
			OptType:     types.Int,
			ConfigKey:   &durationOpts.TenantPoolTTLMinutes,
			FlagDefault: int(tenant.DefaultTenantPoolTTL.Minutes()),
			Required:    false,
		},
		{
			Name:        "stale-provisioning-minutes",
			Usage:       "Minutes after which a tenant stuck in provisioning can be approved again",
			OptType:     types.Int,
			ConfigKey:   &durationOpts.StaleProvisioningAfterMinutes,
			FlagDefault: int(lifecycle.DefaultStaleProvisioningAfter.Minutes()),
			Required:    false,
		},
		{
			Name:        "platform-name",
			Usage:       "The name of the platform, used in the emails sent to the tenants",
			OptType:     types.String,
			ConfigKey:   &serveOpts.PlatformName,
			FlagDefault: "WMS",
			Required:    true,
		},
		cmdUtils.CrashTrackerTypeConfigOption(&crashTrackerOptions.CrashTrackerType),
		{
			Name:        "enable-scheduler",
			Usage:       "Run the maintenance jobs in this process: recovery of tenants stuck in provisioning and tenant database health checks",
			OptType:     types.Bool,
			ConfigKey:   &serveOpts.SchedulerOptions.Enabled,
			FlagDefault: true,
			Required:    false,
		},
		{
			Name:        "scheduler-provisioning-recovery-interval-seconds",
			Usage:       "Interval in seconds between two runs of the provisioning recovery job",
			OptType:     types.Int,
			ConfigKey:   &serveOpts.SchedulerOptions.ProvisioningRecoveryIntervalSeconds,
			FlagDefault: 60,
			Required:    false,
		},
		{
			Name:        "scheduler-database-health-interval-seconds",
			Usage:       "Interval in seconds between two health checks of every tenant database",
			OptType:     types.Int,
			ConfigKey:   &serveOpts.SchedulerOptions.DatabaseHealthIntervalSeconds,
			FlagDefault: 300,
			Required:    false,
		},
	}
	configOpts = append(configOpts, cmdUtils.DBPoolConfigOptions(&dbPoolOptions)...)
	configOpts = append(configOpts, cmdUtils.EmailClientConfigOptions(&emailOpts)...)
	configOpts = append(configOpts, cmdUtils.SMSClientConfigOptions(&smsMessengerType, &emailOpts)...)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tenant administration API",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmdUtils.PropagatePersistentPreRun(cmd, args)

			configOpts.Require()
			err := configOpts.SetValues()
			if err != nil {
				log.Fatalf("Error setting values of config options: %s", err.Error())
			}

			err = monitorService.Start(monitor.MetricOptions{
				MetricType:  metricType,
				Environment: globalOptions.Environment,
			})
			if err != nil {
				log.Fatalf("Error creating monitor service: %s", err.Error())
			}

			globalOptions.PopulateCrashTrackerOptions(&crashTrackerOptions)

			serveOpts.Environment = globalOptions.Environment
			serveOpts.GitCommit = globalOptions.GitCommit
			serveOpts.Version = globalOptions.Version
			serveOpts.DatabaseDSN = globalOptions.DatabaseURL
			serveOpts.TenantDatabasePrefix = globalOptions.TenantDatabasePrefix
			serveOpts.MonitorService = monitorService
			serveOpts.DBPoolConfig = dbPoolOptions.DBPoolConfig()
			serveOpts.TenantPoolTTL = time.Duration(durationOpts.TenantPoolTTLMinutes) * time.Minute
			serveOpts.StaleProvisioningAfter = time.Duration(durationOpts.StaleProvisioningAfterMinutes) * time.Minute

			metricsServeOpts.MonitorService = monitorService
			metricsServeOpts.Environment = globalOptions.Environment
		},
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()

			crashTrackerClient, err := crashtracker.GetClient(ctx, crashTrackerOptions)
			if err != nil {
				log.Ctx(ctx).Fatalf("error creating crash tracker client: %s", err.Error())
			}
			serveOpts.CrashTrackerClient = crashTrackerClient

			messageDispatcher := message.NewMessageDispatcher()
			emailMessengerClient, err := message.GetClient(emailOpts)
			if err != nil {
				log.Ctx(ctx).Fatalf("error creating email client: %s", err.Error())
			}
			messageDispatcher.RegisterClient(ctx, message.MessageChannelEmail, message.WithMetrics(emailMessengerClient, monitorService))

			if smsMessengerType != "" {
				smsOpts := emailOpts
				smsOpts.MessengerType = smsMessengerType
				smsMessengerClient, smsErr := message.GetClient(smsOpts)
				if smsErr != nil {
					log.Ctx(ctx).Fatalf("error creating SMS client: %s", smsErr.Error())
				}
				messageDispatcher.RegisterClient(ctx, message.MessageChannelSMS, message.WithMetrics(smsMessengerClient, monitorService))
			}
			serveOpts.MessageDispatcher = messageDispatcher

			log.Ctx(ctx).Info("Starting Metrics Server...")
			go serverService.StartMetricsServe(metricsServeOpts, &serve.HTTPServer{})

			log.Ctx(ctx).Info("Starting Application Server...")
			serverService.StartServe(serveOpts, &serve.HTTPServer{})
		},
	}
	err := configOpts.Init(cmd)
	if err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return cmd
}
