package serve

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	supporthttp "github.com/stellar/go-stellar-sdk/support/http"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/72mo2c/pero-system-sub002/db"
	"github.com/72mo2c/pero-system-sub002/internal/activitylog"
	"github.com/72mo2c/pero-system-sub002/internal/crashtracker"
	"github.com/72mo2c/pero-system-sub002/internal/lifecycle"
	"github.com/72mo2c/pero-system-sub002/internal/message"
	"github.com/72mo2c/pero-system-sub002/internal/monitor"
	"github.com/72mo2c/pero-system-sub002/internal/provisioning"
	"github.com/72mo2c/pero-system-sub002/internal/scheduler"
	"github.com/72mo2c/pero-system-sub002/internal/scheduler/jobs"
	"github.com/72mo2c/pero-system-sub002/internal/serve/httperror"
	"github.com/72mo2c/pero-system-sub002/internal/serve/httphandler"
	"github.com/72mo2c/pero-system-sub002/internal/serve/middleware"
	"github.com/72mo2c/pero-system-sub002/internal/tenant"
)

const (
	ServiceID = "wms-admin"

	// maxRequestBodyBytes is far above the size of any tenant registration.
	maxRequestBodyBytes = 1 << 20
)

type HTTPServerInterface interface {
	Run(conf supporthttp.Config)
}

type HTTPServer struct{}

func (h *HTTPServer) Run(conf supporthttp.Config) {
	supporthttp.Run(conf)
}

type ServeOptions struct {
	Environment            string
	GitCommit              string
	Port                   int
	Version                string
	MonitorService         monitor.MonitorServiceInterface
	DatabaseDSN            string
	DBPoolConfig           db.DBPoolConfig
	TenantDatabasePrefix   string
	MaxTenantPools         int
	TenantPoolTTL          time.Duration
	CorsAllowedOrigins     []string
	AdminAccount           string
	AdminApiKey            string
	OperatorTokenSecret    string
	RateLimitPerMinute     int
	MessageDispatcher      message.MessageDispatcherInterface
	PlatformName           string
	StaleProvisioningAfter time.Duration
	CrashTrackerClient     crashtracker.CrashTrackerClient
	SchedulerOptions       SchedulerOptions

	dbConnectionPool     db.DBConnectionPool
	connectionProvider   tenant.ConnectionProvider
	registry             tenant.ManagerInterface
	activityLogger       activitylog.LoggerInterface
	lifecycleManager     lifecycle.ManagerInterface
	operatorTokenManager *middleware.OperatorTokenManager
}

// SetupDependencies uses the serve options to setup the dependencies for the server.
func (opts *ServeOptions) SetupDependencies() error {
	// Setup crash tracker:
	// Call crash tracker FlushEvents to flush buffered events before the server terminates
	defer opts.CrashTrackerClient.FlushEvents(2 * time.Second)
	// Call crash tracker Recover for recover from unhandled panics
	defer opts.CrashTrackerClient.Recover()
	// Set crash tracker LogAndReportErrors as DefaultReportErrorFunc
	httperror.SetDefaultReportErrorFunc(opts.CrashTrackerClient.LogAndReportErrors)

	// Setup the registry database:
	poolConfig := opts.DBPoolConfig
	if poolConfig == (db.DBPoolConfig{}) {
		poolConfig = db.DefaultDBPoolConfig
	}
	dbConnectionPool, err := db.OpenDBConnectionPoolWithMetrics(opts.DatabaseDSN, poolConfig, opts.MonitorService)
	if err != nil {
		return fmt.Errorf("connecting to the registry database: %w", err)
	}
	opts.dbConnectionPool = dbConnectionPool

	// Setup the tenant databases router, the tenant pools share the timeouts of the registry pool:
	tenantPoolConfig := db.TenantDBPoolConfig
	tenantPoolConfig.ConnectTimeout = poolConfig.ConnectTimeout
	tenantPoolConfig.StatementTimeout = poolConfig.StatementTimeout
	opts.connectionProvider, err = tenant.NewMultiTenantDataSourceRouter(tenant.DataSourceRouterOptions{
		MainDBConnectionPool: dbConnectionPool,
		TenantDatabasePrefix: opts.TenantDatabasePrefix,
		TenantPoolConfig:     &tenantPoolConfig,
		MaxTenantPools:       opts.MaxTenantPools,
		TenantPoolTTL:        opts.TenantPoolTTL,
		OpenPool: func(dataSourceName string, cfg db.DBPoolConfig) (db.DBConnectionPool, error) {
			return db.OpenDBConnectionPoolWithMetrics(dataSourceName, cfg, opts.MonitorService)
		},
	})
	if err != nil {
		return fmt.Errorf("creating tenant data source router: %w", err)
	}

	opts.registry = tenant.NewManager(
		tenant.WithDatabase(dbConnectionPool),
		tenant.WithTenantDatabasePrefix(opts.TenantDatabasePrefix),
	)

	opts.activityLogger, err = activitylog.NewLogger(dbConnectionPool, opts.MonitorService)
	if err != nil {
		return fmt.Errorf("creating activity logger: %w", err)
	}

	executor, err := provisioning.NewManager(provisioning.ManagerOptions{
		ConnectionProvider:   opts.connectionProvider,
		MonitorService:       opts.MonitorService,
		TenantDatabasePrefix: opts.TenantDatabasePrefix,
	})
	if err != nil {
		return fmt.Errorf("creating provisioning executor: %w", err)
	}

	opts.lifecycleManager, err = lifecycle.NewManager(lifecycle.ManagerOptions{
		Registry:               opts.registry,
		Executor:               executor,
		ActivityLogger:         opts.activityLogger,
		MonitorService:         opts.MonitorService,
		MessageDispatcher:      opts.MessageDispatcher,
		PlatformName:           opts.PlatformName,
		StaleProvisioningAfter: opts.StaleProvisioningAfter,
	})
	if err != nil {
		return fmt.Errorf("creating tenant lifecycle manager: %w", err)
	}

	if opts.OperatorTokenSecret != "" {
		opts.operatorTokenManager, err = middleware.NewOperatorTokenManager(opts.OperatorTokenSecret)
		if err != nil {
			return fmt.Errorf("creating operator token manager: %w", err)
		}
	} else {
		log.Warn("No operator token secret was provided, every request is attributed to the admin account")
	}

	return nil
}

// SchedulerOptions configures the background maintenance jobs run next to the API.
type SchedulerOptions struct {
	Enabled                             bool
	ProvisioningRecoveryIntervalSeconds int
	DatabaseHealthIntervalSeconds       int
}

func (opts *ServeOptions) startScheduler(ctx context.Context) {
	staleAfter := opts.StaleProvisioningAfter
	if staleAfter <= 0 {
		staleAfter = lifecycle.DefaultStaleProvisioningAfter
	}

	go scheduler.StartScheduler(ctx,
		scheduler.SchedulerOptions{
			Registry:           opts.registry,
			CrashTrackerClient: opts.CrashTrackerClient.Clone(),
			MonitorService:     opts.MonitorService,
		},
		scheduler.WithStaleProvisioningRecoveryJob(jobs.StaleProvisioningRecoveryJobOptions{
			Registry:           opts.registry,
			ActivityLogger:     opts.activityLogger,
			StaleAfter:         staleAfter,
			JobIntervalSeconds: opts.SchedulerOptions.ProvisioningRecoveryIntervalSeconds,
		}),
		scheduler.WithTenantDatabaseHealthJob(jobs.TenantDatabaseHealthJobOptions{
			ConnectionProvider: opts.connectionProvider,
			MonitorService:     opts.MonitorService,
			JobIntervalSeconds: opts.SchedulerOptions.DatabaseHealthIntervalSeconds,
		}),
	)
}

func Serve(opts ServeOptions, httpServer HTTPServerInterface) error {
	if err := opts.SetupDependencies(); err != nil {
		return fmt.Errorf("starting dependencies: %w", err)
	}

	stopScheduler := func() {}
	if opts.SchedulerOptions.Enabled {
		var schedulerCtx context.Context
		schedulerCtx, stopScheduler = context.WithCancel(context.Background())
		opts.startScheduler(schedulerCtx)
	}

	// Start the server
	listenAddr := fmt.Sprintf(":%d", opts.Port)
	serverConfig := supporthttp.Config{
		ListenAddr:          listenAddr,
		Handler:             handleHTTP(opts),
		TCPKeepAlive:        time.Minute * 3,
		ShutdownGracePeriod: time.Second * 50,
		ReadTimeout:         time.Second * 5,
		WriteTimeout:        time.Second * 35,
		IdleTimeout:         time.Minute * 2,
		OnStarting: func() {
			log.Info("Starting WMS tenant administration server")
			log.Infof("Listening on %s", listenAddr)
		},
		OnStopping: func() {
			stopScheduler()

			log.Info("Closing the tenant database connections...")
			if err := opts.connectionProvider.Close(); err != nil {
				log.Errorf("error closing tenant database connections: %v", err)
			}

			log.Info("Closing the registry database connection...")
			if err := opts.dbConnectionPool.Close(); err != nil {
				log.Errorf("error closing registry database connection: %v", err)
			}

			log.Info("Stopping WMS tenant administration server")
		},
	}
	httpServer.Run(serverConfig)
	return nil
}

func handleHTTP(o ServeOptions) *chi.Mux {
	mux := chi.NewMux()

	// Middleware
	mux.Use(middleware.CorsMiddleware(o.CorsAllowedOrigins))
	mux.Use(chimiddleware.RequestID)
	mux.Use(chimiddleware.RealIP)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.RecoverHandler)
	mux.Use(middleware.MetricsRequestHandler(o.MonitorService))
	mux.Use(middleware.MaxBodySize(maxRequestBodyBytes))
	if o.RateLimitPerMinute > 0 {
		mux.Use(middleware.RateLimitMiddleware(o.RateLimitPerMinute, time.Minute))
	}

	mux.Get("/health", httphandler.HealthHandler{
		ReleaseID:          o.GitCommit,
		ServiceID:          ServiceID,
		Version:            o.Version,
		RegistryDBConnPool: o.dbConnectionPool,
	}.ServeHTTP)

	// Authenticated Routes
	mux.Group(func(r chi.Router) {
		r.Use(middleware.BasicAuthMiddleware(o.AdminAccount, o.AdminApiKey))
		r.Use(middleware.OperatorIdentityMiddleware(o.operatorTokenManager))

		r.Get("/plans", httphandler.PlansHandler{}.GetAll)

		r.Route("/tenants", func(r chi.Router) {
			tenantDatabaseHandler := httphandler.NewTenantDatabaseHandler(o.registry, o.connectionProvider)
			tenantsHandler := httphandler.TenantsHandler{
				Registry:         o.registry,
				LifecycleManager: o.lifecycleManager,
				LookupCache:      tenantDatabaseHandler,
			}

			r.Get("/", tenantsHandler.GetAll)
			r.Post("/", tenantsHandler.Post)
			r.Get("/{id}", tenantsHandler.GetByIDOrTenantID)
			r.Delete("/{id}", tenantsHandler.Delete)
			r.Post("/{id}/approve", tenantsHandler.Approve)
			r.Post("/{id}/toggle-status", tenantsHandler.ToggleStatus)
			r.Post("/{id}/extend-subscription", tenantsHandler.ExtendSubscription)
			r.Post("/{id}/cancel", tenantsHandler.Cancel)
			r.Get("/{id}/database", tenantDatabaseHandler.Get)
		})

		r.Route("/databases", func(r chi.Router) {
			databasesHandler := httphandler.DatabasesHandler{
				Registry:         o.registry,
				LifecycleManager: o.lifecycleManager,
			}
			r.Get("/orphaned", databasesHandler.GetOrphaned)
			r.Delete("/{name}", databasesHandler.Purge)
		})

		r.Get("/activity", httphandler.ActivityHandler{ActivityLogger: o.activityLogger}.GetAll)
	})

	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httperror.NotFound("Resource not found.", nil, nil).Render(w)
	})

	return mux
}
