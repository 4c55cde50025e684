package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/lib/pq"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/72mo2c/pero-system-sub002/db"
	"github.com/72mo2c/pero-system-sub002/db/migrations"
	"github.com/72mo2c/pero-system-sub002/db/router"
	"github.com/72mo2c/pero-system-sub002/internal/monitor"
	"github.com/72mo2c/pero-system-sub002/internal/tenant"
)

const (
	DefaultConnectAttempts = 3
	DefaultConnectDelay    = 500 * time.Millisecond
)

// ExecutorInterface creates and drops tenant databases.
//
//go:generate mockery --name=ExecutorInterface --case=underscore --structname=ExecutorMock
type ExecutorInterface interface {
	Provision(ctx context.Context, tenantID string) error
	DropDatabase(ctx context.Context, databaseName string) error
}

// Manager provisions the isolated database of a tenant: it creates the database, connects to it, applies the schema
// template and checks the resulting tables. Every step is idempotent.
type Manager struct {
	provider        tenant.ConnectionProvider
	monitorService  monitor.MonitorServiceInterface
	databasePrefix  string
	migrationRouter migrations.MigrationRouter
	expectedTables  []string
	connectAttempts uint
	connectDelay    time.Duration
}

var _ ExecutorInterface = (*Manager)(nil)

type ManagerOptions struct {
	ConnectionProvider   tenant.ConnectionProvider
	MonitorService       monitor.MonitorServiceInterface
	TenantDatabasePrefix string
	// ConnectAttempts and ConnectDelay tune the retries when connecting to a database that was just created.
	ConnectAttempts uint
	ConnectDelay    time.Duration
}

func NewManager(opts ManagerOptions) (*Manager, error) {
	if opts.ConnectionProvider == nil {
		return nil, fmt.Errorf("connection provider cannot be nil")
	}

	if opts.MonitorService == nil {
		return nil, fmt.Errorf("monitor service cannot be nil")
	}

	m := &Manager{
		provider:        opts.ConnectionProvider,
		monitorService:  opts.MonitorService,
		databasePrefix:  opts.TenantDatabasePrefix,
		migrationRouter: migrations.TenantMigrationRouter,
		expectedTables:  migrations.ExpectedTenantTables(),
		connectAttempts: opts.ConnectAttempts,
		connectDelay:    opts.ConnectDelay,
	}
	if m.databasePrefix == "" {
		m.databasePrefix = router.DefaultTenantDatabasePrefix
	}
	if m.connectAttempts == 0 {
		m.connectAttempts = DefaultConnectAttempts
	}
	if m.connectDelay <= 0 {
		m.connectDelay = DefaultConnectDelay
	}

	return m, nil
}

// Provision brings the database of tenantID to the full schema. On failure the returned error is a
// *ProvisioningError naming the step that failed.
func (m *Manager) Provision(ctx context.Context, tenantID string) error {
	if !tenant.IsValidTenantID(tenantID) {
		return &ProvisioningError{
			TenantID: tenantID,
			Step:     ValidateStep,
			Err:      fmt.Errorf("%w: %q", ErrInvalidTenantID, tenantID),
		}
	}

	startedAt := time.Now()
	step, err := m.provision(ctx, tenantID)

	labels := monitor.ProvisioningLabels{Result: monitor.SuccessResult}
	if err != nil {
		labels = monitor.ProvisioningLabels{Step: string(step), Result: monitor.FailureResult}
	}
	if monitorErr := m.monitorService.MonitorDuration(time.Since(startedAt), monitor.ProvisioningDurationTag, labels.ToMap()); monitorErr != nil {
		log.Ctx(ctx).Errorf("monitoring provisioning duration: %v", monitorErr)
	}

	if err != nil {
		return newProvisioningError(tenantID, step, err)
	}
	return nil
}

func (m *Manager) provision(ctx context.Context, tenantID string) (Step, error) {
	databaseName := m.provider.DatabaseNameFor(tenantID)

	log.Ctx(ctx).Infof("creating database %s for tenant %s", databaseName, tenantID)
	if err := m.createDatabase(ctx, databaseName); err != nil {
		return CreateDatabaseStep, err
	}

	tenantPool, err := m.connectToTenant(ctx, tenantID)
	if err != nil {
		return ConnectStep, err
	}

	log.Ctx(ctx).Infof("applying the tenant schema on database %s", databaseName)
	n, err := db.MigrateWithPool(ctx, tenantPool, migrate.Up, 0, m.migrationRouter)
	if err != nil {
		return ApplySchemaStep, fmt.Errorf("applying migrations on database %s: %w", databaseName, err)
	}
	log.Ctx(ctx).Infof("successfully applied %d migrations on database %s", n, databaseName)

	if err = m.verifySchema(ctx, tenantPool); err != nil {
		return VerifySchemaStep, fmt.Errorf("verifying schema of database %s: %w", databaseName, err)
	}

	return "", nil
}

// createDatabase creates databaseName unless it already exists. A concurrent creation is not an error.
func (m *Manager) createDatabase(ctx context.Context, databaseName string) error {
	mainPool, err := m.provider.ConnectionForMain(ctx)
	if err != nil {
		return err
	}

	var exists bool
	err = mainPool.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", databaseName)
	if err != nil {
		return fmt.Errorf("checking if database %s exists: %w", databaseName, err)
	}
	if exists {
		log.Ctx(ctx).Infof("database %s already exists", databaseName)
		return nil
	}

	// Identifiers cannot be bound as parameters.
	_, err = mainPool.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(databaseName))
	if err != nil && !db.IsDuplicateDatabase(err) {
		return fmt.Errorf("creating database %s: %w", databaseName, err)
	}
	return nil
}

func (m *Manager) connectToTenant(ctx context.Context, tenantID string) (db.DBConnectionPool, error) {
	var tenantPool db.DBConnectionPool
	err := retry.Do(
		func() error {
			pool, err := m.provider.ConnectionForTenant(ctx, tenantID)
			if err != nil {
				return err
			}
			if err = pool.Ping(ctx); err != nil {
				return fmt.Errorf("pinging tenant database: %w", err)
			}
			tenantPool = pool
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(m.connectAttempts),
		retry.Delay(m.connectDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warnf("connecting to the database of tenant %s, attempt %d failed: %v", tenantID, n+1, err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return tenantPool, nil
}

func (m *Manager) verifySchema(ctx context.Context, tenantPool db.DBConnectionPool) error {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = ANY($1)
	`

	var found []string
	if err := tenantPool.SelectContext(ctx, &found, q, pq.Array(m.expectedTables)); err != nil {
		return fmt.Errorf("listing tenant tables: %w", err)
	}

	present := make(map[string]bool, len(found))
	for _, table := range found {
		present[table] = true
	}

	var missing []string
	for _, table := range m.expectedTables {
		if !present[table] {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing tables %v", missing)
	}
	return nil
}

// DropDatabase drops a tenant database, terminating its open sessions. It refuses names outside the tenant database
// namespace. Callers are responsible for checking that no tenant is registered for the database.
func (m *Manager) DropDatabase(ctx context.Context, databaseName string) error {
	if !router.HasTenantDatabasePrefix(m.databasePrefix, databaseName) {
		return fmt.Errorf("%w: %q", ErrInvalidDatabaseName, databaseName)
	}

	m.provider.Evict(databaseName)

	mainPool, err := m.provider.ConnectionForMain(ctx)
	if err != nil {
		return err
	}

	_, err = mainPool.ExecContext(ctx, "DROP DATABASE IF EXISTS "+pq.QuoteIdentifier(databaseName)+" WITH (FORCE)")
	if err != nil {
		return fmt.Errorf("dropping database %s: %w", databaseName, err)
	}

	log.Ctx(ctx).Warnf("database %s dropped", databaseName)
	return nil
}

func isRetryable(err error) bool {
	return !db.IsInsufficientPrivilege(err) && !errors.Is(err, ErrInvalidDatabaseName)
}
