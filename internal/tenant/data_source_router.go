package tenant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/72mo2c/pero-system-sub002/db"
	"github.com/72mo2c/pero-system-sub002/db/router"
)

const (
	DefaultMaxTenantPools = 64
	DefaultTenantPoolTTL  = 30 * time.Minute
)

// OpenPoolFunc opens a connection pool for a DSN.
type OpenPoolFunc func(dataSourceName string, cfg db.DBPoolConfig) (db.DBConnectionPool, error)

// ConnectionProvider resolves the main registry database and the tenant databases into connection pools.
//
//go:generate mockery --name=ConnectionProvider --case=underscore --structname=ConnectionProviderMock
type ConnectionProvider interface {
	DatabaseNameFor(tenantID string) string
	MainDSN() string
	ConnectionForMain(ctx context.Context) (db.DBConnectionPool, error)
	ConnectionForTenant(ctx context.Context, tenantID string) (db.DBConnectionPool, error)
	GetDataSource(ctx context.Context) (db.DBConnectionPool, error)
	Evict(databaseName string)
	Close() error
}

type DataSourceRouterOptions struct {
	MainDBConnectionPool db.DBConnectionPool
	TenantDatabasePrefix string
	// TenantPoolConfig defaults to db.TenantDBPoolConfig.
	TenantPoolConfig *db.DBPoolConfig
	MaxTenantPools   int
	// TenantPoolTTL is how long an unused tenant pool is kept open.
	TenantPoolTTL time.Duration
	OpenPool      OpenPoolFunc
}

// MultiTenantDataSourceRouter is the ConnectionProvider backed by a bounded cache of tenant pools. Evicted pools are
// closed.
type MultiTenantDataSourceRouter struct {
	mainPool   db.DBConnectionPool
	mainDSN    string
	prefix     string
	poolConfig db.DBPoolConfig
	openPool   OpenPoolFunc
	pools      *expirable.LRU[string, db.DBConnectionPool]
	mu         sync.Mutex
}

var _ ConnectionProvider = (*MultiTenantDataSourceRouter)(nil)

func NewMultiTenantDataSourceRouter(opts DataSourceRouterOptions) (*MultiTenantDataSourceRouter, error) {
	if opts.MainDBConnectionPool == nil {
		return nil, fmt.Errorf("main database connection pool cannot be nil")
	}

	mainDSN, err := opts.MainDBConnectionPool.DSN(context.Background())
	if err != nil {
		return nil, fmt.Errorf("getting main database DSN: %w", err)
	}

	m := &MultiTenantDataSourceRouter{
		mainPool:   opts.MainDBConnectionPool,
		mainDSN:    mainDSN,
		prefix:     opts.TenantDatabasePrefix,
		poolConfig: db.TenantDBPoolConfig,
		openPool:   opts.OpenPool,
	}
	if m.prefix == "" {
		m.prefix = router.DefaultTenantDatabasePrefix
	}
	if opts.TenantPoolConfig != nil {
		m.poolConfig = *opts.TenantPoolConfig
	}
	if m.openPool == nil {
		m.openPool = db.OpenDBConnectionPoolWithConfig
	}

	maxPools := opts.MaxTenantPools
	if maxPools <= 0 {
		maxPools = DefaultMaxTenantPools
	}
	ttl := opts.TenantPoolTTL
	if ttl <= 0 {
		ttl = DefaultTenantPoolTTL
	}
	m.pools = expirable.NewLRU[string, db.DBConnectionPool](maxPools, closeEvictedPool, ttl)

	return m, nil
}

func closeEvictedPool(databaseName string, pool db.DBConnectionPool) {
	if err := pool.Close(); err != nil {
		log.Errorf("closing connection pool of database %s: %v", databaseName, err)
	}
}

func (m *MultiTenantDataSourceRouter) DatabaseNameFor(tenantID string) string {
	return router.DatabaseNameFor(m.prefix, tenantID)
}

func (m *MultiTenantDataSourceRouter) MainDSN() string {
	return m.mainDSN
}

// ConnectionForMain returns the registry pool, or a *ConnectionError when the registry cannot be reached.
func (m *MultiTenantDataSourceRouter) ConnectionForMain(ctx context.Context) (db.DBConnectionPool, error) {
	if err := m.mainPool.Ping(ctx); err != nil {
		return nil, &ConnectionError{Target: registryTarget, Err: err}
	}
	return m.mainPool, nil
}

// ConnectionForTenant returns a pool scoped to the database derived from tenantID. It never creates the database.
func (m *MultiTenantDataSourceRouter) ConnectionForTenant(ctx context.Context, tenantID string) (db.DBConnectionPool, error) {
	if !IsValidTenantID(tenantID) {
		return nil, NewValidationError("tenant_id", fmt.Sprintf("invalid tenant id %q", tenantID))
	}
	return m.connectionForDatabase(ctx, m.DatabaseNameFor(tenantID))
}

// GetDataSource returns the pool of the tenant stored in ctx with SaveTenantInContext.
func (m *MultiTenantDataSourceRouter) GetDataSource(ctx context.Context) (db.DBConnectionPool, error) {
	currentTenant, err := GetTenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return m.connectionForDatabase(ctx, currentTenant.DatabaseName)
}

func (m *MultiTenantDataSourceRouter) connectionForDatabase(ctx context.Context, databaseName string) (db.DBConnectionPool, error) {
	if pool, ok := m.pools.Get(databaseName); ok {
		return pool, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Fetch in case the pool was opened by another goroutine.
	if pool, ok := m.pools.Get(databaseName); ok {
		return pool, nil
	}

	dsn, err := router.GetDSNForTenant(m.mainDSN, databaseName)
	if err != nil {
		return nil, fmt.Errorf("getting DSN for database %s: %w", databaseName, err)
	}

	pool, err := m.openPool(dsn, m.poolConfig)
	if err != nil {
		if db.IsDatabaseDoesNotExist(err) {
			err = fmt.Errorf("%w: %w", ErrTenantDatabaseDoesNotExist, err)
		}
		return nil, &ConnectionError{Target: databaseName, Err: err}
	}
	log.Ctx(ctx).Debugf("opened connection pool for database %s", databaseName)

	m.pools.Add(databaseName, pool)
	return pool, nil
}

// Evict closes the cached pool of databaseName, if any. It must be called before dropping a database.
func (m *MultiTenantDataSourceRouter) Evict(databaseName string) {
	m.pools.Remove(databaseName)
}

// Close closes every cached tenant pool. The main pool belongs to the caller.
func (m *MultiTenantDataSourceRouter) Close() error {
	m.pools.Purge()
	return nil
}

// IsTenantDatabaseMissing reports whether err was caused by a tenant database that does not exist.
func IsTenantDatabaseMissing(err error) bool {
	return errors.Is(err, ErrTenantDatabaseDoesNotExist)
}
