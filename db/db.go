package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const (
	DefaultConnMaxIdleTimeSeconds = 10
	DefaultConnMaxLifetimeSeconds = 300
	DefaultConnectTimeoutSeconds  = 5
	DefaultStatementTimeout       = 30 * time.Second
)

// DBPoolConfig represents tunables for the sql.DB pool and the per-connection timeouts.
type DBPoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	// ConnectTimeout is sent to the server as `connect_timeout`. Zero disables it.
	ConnectTimeout time.Duration
	// StatementTimeout is sent to the server as `statement_timeout`. Zero disables it.
	StatementTimeout time.Duration
}

var DefaultDBPoolConfig = DBPoolConfig{
	MaxOpenConns:     20,
	MaxIdleConns:     2,
	ConnMaxIdleTime:  DefaultConnMaxIdleTimeSeconds * time.Second,
	ConnMaxLifetime:  DefaultConnMaxLifetimeSeconds * time.Second,
	ConnectTimeout:   DefaultConnectTimeoutSeconds * time.Second,
	StatementTimeout: DefaultStatementTimeout,
}

// TenantDBPoolConfig is used for the per-tenant pools, which are many and mostly idle.
var TenantDBPoolConfig = DBPoolConfig{
	MaxOpenConns:     5,
	MaxIdleConns:     1,
	ConnMaxIdleTime:  DefaultConnMaxIdleTimeSeconds * time.Second,
	ConnMaxLifetime:  DefaultConnMaxLifetimeSeconds * time.Second,
	ConnectTimeout:   DefaultConnectTimeoutSeconds * time.Second,
	StatementTimeout: DefaultStatementTimeout,
}

// DBConnectionPool is the subset of *sqlx.DB used by the registry and the tenant stores.
//
//go:generate mockery --name=DBConnectionPool --case=underscore --structname=MockDBConnectionPool
type DBConnectionPool interface {
	SQLExecuter
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (DBTransaction, error)
	Close() error
	Ping(ctx context.Context) error
	SqlDB(ctx context.Context) (*sql.DB, error)
	SqlxDB(ctx context.Context) (*sqlx.DB, error)
	DSN(ctx context.Context) (string, error)
}

// DBConnectionPoolImplementation is a wrapper around sqlx.DB that implements DBConnectionPool.
type DBConnectionPoolImplementation struct {
	*sqlx.DB
	dataSourceName string
}

// NewDBConnectionPoolImplementation wraps an already opened *sqlx.DB.
func NewDBConnectionPoolImplementation(sqlxDB *sqlx.DB, dataSourceName string) *DBConnectionPoolImplementation {
	return &DBConnectionPoolImplementation{DB: sqlxDB, dataSourceName: dataSourceName}
}

func (db *DBConnectionPoolImplementation) BeginTxx(ctx context.Context, opts *sql.TxOptions) (DBTransaction, error) {
	return db.DB.BeginTxx(ctx, opts)
}

func (db *DBConnectionPoolImplementation) Ping(ctx context.Context) error {
	return db.DB.PingContext(ctx)
}

func (db *DBConnectionPoolImplementation) SqlDB(ctx context.Context) (*sql.DB, error) {
	if db.DB == nil || db.DB.DB == nil {
		return nil, fmt.Errorf("sql.DB is not initialized")
	}
	return db.DB.DB, nil
}

func (db *DBConnectionPoolImplementation) SqlxDB(ctx context.Context) (*sqlx.DB, error) {
	if db.DB == nil {
		return nil, fmt.Errorf("sqlx.DB is not initialized")
	}
	return db.DB, nil
}

func (db *DBConnectionPoolImplementation) DSN(ctx context.Context) (string, error) {
	return db.dataSourceName, nil
}

// make sure *DBConnectionPoolImplementation implements DBConnectionPool:
var _ DBConnectionPool = (*DBConnectionPoolImplementation)(nil)

// DBTransaction is an interface that wraps the sqlx.Tx structs methods.
type DBTransaction interface {
	SQLExecuter
	Rollback() error
	Commit() error
}

// make sure *sqlx.Tx implements DBTransaction:
var _ DBTransaction = (*sqlx.Tx)(nil)

// SQLExecuter is an interface that wraps the *sqlx.DB and *sqlx.Tx structs methods.
type SQLExecuter interface {
	DriverName() string
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	sqlx.PreparerContext
	sqlx.QueryerContext
	Rebind(query string) string
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

var (
	_ SQLExecuter = (*sqlx.DB)(nil)
	_ SQLExecuter = (DBConnectionPool)(nil)
	_ SQLExecuter = (*sqlx.Tx)(nil)
	_ SQLExecuter = (DBTransaction)(nil)
)

// WithTimeouts returns the DSN with the `connect_timeout` and `statement_timeout` options of cfg applied. Options
// already present in the DSN are kept.
func WithTimeouts(dataSourceName string, cfg DBPoolConfig) (string, error) {
	u, err := url.Parse(dataSourceName)
	if err != nil {
		return "", fmt.Errorf("parsing database DSN: %w", err)
	}

	q := u.Query()
	if cfg.ConnectTimeout > 0 && q.Get("connect_timeout") == "" {
		q.Set("connect_timeout", strconv.Itoa(int(cfg.ConnectTimeout.Seconds())))
	}
	if cfg.StatementTimeout > 0 && q.Get("statement_timeout") == "" {
		q.Set("statement_timeout", strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10))
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// OpenDBConnectionPoolWithConfig opens a new database connection pool. It returns an error if it can't connect to the database.
func OpenDBConnectionPoolWithConfig(dataSourceName string, cfg DBPoolConfig) (DBConnectionPool, error) {
	dsn, err := WithTimeouts(dataSourceName, cfg)
	if err != nil {
		return nil, fmt.Errorf("applying timeouts to the database DSN: %w", err)
	}

	sqlxDB, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error creating app DB connection pool: %w", err)
	}

	sqlxDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlxDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlxDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	sqlxDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	err = sqlxDB.Ping()
	if err != nil {
		_ = sqlxDB.Close()
		return nil, fmt.Errorf("error pinging app DB connection pool: %w", err)
	}

	return &DBConnectionPoolImplementation{DB: sqlxDB, dataSourceName: dataSourceName}, nil
}

// OpenDBConnectionPool opens a new database connection pool with default settings.
func OpenDBConnectionPool(dataSourceName string) (DBConnectionPool, error) {
	return OpenDBConnectionPoolWithConfig(dataSourceName, DefaultDBPoolConfig)
}
