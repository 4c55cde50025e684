package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/72mo2c/pero-system-sub002/internal/monitor"
)

type QueryType string

const (
	DeleteQueryType    QueryType = "DELETE"
	InsertQueryType    QueryType = "INSERT"
	SelectQueryType    QueryType = "SELECT"
	UpdateQueryType    QueryType = "UPDATE"
	DDLQueryType       QueryType = "DDL"
	UndefinedQueryType QueryType = "UNDEFINED"
)

// getQueryType classifies a statement by its first keyword. CTEs are reported as SELECT.
func getQueryType(query string) QueryType {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return UndefinedQueryType
	}

	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH":
		return SelectQueryType
	case "INSERT":
		return InsertQueryType
	case "UPDATE":
		return UpdateQueryType
	case "DELETE":
		return DeleteQueryType
	case "CREATE", "DROP", "ALTER":
		return DDLQueryType
	default:
		return UndefinedQueryType
	}
}

func getMetricTag(err error) monitor.MetricTag {
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return monitor.FailureQueryDurationTag
	}
	return monitor.SuccessfulQueryDurationTag
}

// SQLExecuterWithMetrics records the duration of every statement sent through the wrapped SQLExecuter.
type SQLExecuterWithMetrics struct {
	SQLExecuter
	monitorService monitor.MonitorServiceInterface
}

var _ SQLExecuter = (*SQLExecuterWithMetrics)(nil)

func (s *SQLExecuterWithMetrics) observe(then time.Time, query string, err error) {
	labels := monitor.DBQueryLabels{QueryType: string(getQueryType(query))}
	if metricErr := s.monitorService.MonitorDBQueryDuration(time.Since(then), getMetricTag(err), labels); metricErr != nil {
		log.Errorf("Error trying to monitor db query duration: %s", metricErr)
	}
}

func (s *SQLExecuterWithMetrics) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	then := time.Now()
	err := s.SQLExecuter.GetContext(ctx, dest, query, args...)
	s.observe(then, query, err)
	return err
}

func (s *SQLExecuterWithMetrics) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	then := time.Now()
	err := s.SQLExecuter.SelectContext(ctx, dest, query, args...)
	s.observe(then, query, err)
	return err
}

func (s *SQLExecuterWithMetrics) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	then := time.Now()
	result, err := s.SQLExecuter.ExecContext(ctx, query, args...)
	s.observe(then, query, err)
	return result, err
}

func (s *SQLExecuterWithMetrics) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	then := time.Now()
	rows, err := s.SQLExecuter.QueryContext(ctx, query, args...)
	s.observe(then, query, err)
	return rows, err
}

func (s *SQLExecuterWithMetrics) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	then := time.Now()
	rows, err := s.SQLExecuter.QueryxContext(ctx, query, args...)
	s.observe(then, query, err)
	return rows, err
}

// QueryRowxContext defers errors to Scan, so only the round trip is recorded.
func (s *SQLExecuterWithMetrics) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	then := time.Now()
	row := s.SQLExecuter.QueryRowxContext(ctx, query, args...)
	s.observe(then, query, row.Err())
	return row
}

// DBConnectionPoolWithMetrics is a DBConnectionPool whose statements, including the ones run in transactions, are
// timed through the monitor service.
type DBConnectionPoolWithMetrics struct {
	SQLExecuterWithMetrics
	dbConnectionPool DBConnectionPool
}

var _ DBConnectionPool = (*DBConnectionPoolWithMetrics)(nil)

func NewDBConnectionPoolWithMetrics(dbConnectionPool DBConnectionPool, monitorService monitor.MonitorServiceInterface) (*DBConnectionPoolWithMetrics, error) {
	if dbConnectionPool == nil {
		return nil, fmt.Errorf("db connection pool cannot be nil")
	}
	if monitorService == nil {
		return nil, fmt.Errorf("monitor service cannot be nil")
	}

	return &DBConnectionPoolWithMetrics{
		SQLExecuterWithMetrics: SQLExecuterWithMetrics{SQLExecuter: dbConnectionPool, monitorService: monitorService},
		dbConnectionPool:       dbConnectionPool,
	}, nil
}

// OpenDBConnectionPoolWithMetrics opens a pool with cfg and wraps it with query metrics.
func OpenDBConnectionPoolWithMetrics(dataSourceName string, cfg DBPoolConfig, monitorService monitor.MonitorServiceInterface) (DBConnectionPool, error) {
	dbConnectionPool, err := OpenDBConnectionPoolWithConfig(dataSourceName, cfg)
	if err != nil {
		return nil, err
	}

	pool, err := NewDBConnectionPoolWithMetrics(dbConnectionPool, monitorService)
	if err != nil {
		_ = dbConnectionPool.Close()
		return nil, fmt.Errorf("wrapping connection pool with metrics: %w", err)
	}
	return pool, nil
}

func (p *DBConnectionPoolWithMetrics) BeginTxx(ctx context.Context, opts *sql.TxOptions) (DBTransaction, error) {
	dbTx, err := p.dbConnectionPool.BeginTxx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("starting a new transaction: %w", err)
	}

	return &DBTransactionWithMetrics{
		SQLExecuterWithMetrics: SQLExecuterWithMetrics{SQLExecuter: dbTx, monitorService: p.monitorService},
		dbTransaction:          dbTx,
	}, nil
}

func (p *DBConnectionPoolWithMetrics) Close() error {
	return p.dbConnectionPool.Close()
}

func (p *DBConnectionPoolWithMetrics) Ping(ctx context.Context) error {
	return p.dbConnectionPool.Ping(ctx)
}

func (p *DBConnectionPoolWithMetrics) SqlDB(ctx context.Context) (*sql.DB, error) {
	return p.dbConnectionPool.SqlDB(ctx)
}

func (p *DBConnectionPoolWithMetrics) SqlxDB(ctx context.Context) (*sqlx.DB, error) {
	return p.dbConnectionPool.SqlxDB(ctx)
}

func (p *DBConnectionPoolWithMetrics) DSN(ctx context.Context) (string, error) {
	return p.dbConnectionPool.DSN(ctx)
}

type DBTransactionWithMetrics struct {
	SQLExecuterWithMetrics
	dbTransaction DBTransaction
}

var _ DBTransaction = (*DBTransactionWithMetrics)(nil)

func (tx *DBTransactionWithMetrics) Commit() error {
	return tx.dbTransaction.Commit()
}

func (tx *DBTransactionWithMetrics) Rollback() error {
	return tx.dbTransaction.Rollback()
}
