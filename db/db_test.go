package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/72mo2c/pero-system-sub002/db/dbtest"
)

func TestOpen_OpenDBConnectionPool(t *testing.T) {
	db := dbtest.OpenWithoutMigrations(t)
	defer db.Close()

	dbConnectionPool, err := OpenDBConnectionPool(db.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	assert.Equal(t, "postgres", dbConnectionPool.DriverName())

	ctx := context.Background()
	err = dbConnectionPool.Ping(ctx)
	require.NoError(t, err)

	var statementTimeout string
	err = dbConnectionPool.GetContext(ctx, &statementTimeout, "SHOW statement_timeout")
	require.NoError(t, err)
	assert.Equal(t, "30s", statementTimeout)

	dsn, err := dbConnectionPool.DSN(ctx)
	require.NoError(t, err)
	assert.Equal(t, db.DSN, dsn)
}

func TestOpen_OpenDBConnectionPoolWithConfig(t *testing.T) {
	db := dbtest.OpenWithoutMigrations(t)
	defer db.Close()

	cfg := TenantDBPoolConfig
	cfg.StatementTimeout = 1500 * time.Millisecond
	dbConnectionPool, err := OpenDBConnectionPoolWithConfig(db.DSN, cfg)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	ctx := context.Background()
	var statementTimeout string
	err = dbConnectionPool.GetContext(ctx, &statementTimeout, "SHOW statement_timeout")
	require.NoError(t, err)
	assert.Equal(t, "1500ms", statementTimeout)

	sqlDB, err := dbConnectionPool.SqlDB(ctx)
	require.NoError(t, err)
	assert.Equal(t, TenantDBPoolConfig.MaxOpenConns, sqlDB.Stats().MaxOpenConnections)

	_, err = OpenDBConnectionPoolWithConfig("postgres://%zz", cfg)
	assert.ErrorContains(t, err, "applying timeouts to the database DSN")
}

func Test_WithTimeouts(t *testing.T) {
	testCases := []struct {
		name    string
		dsn     string
		cfg     DBPoolConfig
		wantDSN string
	}{
		{
			name:    "adds both timeouts",
			dsn:     "postgres://localhost/main?sslmode=disable",
			cfg:     DBPoolConfig{ConnectTimeout: 5 * time.Second, StatementTimeout: 2 * time.Second},
			wantDSN: "postgres://localhost/main?connect_timeout=5&sslmode=disable&statement_timeout=2000",
		},
		{
			name:    "keeps timeouts already in the DSN",
			dsn:     "postgres://localhost/main?connect_timeout=1",
			cfg:     DBPoolConfig{ConnectTimeout: 5 * time.Second},
			wantDSN: "postgres://localhost/main?connect_timeout=1",
		},
		{
			name:    "zero values are left out",
			dsn:     "postgres://localhost/main",
			cfg:     DBPoolConfig{},
			wantDSN: "postgres://localhost/main",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dsn, err := WithTimeouts(tc.dsn, tc.cfg)
			require.NoError(t, err)
			assert.Equal(t, tc.wantDSN, dsn)
		})
	}
}

func Test_ErrorClassification(t *testing.T) {
	uniqueErr := &pq.Error{Code: "23505", Constraint: "tenants_tenant_id_unique"}
	constraint, ok := UniqueViolationConstraint(uniqueErr)
	assert.True(t, ok)
	assert.Equal(t, "tenants_tenant_id_unique", constraint)

	_, ok = UniqueViolationConstraint(errors.New("foo"))
	assert.False(t, ok)

	assert.True(t, IsDuplicateDatabase(&pq.Error{Code: "42P04"}))
	assert.False(t, IsDuplicateDatabase(uniqueErr))
	assert.True(t, IsDatabaseDoesNotExist(&pq.Error{Code: "3D000"}))
	assert.True(t, IsObjectInUse(&pq.Error{Code: "55006"}))
	assert.True(t, IsInsufficientPrivilege(fmt.Errorf("creating database: %w", &pq.Error{Code: "42501"})))
	assert.False(t, IsInsufficientPrivilege(uniqueErr))
	assert.True(t, IsConnectionException(&pq.Error{Code: "08006"}))
	assert.False(t, IsConnectionException(uniqueErr))

	assert.True(t, IsConnectionFailure(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}))
	assert.True(t, IsConnectionFailure(fmt.Errorf("pinging: %w", &pq.Error{Code: "3D000"})))
	assert.False(t, IsConnectionFailure(uniqueErr))
	assert.False(t, IsConnectionFailure(nil))
}
