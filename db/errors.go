package db

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/lib/pq"
)

// Postgres error codes this module reacts to.
const (
	pqUniqueViolation    pq.ErrorCode  = "23505"
	pqDuplicateDatabase  pq.ErrorCode  = "42P04"
	pqInvalidCatalogName pq.ErrorCode  = "3D000"
	pqObjectInUse        pq.ErrorCode  = "55006"
	pqInsufficientPriv   pq.ErrorCode  = "42501"
	pqConnectionClass    pq.ErrorClass = "08"
)

// UniqueViolationConstraint returns the constraint name when err is a unique violation.
func UniqueViolationConstraint(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

// IsDuplicateDatabase reports whether err is a `CREATE DATABASE` on an existing database.
func IsDuplicateDatabase(err error) bool {
	return hasCode(err, pqDuplicateDatabase)
}

// IsDatabaseDoesNotExist reports whether err was raised because the target database is missing.
func IsDatabaseDoesNotExist(err error) bool {
	return hasCode(err, pqInvalidCatalogName)
}

// IsObjectInUse reports whether err was raised because other sessions are using the object, e.g. when dropping a
// database with open connections.
func IsObjectInUse(err error) bool {
	return hasCode(err, pqObjectInUse)
}

// IsInsufficientPrivilege reports whether the database role is not allowed to run the statement, e.g. a
// `CREATE DATABASE` without the CREATEDB attribute.
func IsInsufficientPrivilege(err error) bool {
	return hasCode(err, pqInsufficientPriv)
}

// IsConnectionException reports whether err belongs to the postgres `connection_exception` class.
func IsConnectionException(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Class() == pqConnectionClass
}

func hasCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}

// IsConnectionFailure reports whether err means the database could not be reached, as opposed to a statement failing.
func IsConnectionFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return IsConnectionException(err) || IsDatabaseDoesNotExist(err)
}
