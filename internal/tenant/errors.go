package tenant

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrTenantDoesNotExist         = errors.New("tenant does not exist")
	ErrStatusConflict             = errors.New("tenant status was changed by another operation")
	ErrTenantNotFoundInContext    = errors.New("tenant not found in context")
	ErrTenantDatabaseDoesNotExist = errors.New("tenant database does not exist")
)

// ValidationError lists every field-level rule an input violated, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ConflictError is returned when a unique field is already taken by another tenant.
type ConflictError struct {
	Fields []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("tenant already exists with the same %s", strings.Join(e.Fields, ", "))
}

// ConnectionError is returned when the registry or a tenant database cannot be reached. Target names the database.
type ConnectionError struct {
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connecting to database %s: %v", e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
