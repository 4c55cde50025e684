package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/slices"

	"github.com/72mo2c/pero-system-sub002/db"
	"github.com/72mo2c/pero-system-sub002/db/router"
	"github.com/72mo2c/pero-system-sub002/internal/data"
	"github.com/72mo2c/pero-system-sub002/internal/utils"
)

const (
	MinExtensionDays = 1
	MaxExtensionDays = 365

	registryTarget = "registry"
	dateFormat     = "2006-01-02"
)

const tenantColumns = `
	t.id, t.tenant_id, t.company_name, t.company_name_en, t.contact_person, t.email, t.phone, t.address, t.city,
	t.subscription_plan, t.subscription_start, t.subscription_end, t.status, t.database_name,
	t.provisioning_error, t.provisioned_at, t.created_by, t.created_at, t.updated_at
`

var selectTenantQuery = "SELECT " + tenantColumns + " FROM tenants t"

// uniqueConstraintFields maps the unique constraints of the tenants table to the field they protect.
var uniqueConstraintFields = map[string]string{
	"tenants_tenant_id_unique":     "tenant_id",
	"tenants_email_unique":         "email",
	"tenants_database_name_unique": "database_name",
}

//go:generate mockery --name=ManagerInterface --case=underscore --structname=TenantManagerMock
type ManagerInterface interface {
	DatabaseNameFor(tenantID string) string
	CreateTenant(ctx context.Context, ti *TenantInsert) (*Tenant, error)
	GetTenantByID(ctx context.Context, id int64) (*Tenant, error)
	GetTenantByTenantID(ctx context.Context, tenantID string) (*Tenant, error)
	GetTenantByIDOrTenantID(ctx context.Context, ref string) (*Tenant, error)
	SearchTenants(ctx context.Context, qp *QueryParams) (*TenantsPage, error)
	CountTenants(ctx context.Context, qp *QueryParams) (int, error)
	UpdateStatus(ctx context.Context, id int64, status TenantStatus) (*Tenant, error)
	CompareAndSwapStatus(ctx context.Context, id int64, from, to TenantStatus) (*Tenant, error)
	ClaimForProvisioning(ctx context.Context, id int64, staleAfter time.Duration) (*Tenant, error)
	MarkProvisioned(ctx context.Context, id int64) (*Tenant, error)
	MarkProvisioningFailed(ctx context.Context, id int64, summary string) (*Tenant, error)
	ExtendSubscription(ctx context.Context, id int64, days int, today time.Time) (*Tenant, error)
	DeleteTenant(ctx context.Context, id int64) (*Tenant, error)
	ListOrphanedDatabases(ctx context.Context) ([]string, error)
	IsDatabaseRegistered(ctx context.Context, databaseName string) (bool, error)
}

// Manager is the tenant registry. It owns the `tenants` table of the main database.
type Manager struct {
	db             db.DBConnectionPool
	databasePrefix string
	now            func() time.Time
}

var _ ManagerInterface = (*Manager)(nil)

type Option func(m *Manager)

func NewManager(opts ...Option) *Manager {
	m := Manager{
		databasePrefix: router.DefaultTenantDatabasePrefix,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return &m
}

func WithDatabase(dbConnectionPool db.DBConnectionPool) Option {
	return func(m *Manager) {
		m.db = dbConnectionPool
	}
}

func WithTenantDatabasePrefix(prefix string) Option {
	return func(m *Manager) {
		if prefix != "" {
			m.databasePrefix = prefix
		}
	}
}

// WithClock replaces the clock used to compute the default subscription dates.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func (m *Manager) DatabaseNameFor(tenantID string) string {
	return router.DatabaseNameFor(m.databasePrefix, tenantID)
}

// CreateTenant validates and inserts a tenant in the pending status. Violated field rules are reported together in a
// *ValidationError and taken business keys in a *ConflictError.
func (m *Manager) CreateTenant(ctx context.Context, ti *TenantInsert) (*Tenant, error) {
	if ti == nil {
		return nil, NewValidationError("body", "tenant fields are required")
	}

	ti.Normalize()
	if err := ti.Validate(); err != nil {
		return nil, err
	}

	start, end := ti.subscriptionDates(utils.TruncateToDate(m.now()))
	if end.Before(start) {
		return nil, NewValidationError("subscription_end", "subscription_end cannot be before subscription_start")
	}

	conflicts, err := m.findConflicts(ctx, ti.TenantID, ti.Email)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, &ConflictError{Fields: conflicts}
	}

	const q = `
		INSERT INTO tenants AS t (
			tenant_id, company_name, company_name_en, contact_person, email, phone, address, city,
			subscription_plan, subscription_start, subscription_end, status, database_name, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14
		)
		RETURNING ` + tenantColumns

	var t Tenant
	err = m.db.GetContext(ctx, &t, q,
		ti.TenantID, ti.CompanyName, ti.CompanyNameEN, ti.ContactPerson, ti.Email, ti.Phone, ti.Address, ti.City,
		ti.SubscriptionPlan, start.Format(dateFormat), end.Format(dateFormat), PendingTenantStatus, m.DatabaseNameFor(ti.TenantID), ti.CreatedBy,
	)
	if err != nil {
		if constraint, ok := db.UniqueViolationConstraint(err); ok {
			field, known := uniqueConstraintFields[constraint]
			if !known {
				field = constraint
			}
			return nil, &ConflictError{Fields: []string{field}}
		}
		return nil, wrapRegistryError(err, "inserting tenant %s", ti.TenantID)
	}

	return &t, nil
}

func (m *Manager) findConflicts(ctx context.Context, tenantID, email string) ([]string, error) {
	const q = "SELECT tenant_id, LOWER(email) AS email FROM tenants WHERE tenant_id = $1 OR LOWER(email) = $2"

	var rows []struct {
		TenantID string `db:"tenant_id"`
		Email    string `db:"email"`
	}
	if err := m.db.SelectContext(ctx, &rows, q, tenantID, email); err != nil {
		return nil, wrapRegistryError(err, "checking existing tenants")
	}

	var fields []string
	for _, row := range rows {
		if row.TenantID == tenantID && !slices.Contains(fields, "tenant_id") {
			fields = append(fields, "tenant_id")
		}
		if row.Email == email && !slices.Contains(fields, "email") {
			fields = append(fields, "email")
		}
	}
	return fields, nil
}

func (m *Manager) GetTenantByID(ctx context.Context, id int64) (*Tenant, error) {
	return m.getTenant(ctx, selectTenantQuery+" WHERE t.id = $1", id)
}

func (m *Manager) GetTenantByTenantID(ctx context.Context, tenantID string) (*Tenant, error) {
	return m.getTenant(ctx, selectTenantQuery+" WHERE t.tenant_id = $1", utils.TrimAndLower(tenantID))
}

// GetTenantByIDOrTenantID resolves a numeric reference as the surrogate id and anything else as the tenant ID.
func (m *Manager) GetTenantByIDOrTenantID(ctx context.Context, ref string) (*Tenant, error) {
	if id, err := strconv.ParseInt(strings.TrimSpace(ref), 10, 64); err == nil {
		return m.GetTenantByID(ctx, id)
	}
	return m.GetTenantByTenantID(ctx, ref)
}

func (m *Manager) getTenant(ctx context.Context, q string, args ...interface{}) (*Tenant, error) {
	var t Tenant
	if err := m.db.GetContext(ctx, &t, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTenantDoesNotExist
		}
		return nil, wrapRegistryError(err, "getting tenant")
	}
	return &t, nil
}

// SearchTenants returns a page of tenants matching the query params. Results are ordered by creation time, newest
// first, unless another order is requested.
func (m *Manager) SearchTenants(ctx context.Context, qp *QueryParams) (*TenantsPage, error) {
	qp = normalizeQueryParams(qp)

	total, err := m.CountTenants(ctx, qp)
	if err != nil {
		return nil, err
	}

	qb := data.NewQueryBuilder(selectTenantQuery)
	applyFilters(qb, qp)
	qb.AddSorting(qp.SortBy, qp.SortOrder, "t")
	qb.AddPagination(qp.Page, qp.PageLimit)
	q, params := qb.BuildAndRebind(m.db)

	tenants := []Tenant{}
	if err = m.db.SelectContext(ctx, &tenants, q, params...); err != nil {
		return nil, wrapRegistryError(err, "searching tenants")
	}

	return &TenantsPage{
		Tenants:   tenants,
		Total:     total,
		Page:      qp.Page,
		PageLimit: qp.PageLimit,
	}, nil
}

func (m *Manager) CountTenants(ctx context.Context, qp *QueryParams) (int, error) {
	if qp == nil {
		qp = &QueryParams{}
	}

	qb := data.NewQueryBuilder("SELECT COUNT(*) FROM tenants t")
	applyFilters(qb, qp)
	q, params := qb.BuildAndRebind(m.db)

	var count int
	if err := m.db.GetContext(ctx, &count, q, params...); err != nil {
		return 0, wrapRegistryError(err, "counting tenants")
	}
	return count, nil
}

func normalizeQueryParams(qp *QueryParams) *QueryParams {
	normalized := QueryParams{}
	if qp != nil {
		normalized = *qp
	}

	if normalized.Page < 1 {
		normalized.Page = data.DefaultPage
	}
	if normalized.PageLimit < 1 {
		normalized.PageLimit = data.DefaultPageLimit
	}
	if normalized.PageLimit > data.MaxPageLimit {
		normalized.PageLimit = data.MaxPageLimit
	}
	if !slices.Contains(AllowedSortFields(), normalized.SortBy) {
		normalized.SortBy = data.SortFieldCreatedAt
	}
	if normalized.SortOrder != data.SortOrderASC {
		normalized.SortOrder = data.SortOrderDESC
	}
	return &normalized
}

func applyFilters(qb *data.QueryBuilder, qp *QueryParams) {
	if q := strings.TrimSpace(qp.Query); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		qb.AddAnyOfCondition([]string{"t.company_name", "t.company_name_en", "t.email", "t.tenant_id"}, "ILIKE", pattern)
	}

	for _, key := range AllowedFilters() {
		value, ok := qp.Filters[key]
		if !ok || value == nil {
			continue
		}

		switch key {
		case FilterKeyStatus:
			qb.AddCondition("t.status = ?", fmt.Sprint(value))
		case FilterKeyPlan:
			qb.AddCondition("t.subscription_plan = ?", fmt.Sprint(value))
		case FilterKeyCreatedBy:
			qb.AddCondition("t.created_by = ?", fmt.Sprint(value))
		case FilterKeyExpired:
			expired, err := strconv.ParseBool(fmt.Sprint(value))
			if err != nil {
				continue
			}
			if expired {
				qb.AddCondition("t.subscription_end < CURRENT_DATE")
			} else {
				qb.AddCondition("t.subscription_end >= CURRENT_DATE")
			}
		}
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// UpdateStatus writes the status unconditionally. Lifecycle transitions go through CompareAndSwapStatus instead.
func (m *Manager) UpdateStatus(ctx context.Context, id int64, status TenantStatus) (*Tenant, error) {
	if !status.IsValid() {
		return nil, NewValidationError("status", fmt.Sprintf("invalid tenant status %q", status))
	}

	const q = "UPDATE tenants AS t SET status = $2 WHERE t.id = $1 RETURNING " + tenantColumns
	return m.updateTenant(ctx, id, q, id, status)
}

// CompareAndSwapStatus moves the tenant from one status to another in a single conditional statement. It returns
// ErrStatusConflict when the tenant is no longer in the from status.
func (m *Manager) CompareAndSwapStatus(ctx context.Context, id int64, from, to TenantStatus) (*Tenant, error) {
	const q = "UPDATE tenants AS t SET status = $3 WHERE t.id = $1 AND t.status = $2 RETURNING " + tenantColumns
	return m.updateTenant(ctx, id, q, id, from, to)
}

// ClaimForProvisioning moves a pending tenant to provisioning. A tenant left in provisioning for longer than
// staleAfter, e.g. after a crash, can be claimed again.
func (m *Manager) ClaimForProvisioning(ctx context.Context, id int64, staleAfter time.Duration) (*Tenant, error) {
	const q = `
		UPDATE tenants AS t
		SET status = 'provisioning', provisioning_error = NULL
		WHERE t.id = $1
			AND (
				t.status = 'pending'
				OR (t.status = 'provisioning' AND t.updated_at < NOW() - ($2 * INTERVAL '1 second'))
			)
		RETURNING ` + tenantColumns
	return m.updateTenant(ctx, id, q, id, int64(staleAfter.Seconds()))
}

func (m *Manager) MarkProvisioned(ctx context.Context, id int64) (*Tenant, error) {
	const q = `
		UPDATE tenants AS t
		SET status = 'active', provisioned_at = NOW(), provisioning_error = NULL
		WHERE t.id = $1 AND t.status = 'provisioning'
		RETURNING ` + tenantColumns
	return m.updateTenant(ctx, id, q, id)
}

// MarkProvisioningFailed puts the tenant back in pending, so approval can be retried, and keeps the failure summary.
func (m *Manager) MarkProvisioningFailed(ctx context.Context, id int64, summary string) (*Tenant, error) {
	const q = `
		UPDATE tenants AS t
		SET status = 'pending', provisioning_error = $2
		WHERE t.id = $1 AND t.status = 'provisioning'
		RETURNING ` + tenantColumns
	return m.updateTenant(ctx, id, q, id, summary)
}

// ExtendSubscription adds days to the later of the current end date and today.
func (m *Manager) ExtendSubscription(ctx context.Context, id int64, days int, today time.Time) (*Tenant, error) {
	if days < MinExtensionDays || days > MaxExtensionDays {
		return nil, NewValidationError("days", fmt.Sprintf("days must be between %d and %d", MinExtensionDays, MaxExtensionDays))
	}

	const q = `
		UPDATE tenants AS t
		SET subscription_end = GREATEST(t.subscription_end, $2::date) + $3::integer
		WHERE t.id = $1
		RETURNING ` + tenantColumns
	t, err := m.updateTenant(ctx, id, q, id, utils.TruncateToDate(today).Format(dateFormat), days)
	if errors.Is(err, ErrStatusConflict) {
		return nil, ErrTenantDoesNotExist
	}
	return t, err
}

// DeleteTenant removes the registry row and returns it. The tenant database is left untouched.
func (m *Manager) DeleteTenant(ctx context.Context, id int64) (*Tenant, error) {
	const q = "DELETE FROM tenants AS t WHERE t.id = $1 RETURNING " + tenantColumns

	var t Tenant
	if err := m.db.GetContext(ctx, &t, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTenantDoesNotExist
		}
		return nil, wrapRegistryError(err, "deleting tenant %d", id)
	}
	return &t, nil
}

// updateTenant runs a conditional UPDATE ... RETURNING. When no row is returned it tells a missing tenant apart from
// a tenant whose status did not match.
func (m *Manager) updateTenant(ctx context.Context, id int64, q string, args ...interface{}) (*Tenant, error) {
	var t Tenant
	err := m.db.GetContext(ctx, &t, q, args...)
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, wrapRegistryError(err, "updating tenant %d", id)
	}

	current, getErr := m.GetTenantByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("%w: tenant %s is %s", ErrStatusConflict, current.TenantID, current.Status)
}

// ListOrphanedDatabases returns the tenant databases that exist on the server but have no registry row.
func (m *Manager) ListOrphanedDatabases(ctx context.Context) ([]string, error) {
	const q = `
		SELECT d.datname
		FROM pg_database d
		WHERE d.datname LIKE $1 ESCAPE '\'
			AND NOT d.datistemplate
			AND NOT EXISTS (SELECT 1 FROM tenants t WHERE t.database_name = d.datname)
		ORDER BY d.datname
	`

	names := []string{}
	if err := m.db.SelectContext(ctx, &names, q, escapeLike(m.databasePrefix)+"%"); err != nil {
		return nil, wrapRegistryError(err, "listing orphaned tenant databases")
	}

	orphans := make([]string, 0, len(names))
	for _, name := range names {
		if router.HasTenantDatabasePrefix(m.databasePrefix, name) {
			orphans = append(orphans, name)
		}
	}
	return orphans, nil
}

func (m *Manager) IsDatabaseRegistered(ctx context.Context, databaseName string) (bool, error) {
	const q = "SELECT EXISTS(SELECT 1 FROM tenants WHERE database_name = $1)"

	var exists bool
	if err := m.db.GetContext(ctx, &exists, q, databaseName); err != nil {
		return false, wrapRegistryError(err, "checking database %s registration", databaseName)
	}
	return exists, nil
}

func wrapRegistryError(err error, format string, args ...interface{}) error {
	if db.IsConnectionFailure(err) {
		return &ConnectionError{Target: registryTarget, Err: err}
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
