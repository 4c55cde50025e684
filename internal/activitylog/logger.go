package activitylog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/72mo2c/pero-system-sub002/db"
	"github.com/72mo2c/pero-system-sub002/internal/data"
	"github.com/72mo2c/pero-system-sub002/internal/monitor"
)

//go:generate mockery --name=LoggerInterface --case=underscore --structname=LoggerMock
type LoggerInterface interface {
	// Record writes an entry. It never fails the caller: a failed write is logged and counted.
	Record(ctx context.Context, actor string, action Action, tenantID string, details Details)
	List(ctx context.Context, qp *QueryParams) (*EntriesPage, error)
}

// Logger persists the operator activity in the `activity_logs` table of the registry database.
type Logger struct {
	db             db.DBConnectionPool
	monitorService monitor.MonitorServiceInterface
	newID          func() string
}

var _ LoggerInterface = (*Logger)(nil)

func NewLogger(dbConnectionPool db.DBConnectionPool, monitorService monitor.MonitorServiceInterface) (*Logger, error) {
	if dbConnectionPool == nil {
		return nil, fmt.Errorf("database connection pool cannot be nil")
	}

	return &Logger{
		db:             dbConnectionPool,
		monitorService: monitorService,
		newID:          func() string { return uuid.New().String() },
	}, nil
}

func (l *Logger) Record(ctx context.Context, actor string, action Action, tenantID string, details Details) {
	const q = `
		INSERT INTO activity_logs (id, actor, action, tenant_id, details)
		VALUES ($1, $2, $3, $4, $5)
	`

	var tenantIDArg *string
	if tenantID = strings.TrimSpace(tenantID); tenantID != "" {
		tenantIDArg = &tenantID
	}

	_, err := l.db.ExecContext(ctx, q, l.newID(), actor, action, tenantIDArg, details)
	if err == nil {
		return
	}

	log.Ctx(ctx).WithFields(log.F{"actor": actor, "action": action, "tenant_id": tenantID}).Errorf("recording activity: %v", err)
	if l.monitorService != nil {
		if monitorErr := l.monitorService.MonitorCounters(monitor.ActivityLogWriteFailureTag, nil); monitorErr != nil {
			log.Ctx(ctx).Errorf("monitoring activity log write failure: %v", monitorErr)
		}
	}
}

// List returns the most recent entries first.
func (l *Logger) List(ctx context.Context, qp *QueryParams) (*EntriesPage, error) {
	qp = normalizeQueryParams(qp)

	countQB := data.NewQueryBuilder("SELECT COUNT(*) FROM activity_logs a")
	applyFilters(countQB, qp)
	q, params := countQB.BuildAndRebind(l.db)

	var total int
	if err := l.db.GetContext(ctx, &total, q, params...); err != nil {
		return nil, fmt.Errorf("counting activity entries: %w", err)
	}

	qb := data.NewQueryBuilder("SELECT a.id, a.actor, a.action, a.tenant_id, a.details, a.created_at FROM activity_logs a")
	applyFilters(qb, qp)
	qb.AddSorting(data.SortFieldCreatedAt, data.SortOrderDESC, "a")
	qb.AddPagination(qp.Page, qp.PageLimit)
	q, params = qb.BuildAndRebind(l.db)

	entries := []Entry{}
	if err := l.db.SelectContext(ctx, &entries, q, params...); err != nil {
		return nil, fmt.Errorf("listing activity entries: %w", err)
	}

	return &EntriesPage{
		Entries:   entries,
		Total:     total,
		Page:      qp.Page,
		PageLimit: qp.PageLimit,
	}, nil
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
	normalized.TenantID = strings.ToLower(strings.TrimSpace(normalized.TenantID))
	return &normalized
}

func applyFilters(qb *data.QueryBuilder, qp *QueryParams) {
	if qp.TenantID != "" {
		qb.AddCondition("a.tenant_id = ?", qp.TenantID)
	}
	if qp.Action != "" {
		qb.AddCondition("a.action = ?", qp.Action)
	}
}
