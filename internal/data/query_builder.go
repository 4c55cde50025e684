package data

import (
	"fmt"
	"strings"

	"github.com/72mo2c/pero-system-sub002/db"
)

// QueryBuilder is a helper struct for building SQL queries
type QueryBuilder struct {
	baseQuery        string
	whereClause      string
	whereParams      []interface{}
	sortClause       string
	paginationClause string
	paginationParams []interface{}
}

// NewQueryBuilder creates a new QueryBuilder
func NewQueryBuilder(query string) *QueryBuilder {
	return &QueryBuilder{
		baseQuery: query,
	}
}

// AddCondition adds an AND condition to the query.
// The condition should be a string with a placeholder for the value e.g. "name = ?", "id > ?"
func (qb *QueryBuilder) AddCondition(condition string, value ...interface{}) *QueryBuilder {
	qb.whereClause = fmt.Sprintf("%s %s", qb.whereClause, "AND "+condition)
	if len(value) > 0 {
		qb.whereParams = append(qb.whereParams, value...)
	}
	return qb
}

// AddAnyOfCondition adds an AND condition matching value against any of the given columns with the provided
// operator, e.g. `(name ILIKE ? OR email ILIKE ?)`.
func (qb *QueryBuilder) AddAnyOfCondition(columns []string, operator string, value interface{}) *QueryBuilder {
	if len(columns) == 0 {
		return qb
	}

	parts := make([]string, 0, len(columns))
	params := make([]interface{}, 0, len(columns))
	for _, column := range columns {
		parts = append(parts, fmt.Sprintf("%s %s ?", column, operator))
		params = append(params, value)
	}
	return qb.AddCondition("("+strings.Join(parts, " OR ")+")", params...)
}

// AddSorting adds a sorting clause to the query. Ties are broken by the `id` column so pagination is stable.
// prefix is the prefix to use for the sort field e.g. "t" for "t.created_at"
func (qb *QueryBuilder) AddSorting(sortField SortField, sortOrder SortOrder, prefix string) *QueryBuilder {
	if sortField != "" {
		if sortOrder != SortOrderASC {
			sortOrder = SortOrderDESC
		}
		qb.sortClause = fmt.Sprintf("ORDER BY %s.%s %s, %s.id %s", prefix, sortField, sortOrder, prefix, sortOrder)
	}
	return qb
}

// AddPagination adds a pagination clause to the query
func (qb *QueryBuilder) AddPagination(page int, pageLimit int) *QueryBuilder {
	if page > 0 && pageLimit > 0 {
		offset := (page - 1) * pageLimit
		qb.paginationClause = "LIMIT ? OFFSET ?"
		qb.paginationParams = append(qb.paginationParams, pageLimit, offset)
	}
	return qb
}

// Build assembles all statements in the correct order and returns the query and the parameters
func (qb *QueryBuilder) Build() (string, []interface{}) {
	query := qb.baseQuery
	params := []interface{}{}
	if qb.whereClause != "" {
		query = fmt.Sprintf("%s WHERE 1=1%s", query, qb.whereClause)
		params = append(params, qb.whereParams...)
	}
	if qb.sortClause != "" {
		query = fmt.Sprintf("%s %s", query, qb.sortClause)
	}
	if qb.paginationClause != "" {
		query = fmt.Sprintf("%s %s", query, qb.paginationClause)
		params = append(params, qb.paginationParams...)
	}
	return query, params
}

func (qb *QueryBuilder) BuildAndRebind(sqlExec db.SQLExecuter) (string, []interface{}) {
	query, params := qb.Build()
	query = sqlExec.Rebind(query)
	return query, params
}
