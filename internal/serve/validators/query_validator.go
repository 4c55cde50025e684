package validators

import (
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/72mo2c/pero-system-sub002/internal/data"
	corevalidators "github.com/72mo2c/pero-system-sub002/internal/validators"
)

type QueryValidator struct {
	*corevalidators.Validator
	DefaultSortField  data.SortField
	DefaultSortOrder  data.SortOrder
	AllowedSortFields []data.SortField
}

// ParsePagination reads `page` and `page_limit` from the request query.
func (qv *QueryValidator) ParsePagination(r *http.Request) (page, pageLimit int) {
	page = qv.validateAndGetIntParams(r, "page", data.DefaultPage)
	qv.Check(page >= 1, "page", "parameter must be greater than or equal to 1")

	pageLimit = qv.validateAndGetIntParams(r, "page_limit", data.DefaultPageLimit)
	qv.Check(pageLimit >= 1 && pageLimit <= data.MaxPageLimit, "page_limit", "parameter must be between 1 and "+strconv.Itoa(data.MaxPageLimit))

	return page, pageLimit
}

// ParseSorting reads `sort` and `direction` from the request query, falling back to the defaults.
func (qv *QueryValidator) ParseSorting(r *http.Request) (data.SortField, data.SortOrder) {
	query := r.URL.Query()

	sortBy := data.SortField(strings.TrimSpace(query.Get("sort")))
	if sortBy == "" {
		sortBy = qv.DefaultSortField
	} else if !slices.Contains(qv.AllowedSortFields, sortBy) {
		qv.AddError("sort", "invalid sort field name")
	}

	sortOrder, err := data.ParseSortOrder(query.Get("direction"), qv.DefaultSortOrder)
	qv.CheckError(err, "direction", "invalid sort order. valid values are 'asc' and 'desc'")

	return sortBy, sortOrder
}

// validateAndGetIntParams validates the query parameter and returns the value as an integer.
func (qv *QueryValidator) validateAndGetIntParams(r *http.Request, param string, defaultValue int) int {
	value := strings.TrimSpace(r.URL.Query().Get(param))
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		qv.CheckError(err, param, "parameter must be an integer")
		return defaultValue
	}

	return intValue
}
