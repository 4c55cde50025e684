package httpresponse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

var ErrInvalidPageLimit = errors.New("page_limit must be a positive integer")

// PaginatedResponse is the body of the list endpoints: one page of items plus the links to its neighbours.
type PaginatedResponse struct {
	Pagination PaginationInfo  `json:"pagination"`
	Data       json.RawMessage `json:"data"`
}

type PaginationInfo struct {
	Page      int    `json:"page"`
	PageLimit int    `json:"page_limit"`
	Next      string `json:"next,omitempty"`
	Prev      string `json:"prev,omitempty"`
	Pages     int    `json:"pages"`
	Total     int    `json:"total"`
}

// NewPaginatedResponse builds the response for one page of items. Next and Prev keep every query parameter of the
// request and only replace `page`. An empty result always renders `data` as an empty array.
func NewPaginatedResponse[T any](r *http.Request, items []T, page, pageLimit, total int) (PaginatedResponse, error) {
	if pageLimit < 1 {
		return PaginatedResponse{}, ErrInvalidPageLimit
	}

	pagination := PaginationInfo{
		Page:      page,
		PageLimit: pageLimit,
		Pages:     (total + pageLimit - 1) / pageLimit,
		Total:     total,
	}
	if page < pagination.Pages {
		pagination.Next = pageURL(r, page+1)
	}
	if page > 1 && pagination.Pages > 0 {
		pagination.Prev = pageURL(r, min(page-1, pagination.Pages))
	}

	if len(items) == 0 {
		return PaginatedResponse{Pagination: pagination, Data: json.RawMessage("[]")}, nil
	}

	data, err := json.Marshal(items)
	if err != nil {
		return PaginatedResponse{}, fmt.Errorf("marshalling page data: %w", err)
	}

	return PaginatedResponse{Pagination: pagination, Data: data}, nil
}

func pageURL(r *http.Request, page int) string {
	u := *r.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
