package pagination

import (
	"math"
	"net/http"
	"strconv"
)

const (
	defaultPageNumber = 1
	defaultPageSize   = 10
	maxPageSize       = 100

	// MaxPageNumber keeps the computed offset inside a 32-bit range for any
	// allowed page size. Larger requests are clamped and yield an empty page.
	MaxPageNumber = math.MaxInt32 / maxPageSize
)

// Params holds 1-based pagination parameters taken from the query string.
type Params struct {
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
	Offset     int `json:"-"`
}

// DefaultParams returns page 1 of size 10.
func DefaultParams() Params {
	return Params{PageNumber: defaultPageNumber, PageSize: defaultPageSize}
}

// FromRequest reads pageNumber and pageSize. Invalid or out of range values
// fall back to the defaults.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()
	q := r.URL.Query()

	if v, err := strconv.Atoi(q.Get("pageNumber")); err == nil && v > 0 {
		p.PageNumber = min(v, MaxPageNumber)
	}
	if v, err := strconv.Atoi(q.Get("pageSize")); err == nil && v > 0 && v <= maxPageSize {
		p.PageSize = v
	}

	p.Offset = (p.PageNumber - 1) * p.PageSize
	return p
}

// Page is a single page of results.
type Page[T any] struct {
	Content       []T `json:"content"`
	CurrentPage   int `json:"currentPage"`
	TotalPages    int `json:"totalPages"`
	TotalElements int `json:"totalElements"`
}

// NewPage builds a Page. A nil slice is returned as an empty JSON array.
func NewPage[T any](content []T, total int, params Params) Page[T] {
	if content == nil {
		content = []T{}
	}

	size := params.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	totalPages := total / size
	if total%size > 0 {
		totalPages++
	}

	return Page[T]{
		Content:       content,
		CurrentPage:   params.PageNumber,
		TotalPages:    totalPages,
		TotalElements: total,
	}
}
