package api

import (
	"net/http"
	"strconv"
)

// PageSize is the number of rows per history or absence page.
const PageSize = 7

// Page is one page of a user's rows, most recent first.
type Page[T any] struct {
	Items       []T  `json:"items"`
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	TotalItems  int  `json:"total_items"`
	NumPages    int  `json:"num_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// pageRequest reads ?page=, defaulting to 1.
func pageRequest(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, true
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}

// numPages is at least 1 so an empty list still has a first page.
func numPages(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + PageSize - 1) / PageSize
}

// offset returns the row offset of page, or false when page is past the end.
func offset(page, total int) (int, bool) {
	if page > numPages(total) {
		return 0, false
	}
	return (page - 1) * PageSize, true
}

func newPage[T any](items []T, page, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	n := numPages(total)
	return Page[T]{
		Items:       items,
		Page:        page,
		PageSize:    PageSize,
		TotalItems:  total,
		NumPages:    n,
		HasNext:     page < n,
		HasPrevious: page > 1,
	}
}
