package notify

import "github.com/nhle/inventory-desk/internal/model"

// Pagination mirrors the server-reported paging of the current list.
// It is only ever copied from server metadata, never computed locally.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	Total       int
	PerPage     int
}

// paginationFromMeta converts the API meta block, clamping negatives to 0.
func paginationFromMeta(meta model.PageMeta) Pagination {
	return Pagination{
		CurrentPage: nonNegative(meta.CurrentPage),
		TotalPages:  nonNegative(meta.LastPage),
		Total:       nonNegative(meta.Total),
		PerPage:     nonNegative(meta.PerPage),
	}
}

// HasNext reports whether a page after the current one exists.
func (p Pagination) HasNext() bool {
	return p.CurrentPage < p.TotalPages
}

// HasPrevious reports whether a page before the current one exists.
func (p Pagination) HasPrevious() bool {
	return p.CurrentPage > 1
}

// Contains reports whether page lies within [1, TotalPages].
func (p Pagination) Contains(page int) bool {
	return page >= 1 && page <= p.TotalPages
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
