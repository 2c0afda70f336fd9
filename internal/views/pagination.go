package views

// Pagination defaults applied whenever a caller omits or supplies
// non-positive values. Lenient by contract: invalid input is normalized,
// never rejected.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// PageRequest selects a 1-based page of a result set.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalized returns a copy with non-positive fields replaced by defaults.
func (r PageRequest) Normalized() PageRequest {
	if r.Page <= 0 {
		r.Page = DefaultPage
	}
	if r.Limit <= 0 {
		r.Limit = DefaultLimit
	}
	return r
}

// Skip returns the number of documents preceding the requested page.
func (r PageRequest) Skip() int {
	n := r.Normalized()
	return (n.Page - 1) * n.Limit
}

// Page is one page of items together with the metadata callers need to
// iterate the full result set.
type Page[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// NewPage assembles a Page from the items of the requested page and the total
// number of matching documents.
func NewPage[T any](items []T, total int64, req PageRequest) Page[T] {
	req = req.Normalized()
	if items == nil {
		items = []T{}
	}
	pages := int(total) / req.Limit
	if int(total)%req.Limit != 0 {
		pages++
	}
	return Page[T]{
		Items:      items,
		TotalCount: total,
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: pages,
	}
}
