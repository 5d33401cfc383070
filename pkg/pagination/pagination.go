package pagination

// DefaultPageSize is both the default and the largest page size.
const DefaultPageSize = 10

// Params is a normalized page request.
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// NewParams normalizes page and limit: page defaults to 1, limit defaults to
// DefaultPageSize and never exceeds it.
func NewParams(page, limit int) Params {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > DefaultPageSize {
		limit = DefaultPageSize
	}
	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// Page is a paginated result.
type Page[T any] struct {
	Items       []T   `json:"items"`
	TotalPages  int64 `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	TotalItems  int64 `json:"totalItems"`
}

// NewPage builds a Page from the current rows and the total row count.
func NewPage[T any](items []T, total int64, p Params) *Page[T] {
	limit := int64(p.Limit)
	if limit < 1 {
		limit = DefaultPageSize
	}
	return &Page[T]{
		Items:       items,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: p.Page,
		TotalItems:  total,
	}
}
