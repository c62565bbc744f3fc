package store

// Page size limits for list endpoints.
const (
	DefaultPerPage = 10
	MaxPerPage     = 100
	// MaxPage keeps (Page-1)*PerPage far from integer overflow.
	MaxPage = 100_000
)

// PageParams selects one page of a list. Pages are 1-based.
type PageParams struct {
	Page    int
	PerPage int
}

// Normalize clamps the params to valid values.
func (p *PageParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
}

// Offset is the number of items before the page.
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Page holds one page of results plus totals.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

// NewPage assembles a Page from items and the total matching count.
func NewPage[T any](items []T, params PageParams, total int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if params.PerPage > 0 {
		totalPages = (total + params.PerPage - 1) / params.PerPage
	}
	return &Page[T]{
		Items:      items,
		Page:       params.Page,
		PerPage:    params.PerPage,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    params.Page < totalPages,
	}
}
