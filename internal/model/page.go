package model

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListParams carries pagination and filtering for list queries.
type ListParams struct {
	Page     int
	Limit    int
	Search   string
	AuthorID uint
	BookID   uint
	UserID   uint
	Status   LoanStatus
}

// Normalize clamps page and limit into their allowed ranges.
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// Offset returns the row offset of the current page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageMeta describes the page returned by a list endpoint.
type PageMeta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// Page is a slice of results plus its metadata.
type Page[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

// NewPage builds a Page from normalized params.
func NewPage[T any](items []T, total int64, p ListParams) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Data: items,
		Meta: PageMeta{Page: p.Page, Limit: p.Limit, Total: total},
	}
}
