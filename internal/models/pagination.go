package models

// DefaultPageLimit applies when a list request omits the limit parameter.
const DefaultPageLimit = 10

// MaxPageLimit caps the page size accepted by list endpoints.
const MaxPageLimit = 100

// PageRequest carries the raw pagination inputs of a list request.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize fills in defaults for omitted values. It does not clamp
// out-of-policy inputs; those are rejected by Valid.
func (p *PageRequest) Normalize() {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Limit == 0 {
		p.Limit = DefaultPageLimit
	}
}

// Valid reports whether the normalized request is within policy.
func (p PageRequest) Valid() bool {
	return p.Page >= 1 && p.Limit >= 1 && p.Limit <= MaxPageLimit
}

// Offset returns the zero-based row offset for the requested page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination is the metadata part of the paginated list envelope.
type Pagination struct {
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	TotalPages  int  `json:"totalPages"`
	HasNext     bool `json:"hasNext"`
	HasPrevious bool `json:"hasPrevious"`
}

// NewPagination derives pagination metadata from the request and the matched
// row count. A page past the last one is not an error; it simply yields an
// empty item list with hasNext=false.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if total > 0 && limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Total:       total,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}
