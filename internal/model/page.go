package model

// Page is one slice of a paginated listing.  Page numbers are 1-indexed.
type Page[T any] struct {
	Docs        []T   `json:"docs"`
	TotalDocs   int64 `json:"totalDocs"`
	Limit       int   `json:"limit"`
	Page        int   `json:"page"`
	TotalPages  int   `json:"totalPages"`
	HasPrevPage bool  `json:"hasPrevPage"`
	HasNextPage bool  `json:"hasNextPage"`
	PrevPage    *int  `json:"prevPage"`
	NextPage    *int  `json:"nextPage"`
}

// NewPage derives the navigation fields from the total count.  docs is
// never nil so it always encodes as a JSON array.
func NewPage[T any](docs []T, total int64, page, limit int) Page[T] {
	if docs == nil {
		docs = []T{}
	}
	p := Page[T]{Docs: docs, TotalDocs: total, Limit: limit, Page: page}
	if limit > 0 {
		p.TotalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	if page > 1 {
		prev := page - 1
		p.HasPrevPage, p.PrevPage = true, &prev
	}
	if page < p.TotalPages {
		next := page + 1
		p.HasNextPage, p.NextPage = true, &next
	}
	return p
}
