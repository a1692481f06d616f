package service

import "math"

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// PageRequest carries 1-indexed page and page size as sent by the client.
// Zero or negative values mean "use the default".
type PageRequest struct {
	Page  int
	Limit int
}

// normalize applies defaults, caps Limit at max and caps Page so the row
// offset (Page-1)*Limit stays representable.  A capped page is still far
// past the last row and comes back empty.
func (p PageRequest) normalize(max int) PageRequest {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if max > 0 && p.Limit > max {
		p.Limit = max
	}
	if last := math.MaxInt / p.Limit; p.Page > last {
		p.Page = last
	}
	return p
}
