package models

import "strconv"

// MaxPageSize caps every paged listing.
const MaxPageSize = 50

// Page is a 1-based page request
type Page struct {
	Number int
	Limit  int
}

// NewPage parses query values, defaulting bad input and clamping limit to [1, MaxPageSize].
func NewPage(page, limit string, defaultLimit int) Page {
	p := Page{Number: 1, Limit: defaultLimit}
	if n, err := strconv.Atoi(page); err == nil && n > 1 {
		p.Number = n
	}
	if n, err := strconv.Atoi(limit); err == nil {
		p.Limit = n
	}
	if p.Limit < 1 {
		p.Limit = 1
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

func (p Page) Skip() int64 {
	return int64((p.Number - 1) * p.Limit)
}

// TotalPages returns ceil(total / limit).
func (p Page) TotalPages(total int64) int64 {
	if p.Limit <= 0 {
		return 0
	}
	return (total + int64(p.Limit) - 1) / int64(p.Limit)
}
