package model

// Pagination is the server-reported page envelope. LastPage of zero
// means the extent is unknown and "next" must stay disabled.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// Envelope is the standard list response: a data array plus pagination.
type Envelope[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool {
	return p.CurrentPage > 1
}

// HasNext reports whether a next page exists. Unknown extent counts as
// no next page.
func (p Pagination) HasNext() bool {
	return p.LastPage > 0 && p.CurrentPage < p.LastPage
}
