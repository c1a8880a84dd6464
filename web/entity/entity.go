// Package entity holds the response envelopes and error kinds shared by the
// service and controller layers.
package entity

import (
	"net/url"
	"strconv"
)

// Page is the paginated list envelope.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NewPage builds the envelope for page (1-based) of a result set of total
// items, deriving the next and previous links from the request URL u.
func NewPage[T any](u *url.URL, page, size int, total int64, results []T) Page[T] {
	if results == nil {
		results = []T{}
	}
	p := Page[T]{Count: total, Results: results}
	if int64(page)*int64(size) < total {
		next := withPage(u, page+1)
		p.Next = &next
	}
	if page > 1 {
		prev := withPage(u, page-1)
		p.Previous = &prev
	}
	return p
}

func withPage(u *url.URL, page int) string {
	link := *u
	q := link.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	link.RawQuery = q.Encode()
	return link.String()
}

// Detail is the body of every non-validation error response.
type Detail struct {
	Detail string `json:"detail"`
}
