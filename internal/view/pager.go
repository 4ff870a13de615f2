package view

import (
	"net/url"
	"strconv"

	"github.com/folio-studio/folio/internal/shared"
)

// Pager pairs pagination metadata with the query that produced it so
// templates can link to neighbouring pages without losing filters.
type Pager struct {
	shared.Pagination
	Path  string
	Query url.Values
}

// NewPager builds a Pager for path using the current request query.
func NewPager(p shared.Pagination, path string, query url.Values) Pager {
	q := url.Values{}
	for k, v := range query {
		if k == "page" {
			continue
		}
		q[k] = append([]string(nil), v...)
	}
	return Pager{Pagination: p, Path: path, Query: q}
}

// URL returns the link for the given page number.
func (p Pager) URL(page int) string {
	q := url.Values{}
	for k, v := range p.Query {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(page))
	return p.Path + "?" + q.Encode()
}
