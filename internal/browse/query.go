package browse

import (
	"net/url"
	"strconv"

	"github.com/pders01/pixa/internal/storage"
)

// Query is the state that decides what the next request asks for.
type Query struct {
	Page     int
	Category string
	Search   string
	Filters  Filters
}

func (q Query) params() Params {
	return Params{
		Page:     q.Page,
		Query:    q.Search,
		Category: q.Category,
		Filters:  q.Filters.Normalize(),
	}
}

// Params is the parameter record submitted to the data source. Empty fields
// are left out of the encoded values.
type Params struct {
	Page     int
	Query    string
	Category string
	Filters  Filters
}

func (p Params) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(p.Page))
	if p.Query != "" {
		v.Set("q", p.Query)
	}
	if p.Category != "" {
		v.Set("category", p.Category)
	}
	for _, k := range p.Filters.Active() {
		v.Set(string(k), p.Filters[k])
	}
	return v
}

// Page is one page of results from the data source.
type Page struct {
	Total     int
	TotalHits int
	Hits      []storage.Image
}
