package browse

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/vadimtrunov/popcorn/internal/metadata/tmdb"
)

// Kind is the remote list a Request targets.
type Kind int

const (
	KindPopular Kind = iota
	KindSearch
	KindDiscover
)

func (k Kind) String() string {
	switch k {
	case KindPopular:
		return "popular"
	case KindSearch:
		return "search"
	case KindDiscover:
		return "discover"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Request describes one list query. Build it with BuildRequest. MinRating is
// zero when no rating constraint applies.
type Request struct {
	Kind      Kind
	Page      int
	Query     string
	Years     *Range
	MinRating int
	Genres    []string
}

// BuildRequest maps a filter selection to exactly one list request.
// Search wins over structured filters. Structured filters produce a discover
// request carrying only their non-default parts. Nothing selected means the
// popular list. The default rating range never adds a constraint, and the
// maximum rating is never sent.
func BuildRequest(f Filters) Request {
	page := max(f.Page, 1)
	switch {
	case f.HasSearch():
		return Request{Kind: KindSearch, Page: page, Query: strings.TrimSpace(f.Search)}
	case f.HasStructured():
		req := Request{Kind: KindDiscover, Page: page}
		if f.Years != nil {
			years := *f.Years
			req.Years = &years
		}
		if f.HasRatingFilter() {
			req.MinRating = f.Rating.Min
		}
		if len(f.Genres) > 0 {
			req.Genres = append([]string(nil), f.Genres...)
		}
		return req
	default:
		return Request{Kind: KindPopular, Page: page}
	}
}

// Endpoint returns the API path for the request.
func (r Request) Endpoint() string {
	switch r.Kind {
	case KindSearch:
		return tmdb.EndpointSearch
	case KindDiscover:
		return tmdb.EndpointDiscover
	default:
		return tmdb.EndpointPopular
	}
}

// Params encodes the request as query parameters.
func (r Request) Params() url.Values {
	v := url.Values{"page": {strconv.Itoa(max(r.Page, 1))}}
	switch r.Kind {
	case KindSearch:
		v.Set("query", r.Query)
	case KindDiscover:
		v.Set("sort_by", "popularity.desc")
		if y := r.Years; y != nil {
			if y.Min > 0 && y.Min == y.Max {
				v.Set("primary_release_year", strconv.Itoa(y.Min))
			} else {
				if y.Min > 0 {
					v.Set("primary_release_date.gte", fmt.Sprintf("%04d-01-01", y.Min))
				}
				if y.Max > 0 {
					v.Set("primary_release_date.lte", fmt.Sprintf("%04d-12-31", y.Max))
				}
			}
		}
		if r.MinRating > 0 {
			v.Set("vote_average.gte", strconv.Itoa(r.MinRating))
		}
		if len(r.Genres) > 0 {
			v.Set("with_genres", strings.Join(r.Genres, ","))
		}
	}
	return v
}

// String renders the request for logs, e.g. "discover page=2 vote_average.gte=5".
func (r Request) String() string {
	params := r.Params()
	params.Del("page")
	params.Del("sort_by")
	s := fmt.Sprintf("%s page=%d", r.Kind, max(r.Page, 1))
	if enc := params.Encode(); enc != "" {
		s += " " + enc
	}
	return s
}
