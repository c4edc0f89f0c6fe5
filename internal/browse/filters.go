package browse

import (
	"slices"
	"strings"
)

// Rating bounds accepted by the vote_average filter.
const (
	MinRating = 1
	MaxRating = 10
)

// DefaultRatingRange is the unfiltered rating range. It never constrains a query.
var DefaultRatingRange = Range{Min: MinRating, Max: MaxRating}

// Range is an inclusive pair of bounds. For years a zero bound is open.
type Range struct {
	Min int
	Max int
}

// Filters is the user's current search and filter selection plus the page.
//
// A non-empty Search and any structured filter (Years, a non-default Rating,
// Genres) are mutually exclusive. The mutators keep it that way, so callers
// should not assign the fields directly.
type Filters struct {
	Search string
	Years  *Range
	Rating Range
	Genres []string
	Page   int
}

// NewFilters returns the start-up selection: no search, no filters, page 1.
func NewFilters() Filters {
	return Filters{Rating: DefaultRatingRange, Page: 1}
}

func (f Filters) HasSearch() bool       { return strings.TrimSpace(f.Search) != "" }
func (f Filters) HasYearFilter() bool   { return f.Years != nil }
func (f Filters) HasRatingFilter() bool { return f.Rating != DefaultRatingRange }
func (f Filters) HasGenreFilter() bool  { return len(f.Genres) > 0 }

// HasStructured reports whether any year, rating or genre filter is set.
func (f Filters) HasStructured() bool {
	return f.HasYearFilter() || f.HasRatingFilter() || f.HasGenreFilter()
}

// IsFiltered reports whether the result set is narrowed by anything at all.
func (f Filters) IsFiltered() bool {
	return f.HasSearch() || f.HasStructured()
}

// SetSearch stores the search text. Non-blank text clears every structured filter.
func (f *Filters) SetSearch(text string) {
	f.Search = text
	if strings.TrimSpace(text) != "" {
		f.clearStructured()
	}
	f.Page = 1
}

// SetYearRange sets the release year range. nil removes the filter. A range
// with both bounds zero is treated as nil. Reversed bounds are swapped.
func (f *Filters) SetYearRange(r *Range) {
	if r == nil || (r.Min == 0 && r.Max == 0) {
		f.Years = nil
	} else {
		years := *r
		if years.Min > 0 && years.Max > 0 && years.Min > years.Max {
			years.Min, years.Max = years.Max, years.Min
		}
		f.Years = &years
		f.Search = ""
	}
	f.Page = 1
}

// SetRatingRange sets the rating range, clamped to [MinRating, MaxRating].
// Only a non-default range clears the search.
func (f *Filters) SetRatingRange(r Range) {
	r.Min = clamp(r.Min, MinRating, MaxRating)
	r.Max = clamp(r.Max, MinRating, MaxRating)
	if r.Min > r.Max {
		r.Min, r.Max = r.Max, r.Min
	}
	f.Rating = r
	if r != DefaultRatingRange {
		f.Search = ""
	}
	f.Page = 1
}

// SetGenres replaces the genre id set. Blank and duplicate ids are dropped.
func (f *Filters) SetGenres(ids []string) {
	var out []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	f.Genres = out
	if len(out) > 0 {
		f.Search = ""
	}
	f.Page = 1
}

// SetPage moves to page n. Pages below 1 become 1. Nothing else changes.
func (f *Filters) SetPage(n int) {
	f.Page = max(n, 1)
}

// ClearFilters restores the structured filters to their defaults. Search is kept.
func (f *Filters) ClearFilters() {
	f.clearStructured()
	f.Page = 1
}

// ClearSearch empties the search text. Filters are kept.
func (f *Filters) ClearSearch() {
	f.Search = ""
	f.Page = 1
}

// ClearAll empties the search and restores the structured filters.
func (f *Filters) ClearAll() {
	f.Search = ""
	f.clearStructured()
	f.Page = 1
}

// Clone returns a deep copy.
func (f Filters) Clone() Filters {
	out := f
	if f.Years != nil {
		years := *f.Years
		out.Years = &years
	}
	out.Genres = slices.Clone(f.Genres)
	return out
}

// Equal reports whether two selections would produce the same query.
func (f Filters) Equal(o Filters) bool {
	if strings.TrimSpace(f.Search) != strings.TrimSpace(o.Search) || f.Rating != o.Rating || f.Page != o.Page {
		return false
	}
	if (f.Years == nil) != (o.Years == nil) || (f.Years != nil && *f.Years != *o.Years) {
		return false
	}
	return slices.Equal(f.Genres, o.Genres)
}

func (f *Filters) clearStructured() {
	f.Years = nil
	f.Rating = DefaultRatingRange
	f.Genres = nil
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
