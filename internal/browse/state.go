package browse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vadimtrunov/popcorn/internal/metadata/tmdb"
)

// Empty-state wording.
const (
	EmptyTitle         = "No movies found"
	EmptyFilteredText  = "Try adjusting your filters or search query"
	EmptyAvailableText = "No movies available at the moment"
)

// State is a point-in-time copy of everything a frontend renders. Version
// increases with every change, so frontends can drop older snapshots. Loaded
// is set once the first list fetch has succeeded.
type State struct {
	Version    uint64
	Filters    Filters
	Movies     []tmdb.Movie
	TotalPages int
	Loading    bool
	Err        error
	Loaded     bool
	Genres     []tmdb.Genre
	Detail     DetailState
}

// DetailState tracks the details panel for one movie.
type DetailState struct {
	Open    bool
	ID      int
	Loading bool
	Details *Details
	Err     error
}

// EmptyMessage returns the title and hint shown when a fetch returned no movies.
func (s State) EmptyMessage() (title, message string) {
	if s.Filters.IsFiltered() {
		return EmptyTitle, EmptyFilteredText
	}
	return EmptyTitle, EmptyAvailableText
}

// IsEmpty reports whether the empty state should be shown instead of results.
func (s State) IsEmpty() bool {
	return !s.Loading && s.Err == nil && s.Loaded && len(s.Movies) == 0
}

// Pager returns the pagination bar for the current results.
func (s State) Pager() Pager {
	return NewPager(s.Filters.Page, max(s.TotalPages, 1))
}

// ErrorText is the banner text for the last fetch error, or "".
func (s State) ErrorText() string {
	if s.Err == nil {
		return ""
	}
	return FetchErrorText(s.Err)
}

// GenreNames resolves genre ids to names. Unknown ids are kept as numbers.
func (s State) GenreNames(ids []int) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, s.GenreName(id))
	}
	return names
}

// GenreName resolves one genre id.
func (s State) GenreName(id int) string {
	for _, g := range s.Genres {
		if g.ID == id {
			return g.Name
		}
	}
	return strconv.Itoa(id)
}

// Heading describes the current selection, e.g. "Popular movies",
// `Search: "matrix"` or "Discover: 1990-1999, rating 7-10, Action".
func (s State) Heading() string {
	f := s.Filters
	if f.HasSearch() {
		return fmt.Sprintf("Search: %q", strings.TrimSpace(f.Search))
	}
	if !f.HasStructured() {
		return "Popular movies"
	}
	var parts []string
	if y := f.Years; y != nil {
		switch {
		case y.Min > 0 && y.Min == y.Max:
			parts = append(parts, strconv.Itoa(y.Min))
		case y.Max == 0:
			parts = append(parts, fmt.Sprintf("%d and later", y.Min))
		case y.Min == 0:
			parts = append(parts, fmt.Sprintf("up to %d", y.Max))
		default:
			parts = append(parts, fmt.Sprintf("%d-%d", y.Min, y.Max))
		}
	}
	if f.HasRatingFilter() {
		parts = append(parts, fmt.Sprintf("rating %d-%d", f.Rating.Min, f.Rating.Max))
	}
	for _, g := range f.Genres {
		if id, err := strconv.Atoi(g); err == nil {
			parts = append(parts, s.GenreName(id))
		} else {
			parts = append(parts, g)
		}
	}
	return "Discover: " + strings.Join(parts, ", ")
}

// FetchErrorText turns a list fetch error into banner text.
func FetchErrorText(err error) string {
	var apiErr *tmdb.APIError
	switch {
	case errors.As(err, &apiErr):
		return "Failed to fetch movies: " + apiErr.StatusText()
	case errors.Is(err, tmdb.ErrMissingAPIKey):
		return err.Error()
	default:
		return "Failed to fetch movies: " + err.Error()
	}
}
