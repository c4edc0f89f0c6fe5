package browse

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/vadimtrunov/popcorn/internal/metadata/tmdb"
)

// TopCastSize is the number of cast members shown in the details panel.
const TopCastSize = 10

const wikipediaBaseURL = "https://en.wikipedia.org/wiki/"

// Details is the content of the details panel.
type Details struct {
	Movie     *tmdb.MovieDetails
	Cast      []tmdb.CastMember
	Directors []string
}

// NewDetails combines a movie record with its credits.
func NewDetails(movie *tmdb.MovieDetails, credits *tmdb.Credits) *Details {
	d := &Details{Movie: movie}
	if credits != nil {
		d.Cast = TopCast(credits.Cast, TopCastSize)
		d.Directors = credits.Directors()
	}
	return d
}

// TopCast returns the first n cast members by billing order.
func TopCast(cast []tmdb.CastMember, n int) []tmdb.CastMember {
	sorted := slices.Clone(cast)
	slices.SortStableFunc(sorted, func(a, b tmdb.CastMember) int { return a.Order - b.Order })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// WikipediaURL links a person's name to their English Wikipedia article.
func WikipediaURL(name string) string {
	title := strings.Join(strings.Fields(name), "_")
	if title == "" {
		return ""
	}
	return wikipediaBaseURL + url.PathEscape(title)
}

// JoinNames joins the non-empty names of items with ", ".
func JoinNames[T any](items []T, name func(T) string) string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		if n := name(it); n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, ", ")
}

// FormatMoney renders whole dollars with thousands separators. TMDb reports
// unknown budgets as zero, which yields "".
func FormatMoney(v int64) string {
	if v <= 0 {
		return ""
	}
	digits := strconv.FormatInt(v, 10)
	var sb strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	return "$" + sb.String()
}
