package browse

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vadimtrunov/popcorn/internal/metadata/tmdb"
)

func TestEmptyMessage(t *testing.T) {
	t.Parallel()

	title, msg := State{Filters: NewFilters()}.EmptyMessage()
	assert.Equal(t, "No movies found", title)
	assert.Equal(t, "No movies available at the moment", msg)

	f := NewFilters()
	f.SetSearch("zzzz")
	_, msg = State{Filters: f}.EmptyMessage()
	assert.Equal(t, "Try adjusting your filters or search query", msg)

	f = NewFilters()
	f.SetGenres([]string{"10770"})
	_, msg = State{Filters: f}.EmptyMessage()
	assert.Equal(t, "Try adjusting your filters or search query", msg)
}

func TestFetchErrorText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "api error uses status text",
			err:  fmt.Errorf("list movies: %w", &tmdb.APIError{StatusCode: 404, Status: "404 Not Found"}),
			want: "Failed to fetch movies: Not Found",
		},
		{
			name: "missing key is shown verbatim",
			err:  tmdb.ErrMissingAPIKey,
			want: tmdb.ErrMissingAPIKey.Error(),
		},
		{
			name: "transport error",
			err:  errors.New("dial tcp: timeout"),
			want: "Failed to fetch movies: dial tcp: timeout",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FetchErrorText(tt.err))
		})
	}
}

func TestWikipediaURL(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "https://en.wikipedia.org/wiki/Brad_Pitt", WikipediaURL("Brad Pitt"))
	assert.Equal(t, "https://en.wikipedia.org/wiki/Helena_Bonham_Carter", WikipediaURL(" Helena  Bonham Carter "))
	assert.Equal(t, "https://en.wikipedia.org/wiki/Zo%C3%AB_Kravitz", WikipediaURL("Zoë Kravitz"))
	assert.Empty(t, WikipediaURL("  "))
}

func TestTopCast(t *testing.T) {
	t.Parallel()
	cast := []tmdb.CastMember{
		{Name: "C", Order: 2},
		{Name: "A", Order: 0},
		{Name: "B", Order: 1},
	}

	top := TopCast(cast, 2)

	assert.Equal(t, []string{"A", "B"}, []string{top[0].Name, top[1].Name})
	assert.Equal(t, "C", cast[0].Name, "input must not be reordered")
}

func TestNewDetails_NilCredits(t *testing.T) {
	t.Parallel()
	d := NewDetails(&tmdb.MovieDetails{ID: 1}, nil)
	assert.Empty(t, d.Cast)
	assert.Empty(t, d.Directors)
}

func TestHeading(t *testing.T) {
	t.Parallel()

	genres := []tmdb.Genre{{ID: 28, Name: "Action"}}
	cases := []struct {
		name  string
		setup func(*Filters)
		want  string
	}{
		{"popular", func(*Filters) {}, "Popular movies"},
		{"search", func(f *Filters) { f.SetSearch("  Matrix ") }, `Search: "Matrix"`},
		{"single year", func(f *Filters) { f.SetYearRange(&Range{Min: 1999, Max: 1999}) }, "Discover: 1999"},
		{"open end", func(f *Filters) { f.SetYearRange(&Range{Min: 1990}) }, "Discover: 1990 and later"},
		{"open start", func(f *Filters) { f.SetYearRange(&Range{Max: 1979}) }, "Discover: up to 1979"},
		{
			"combined",
			func(f *Filters) {
				f.SetYearRange(&Range{Min: 1990, Max: 1999})
				f.SetRatingRange(Range{Min: 7, Max: 10})
				f.SetGenres([]string{"28", "99"})
			},
			"Discover: 1990-1999, rating 7-10, Action, 99",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := NewFilters()
			tc.setup(&f)
			assert.Equal(t, tc.want, State{Filters: f, Genres: genres}.Heading())
		})
	}
}

func TestFormatMoney(t *testing.T) {
	t.Parallel()

	cases := map[int64]string{
		0:          "",
		-5:         "",
		999:        "$999",
		1000:       "$1,000",
		63000000:   "$63,000,000",
		1234567890: "$1,234,567,890",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatMoney(in), "FormatMoney(%d)", in)
	}
}

func TestJoinNames(t *testing.T) {
	t.Parallel()

	genres := []tmdb.Genre{{Name: "Action"}, {Name: ""}, {Name: "Drama"}}
	assert.Equal(t, "Action, Drama", JoinNames(genres, func(g tmdb.Genre) string { return g.Name }))
	assert.Empty(t, JoinNames([]tmdb.Genre(nil), func(g tmdb.Genre) string { return g.Name }))
}
