package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vadimtrunov/popcorn/internal/browse"
	"github.com/vadimtrunov/popcorn/internal/metadata/tmdb"
)

var testGenres = []tmdb.Genre{
	{ID: 28, Name: "Action"},
	{ID: 35, Name: "Comedy"},
	{ID: 18, Name: "Drama"},
}

func TestDiscoverFlags(t *testing.T) {
	tests := []struct {
		name    string
		flags   discoverFlags
		want    map[string]string
		absent  []string
		wantErr string
	}{
		{
			name:  "single year",
			flags: discoverFlags{year: "1999", page: 1},
			want:  map[string]string{"primary_release_year": "1999", "page": "1"},
		},
		{
			name:  "year range",
			flags: discoverFlags{year: "1990-1999", page: 1},
			want: map[string]string{
				"primary_release_date.gte": "1990-01-01",
				"primary_release_date.lte": "1999-12-31",
			},
		},
		{
			name:   "from only",
			flags:  discoverFlags{from: 2000, page: 1},
			want:   map[string]string{"primary_release_date.gte": "2000-01-01"},
			absent: []string{"primary_release_date.lte"},
		},
		{
			name:   "min rating",
			flags:  discoverFlags{minRating: 7, page: 1},
			want:   map[string]string{"vote_average.gte": "7"},
			absent: []string{"vote_average.lte"},
		},
		{
			name:  "genres by name and id, page kept",
			flags: discoverFlags{genres: []string{"action", "18"}, page: 3},
			want:  map[string]string{"with_genres": "28,18", "page": "3"},
		},
		{
			name:    "nothing set",
			flags:   discoverFlags{page: 1},
			wantErr: "discover needs at least one",
		},
		{
			name:    "default rating only",
			flags:   discoverFlags{minRating: 1, maxRating: 10, page: 1},
			wantErr: "discover needs at least one",
		},
		{
			name:    "bad year",
			flags:   discoverFlags{year: "nineties", page: 1},
			wantErr: "invalid range",
		},
		{
			name:    "unknown genre",
			flags:   discoverFlags{genres: []string{"Western"}, page: 1},
			wantErr: `unknown genre "Western"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.flags.filters(context.Background(), testGenres)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("filters: %v", err)
			}
			req := browse.BuildRequest(f)
			if req.Kind != browse.KindDiscover {
				t.Fatalf("kind = %v, want discover", req.Kind)
			}
			params := req.Params()
			for k, v := range tt.want {
				if got := params.Get(k); got != v {
					t.Errorf("%s = %q, want %q", k, got, v)
				}
			}
			for _, k := range tt.absent {
				if params.Has(k) {
					t.Errorf("%s should not be sent", k)
				}
			}
		})
	}
}

func staticFilters(f browse.Filters) filtersFunc {
	return func(context.Context, []tmdb.Genre) (browse.Filters, error) { return f, nil }
}

func TestFetchList(t *testing.T) {
	catalog := &fakeCatalog{
		genres: testGenres,
		page: &tmdb.MoviePage{
			Page:       1,
			TotalPages: 3,
			Results: []tmdb.Movie{
				{ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-30", VoteAverage: 8.2, GenreIDs: []int{28}},
			},
		},
	}
	f := browse.NewFilters()
	f.SetSearch("matrix")

	out, err := fetchList(context.Background(), catalog, staticFilters(f), testLogger().Warn)
	if err != nil {
		t.Fatalf("fetchList: %v", err)
	}

	endpoint, params := catalog.lastRequest()
	if endpoint != tmdb.EndpointSearch || params.Get("query") != "matrix" {
		t.Errorf("unexpected request %s %v", endpoint, params)
	}
	for _, want := range []string{`Search: "matrix"`, "The Matrix", "(1999)", "8.2", "Action"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFetchList_Empty(t *testing.T) {
	catalog := &fakeCatalog{page: &tmdb.MoviePage{Page: 1}}
	f := browse.NewFilters()
	f.SetGenres([]string{"28"})

	out, err := fetchList(context.Background(), catalog, staticFilters(f), testLogger().Warn)
	if err != nil {
		t.Fatalf("fetchList: %v", err)
	}
	if !strings.Contains(out, browse.EmptyTitle) || !strings.Contains(out, browse.EmptyFilteredText) {
		t.Errorf("expected filtered empty state:\n%s", out)
	}
}

func TestFetchList_Errors(t *testing.T) {
	t.Run("api error uses status text", func(t *testing.T) {
		catalog := &fakeCatalog{listErr: &tmdb.APIError{StatusCode: 401, Status: "401 Unauthorized"}}
		_, err := fetchList(context.Background(), catalog, staticFilters(browse.NewFilters()), testLogger().Warn)
		if err == nil || err.Error() != "Failed to fetch movies: Unauthorized" {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("missing key passes through", func(t *testing.T) {
		catalog := &fakeCatalog{listErr: tmdb.ErrMissingAPIKey}
		_, err := fetchList(context.Background(), catalog, staticFilters(browse.NewFilters()), testLogger().Warn)
		if err == nil || err.Error() != tmdb.ErrMissingAPIKey.Error() {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("genre failure only warns", func(t *testing.T) {
		catalog := &fakeCatalog{genresErr: errors.New("boom")}
		var warned bool
		warn := func(string, ...any) { warned = true }
		if _, err := fetchList(context.Background(), catalog, staticFilters(browse.NewFilters()), warn); err != nil {
			t.Fatalf("fetchList: %v", err)
		}
		if !warned {
			t.Error("expected a warning for the genre failure")
		}
	})

	t.Run("build error stops the fetch", func(t *testing.T) {
		catalog := &fakeCatalog{}
		build := func(context.Context, []tmdb.Genre) (browse.Filters, error) {
			return browse.Filters{}, errors.New("bad flags")
		}
		if _, err := fetchList(context.Background(), catalog, build, testLogger().Warn); err == nil {
			t.Fatal("expected error")
		}
		if endpoint, _ := catalog.lastRequest(); endpoint != "" {
			t.Errorf("no request expected, got %s", endpoint)
		}
	})
}

func TestFetchModel(t *testing.T) {
	fn := func(context.Context, *services) (string, error) { return "done", nil }
	m := newFetchModel(context.Background(), nil, fn)

	if v := m.View(); !strings.Contains(v, "Fetching") {
		t.Errorf("expected spinner view, got %q", v)
	}

	msg := m.run()()
	updated, cmd := m.Update(msg)
	fm := updated.(fetchModel)
	if !fm.done || fm.output != "done" || fm.err != nil {
		t.Errorf("unexpected model after done: %+v", fm)
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
	if fm.View() != "" {
		t.Errorf("view after done should be empty, got %q", fm.View())
	}
}

func TestFetchModel_Cancel(t *testing.T) {
	m := newFetchModel(context.Background(), nil, nil)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	fm := updated.(fetchModel)
	if !errors.Is(fm.err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", fm.err)
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
}

func TestFetchModel_SpinnerTick(t *testing.T) {
	m := newFetchModel(context.Background(), nil, nil)
	tick, ok := m.spinner.Tick().(spinner.TickMsg)
	if !ok {
		t.Fatal("expected a spinner tick")
	}
	if _, cmd := m.Update(tick); cmd == nil {
		t.Error("spinner should schedule the next tick")
	}
}
