package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vadimtrunov/popcorn/internal/metadata/tmdb"
)

// mockCatalog implements browse.Catalog for testing.
type mockCatalog struct {
	mu         sync.Mutex
	page       *tmdb.MoviePage
	listErr    error
	genres     []tmdb.Genre
	genresErr  error
	details    *tmdb.MovieDetails
	detailsErr error
	credits    *tmdb.Credits
	creditsErr error

	endpoint string
	params   url.Values
}

func (m *mockCatalog) ListMovies(_ context.Context, endpoint string, params url.Values) (*tmdb.MoviePage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endpoint = endpoint
	m.params = params
	if m.listErr != nil {
		return nil, m.listErr
	}
	if m.page == nil {
		return &tmdb.MoviePage{Page: 1, TotalPages: 1, Results: []tmdb.Movie{}}, nil
	}
	return m.page, nil
}

func (m *mockCatalog) Genres(_ context.Context) ([]tmdb.Genre, error) {
	return m.genres, m.genresErr
}

func (m *mockCatalog) GetMovie(_ context.Context, _ int) (*tmdb.MovieDetails, error) {
	return m.details, m.detailsErr
}

func (m *mockCatalog) GetCredits(_ context.Context, _ int) (*tmdb.Credits, error) {
	return m.credits, m.creditsErr
}

func (m *mockCatalog) lastRequest() (string, url.Values) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endpoint, m.params
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var testGenres = []tmdb.Genre{{ID: 28, Name: "Action"}, {ID: 35, Name: "Comedy"}, {ID: 18, Name: "Drama"}}

func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *mcpsdk.CallToolResult {
	t.Helper()
	ctx := context.Background()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	_, err := srv.MCPServer().Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}
	return result
}

func resultText(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("expected 1 content block, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(*mcpsdk.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return text.Text
}

func decodeList(t *testing.T, result *mcpsdk.CallToolResult) listResult {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %s", resultText(t, result))
	}
	var got listResult
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	return got
}

func TestPopularMovies(t *testing.T) {
	t.Parallel()
	cat := &mockCatalog{
		genres: testGenres,
		page: &tmdb.MoviePage{Page: 3, TotalPages: 40, Results: []tmdb.Movie{
			{ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-30", VoteAverage: 8.2, VoteCount: 25000, GenreIDs: []int{28, 878}},
		}},
	}
	srv := NewServer(Deps{Catalog: cat}, discardLogger)

	got := decodeList(t, callTool(t, srv, "popular_movies", map[string]any{"page": 3}))

	endpoint, params := cat.lastRequest()
	if endpoint != tmdb.EndpointPopular {
		t.Errorf("endpoint = %q, want %q", endpoint, tmdb.EndpointPopular)
	}
	if params.Get("page") != "3" {
		t.Errorf("page param = %q, want 3", params.Get("page"))
	}
	if got.Kind != "popular" || got.Page != 3 || got.TotalPages != 40 {
		t.Errorf("unexpected header: %+v", got)
	}
	if len(got.Pages) != 5 || got.Pages[0] != 1 {
		t.Errorf("pages = %v, want 5-page window starting at 1", got.Pages)
	}
	if len(got.Movies) != 1 {
		t.Fatalf("expected 1 movie, got %d", len(got.Movies))
	}
	m := got.Movies[0]
	if m.ID != 603 || m.Year != "1999" {
		t.Errorf("unexpected movie: %+v", m)
	}
	if len(m.Genres) != 2 || m.Genres[0] != "Action" || m.Genres[1] != "878" {
		t.Errorf("genres = %v, want [Action 878]", m.Genres)
	}
}

func TestPopularMoviesDefaultsToFirstPage(t *testing.T) {
	t.Parallel()
	cat := &mockCatalog{}
	srv := NewServer(Deps{Catalog: cat}, discardLogger)

	got := decodeList(t, callTool(t, srv, "popular_movies", map[string]any{}))

	_, params := cat.lastRequest()
	if params.Get("page") != "1" {
		t.Errorf("page param = %q, want 1", params.Get("page"))
	}
	if got.Empty == "" {
		t.Error("expected empty message for an empty result")
	}
}

func TestSearchMovies(t *testing.T) {
	t.Parallel()
	cat := &mockCatalog{}
	srv := NewServer(Deps{Catalog: cat}, discardLogger)

	got := decodeList(t, callTool(t, srv, "search_movies", map[string]any{"query": "Matrix", "page": 2}))

	endpoint, params := cat.lastRequest()
	if endpoint != tmdb.EndpointSearch {
		t.Errorf("endpoint = %q, want %q", endpoint, tmdb.EndpointSearch)
	}
	if params.Get("query") != "Matrix" || params.Get("page") != "2" {
		t.Errorf("unexpected params: %v", params)
	}
	if got.Kind != "search" {
		t.Errorf("kind = %q, want search", got.Kind)
	}
}

func TestSearchMoviesRequiresQuery(t *testing.T) {
	t.Parallel()
	srv := NewServer(Deps{Catalog: &mockCatalog{}}, discardLogger)

	for _, args := range []map[string]any{{}, {"query": "   "}} {
		result := callTool(t, srv, "search_movies", args)
		if !result.IsError {
			t.Errorf("args %v: expected error result", args)
		}
	}
}

func TestDiscoverMovies(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args map[string]any
		want map[string]string
		none []string
	}{
		{
			name: "year range and min rating",
			args: map[string]any{"year_from": 1990, "year_to": 1999, "min_rating": 7},
			want: map[string]string{
				"primary_release_date.gte": "1990-01-01",
				"primary_release_date.lte": "1999-12-31",
				"vote_average.gte":         "7",
				"sort_by":                  "popularity.desc",
			},
		},
		{
			name: "single year",
			args: map[string]any{"year_from": 2001, "year_to": 2001},
			want: map[string]string{"primary_release_year": "2001"},
			none: []string{"primary_release_date.gte"},
		},
		{
			name: "genres by name and id",
			args: map[string]any{"genres": []string{"comedy", "18"}, "page": 4},
			want: map[string]string{"with_genres": "35,18", "page": "4"},
			none: []string{"vote_average.gte"},
		},
		{
			name: "max rating is never sent",
			args: map[string]any{"max_rating": 6},
			want: map[string]string{"vote_average.gte": "1"},
			none: []string{"vote_average.lte"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cat := &mockCatalog{genres: testGenres}
			srv := NewServer(Deps{Catalog: cat}, discardLogger)

			decodeList(t, callTool(t, srv, "discover_movies", tt.args))

			endpoint, params := cat.lastRequest()
			if endpoint != tmdb.EndpointDiscover {
				t.Errorf("endpoint = %q, want %q", endpoint, tmdb.EndpointDiscover)
			}
			for k, v := range tt.want {
				if params.Get(k) != v {
					t.Errorf("%s = %q, want %q", k, params.Get(k), v)
				}
			}
			for _, k := range tt.none {
				if params.Has(k) {
					t.Errorf("unexpected param %s=%q", k, params.Get(k))
				}
			}
		})
	}
}

func TestDiscoverMoviesUnknownGenre(t *testing.T) {
	t.Parallel()
	cat := &mockCatalog{genres: testGenres}
	srv := NewServer(Deps{Catalog: cat}, discardLogger)

	result := callTool(t, srv, "discover_movies", map[string]any{"genres": []string{"Western"}})

	if !result.IsError {
		t.Fatal("expected error for unknown genre")
	}
	if endpoint, _ := cat.lastRequest(); endpoint != "" {
		t.Errorf("no list request expected, got %q", endpoint)
	}
}

func TestListToolReportsStatusText(t *testing.T) {
	t.Parallel()
	cat := &mockCatalog{listErr: &tmdb.APIError{StatusCode: http.StatusUnauthorized, Status: "401 Unauthorized"}}
	srv := NewServer(Deps{Catalog: cat}, discardLogger)

	result := callTool(t, srv, "popular_movies", map[string]any{})

	if !result.IsError {
		t.Fatal("expected error result")
	}
	if got := resultText(t, result); got != "Failed to fetch movies: Unauthorized" {
		t.Errorf("text = %q", got)
	}
}

func TestGetMovieDetails(t *testing.T) {
	t.Parallel()
	cast := make([]tmdb.CastMember, 0, 12)
	for i := 11; i >= 0; i-- {
		cast = append(cast, tmdb.CastMember{ID: i, Name: "Actor Number", Order: i})
	}
	cast[11].Name = "Keanu Reeves"
	cat := &mockCatalog{
		details: &tmdb.MovieDetails{ID: 603, Title: "The Matrix", Runtime: 136, PosterPath: "/p.jpg"},
		credits: &tmdb.Credits{
			ID:   603,
			Cast: cast,
			Crew: []tmdb.CrewMember{{Name: "Lana Wachowski", Job: "Director"}},
		},
	}
	srv := NewServer(Deps{Catalog: cat}, discardLogger)

	result := callTool(t, srv, "get_movie_details", map[string]any{"tmdb_id": 603})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", resultText(t, result))
	}

	var got struct {
		ID          int          `json:"id"`
		Title       string       `json:"title"`
		RuntimeText string       `json:"runtime_text"`
		PosterURL   string       `json:"poster_url"`
		Cast        []castResult `json:"cast"`
		Directors   []string     `json:"directors"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != 603 || got.Title != "The Matrix" {
		t.Errorf("unexpected movie: %+v", got)
	}
	if got.RuntimeText != "2h 16m" || !strings.HasSuffix(got.PosterURL, "/w500/p.jpg") {
		t.Errorf("runtime = %q, poster = %q", got.RuntimeText, got.PosterURL)
	}
	if len(got.Cast) != 10 {
		t.Fatalf("cast size = %d, want 10", len(got.Cast))
	}
	if got.Cast[0].Name != "Keanu Reeves" {
		t.Errorf("first billed = %q, want Keanu Reeves", got.Cast[0].Name)
	}
	if got.Cast[0].Wikipedia != "https://en.wikipedia.org/wiki/Keanu_Reeves" {
		t.Errorf("wikipedia = %q", got.Cast[0].Wikipedia)
	}
	if len(got.Directors) != 1 || got.Directors[0] != "Lana Wachowski" {
		t.Errorf("directors = %v", got.Directors)
	}
}

func TestGetMovieDetailsWithoutCredits(t *testing.T) {
	t.Parallel()
	cat := &mockCatalog{
		details:    &tmdb.MovieDetails{ID: 1, Title: "Obscure"},
		creditsErr: errors.New("boom"),
	}
	srv := NewServer(Deps{Catalog: cat}, discardLogger)

	result := callTool(t, srv, "get_movie_details", map[string]any{"tmdb_id": 1})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", resultText(t, result))
	}
}

func TestGetMovieDetailsErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		cat  *mockCatalog
		args map[string]any
	}{
		{"missing id", &mockCatalog{}, map[string]any{}},
		{"bad id", &mockCatalog{}, map[string]any{"tmdb_id": "abc"}},
		{"lookup failure", &mockCatalog{detailsErr: errors.New("not found")}, map[string]any{"tmdb_id": 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := NewServer(Deps{Catalog: tt.cat}, discardLogger)
			if result := callTool(t, srv, "get_movie_details", tt.args); !result.IsError {
				t.Error("expected error result")
			}
		})
	}
}

func TestListGenres(t *testing.T) {
	t.Parallel()
	srv := NewServer(Deps{Catalog: &mockCatalog{genres: testGenres}}, discardLogger)

	result := callTool(t, srv, "list_genres", map[string]any{})
	if result.IsError {
		t.Fatal("expected success, got error")
	}
	var got []tmdb.Genre
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 3 || got[0].Name != "Action" {
		t.Errorf("unexpected genres: %+v", got)
	}
}

func TestListGenresError(t *testing.T) {
	t.Parallel()
	srv := NewServer(Deps{Catalog: &mockCatalog{genresErr: errors.New("down")}}, discardLogger)

	if result := callTool(t, srv, "list_genres", map[string]any{}); !result.IsError {
		t.Error("expected error result")
	}
}

func TestExtractIntFromArgs(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{"number", `{"tmdb_id": 42}`, 42, false},
		{"string", `{"tmdb_id": "42"}`, 42, false},
		{"missing", `{}`, 0, true},
		{"bad string", `{"tmdb_id": "x"}`, 0, true},
		{"bool", `{"tmdb_id": true}`, 0, true},
		{"invalid json", `{`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := extractIntFromArgs(json.RawMessage(tt.raw), "tmdb_id")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	t.Parallel()
	srv := NewServer(Deps{Catalog: &mockCatalog{}}, nil)
	ctx := context.Background()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()
	if _, err := srv.MCPServer().Connect(ctx, serverTransport, nil); err != nil {
		t.Fatalf("server connect: %v", err)
	}
	session, err := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client"}, nil).Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}

	res, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	want := map[string]bool{
		"popular_movies": false, "search_movies": false, "discover_movies": false,
		"get_movie_details": false, "list_genres": false,
	}
	for _, tool := range res.Tools {
		want[tool.Name] = true
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("tool %s not registered", name)
		}
	}
}
