package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vadimtrunov/popcorn/internal/browse"
	"github.com/vadimtrunov/popcorn/internal/metadata/tmdb"
)

// Deps holds the dependencies of the MCP tool handlers.
type Deps struct {
	Catalog browse.Catalog
	Version string
}

// Server wraps an MCP SDK server with movie browsing tools.
type Server struct {
	server *mcpsdk.Server
	deps   Deps
	logger *slog.Logger
}

// NewServer creates an MCP server with all browsing tools registered.
func NewServer(deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}

	s := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "popcorn",
			Version: deps.Version,
		},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{server: s, deps: deps, logger: logger}
	srv.registerTools()
	return srv
}

// ServeStdio runs the MCP server over stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcpsdk.StdioTransport{})
}

// MCPServer returns the underlying MCP SDK server (for testing).
func (s *Server) MCPServer() *mcpsdk.Server {
	return s.server
}

func (s *Server) registerTools() {
	s.server.AddTool(popularMoviesTool(), s.handlePopularMovies)
	s.server.AddTool(searchMoviesTool(), s.handleSearchMovies)
	s.server.AddTool(discoverMoviesTool(), s.handleDiscoverMovies)
	s.server.AddTool(getMovieDetailsTool(), s.handleGetMovieDetails)
	s.server.AddTool(listGenresTool(), s.handleListGenres)
}

// Tool handlers. Each parses arguments into a filter selection, runs it
// through the same query builder as the interactive browser and returns JSON.

func (s *Server) handlePopularMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	var args struct {
		Page int `json:"page"`
	}
	if err := decodeArgs(req.Params.Arguments, &args); err != nil {
		return toolError(err.Error()), nil
	}

	f := browse.NewFilters()
	f.SetPage(args.Page)
	return s.list(ctx, f)
}

func (s *Server) handleSearchMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	var args struct {
		Query string `json:"query"`
		Page  int    `json:"page"`
	}
	if err := decodeArgs(req.Params.Arguments, &args); err != nil {
		return toolError(err.Error()), nil
	}

	f := browse.NewFilters()
	f.SetSearch(args.Query)
	if !f.HasSearch() {
		return toolError("search_movies requires a non-empty 'query' string argument"), nil
	}
	f.SetPage(args.Page)
	return s.list(ctx, f)
}

func (s *Server) handleDiscoverMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	var args struct {
		YearFrom  int      `json:"year_from"`
		YearTo    int      `json:"year_to"`
		MinRating int      `json:"min_rating"`
		MaxRating int      `json:"max_rating"`
		Genres    []string `json:"genres"`
		Page      int      `json:"page"`
	}
	if err := decodeArgs(req.Params.Arguments, &args); err != nil {
		return toolError(err.Error()), nil
	}

	f := browse.NewFilters()
	if args.YearFrom != 0 || args.YearTo != 0 {
		f.SetYearRange(&browse.Range{Min: args.YearFrom, Max: args.YearTo})
	}
	if args.MinRating != 0 || args.MaxRating != 0 {
		r := browse.DefaultRatingRange
		if args.MinRating != 0 {
			r.Min = args.MinRating
		}
		if args.MaxRating != 0 {
			r.Max = args.MaxRating
		}
		f.SetRatingRange(r)
	}
	if len(args.Genres) > 0 {
		known, err := s.deps.Catalog.Genres(ctx)
		if err != nil {
			return toolError(fmt.Sprintf("list genres failed: %v", err)), nil
		}
		ids, err := browse.ResolveGenres(known, args.Genres)
		if err != nil {
			return toolError(err.Error()), nil
		}
		f.SetGenres(ids)
	}
	f.SetPage(args.Page)
	return s.list(ctx, f)
}

func (s *Server) handleGetMovieDetails(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	tmdbID, err := extractIntFromArgs(req.Params.Arguments, "tmdb_id")
	if err != nil {
		return toolError(err.Error()), nil
	}

	movie, err := s.deps.Catalog.GetMovie(ctx, tmdbID)
	if err != nil {
		return toolError(fmt.Sprintf("get movie failed: %v", err)), nil
	}
	credits, err := s.deps.Catalog.GetCredits(ctx, tmdbID)
	if err != nil {
		s.logger.Warn("credits unavailable", slog.Int("tmdb_id", tmdbID), slog.String("error", err.Error()))
		credits = nil
	}
	return toolJSON(newDetailsResult(browse.NewDetails(movie, credits)))
}

func (s *Server) handleListGenres(ctx context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	genres, err := s.deps.Catalog.Genres(ctx)
	if err != nil {
		return toolError(fmt.Sprintf("list genres failed: %v", err)), nil
	}
	return toolJSON(genres)
}

func (s *Server) list(ctx context.Context, f browse.Filters) (*mcpsdk.CallToolResult, error) {
	req := browse.BuildRequest(f)
	page, err := s.deps.Catalog.ListMovies(ctx, req.Endpoint(), req.Params())
	if err != nil {
		s.logger.Warn("list tool failed", slog.String("request", req.String()), slog.String("error", err.Error()))
		return toolError(browse.FetchErrorText(err)), nil
	}

	st := browse.State{Filters: f, Movies: page.Results, TotalPages: max(page.TotalPages, 1), Loaded: true}
	if genres, err := s.deps.Catalog.Genres(ctx); err == nil {
		st.Genres = genres
	}
	return toolJSON(newListResult(req, st))
}

// decodeArgs unmarshals raw tool arguments. Empty arguments are allowed.
func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// toolJSON marshals v to JSON and returns it as text content.
func toolJSON(v any) (*mcpsdk.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil
}

// toolError returns a tool result indicating an error.
func toolError(msg string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: msg}},
		IsError: true,
	}
}

// extractIntFromArgs extracts an integer argument from raw JSON arguments.
func extractIntFromArgs(raw json.RawMessage, key string) (int, error) {
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return 0, fmt.Errorf("invalid arguments: %w", err)
	}

	val, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}

	switch v := val.(type) {
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", key, val)
	}
}

var _ browse.Catalog = (*tmdb.Client)(nil)
