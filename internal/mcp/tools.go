package mcp

import (
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func popularMoviesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "popular_movies",
		Description: "List currently popular movies, 20 per page. Returns titles, years, ratings, genres and TMDb IDs plus pagination info.",
		InputSchema: objectSchema(map[string]any{
			"page": pageProperty(),
		}),
	}
}

func searchMoviesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "search_movies",
		Description: "Search movies by title. Filters cannot be combined with a title search; use discover_movies for that.",
		InputSchema: objectSchema(map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The movie title to search for",
			},
			"page": pageProperty(),
		}, "query"),
	}
}

func discoverMoviesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "discover_movies",
		Description: "Browse movies by release year range, minimum rating and genres, sorted by popularity. Only the minimum rating narrows results.",
		InputSchema: objectSchema(map[string]any{
			"year_from": map[string]any{
				"type":        "integer",
				"description": "Earliest release year (inclusive)",
			},
			"year_to": map[string]any{
				"type":        "integer",
				"description": "Latest release year (inclusive)",
			},
			"min_rating": map[string]any{
				"type":        "integer",
				"description": "Minimum average rating, 1-10",
			},
			"max_rating": map[string]any{
				"type":        "integer",
				"description": "Maximum average rating, 1-10 (informational)",
			},
			"genres": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Genre names or TMDb genre IDs; see list_genres",
			},
			"page": pageProperty(),
		}),
	}
}

func getMovieDetailsTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "get_movie_details",
		Description: "Get full details of a movie by TMDb ID: runtime, budget, revenue, genres, production, languages, collection, top 10 cast with Wikipedia links and directors.",
		InputSchema: objectSchema(map[string]any{
			"tmdb_id": map[string]any{
				"type":        "integer",
				"description": "The TMDb ID of the movie",
			},
		}, "tmdb_id"),
	}
}

func listGenresTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "list_genres",
		Description: "List the movie genres with their TMDb IDs.",
		InputSchema: objectSchema(map[string]any{}),
	}
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		req := make([]any, len(required))
		for i, r := range required {
			req[i] = r
		}
		schema["required"] = req
	}
	return schema
}

func pageProperty() map[string]any {
	return map[string]any{
		"type":        "integer",
		"description": "Page number, starting at 1",
	}
}
