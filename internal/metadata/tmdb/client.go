// Package tmdb is a client for the TMDb v3 movie endpoints.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/vadimtrunov/popcorn/internal/cache"
	"github.com/vadimtrunov/popcorn/internal/httpclient"
)

const (
	DefaultBaseURL  = "https://api.themoviedb.org/3"
	DefaultLanguage = "en-US"
	imageBaseURL    = "https://image.tmdb.org/t/p/"

	// MaxPage is the highest page TMDb will serve for list endpoints.
	MaxPage = 500
)

// List endpoints.
const (
	EndpointPopular  = "/movie/popular"
	EndpointSearch   = "/search/movie"
	EndpointDiscover = "/discover/movie"
	endpointGenres   = "/genre/movie/list"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Config configures a Client.
type Config struct {
	APIKey   string
	BaseURL  string
	Language string
	HTTP     httpclient.Config
}

// Option customizes a Client.
type Option func(*Client)

// WithCache stores genres, details and credits in c.
func WithCache(c cache.Cache) Option {
	return func(cl *Client) { cl.cache = c }
}

// WithHTTPClient replaces the transport built from Config.HTTP.
func WithHTTPClient(h *httpclient.Client) Option {
	return func(cl *Client) { cl.http = h }
}

// Client is a TMDb API v3 client.
type Client struct {
	baseURL  string
	apiKey   string
	language string
	http     *httpclient.Client
	cache    cache.Cache
	logger   *slog.Logger
}

// New creates a TMDb client. An empty API key is a configuration error.
func New(cfg Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		language: cfg.Language,
		cache:    cache.Nop{},
		logger:   logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.language == "" {
		c.language = DefaultLanguage
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.New(cfg.HTTP, logger)
	}
	return c, nil
}

// ListMovies fetches one page from a list endpoint (popular, search or discover).
// List pages are never cached. TotalPages is clamped to MaxPage.
func (c *Client) ListMovies(ctx context.Context, endpoint string, params url.Values) (*MoviePage, error) {
	var page MoviePage
	if err := c.get(ctx, endpoint, params, &page); err != nil {
		return nil, fmt.Errorf("list movies %s: %w", endpoint, err)
	}
	if page.TotalPages > MaxPage {
		page.TotalPages = MaxPage
	}
	if page.Results == nil {
		page.Results = []Movie{}
	}
	return &page, nil
}

// Genres returns the movie genre list.
func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	var resp genreListResponse
	key := "genres:" + c.language
	if err := c.getCached(ctx, key, endpointGenres, nil, &resp); err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	return resp.Genres, nil
}

// GetMovie retrieves full details for a movie by TMDb ID.
func (c *Client) GetMovie(ctx context.Context, id int) (*MovieDetails, error) {
	var details MovieDetails
	key := fmt.Sprintf("movie:%d:%s", id, c.language)
	if err := c.getCached(ctx, key, fmt.Sprintf("/movie/%d", id), nil, &details); err != nil {
		return nil, fmt.Errorf("get movie %d: %w", id, err)
	}
	return &details, nil
}

// GetCredits retrieves the cast and crew of a movie.
func (c *Client) GetCredits(ctx context.Context, id int) (*Credits, error) {
	var credits Credits
	key := fmt.Sprintf("credits:%d:%s", id, c.language)
	if err := c.getCached(ctx, key, fmt.Sprintf("/movie/%d/credits", id), nil, &credits); err != nil {
		return nil, fmt.Errorf("get credits %d: %w", id, err)
	}
	return &credits, nil
}

// PosterURL returns the full URL for a poster path.
func PosterURL(posterPath, size string) string {
	if posterPath == "" {
		return ""
	}
	return imageBaseURL + size + posterPath
}

// BackdropURL returns the full URL for a backdrop path.
func BackdropURL(backdropPath, size string) string {
	return PosterURL(backdropPath, size)
}

func (c *Client) getCached(ctx context.Context, key, path string, params url.Values, result any) error {
	if data, ok := c.cache.Get(ctx, key); ok {
		if err := jsonAPI.Unmarshal(data, result); err == nil {
			return nil
		}
		c.logger.Warn("discarding undecodable cache entry", slog.String("key", key))
	}
	body, err := c.fetch(ctx, path, params)
	if err != nil {
		return err
	}
	if err := jsonAPI.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	c.cache.Set(ctx, key, body)
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	body, err := c.fetch(ctx, path, params)
	if err != nil {
		return err
	}
	if err := jsonAPI.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// fetch performs an authenticated GET and returns the body of a 2xx response.
func (c *Client) fetch(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("api_key", c.apiKey)
	if q.Get("language") == "" {
		q.Set("language", c.language)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("tmdb request", slog.String("path", path), slog.String("query", params.Encode()))

	resp, err := c.http.Do(req)
	if err != nil {
		// *url.Error carries the full URL, api_key included
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return nil, fmt.Errorf("%s %s: %w", uerr.Op, path, uerr.Err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp, body)
	}
	return body, nil
}
