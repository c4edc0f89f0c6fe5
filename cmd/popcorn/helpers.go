package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/popcorn/internal/browse"
	"github.com/vadimtrunov/popcorn/internal/cache"
	"github.com/vadimtrunov/popcorn/internal/config"
	"github.com/vadimtrunov/popcorn/internal/httpclient"
	"github.com/vadimtrunov/popcorn/internal/metadata/tmdb"
	"github.com/vadimtrunov/popcorn/internal/state"
)

// Lipgloss styles used across commands.
var (
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	styleRating  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow

	styleTitle    = lipgloss.NewStyle().Bold(true)
	styleSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true) // cyan bold

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("5")).
			MarginBottom(1)
)

// loadConfig loads and validates the configuration file. The default path may
// be missing; an explicit --config may not.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath
	if f := cmd.Flag("config"); f == nil || !f.Changed {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// services holds the clients shared by every frontend.
type services struct {
	catalog *tmdb.Client
	redis   *redis.Client
	cfg     *config.Config
	logger  *slog.Logger
}

// initServices creates the TMDb client with its cache and, when a redis
// backend is selected, the redis client.
func initServices(cfg *config.Config, logger *slog.Logger) (*services, error) {
	svc := &services{cfg: cfg, logger: logger}

	if cfg.Redis != nil && (cfg.Cache.Backend == "redis" || cfg.State.Backend == "redis") {
		svc.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		logger.Info("redis client initialized", slog.String("addr", cfg.Redis.Addr))
	}

	catalog, err := tmdb.New(tmdb.Config{
		APIKey:   cfg.TMDb.APIKey,
		BaseURL:  cfg.TMDb.BaseURL,
		Language: cfg.TMDb.Language,
		HTTP:     httpConfig(cfg.TMDb),
	}, logger, tmdb.WithCache(svc.newCache()))
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("create tmdb client: %w", err)
	}
	svc.catalog = catalog
	logger.Info("TMDb client initialized",
		slog.String("base_url", sanitizeURL(cfg.TMDb.BaseURL)),
		slog.String("cache", cfg.Cache.Backend),
	)
	return svc, nil
}

func httpConfig(c config.TMDbConfig) httpclient.Config {
	hc := httpclient.DefaultConfig()
	hc.MaxAttempts = c.MaxAttempts
	hc.Timeout = c.Timeout()
	hc.RequestsPerSecond = c.RequestsPerSecond
	return hc
}

func (s *services) newCache() cache.Cache {
	switch s.cfg.Cache.Backend {
	case "redis":
		return cache.NewRedis(s.redis, s.cfg.TMDb.CacheTTL(), s.logger)
	case "none":
		return cache.Nop{}
	default:
		return cache.NewMemory(s.cfg.TMDb.CacheTTL())
	}
}

// pageStore returns where the page number of one browser is kept. scope
// separates browsers that share a redis backend, e.g. telegram chats.
func (s *services) pageStore(scope string) browse.PageStore {
	switch s.cfg.State.Backend {
	case "redis":
		return state.NewRedisStore(s.redis, scope)
	case "none":
		return state.Nop{}
	default:
		if scope == "" {
			return state.NewFileStore(s.cfg.State.Path)
		}
		return state.NewFileStore(scopedPath(s.cfg.State.Path, scope))
	}
}

// delayPolicy returns the configured debounce delays.
func (s *services) delayPolicy() browse.DelayPolicy {
	return browse.DelayPolicy{
		Search: s.cfg.Browse.SearchDelay(),
		Filter: s.cfg.Browse.FilterDelay(),
	}
}

// Close releases the redis connection pool.
func (s *services) Close() error {
	if s.redis == nil {
		return nil
	}
	if err := s.redis.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}
	return nil
}

// scopedPath turns "state.yaml" into "state-<scope>.yaml".
func scopedPath(path, scope string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + scope + ext
}

func chatScope(chatID int64) string {
	return "chat" + strconv.FormatInt(chatID, 10)
}

// sanitizeURL strips credentials, query params, and fragment from a URL for safe logging.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Scheme == "" {
		return "<redacted>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
