package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"
)

// ErrMissingAPIKey means no TMDb API key was found in the file or environment.
var ErrMissingAPIKey = errors.New("tmdb.api_key is required: set it in the config file or POPCORN_TMDB_API_KEY")

// Config represents the main application configuration
type Config struct {
	TMDb   TMDbConfig   `yaml:"tmdb"`
	Browse BrowseConfig `yaml:"browse"`
	Cache  CacheConfig  `yaml:"cache"`
	State  StateConfig  `yaml:"state"`

	// Shared by the redis cache and state backends
	Redis *RedisConfig `yaml:"redis,omitempty"`

	// Frontends
	Telegram *TelegramConfig `yaml:"telegram,omitempty"`

	App AppConfig `yaml:"app"`
}

// TMDbConfig holds TMDb API configuration
type TMDbConfig struct {
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url,omitempty"`
	Language string `yaml:"language,omitempty"`

	TimeoutSeconds    int     `yaml:"timeout_seconds,omitempty"`
	MaxAttempts       int     `yaml:"max_attempts,omitempty"`        // 1 reports failures without retrying
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"` // 0 picks the default, negative disables pacing
	CacheTTLSeconds   int     `yaml:"cache_ttl_seconds,omitempty"`
}

// Timeout returns the per-request timeout.
func (c TMDbConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long details, credits and genres stay cached.
func (c TMDbConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// BrowseConfig holds the debounce delays
type BrowseConfig struct {
	SearchDelayMS int `yaml:"search_delay_ms,omitempty"`
	FilterDelayMS int `yaml:"filter_delay_ms,omitempty"`
}

func (c BrowseConfig) SearchDelay() time.Duration {
	return time.Duration(c.SearchDelayMS) * time.Millisecond
}

func (c BrowseConfig) FilterDelay() time.Duration {
	return time.Duration(c.FilterDelayMS) * time.Millisecond
}

// CacheConfig selects the response cache backend
type CacheConfig struct {
	Backend string `yaml:"backend"` // "memory", "redis", "none"
}

// StateConfig selects where the page number is kept
type StateConfig struct {
	Backend string `yaml:"backend"` // "file", "redis", "none"
	Path    string `yaml:"path,omitempty"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken       string  `yaml:"bot_token"`
	AllowedUserIDs []int64 `yaml:"allowed_user_ids,omitempty"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	LogLevel string `yaml:"log_level"`          // "debug", "info", "warn", "error"
	DataDir  string `yaml:"data_dir"`           // state file and log file live here
	LogFile  string `yaml:"log_file,omitempty"` // used by the interactive browser
}

// Defaults
const (
	DefaultBaseURL           = "https://api.themoviedb.org/3"
	DefaultLanguage          = "en-US"
	DefaultTimeoutSeconds    = 30
	DefaultMaxAttempts       = 1
	DefaultRequestsPerSecond = 20
	DefaultCacheTTLSeconds   = 900
	DefaultSearchDelayMS     = 1000
	DefaultFilterDelayMS     = 1500
)

// Load reads .env, then the YAML file at path, applies environment overrides
// and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	var cfg Config
	if path != "" {
		if err := validateConfigPath(path); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// LoadDotEnv loads KEY=value pairs from the given files (".env" by default)
// without overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func validateConfigPath(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config file not found: %s", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	return nil
}

// applyEnvOverrides overrides config values with environment variables
func (c *Config) applyEnvOverrides() {
	setString(&c.TMDb.APIKey, "POPCORN_TMDB_API_KEY")
	setString(&c.TMDb.BaseURL, "POPCORN_TMDB_BASE_URL")
	setString(&c.TMDb.Language, "POPCORN_TMDB_LANGUAGE")
	setString(&c.Cache.Backend, "POPCORN_CACHE_BACKEND")
	setString(&c.State.Backend, "POPCORN_STATE_BACKEND")

	if v := os.Getenv("POPCORN_REDIS_ADDR"); v != "" {
		if c.Redis == nil {
			c.Redis = &RedisConfig{}
		}
		c.Redis.Addr = v
	}
	if c.Redis != nil {
		setString(&c.Redis.Password, "POPCORN_REDIS_PASSWORD")
		if v := os.Getenv("POPCORN_REDIS_DB"); v != "" {
			if db, err := strconv.Atoi(v); err == nil {
				c.Redis.DB = db
			} else {
				c.Redis.DB = -1
			}
		}
	}

	if v := os.Getenv("POPCORN_TELEGRAM_BOT_TOKEN"); v != "" {
		if c.Telegram == nil {
			c.Telegram = &TelegramConfig{}
		}
		c.Telegram.BotToken = v
	}

	setString(&c.App.LogLevel, "POPCORN_LOG_LEVEL")
	setString(&c.App.DataDir, "POPCORN_DATA_DIR")
	setString(&c.App.LogFile, "POPCORN_LOG_FILE")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setDefaults fills in zero values. It runs as part of Validate.
func (c *Config) setDefaults() {
	if c.TMDb.BaseURL == "" {
		c.TMDb.BaseURL = DefaultBaseURL
	}
	if c.TMDb.Language == "" {
		c.TMDb.Language = DefaultLanguage
	}
	if c.TMDb.TimeoutSeconds == 0 {
		c.TMDb.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.TMDb.MaxAttempts == 0 {
		c.TMDb.MaxAttempts = DefaultMaxAttempts
	}
	if c.TMDb.RequestsPerSecond == 0 {
		c.TMDb.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.TMDb.CacheTTLSeconds == 0 {
		c.TMDb.CacheTTLSeconds = DefaultCacheTTLSeconds
	}

	if c.Browse.SearchDelayMS == 0 {
		c.Browse.SearchDelayMS = DefaultSearchDelayMS
	}
	if c.Browse.FilterDelayMS == 0 {
		c.Browse.FilterDelayMS = DefaultFilterDelayMS
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.State.Backend == "" {
		c.State.Backend = "file"
	}

	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.DataDir == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			c.App.DataDir = filepath.Join(homeDir, ".popcorn")
		} else {
			c.App.DataDir = ".popcorn"
		}
	}
	if c.State.Path == "" {
		c.State.Path = filepath.Join(c.App.DataDir, "state.yaml")
	}
	if c.App.LogFile == "" {
		c.App.LogFile = filepath.Join(c.App.DataDir, "popcorn.log")
	}
}

// Validate sets defaults and validates the configuration
func (c *Config) Validate() error {
	c.setDefaults()

	if c.TMDb.APIKey == "" {
		return ErrMissingAPIKey
	}
	if err := validateURL(c.TMDb.BaseURL, "tmdb.base_url"); err != nil {
		return err
	}
	if c.TMDb.TimeoutSeconds < 0 {
		return fmt.Errorf("tmdb.timeout_seconds must be positive")
	}
	if c.TMDb.MaxAttempts < 1 {
		return fmt.Errorf("tmdb.max_attempts must be at least 1")
	}
	if c.TMDb.CacheTTLSeconds < 0 {
		return fmt.Errorf("tmdb.cache_ttl_seconds must be positive")
	}

	if c.Browse.SearchDelayMS < 0 || c.Browse.FilterDelayMS < 0 {
		return fmt.Errorf("browse delays must not be negative")
	}

	needRedis := false
	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		needRedis = true
	default:
		return fmt.Errorf("cache.backend must be one of: memory, redis, none")
	}
	switch c.State.Backend {
	case "file", "none":
	case "redis":
		needRedis = true
	default:
		return fmt.Errorf("state.backend must be one of: file, redis, none")
	}
	if needRedis && (c.Redis == nil || c.Redis.Addr == "") {
		return fmt.Errorf("redis.addr is required when a redis backend is selected")
	}
	if c.Redis != nil && c.Redis.DB < 0 {
		return fmt.Errorf("redis.db must not be negative")
	}

	if c.Telegram != nil && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}

	switch c.App.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level must be one of: debug, info, warn, error")
	}

	return nil
}

// validateURL checks that raw is an absolute http(s) URL with a host.
func validateURL(raw, field string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", field)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing host", field)
	}
	return nil
}
