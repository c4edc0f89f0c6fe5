// Package state persists the last viewed page number between runs.
package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.yaml.in/yaml/v3"
)

// PageKey is the name the page number is stored under.
const PageKey = "movieListPage"

const redisKey = "popcorn:" + PageKey

type document struct {
	Page int `yaml:"movieListPage"`
}

// FileStore keeps the page number in a small YAML file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file is created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// LoadPage returns the saved page, or 1 when nothing was saved yet.
func (s *FileStore) LoadPage(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return 1, nil
	}
	if err != nil {
		return 1, fmt.Errorf("read state file: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return 1, fmt.Errorf("parse state file: %w", err)
	}
	return max(doc.Page, 1), nil
}

// SavePage writes the page number, replacing the file atomically.
func (s *FileStore) SavePage(_ context.Context, page int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(document{Page: page})
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// RedisStore keeps the page number in Redis so several frontends share it.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore wraps an existing client. scope, when set, separates users.
func NewRedisStore(client *redis.Client, scope string) *RedisStore {
	key := redisKey
	if scope != "" {
		key += ":" + scope
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) LoadPage(ctx context.Context) (int, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return 1, nil
	}
	if err != nil {
		return 1, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	page, err := strconv.Atoi(val)
	if err != nil {
		return 1, fmt.Errorf("parse page %q: %w", val, err)
	}
	return max(page, 1), nil
}

func (s *RedisStore) SavePage(ctx context.Context, page int) error {
	if err := s.client.Set(ctx, s.key, page, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// Nop forgets everything. Every run starts on page 1.
type Nop struct{}

func (Nop) LoadPage(context.Context) (int, error) { return 1, nil }
func (Nop) SavePage(context.Context, int) error   { return nil }
