package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadimtrunov/popcorn/internal/browse"
)

var (
	_ browse.PageStore = (*FileStore)(nil)
	_ browse.PageStore = (*RedisStore)(nil)
	_ browse.PageStore = Nop{}
)

func TestFileStore_MissingFileIsFirstPage(t *testing.T) {
	t.Parallel()
	s := NewFileStore(filepath.Join(t.TempDir(), "state.yaml"))

	page, err := s.LoadPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, page)
}

func TestFileStore_RoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "state.yaml")
	s := NewFileStore(path)

	require.NoError(t, s.SavePage(context.Background(), 42))

	page, err := NewFileStore(path).LoadPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, page)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "movieListPage: 42")
}

func TestFileStore_CorruptFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("movieListPage: [oops"), 0o600))

	page, err := NewFileStore(path).LoadPage(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, page)
}

func TestFileStore_ClampsNonPositive(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("movieListPage: -4\n"), 0o600))

	page, err := NewFileStore(path).LoadPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, page)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	addr := os.Getenv("POPCORN_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("POPCORN_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}

	s := NewRedisStore(client, t.Name())
	t.Cleanup(func() { client.Del(ctx, s.key) })

	page, err := s.LoadPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, page)

	require.NoError(t, s.SavePage(ctx, 9))
	page, err = s.LoadPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, page)
}

func TestNewRedisStore_Key(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "popcorn:movieListPage", NewRedisStore(nil, "").key)
	assert.Equal(t, "popcorn:movieListPage:chat-1", NewRedisStore(nil, "chat-1").key)
}
