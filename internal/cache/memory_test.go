package cache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMemory_GetSet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory(time.Minute)

	if _, ok := m.Get(ctx, "movie:1"); ok {
		t.Fatal("expected miss on empty cache")
	}
	m.Set(ctx, "movie:1", []byte(`{"id":1}`))

	got, ok := m.Get(ctx, "movie:1")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(got) != `{"id":1}` {
		t.Errorf("got %q", got)
	}
}

func TestMemory_Expiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return now }

	m.Set(ctx, "genres:en-US", []byte("[]"))
	now = now.Add(2 * time.Minute)

	if _, ok := m.Get(ctx, "genres:en-US"); ok {
		t.Fatal("expected expired entry to miss")
	}
	if m.Len() != 0 {
		t.Errorf("expected expired entry to be removed, len=%d", m.Len())
	}
}

func TestMemory_PeriodicSweep(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return now }

	for i := range sweepEvery - 1 {
		m.Set(ctx, fmt.Sprintf("k%d", i), nil)
	}
	now = now.Add(time.Hour)
	m.Set(ctx, "fresh", []byte("x"))

	if m.Len() != 1 {
		t.Errorf("expected sweep to leave 1 entry, got %d", m.Len())
	}
}

func TestNop(t *testing.T) {
	t.Parallel()
	var c Cache = Nop{}
	c.Set(context.Background(), "a", []byte("b"))
	if _, ok := c.Get(context.Background(), "a"); ok {
		t.Error("Nop should never hit")
	}
}
