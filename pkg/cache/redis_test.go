package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// newTestRedis connects to BLOCKGLYPH_REDIS_ADDR, skipping when unset.
// Each test gets a unique prefix so runs never collide.
func newTestRedis(t *testing.T) *RedisCache {
	t.Helper()
	addr := os.Getenv("BLOCKGLYPH_REDIS_ADDR")
	if addr == "" {
		t.Skip("BLOCKGLYPH_REDIS_ADDR not set")
	}
	c, err := NewRedisCache(context.Background(), addr, WithRedisPrefix("blockglyph-test:"+uuid.NewString()+":"))
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	t.Cleanup(func() {
		_, _ = c.Clear(context.Background())
		c.Close()
	})
	return c
}

func TestRedisCache(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get(missing) = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("value"), time.Minute); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "value" {
		t.Errorf("Get = %q, hit %v, err %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry survived Delete")
	}
}

func TestRedisCacheClear(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d keys, want 3", n)
	}
}

func TestNewRedisCacheUnavailable(t *testing.T) {
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = 100 * time.Millisecond })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Port 1 is reserved and refuses connections.
	_, err := NewRedisCache(ctx, "127.0.0.1:1")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}
