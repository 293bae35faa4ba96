package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/blockglyph/pkg/cache"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if dir != filepath.Join(xdg, appName) {
		t.Errorf("cacheDir() = %q, want %q", dir, filepath.Join(xdg, appName))
	}
}

func TestNewCacheBackends(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	c := New(os.Stderr, LogInfo)
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     *Config
		noCache bool
		check   func(cache.Cache) bool
	}{
		{"no-cache flag", defaultConfig(), true, func(ch cache.Cache) bool {
			_, ok := ch.(*cache.NullCache)
			return ok
		}},
		{"none backend", &Config{Cache: CacheConfig{Backend: cacheBackendNone}}, false, func(ch cache.Cache) bool {
			_, ok := ch.(*cache.NullCache)
			return ok
		}},
		{"file backend", defaultConfig(), false, func(ch cache.Cache) bool {
			_, ok := ch.(*cache.FileCache)
			return ok
		}},
		{"file backend with ttl", &Config{Cache: CacheConfig{Backend: cacheBackendFile, TTL: duration{Duration: time.Hour}}}, false, func(ch cache.Cache) bool {
			_, ok := ch.(*cache.TTLCache)
			return ok
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, err := c.newCache(ctx, tt.cfg, tt.noCache)
			if err != nil {
				t.Fatal(err)
			}
			defer ch.Close()
			if !tt.check(ch) {
				t.Errorf("unexpected cache type %T", ch)
			}
		})
	}
}

func TestCacheClearCommand(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(envRedisAddr, "")

	fc, err := cache.NewFileCache(filepath.Join(xdg, appName))
	if err != nil {
		t.Fatal(err)
	}
	_ = fc.Set(context.Background(), "grid:abc", []byte("x"), 0)

	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"cache", "clear"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("cache clear: %v", err)
	}

	if _, hit, _ := fc.Get(context.Background(), "grid:abc"); hit {
		t.Error("entry survived cache clear")
	}
}

func TestCachePathCommand(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()
	var out strings.Builder
	root.SetOut(&out)
	root.SetArgs([]string{"cache", "path"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != filepath.Join(xdg, appName) {
		t.Errorf("cache path = %q, want %q", got, filepath.Join(xdg, appName))
	}
}
