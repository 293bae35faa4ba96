package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	errs "github.com/matzehuels/blockglyph/pkg/errors"
	"github.com/matzehuels/blockglyph/pkg/pipeline"
	"github.com/matzehuels/blockglyph/pkg/server"
)

const configFileName = "config.toml"

// Cache backends selectable in the config file.
const (
	cacheBackendFile  = "file"
	cacheBackendRedis = "redis"
	cacheBackendNone  = "none"
)

// Config is the user configuration read from config.toml. Zero values
// defer to pipeline defaults; command-line flags override everything.
type Config struct {
	Mode       string   `toml:"mode,omitempty"`
	BlockSize  int      `toml:"block_size,omitempty"`
	GlyphSize  int      `toml:"glyph_size,omitempty"`
	Table      string   `toml:"table,omitempty"`
	Formats    []string `toml:"formats,omitempty"`
	Background string   `toml:"background,omitempty"`
	Glow       bool     `toml:"glow,omitempty"`
	Font       string   `toml:"font,omitempty"`
	MaxWidth   int      `toml:"max_width,omitempty"`

	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects and tunes the cache backend.
type CacheConfig struct {
	Backend   string   `toml:"backend"`
	RedisAddr string   `toml:"redis_addr,omitempty"`
	TTL       duration `toml:"ttl,omitempty"`
}

// ServerConfig configures "blockglyph serve".
type ServerConfig struct {
	Addr      string `toml:"addr"`
	MaxBodyMB int    `toml:"max_body_mb,omitempty"`
}

// duration reads TOML strings such as "72h" or "30m".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() *Config {
	return &Config{
		Cache:  CacheConfig{Backend: cacheBackendFile},
		Server: ServerConfig{Addr: server.DefaultAddr},
	}
}

// defaultConfigPath returns config.toml under the XDG config directory.
func defaultConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// loadConfig reads the config at path. A missing file is only an error when
// the path was given explicitly. Unknown keys are returned so the caller can
// warn about typos.
func loadConfig(path string) (*Config, []string, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		p, err := defaultConfigPath()
		if err != nil {
			return cfg, nil, cfg.finish()
		}
		path = p
	}

	var unknown []string
	md, err := toml.DecodeFile(path, cfg)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No config file; defaults apply.
	case errors.Is(err, os.ErrNotExist):
		return nil, nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "config file %s", path)
	case err != nil:
		return nil, nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse %s", path)
	default:
		for _, key := range md.Undecoded() {
			unknown = append(unknown, key.String())
		}
	}

	return cfg, unknown, cfg.finish()
}

// finish applies environment overrides and validates the result.
func (cfg *Config) finish() error {
	if addr := os.Getenv(envRedisAddr); addr != "" {
		cfg.Cache.RedisAddr = addr
		if cfg.Cache.Backend == "" || cfg.Cache.Backend == cacheBackendFile {
			cfg.Cache.Backend = cacheBackendRedis
		}
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = cacheBackendFile
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = server.DefaultAddr
	}
	return cfg.validate()
}

func (cfg *Config) validate() error {
	switch cfg.Cache.Backend {
	case cacheBackendFile, cacheBackendNone:
	case cacheBackendRedis:
		if cfg.Cache.RedisAddr == "" {
			return errs.New(errs.ErrCodeInvalidConfig, "cache.backend = %q requires cache.redis_addr or %s", cacheBackendRedis, envRedisAddr)
		}
	default:
		return errs.New(errs.ErrCodeInvalidConfig, "cache.backend must be one of file, redis, none; got %q", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL.Duration < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	if cfg.Server.MaxBodyMB < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "server.max_body_mb must not be negative")
	}
	return nil
}

// options converts the config to pipeline options. Validation happens in the pipeline.
func (cfg *Config) options() pipeline.Options {
	return pipeline.Options{
		Mode:       cfg.Mode,
		BlockSize:  cfg.BlockSize,
		GlyphSize:  cfg.GlyphSize,
		Table:      cfg.Table,
		Formats:    append([]string(nil), cfg.Formats...),
		Background: cfg.Background,
		Glow:       cfg.Glow,
		Font:       cfg.Font,
		MaxWidth:   cfg.MaxWidth,
	}
}

// loadConfig loads the config for the current invocation and warns about unknown keys.
func (c *CLI) loadConfig() (*Config, error) {
	cfg, unknown, err := loadConfig(c.configPath)
	if err != nil {
		return nil, err
	}
	if len(unknown) > 0 {
		c.Logger.Warn("ignoring unknown config keys", "keys", strings.Join(unknown, ", "))
	}
	return cfg, nil
}

// configCommand creates the config management command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath
			if path == "" {
				p, err := defaultConfigPath()
				if err != nil {
					return fmt.Errorf("get config dir: %w", err)
				}
				path = p
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default config file if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath
			if path == "" {
				p, err := defaultConfigPath()
				if err != nil {
					return fmt.Errorf("get config dir: %w", err)
				}
				path = p
			}
			created, err := writeDefaultConfig(path)
			if err != nil {
				return err
			}
			if !created {
				printInfo("Config already exists")
			} else {
				printSuccess("Wrote default config")
			}
			printFile(path)
			return nil
		},
	})

	return cmd
}

// writeDefaultConfig creates path with the default settings spelled out.
// It reports false without writing when the file already exists.
func writeDefaultConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	cfg := defaultConfig()
	cfg.Mode = pipeline.DefaultMode
	cfg.BlockSize = pipeline.DefaultBlockSize
	cfg.GlyphSize = pipeline.DefaultGlyphSize
	cfg.Table = pipeline.DefaultTable
	cfg.Formats = []string{pipeline.DefaultFormat}
	cfg.Background = pipeline.DefaultBackground
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return false, err
	}
	return true, nil
}
