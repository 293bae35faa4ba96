// Package cache provides the caching layer for blockglyph's render pipeline.
//
// # Overview
//
// Rendering runs in two stages, and each stage's output is cached under a
// content-addressed key:
//
//   - Grid: the transform result for an image hash, block size, mode and table
//   - Artifact: rendered bytes for a grid hash, format and render options
//
// Because keys are derived from content hashes, a cache entry never goes
// stale; TTLs only bound disk and memory usage.
//
// # Backends
//
//   - [FileCache]: zstd-compressed files under the user cache directory (CLI)
//   - [RedisCache]: a shared Redis instance (server deployments)
//   - [NullCache]: caching disabled
//
// All backends implement [Cache]. Backends that can drop every entry also
// implement [Clearer].
package cache

import (
	"context"
	"time"
)

// TTLs per cache tier.
const (
	TTLGrid     = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache stores opaque byte payloads by key.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop all their entries.
type Clearer interface {
	// Clear removes every entry and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// GridKeyOpts are the transform inputs that affect a cached grid.
type GridKeyOpts struct {
	Mode      string `json:"mode"`
	BlockSize int    `json:"block_size"`
	MaxWidth  int    `json:"max_width,omitempty"`
	// TableHash identifies the symbol table by content, so custom table
	// files with equal contents share entries.
	TableHash string `json:"table_hash,omitempty"`
}

// ArtifactKeyOpts are the render inputs that affect a cached artifact.
type ArtifactKeyOpts struct {
	Format     string `json:"format"`
	GlyphSize  int    `json:"glyph_size,omitempty"`
	Glow       bool   `json:"glow,omitempty"`
	Background string `json:"background,omitempty"`
	Font       string `json:"font,omitempty"`
	// Table is the table name as written into outputs, not its contents.
	Table string `json:"table,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	GridKey(imageHash string, opts GridKeyOpts) string
	ArtifactKey(gridHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces "grid:<sha256>" and "artifact:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// GridKey generates a key for a transform result.
func (DefaultKeyer) GridKey(imageHash string, opts GridKeyOpts) string {
	return hashKey("grid", imageHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (DefaultKeyer) ArtifactKey(gridHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", gridHash, opts)
}

var _ Keyer = DefaultKeyer{}
