package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blockglyph/pkg/cache"
	"github.com/matzehuels/blockglyph/pkg/imageio"
	"github.com/matzehuels/blockglyph/pkg/observability"
	"github.com/matzehuels/blockglyph/pkg/transcode"
)

// Cache key types reported to observability hooks.
const (
	keyTypeGrid     = "grid"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
// The CLI, the HTTP server and the preview all use it so caching behaves
// the same everywhere.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete transform → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, buf *transcode.Buffer, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Transform
	transformStart := time.Now()
	res, hash, transformHit, err := r.transform(ctx, buf, opts)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	result.Grid = res.Grid
	result.Image = res.Image
	result.ResultHash = hash
	result.Stats.TransformTime = time.Since(transformStart)
	result.CacheInfo.TransformHit = transformHit
	result.Stats.Width, result.Stats.Height = buf.Width, buf.Height
	result.Stats.Cols, result.Stats.Rows = resultSize(res)

	r.Logger.Info("transformed image",
		"mode", opts.Mode,
		"blocks", result.Stats.Blocks(),
		"cached", transformHit,
		"duration", result.Stats.TransformTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.render(ctx, res, hash, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// TransformWithCacheInfo runs the block transform with caching and returns cache hit info.
func (r *Runner) TransformWithCacheInfo(ctx context.Context, buf *transcode.Buffer, opts Options) (*transcode.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForTransform(); err != nil {
		return nil, false, err
	}
	res, _, hit, err := r.transform(ctx, buf, opts)
	return res, hit, err
}

// Transform is a convenience wrapper that calls TransformWithCacheInfo and discards the cache hit info.
func (r *Runner) Transform(ctx context.Context, buf *transcode.Buffer, opts Options) (*transcode.Result, error) {
	res, _, err := r.TransformWithCacheInfo(ctx, buf, opts)
	return res, err
}

// transform expects validated options. It returns the result together with
// its content hash, which keys the render stage.
func (r *Runner) transform(ctx context.Context, buf *transcode.Buffer, opts Options) (*transcode.Result, string, bool, error) {
	if err := buf.Validate(); err != nil {
		return nil, "", false, err
	}

	cacheKey := r.Keyer.GridKey(buf.Hash(), opts.GridKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if res, err := decodeResult(data, opts.Mode, opts.BlockSize); err == nil {
				observability.Cache().OnCacheHit(ctx, keyTypeGrid)
				return res, cache.Hash(data), true, nil
			}
			// If deserialization fails, fall through to recompute
			opts.Logger.Debug("discarding unreadable cache entry", "key", cacheKey)
		}
	}
	observability.Cache().OnCacheMiss(ctx, keyTypeGrid)

	work := buf
	if opts.MaxWidth > 0 && buf.Width > opts.MaxWidth {
		work = imageio.Fit(buf, opts.MaxWidth)
		opts.Logger.Debug("downscaled input",
			"from", fmt.Sprintf("%dx%d", buf.Width, buf.Height),
			"to", fmt.Sprintf("%dx%d", work.Width, work.Height))
	}

	start := time.Now()
	observability.Pipeline().OnTransformStart(ctx, opts.Mode, opts.BlockSize)
	res, err := transcode.Transform(work, opts.BlockSize, opts.TransformMode())
	cols, rows := transcode.GridSize(work.Width, work.Height, opts.BlockSize)
	blocks := cols * rows
	observability.Pipeline().OnTransformComplete(ctx, opts.Mode, blocks, time.Since(start), err)
	if err != nil {
		return nil, "", false, err
	}

	data, err := encodeResult(res)
	if err != nil {
		return nil, "", false, fmt.Errorf("serialize result: %w", err)
	}
	if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLGrid); err != nil {
		opts.Logger.Warn("cache write failed", "key", cacheKey, "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, keyTypeGrid, len(data))
	}

	return res, cache.Hash(data), false, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, res *transcode.Result, opts Options) (map[string][]byte, bool, error) {
	if res == nil {
		return nil, false, fmt.Errorf("nil transform result")
	}
	opts.Mode = res.Mode.String()
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	data, err := encodeResult(res)
	if err != nil {
		return nil, false, fmt.Errorf("serialize result for cache key: %w", err)
	}
	return r.render(ctx, res, cache.Hash(data), opts)
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, res *transcode.Result, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, res, opts)
	return artifacts, err
}

// render expects validated options.
func (r *Runner) render(ctx context.Context, res *transcode.Result, resultHash string, opts Options) (map[string][]byte, bool, error) {
	// Try to get all formats from cache
	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string

	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(resultHash, opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, keyTypeArtifact)
				artifacts[format] = data
				continue
			}
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeArtifact)
		missing = append(missing, format)
	}

	if len(missing) == 0 {
		return artifacts, true, nil // All artifacts from cache
	}

	// Render only the missing formats
	renderOpts := opts
	renderOpts.Formats = missing

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, missing)
	rendered, err := Render(res, renderOpts)
	observability.Pipeline().OnRenderComplete(ctx, missing, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(resultHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err != nil {
			opts.Logger.Warn("cache write failed", "format", format, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, keyTypeArtifact, len(data))
		}
		artifacts[format] = data
	}

	return artifacts, false, nil // Cache miss
}

// resultSize returns the block grid dimensions of a transform result.
func resultSize(res *transcode.Result) (cols, rows int) {
	if res.Grid != nil {
		return res.Grid.Cols, res.Grid.Rows
	}
	if res.Image != nil {
		return transcode.GridSize(res.Image.Width, res.Image.Height, res.BlockSize)
	}
	return 0, 0
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
