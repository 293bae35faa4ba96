// Package pipeline provides the image → grid → artifact pipeline for blockglyph.
//
// This package implements the complete transform → render pipeline used by
// the CLI, the HTTP server and the live preview. Centralizing it keeps
// defaults, validation and caching identical across entry points.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Transform: optionally downscale the image, then run the block
//     transform in symbolic or flatten mode
//  2. Render: turn the grid or flattened image into output formats
//
// Each stage can be run independently or as part of the complete pipeline,
// and each stage's output is cached under a content-addressed key.
//
// # Usage
//
// Create a Runner and execute the pipeline on a decoded buffer:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Mode:      pipeline.ModeSymbolic,
//	    BlockSize: 8,
//	    Table:     "blocks",
//	    Formats:   []string{"svg", "png"},
//	}
//	result, err := runner.Execute(ctx, buf, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	res, err := runner.Transform(ctx, buf, opts)
//	artifacts, err := runner.Render(ctx, res, opts)
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blockglyph/pkg/cache"
	errs "github.com/matzehuels/blockglyph/pkg/errors"
	"github.com/matzehuels/blockglyph/pkg/imageio"
	"github.com/matzehuels/blockglyph/pkg/render/sink"
	"github.com/matzehuels/blockglyph/pkg/symbols"
	"github.com/matzehuels/blockglyph/pkg/transcode"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Preview
// =============================================================================

// Transform modes.
const (
	ModeSymbolic = "symbolic"
	ModeFlatten  = "flatten"
)

const (
	// DefaultMode is the default transform mode.
	DefaultMode = ModeSymbolic

	// DefaultBlockSize is the default block edge length in pixels.
	DefaultBlockSize = transcode.DefaultBlockSize

	// DefaultGlyphSize is the default rendered cell pitch in pixels.
	DefaultGlyphSize = sink.DefaultGlyphSize

	// DefaultTable is the default symbol table.
	DefaultTable = symbols.Default

	// DefaultFormat is the output format used when none is requested.
	DefaultFormat = sink.FormatPNG

	// DefaultBackground is the canvas color for SVG and PNG output.
	DefaultBackground = "#000000"
)

// ValidModes is the set of supported transform modes.
var ValidModes = map[string]bool{
	ModeSymbolic: true,
	ModeFlatten:  true,
}

// ValidGridFormats is the set of formats a symbolic grid renders to.
var ValidGridFormats = sink.GridFormats

// ValidFlattenFormats is the set of formats a flattened image encodes to.
var ValidFlattenFormats = imageio.ValidEncodeFormats

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Transform options
	Mode      string `json:"mode,omitempty"`
	BlockSize int    `json:"block_size,omitempty"`
	Table     string `json:"table,omitempty"`     // built-in name or table file path
	MaxWidth  int    `json:"max_width,omitempty"` // downscale wider images first
	Refresh   bool   `json:"refresh,omitempty"`   // bypass cache reads

	// Render options
	Formats    []string `json:"formats,omitempty"`
	GlyphSize  int      `json:"glyph_size,omitempty"`
	Glow       bool     `json:"glow,omitempty"`
	Background string   `json:"background,omitempty"` // #rrggbb
	Font       string   `json:"font,omitempty"`       // embedded font name or TTF path

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// SymbolTable, when set, is used instead of resolving Table.
	SymbolTable transcode.SymbolTable `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Grid is the symbol grid (symbolic mode).
	Grid *transcode.Grid

	// Image is the flattened buffer (flatten mode).
	Image *transcode.Buffer

	// ResultHash is the content hash of the transform output.
	ResultHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Width         int // input image width, before any downscaling
	Height        int
	Cols          int
	Rows          int
	TransformTime time.Duration
	RenderTime    time.Duration
}

// Blocks returns the number of blocks the transform visited.
func (s Stats) Blocks() int { return s.Cols * s.Rows }

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	TransformHit bool // Whether the transform result came from cache
	RenderHit    bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateMode checks that a mode is valid.
func ValidateMode(mode string) error {
	if !ValidModes[mode] {
		return errs.New(errs.ErrCodeInvalidMode, "invalid mode: %q (must be one of: symbolic, flatten)", mode)
	}
	return nil
}

// ValidateFormat checks that a format is valid for the mode.
func ValidateFormat(mode, format string) error {
	valid := ValidGridFormats
	if mode == ModeFlatten {
		valid = ValidFlattenFormats
	}
	if !valid[format] {
		return errs.New(errs.ErrCodeInvalidFormat, "invalid format for %s mode: %q (must be one of: %s)",
			mode, format, strings.Join(sortedKeys(valid), ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid for the mode.
func ValidateFormats(mode string, formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(mode, f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateBackground checks a #rrggbb color.
func ValidateBackground(bg string) error {
	if _, err := parseHexColor(bg); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidArgument, err, "invalid background")
	}
	return nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks all fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForTransform(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetTransformDefaults sets default values for the transform stage.
func (o *Options) SetTransformDefaults() {
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	if o.BlockSize == 0 {
		o.BlockSize = DefaultBlockSize
	}
	if o.Table == "" {
		o.Table = DefaultTable
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForTransform validates and sets defaults for the transform stage.
// The symbol table is resolved (and cached on the options) in symbolic mode.
func (o *Options) ValidateForTransform() error {
	o.SetTransformDefaults()
	if err := ValidateMode(o.Mode); err != nil {
		return err
	}
	if err := errs.ValidateBlockSize(o.BlockSize); err != nil {
		return err
	}
	if o.MaxWidth < 0 {
		return errs.New(errs.ErrCodeInvalidArgument, "max width must be >= 0, got %d", o.MaxWidth)
	}
	if o.Mode == ModeSymbolic && o.SymbolTable == nil {
		table, err := symbols.Resolve(o.Table)
		if err != nil {
			return err
		}
		o.SymbolTable = table
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.GlyphSize == 0 {
		o.GlyphSize = DefaultGlyphSize
	}
	if o.Background == "" {
		o.Background = DefaultBackground
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	o.SetRenderDefaults()
	if err := ValidateMode(o.Mode); err != nil {
		return err
	}
	if err := ValidateFormats(o.Mode, o.Formats); err != nil {
		return err
	}
	if err := errs.ValidateGlyphSize(o.GlyphSize); err != nil {
		return err
	}
	return ValidateBackground(o.Background)
}

// IsFlatten returns true if the pipeline produces a flattened image.
func (o *Options) IsFlatten() bool {
	return o.Mode == ModeFlatten
}

// TransformMode builds the transcode mode selector for these options.
// ValidateForTransform must have been called.
func (o *Options) TransformMode() transcode.Mode {
	if o.IsFlatten() {
		return transcode.Flatten()
	}
	return transcode.Symbolic(o.SymbolTable)
}

// GridKeyOpts returns cache key options for the transform stage.
func (o *Options) GridKeyOpts() cache.GridKeyOpts {
	opts := cache.GridKeyOpts{
		Mode:      o.Mode,
		BlockSize: o.BlockSize,
		MaxWidth:  o.MaxWidth,
	}
	if !o.IsFlatten() {
		opts.TableHash = cache.Hash([]byte(string(o.SymbolTable)))
	}
	return opts
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
// Options that do not affect a format are left zero so they share entries.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case sink.FormatSVG, sink.FormatPNG, sink.FormatPDF:
		if o.IsFlatten() {
			break
		}
		opts.GlyphSize = o.GlyphSize
		opts.Glow = o.Glow
		opts.Background = o.Background
		opts.Font = o.Font
	case sink.FormatHTML:
		opts.GlyphSize = o.GlyphSize
	case sink.FormatJSON:
		opts.GlyphSize = o.GlyphSize
		opts.Table = o.Table
	}
	return opts
}

// String returns a short human-readable summary used in log lines.
func (o *Options) String() string {
	if o.IsFlatten() {
		return fmt.Sprintf("flatten block=%d", o.BlockSize)
	}
	return fmt.Sprintf("symbolic block=%d table=%s glyph=%d", o.BlockSize, o.Table, o.GlyphSize)
}
