package pipeline

import (
	"bytes"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	errs "github.com/matzehuels/blockglyph/pkg/errors"
	"github.com/matzehuels/blockglyph/pkg/fonts"
	"github.com/matzehuels/blockglyph/pkg/imageio"
	"github.com/matzehuels/blockglyph/pkg/render"
	"github.com/matzehuels/blockglyph/pkg/render/sink"
	"github.com/matzehuels/blockglyph/pkg/transcode"
)

// GlowSigma is the Gaussian sigma of the PNG glow halo.
const GlowSigma = 4.0

// Render generates output artifacts in the requested formats.
func Render(res *transcode.Result, opts Options) (map[string][]byte, error) {
	if res == nil {
		return nil, errs.New(errs.ErrCodeInvalidArgument, "nil transform result")
	}
	if res.Mode == transcode.ModeFlatten {
		return renderFlat(res.Image, opts)
	}
	return renderGrid(res.Grid, res.BlockSize, opts)
}

// renderFlat encodes a flattened image.
func renderFlat(buf *transcode.Buffer, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := sink.RenderFlat(buf, format)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// renderGrid generates symbol grid outputs.
func renderGrid(grid *transcode.Grid, blockSize int, opts Options) (map[string][]byte, error) {
	if grid == nil {
		return nil, errs.New(errs.ErrCodeInvalidArgument, "nil grid")
	}
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		if err := checkRenderSize(grid, format, opts.GlyphSize); err != nil {
			return nil, err
		}

		var data []byte
		var err error

		switch format {
		case sink.FormatText:
			data = sink.RenderText(grid)
		case sink.FormatANSI:
			data = sink.RenderANSI(grid)
		case sink.FormatHTML:
			data = sink.RenderHTML(grid, sink.WithHTMLGlyphSize(opts.GlyphSize))
		case sink.FormatSVG:
			data = sink.RenderSVG(grid, buildSVGOptions(opts)...)
		case sink.FormatPDF:
			data, err = render.ToPDF(sink.RenderSVG(grid, buildSVGOptions(opts)...))
		case sink.FormatPNG:
			var pngOpts []sink.PNGOption
			pngOpts, err = buildPNGOptions(opts)
			if err == nil {
				data, err = sink.RenderPNG(grid, pngOpts...)
			}
		case sink.FormatJSON:
			data, err = sink.RenderJSON(grid,
				sink.WithJSONBlockSize(blockSize),
				sink.WithJSONGlyphSize(opts.GlyphSize),
				sink.WithJSONTable(opts.Table))
		default:
			return nil, errs.New(errs.ErrCodeInvalidFormat, "unsupported grid format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// checkRenderSize rejects grids whose output in format would be too large
// to build in memory.
func checkRenderSize(grid *transcode.Grid, format string, glyphSize int) error {
	switch format {
	case sink.FormatPNG:
		return errs.ValidateCanvasSize(grid.Cols, grid.Rows, glyphSize)
	case sink.FormatSVG, sink.FormatPDF:
		if err := errs.ValidateCanvasSize(grid.Cols, grid.Rows, glyphSize); err != nil {
			return err
		}
		return errs.ValidateMarkupCells(grid.Cols, grid.Rows)
	case sink.FormatHTML:
		return errs.ValidateMarkupCells(grid.Cols, grid.Rows)
	}
	return nil
}

// buildSVGOptions builds SVG rendering options.
// Only embedded fonts can be inlined; a font path falls back to the
// viewer's monospace stack.
func buildSVGOptions(opts Options) []sink.SVGOption {
	svgOpts := []sink.SVGOption{
		sink.WithGlyphSize(opts.GlyphSize),
		sink.WithBackground(opts.Background),
	}
	if opts.Glow {
		svgOpts = append(svgOpts, sink.WithGlow())
	}
	if _, ok := fonts.TTF(opts.Font); ok {
		svgOpts = append(svgOpts, sink.WithEmbeddedFont(opts.Font))
	}
	return svgOpts
}

// buildPNGOptions builds PNG rendering options, loading the font if one is named.
func buildPNGOptions(opts Options) ([]sink.PNGOption, error) {
	bg, err := parseHexColor(opts.Background)
	if err != nil {
		return nil, err
	}
	pngOpts := []sink.PNGOption{
		sink.WithPNGGlyphSize(opts.GlyphSize),
		sink.WithPNGBackground(bg),
	}
	if opts.Glow {
		pngOpts = append(pngOpts, sink.WithPNGGlow(GlowSigma))
	}
	if opts.Font != "" {
		f, err := fonts.Resolve(opts.Font)
		if err != nil {
			return nil, err
		}
		pngOpts = append(pngOpts, sink.WithPNGFont(f))
	}
	return pngOpts, nil
}

// parseHexColor parses "#rrggbb" (or "rrggbb") into an opaque color.
func parseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("color %q is not #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("color %q is not #rrggbb", s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// encodeResult serializes a transform result for the cache.
// Grids are stored as JSON, flattened images as PNG.
func encodeResult(res *transcode.Result) ([]byte, error) {
	if res.Mode == transcode.ModeFlatten {
		return imageio.EncodeBytes(res.Image, imageio.FormatPNG)
	}
	return sink.RenderJSON(res.Grid, sink.WithJSONBlockSize(res.BlockSize))
}

// decodeResult is the inverse of encodeResult.
func decodeResult(data []byte, mode string, blockSize int) (*transcode.Result, error) {
	if mode == ModeFlatten {
		buf, _, err := imageio.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return &transcode.Result{Mode: transcode.ModeFlatten, BlockSize: blockSize, Image: buf}, nil
	}
	grid, err := sink.ParseJSON(data)
	if err != nil {
		return nil, err
	}
	return &transcode.Result{Mode: transcode.ModeSymbolic, BlockSize: blockSize, Grid: grid}, nil
}
