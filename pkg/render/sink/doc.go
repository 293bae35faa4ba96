// Package sink renders transform output into concrete formats.
//
// # Overview
//
// A "sink" turns a [transcode.Grid] (Symbolic mode) or a flattened
// [transcode.Buffer] (Flatten mode) into bytes. Grid sinks:
//
//   - Text: symbols only, one line per grid row
//   - ANSI: symbols colored with 24-bit escape sequences
//   - HTML: a <pre> block with one colored span per cell
//   - SVG: a vector canvas with each symbol centred in its cell
//   - PNG: a raster canvas drawn with a TrueType face
//   - JSON: grid dimensions and cells for external tools
//
// Flattened buffers go through [RenderFlat], which delegates to imageio.
//
// # Glyph Size
//
// SVG and PNG lay symbols out on a square cell of glyph size pixels, so the
// canvas is cols*glyph x rows*glyph regardless of the block size used for
// the transform. The default matches the default block size (16).
//
//	svg := sink.RenderSVG(grid, sink.WithGlyphSize(12), sink.WithGlow())
//	png, err := sink.RenderPNG(grid, sink.WithPNGGlyphSize(12))
//
// # Glow
//
// WithGlow and WithPNGGlow add a soft halo in each symbol's color behind the
// symbol, on the black background.
//
// # Missing Glyphs
//
// The PNG sink draws with a real font, which may lack some symbols. A cell
// whose symbol is missing from the face is painted as a solid block of the
// cell color instead of the font's placeholder box.
//
// [transcode.Grid]: github.com/matzehuels/blockglyph/pkg/transcode.Grid
// [transcode.Buffer]: github.com/matzehuels/blockglyph/pkg/transcode.Buffer
package sink
