// Package render holds the output side of blockglyph.
//
// The [sink] subpackage turns a symbol grid or flattened buffer into bytes
// in a concrete format (text, ANSI, HTML, SVG, PNG, JSON). This package
// adds format conversion that relies on external tools, currently SVG to
// PDF through rsvg-convert:
//
//	svg := sink.RenderSVG(grid, sink.WithGlyphSize(16))
//	pdf, err := render.ToPDF(svg)
//
// [sink]: github.com/matzehuels/blockglyph/pkg/render/sink
package render
