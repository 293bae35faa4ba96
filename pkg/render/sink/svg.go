package sink

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/blockglyph/pkg/fonts"
	"github.com/matzehuels/blockglyph/pkg/transcode"
)

// SVGOption configures SVG rendering via [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	glyphSize  int
	glow       bool
	background string
	embedFont  string
}

// WithGlyphSize sets the cell pitch in pixels.
func WithGlyphSize(size int) SVGOption { return func(r *svgRenderer) { r.glyphSize = size } }

// WithGlow adds a blurred halo behind each symbol.
func WithGlow() SVGOption { return func(r *svgRenderer) { r.glow = true } }

// WithBackground sets the canvas fill color (any SVG color, default black).
func WithBackground(color string) SVGOption { return func(r *svgRenderer) { r.background = color } }

// WithEmbeddedFont inlines an embedded font (see fonts.Names) as an
// @font-face rule so the SVG renders identically without system fonts.
func WithEmbeddedFont(name string) SVGOption { return func(r *svgRenderer) { r.embedFont = name } }

// RenderSVG draws each symbol centred in a glyphSize cell on a filled
// background, filled with the cell color.
func RenderSVG(grid *transcode.Grid, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)
	g := r.glyphSize
	width, height := grid.Cols*g, grid.Rows*g

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`+"\n",
		width, height, width, height)

	r.renderDefs(&buf)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", html.EscapeString(r.background))

	fmt.Fprintf(&buf, `  <g class="glyphs" font-family="%s" font-size="%d" text-anchor="middle" dominant-baseline="central"`,
		html.EscapeString(r.fontFamily()), g)
	if r.glow {
		buf.WriteString(` filter="url(#glow)"`)
	}
	buf.WriteString(">\n")

	for y, row := range grid.Cells {
		for x, c := range row {
			if c.Symbol == ' ' || c.Symbol == 0 {
				continue
			}
			fmt.Fprintf(&buf, `    <text x="%d" y="%d" fill="%s">%s</text>`+"\n",
				x*g+g/2, y*g+g/2, c.RGB(), html.EscapeString(string(c.Symbol)))
		}
	}

	buf.WriteString("  </g>\n</svg>\n")
	return buf.Bytes()
}

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{glyphSize: DefaultGlyphSize, background: "#000"}
	for _, opt := range opts {
		opt(&r)
	}
	if r.glyphSize < 1 {
		r.glyphSize = DefaultGlyphSize
	}
	return r
}

func (r *svgRenderer) fontFamily() string {
	if r.embedFont != "" && fonts.TTFBase64(r.embedFont) != "" {
		return fmt.Sprintf("'%s', monospace", fonts.FontFamily)
	}
	return fonts.FallbackFontFamily
}

func (r *svgRenderer) renderDefs(buf *bytes.Buffer) {
	b64 := ""
	if r.embedFont != "" {
		b64 = fonts.TTFBase64(r.embedFont)
	}
	if !r.glow && b64 == "" {
		return
	}

	buf.WriteString("  <defs>\n")
	if b64 != "" {
		fmt.Fprintf(buf, "    <style>@font-face { font-family: '%s'; src: url(data:font/ttf;base64,%s) format('truetype'); }</style>\n",
			fonts.FontFamily, b64)
	}
	if r.glow {
		buf.WriteString(`    <filter id="glow" x="-50%" y="-50%" width="200%" height="200%">
      <feGaussianBlur in="SourceGraphic" stdDeviation="4" result="blur"/>
      <feMerge><feMergeNode in="blur"/><feMergeNode in="SourceGraphic"/></feMerge>
    </filter>
`)
	}
	buf.WriteString("  </defs>\n")
}
