package sink

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/blockglyph/pkg/fonts"
	"github.com/matzehuels/blockglyph/pkg/transcode"
)

// HTMLOption configures HTML rendering via [RenderHTML].
type HTMLOption func(*htmlRenderer)

type htmlRenderer struct {
	title     string
	glyphSize int
	fragment  bool
}

// WithHTMLTitle sets the document title.
func WithHTMLTitle(title string) HTMLOption { return func(r *htmlRenderer) { r.title = title } }

// WithHTMLGlyphSize sets the font size in pixels.
func WithHTMLGlyphSize(size int) HTMLOption { return func(r *htmlRenderer) { r.glyphSize = size } }

// WithHTMLFragment emits only the <pre> element, for embedding in a page.
func WithHTMLFragment() HTMLOption { return func(r *htmlRenderer) { r.fragment = true } }

// RenderHTML returns the grid as a <pre> block of colored spans.
func RenderHTML(grid *transcode.Grid, opts ...HTMLOption) []byte {
	r := htmlRenderer{title: "blockglyph", glyphSize: DefaultGlyphSize}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	if !r.fragment {
		fmt.Fprintf(&buf, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body style=\"background:#000;margin:0\">\n",
			html.EscapeString(r.title))
	}

	fmt.Fprintf(&buf, `<pre class="blockglyph" style="font-family:%s;font-size:%dpx;line-height:%dpx;margin:0">`,
		html.EscapeString(fonts.FallbackFontFamily), r.glyphSize, r.glyphSize)
	for i, row := range grid.Cells {
		if i > 0 {
			buf.WriteByte('\n')
		}
		for _, c := range row {
			fmt.Fprintf(&buf, `<span style="color:%s">%s</span>`, c.RGB(), html.EscapeString(string(c.Symbol)))
		}
	}
	buf.WriteString("</pre>\n")

	if !r.fragment {
		buf.WriteString("</body>\n</html>\n")
	}
	return buf.Bytes()
}
