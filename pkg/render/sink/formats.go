package sink

import (
	"github.com/matzehuels/blockglyph/pkg/imageio"
	"github.com/matzehuels/blockglyph/pkg/transcode"
)

// Grid output formats.
const (
	FormatText = "txt"
	FormatANSI = "ansi"
	FormatHTML = "html"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
	FormatPDF  = "pdf"
)

// DefaultGlyphSize is the cell pitch, in pixels, for SVG and PNG output.
const DefaultGlyphSize = 16

// GridFormats lists the formats a symbol grid can be rendered to.
var GridFormats = map[string]bool{
	FormatText: true,
	FormatANSI: true,
	FormatHTML: true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJSON: true,
	FormatPDF:  true,
}

// ContentType returns the MIME type of a grid format.
func ContentType(format string) string {
	switch format {
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatANSI:
		return "text/x-ansi; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatJSON:
		return "application/json"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// RenderFlat encodes a flattened buffer as an image file.
func RenderFlat(buf *transcode.Buffer, format string) ([]byte, error) {
	return imageio.EncodeBytes(buf, format)
}
