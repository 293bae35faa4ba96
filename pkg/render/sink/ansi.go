package sink

import (
	"bytes"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/matzehuels/blockglyph/pkg/transcode"
)

// ANSIOption configures ANSI rendering via [RenderANSI].
type ANSIOption func(*ansiRenderer)

type ansiRenderer struct {
	profile termenv.Profile
	blocks  bool
	double  bool
}

// WithColorProfile downgrades colors to the given terminal profile.
// The default is 24-bit TrueColor.
func WithColorProfile(p termenv.Profile) ANSIOption {
	return func(r *ansiRenderer) { r.profile = p }
}

// WithBlocks draws every cell as a solid block in the cell color instead of
// its symbol.
func WithBlocks() ANSIOption { return func(r *ansiRenderer) { r.blocks = true } }

// WithDoubleWidth repeats each cell twice horizontally, compensating for
// terminal cells being roughly twice as tall as they are wide.
func WithDoubleWidth() ANSIOption { return func(r *ansiRenderer) { r.double = true } }

// RenderANSI returns the grid as colored terminal text.
func RenderANSI(grid *transcode.Grid, opts ...ANSIOption) []byte {
	r := ansiRenderer{profile: termenv.TrueColor}
	for _, opt := range opts {
		opt(&r)
	}

	lr := lipgloss.NewRenderer(io.Discard)
	lr.SetColorProfile(r.profile)

	styles := make(map[transcode.Cell]lipgloss.Style)
	var buf bytes.Buffer
	for _, row := range grid.Cells {
		for _, c := range row {
			key := transcode.Cell{R: c.R, G: c.G, B: c.B}
			style, ok := styles[key]
			if !ok {
				style = lr.NewStyle().Foreground(lipgloss.Color(c.Hex()))
				styles[key] = style
			}
			text := string(c.Symbol)
			if r.blocks {
				text = "█"
			}
			if r.double {
				text += text
			}
			buf.WriteString(style.Render(text))
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
