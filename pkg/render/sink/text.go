package sink

import (
	"bytes"

	"github.com/matzehuels/blockglyph/pkg/transcode"
)

// RenderText returns the grid's symbols, one line per row.
func RenderText(grid *transcode.Grid) []byte {
	var buf bytes.Buffer
	for _, row := range grid.Cells {
		for _, c := range row {
			buf.WriteRune(c.Symbol)
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
