package sink

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/blockglyph/pkg/transcode"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	blockSize int
	glyphSize int
	table     string
}

// WithJSONBlockSize records the block size used for the transform.
func WithJSONBlockSize(size int) JSONOption { return func(r *jsonRenderer) { r.blockSize = size } }

// WithJSONGlyphSize records the glyph size intended for rendering.
func WithJSONGlyphSize(size int) JSONOption { return func(r *jsonRenderer) { r.glyphSize = size } }

// WithJSONTable records the symbol table name.
func WithJSONTable(name string) JSONOption { return func(r *jsonRenderer) { r.table = name } }

type jsonOutput struct {
	Rows      int          `json:"rows"`
	Cols      int          `json:"cols"`
	BlockSize int          `json:"block_size,omitempty"`
	GlyphSize int          `json:"glyph_size,omitempty"`
	Table     string       `json:"table,omitempty"`
	Cells     [][]jsonCell `json:"cells"`
}

type jsonCell struct {
	Symbol    string   `json:"symbol"`
	RGB       [3]uint8 `json:"rgb"`
	Luminance int      `json:"luminance"`
}

// RenderJSON exports the grid with its cells in row-major order.
func RenderJSON(grid *transcode.Grid, opts ...JSONOption) ([]byte, error) {
	var r jsonRenderer
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		Rows:      grid.Rows,
		Cols:      grid.Cols,
		BlockSize: r.blockSize,
		GlyphSize: r.glyphSize,
		Table:     r.table,
		Cells:     make([][]jsonCell, len(grid.Cells)),
	}
	for i, row := range grid.Cells {
		cells := make([]jsonCell, len(row))
		for j, c := range row {
			cells[j] = jsonCell{
				Symbol:    string(c.Symbol),
				RGB:       [3]uint8{c.R, c.G, c.B},
				Luminance: c.Luminance,
			}
		}
		out.Cells[i] = cells
	}
	return json.MarshalIndent(out, "", "  ")
}

// ParseJSON reads a grid written by [RenderJSON].
func ParseJSON(data []byte) (*transcode.Grid, error) {
	var in jsonOutput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	if len(in.Cells) != in.Rows {
		return nil, fmt.Errorf("grid has %d rows, header says %d", len(in.Cells), in.Rows)
	}

	grid := &transcode.Grid{Rows: in.Rows, Cols: in.Cols, Cells: make([][]transcode.Cell, in.Rows)}
	for i, row := range in.Cells {
		if len(row) != in.Cols {
			return nil, fmt.Errorf("row %d has %d cells, header says %d", i, len(row), in.Cols)
		}
		cells := make([]transcode.Cell, len(row))
		for j, c := range row {
			sym := []rune(c.Symbol)
			if len(sym) != 1 {
				return nil, fmt.Errorf("cell (%d,%d): symbol %q is not a single rune", i, j, c.Symbol)
			}
			cells[j] = transcode.Cell{R: c.RGB[0], G: c.RGB[1], B: c.RGB[2], Luminance: c.Luminance, Symbol: sym[0]}
		}
		grid.Cells[i] = cells
	}
	return grid, nil
}
