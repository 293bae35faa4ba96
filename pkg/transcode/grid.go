package transcode

import "fmt"

// Cell is one block of a symbolic rendering.
type Cell struct {
	R, G, B   uint8
	Luminance int
	Symbol    rune
}

// RGB formats the cell color as a CSS color, e.g. "rgb(255, 0, 0)".
func (c Cell) RGB() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// Hex formats the cell color as "#rrggbb".
func (c Cell) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Grid is the row-major output of a Symbolic transform.
type Grid struct {
	Rows  int
	Cols  int
	Cells [][]Cell
}

func newGrid(cols, rows int) *Grid {
	cells := make([][]Cell, rows)
	flat := make([]Cell, rows*cols)
	for i := range cells {
		cells[i] = flat[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return &Grid{Rows: rows, Cols: cols, Cells: cells}
}

// At returns the cell at the given row and column.
func (g *Grid) At(row, col int) Cell {
	return g.Cells[row][col]
}

// Histogram counts cells per luminance level.
func (g *Grid) Histogram() [TableSize]int {
	var h [TableSize]int
	for _, row := range g.Cells {
		for _, c := range row {
			h[c.Luminance]++
		}
	}
	return h
}

// Lines returns the symbols of each row as a string.
func (g *Grid) Lines() []string {
	lines := make([]string, g.Rows)
	for i, row := range g.Cells {
		runes := make([]rune, len(row))
		for j, c := range row {
			runes[j] = c.Symbol
		}
		lines[i] = string(runes)
	}
	return lines
}
