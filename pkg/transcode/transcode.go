package transcode

import (
	"fmt"
	"math"

	errs "github.com/matzehuels/blockglyph/pkg/errors"
)

const (
	// TableSize is the number of entries every SymbolTable must hold, one
	// per integer luminance level.
	TableSize = 100

	// DefaultBlockSize is the block edge length used when none is configured.
	DefaultBlockSize = 16

	// MaxLuminance is the highest luminance a Cell can carry.
	MaxLuminance = TableSize - 1
)

// SymbolTable maps luminance levels 0..99 to symbols, darkest first.
type SymbolTable []rune

// Validate reports INVALID_SYMBOL_TABLE unless the table has exactly
// TableSize entries.
func (t SymbolTable) Validate() error {
	if len(t) != TableSize {
		return errs.New(errs.ErrCodeInvalidSymbolTable,
			"symbol table must have %d entries, got %d", TableSize, len(t))
	}
	return nil
}

// ModeKind identifies which output a Transform produces.
type ModeKind int

const (
	ModeSymbolic ModeKind = iota
	ModeFlatten
)

func (k ModeKind) String() string {
	switch k {
	case ModeSymbolic:
		return "symbolic"
	case ModeFlatten:
		return "flatten"
	default:
		return fmt.Sprintf("ModeKind(%d)", int(k))
	}
}

// Mode selects the transform output. Build one with [Symbolic] or [Flatten].
type Mode struct {
	kind  ModeKind
	table SymbolTable
}

// Symbolic selects grid output, mapping each block's luminance through table.
func Symbolic(table SymbolTable) Mode {
	return Mode{kind: ModeSymbolic, table: table}
}

// Flatten selects image output, painting each block with its average color.
func Flatten() Mode {
	return Mode{kind: ModeFlatten}
}

// Kind returns the mode's tag.
func (m Mode) Kind() ModeKind { return m.kind }

// Table returns the symbol table of a Symbolic mode, nil otherwise.
func (m Mode) Table() SymbolTable { return m.table }

// Result holds the output of [Transform]. Exactly one of Grid and Image is
// non-nil, matching Mode.
type Result struct {
	Mode      ModeKind
	BlockSize int
	Grid      *Grid
	Image     *Buffer
}

// Transform partitions buf into size x size blocks and produces either a
// symbol grid or a flattened image, depending on mode.
//
// All validation happens before any output is allocated; on error the
// result is nil.
func Transform(buf *Buffer, size int, mode Mode) (*Result, error) {
	if err := errs.ValidateBlockSize(size); err != nil {
		return nil, err
	}
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	switch mode.kind {
	case ModeSymbolic:
		if err := mode.table.Validate(); err != nil {
			return nil, err
		}
		return &Result{Mode: ModeSymbolic, BlockSize: size, Grid: symbolize(buf, size, mode.table)}, nil
	case ModeFlatten:
		return &Result{Mode: ModeFlatten, BlockSize: size, Image: flatten(buf, size)}, nil
	default:
		return nil, errs.New(errs.ErrCodeInvalidArgument, "unknown mode %s", mode.kind)
	}
}

// Symbolize is Transform in Symbolic mode.
func Symbolize(buf *Buffer, size int, table SymbolTable) (*Grid, error) {
	res, err := Transform(buf, size, Symbolic(table))
	if err != nil {
		return nil, err
	}
	return res.Grid, nil
}

// FlattenBuffer is Transform in Flatten mode.
func FlattenBuffer(buf *Buffer, size int) (*Buffer, error) {
	res, err := Transform(buf, size, Flatten())
	if err != nil {
		return nil, err
	}
	return res.Image, nil
}

// GridSize returns the number of block columns and rows for a w x h image.
func GridSize(w, h, size int) (cols, rows int) {
	if size < 1 || w <= 0 || h <= 0 {
		return 0, 0
	}
	return (w + size - 1) / size, (h + size - 1) / size
}

// Luminance maps an RGB color to an integer level in [0, 99].
func Luminance(r, g, b uint8) int {
	// Explicit conversions keep the products from being fused, so results
	// match across architectures.
	sum := float64(0.2126*float64(r)) + float64(0.7152*float64(g)) + float64(0.0722*float64(b))
	l := (sum / 255) * 100
	lum := int(math.Floor(l))
	if lum < 0 {
		return 0
	}
	if lum > MaxLuminance {
		return MaxLuminance
	}
	return lum
}

// AverageBlock averages the in-bounds pixels of the size x size block whose
// top-left corner is (x0, y0). count is the number of pixels that
// contributed; when it is zero the color is black.
func AverageBlock(buf *Buffer, x0, y0, size int) (r, g, b uint8, count int) {
	x1, y1 := min(x0+size, buf.Width), min(y0+size, buf.Height)
	x0, y0 = max(x0, 0), max(y0, 0)
	if x0 >= x1 || y0 >= y1 {
		return 0, 0, 0, 0
	}

	var sr, sg, sb uint64
	for y := y0; y < y1; y++ {
		row := buf.Pix[(y*buf.Width+x0)*4 : (y*buf.Width+x1)*4]
		for i := 0; i < len(row); i += 4 {
			sr += uint64(row[i])
			sg += uint64(row[i+1])
			sb += uint64(row[i+2])
		}
	}
	count = (x1 - x0) * (y1 - y0)
	n := uint64(count)
	return uint8((sr + n/2) / n), uint8((sg + n/2) / n), uint8((sb + n/2) / n), count
}

func symbolize(buf *Buffer, size int, table SymbolTable) *Grid {
	cols, rows := GridSize(buf.Width, buf.Height, size)
	grid := newGrid(cols, rows)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			r, g, b, _ := AverageBlock(buf, col*size, row*size, size)
			lum := Luminance(r, g, b)
			grid.Cells[row][col] = Cell{R: r, G: g, B: b, Luminance: lum, Symbol: table[lum]}
		}
	}
	return grid
}

func flatten(buf *Buffer, size int) *Buffer {
	out := buf.Clone()
	for by := 0; by < buf.Height; by += size {
		for bx := 0; bx < buf.Width; bx += size {
			r, g, b, _ := AverageBlock(buf, bx, by, size)
			x1, y1 := min(bx+size, buf.Width), min(by+size, buf.Height)
			for y := by; y < y1; y++ {
				for x := bx; x < x1; x++ {
					i := (y*buf.Width + x) * 4
					out.Pix[i], out.Pix[i+1], out.Pix[i+2] = r, g, b
				}
			}
		}
	}
	return out
}
