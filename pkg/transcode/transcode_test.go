package transcode

import (
	"image"
	"image/color"
	"testing"

	errs "github.com/matzehuels/blockglyph/pkg/errors"
)

// testTable returns a table whose entry i is rune('A'+i), so symbols map
// back to luminance trivially.
func testTable() SymbolTable {
	t := make(SymbolTable, TableSize)
	for i := range t {
		t[i] = rune('A' + i)
	}
	return t
}

func solid(w, h int, r, g, b, a uint8) *Buffer {
	buf := NewBuffer(w, h)
	for i := 0; i < len(buf.Pix); i += 4 {
		buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2], buf.Pix[i+3] = r, g, b, a
	}
	return buf
}

// noise fills a buffer with a deterministic pseudo-random pattern.
func noise(w, h int) *Buffer {
	buf := NewBuffer(w, h)
	var s uint32 = 2463534242
	for i := range buf.Pix {
		s ^= s << 13
		s ^= s >> 17
		s ^= s << 5
		buf.Pix[i] = uint8(s)
	}
	return buf
}

func TestGridDimensions(t *testing.T) {
	tests := []struct {
		name       string
		w, h, size int
		cols, rows int
	}{
		{"exact multiple", 32, 32, 16, 2, 2},
		{"clipped right and bottom", 33, 17, 16, 3, 2},
		{"smaller than block", 2, 2, 16, 1, 1},
		{"block size one", 5, 3, 1, 5, 3},
		{"wide", 100, 1, 7, 15, 1},
		{"empty", 0, 0, 16, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := Symbolize(noise(tt.w, tt.h), tt.size, testTable())
			if err != nil {
				t.Fatalf("Symbolize: %v", err)
			}
			if grid.Cols != tt.cols || grid.Rows != tt.rows {
				t.Errorf("grid = %dx%d, want %dx%d", grid.Cols, grid.Rows, tt.cols, tt.rows)
			}
			if len(grid.Cells) != tt.rows {
				t.Fatalf("len(Cells) = %d, want %d", len(grid.Cells), tt.rows)
			}
			for i, row := range grid.Cells {
				if len(row) != tt.cols {
					t.Errorf("row %d has %d cells, want %d", i, len(row), tt.cols)
				}
			}
		})
	}
}

func TestUniformBuffer(t *testing.T) {
	buf := solid(40, 24, 10, 200, 30, 255)
	grid, err := Symbolize(buf, 16, testTable())
	if err != nil {
		t.Fatalf("Symbolize: %v", err)
	}

	want := grid.At(0, 0)
	if want.R != 10 || want.G != 200 || want.B != 30 {
		t.Fatalf("cell color = (%d,%d,%d), want (10,200,30)", want.R, want.G, want.B)
	}
	for r, row := range grid.Cells {
		for c, cell := range row {
			if cell != want {
				t.Errorf("cell (%d,%d) = %+v, want %+v", r, c, cell, want)
			}
		}
	}
}

func TestSolidRed(t *testing.T) {
	table := testTable()
	grid, err := Symbolize(solid(32, 32, 255, 0, 0, 255), 16, table)
	if err != nil {
		t.Fatalf("Symbolize: %v", err)
	}
	if grid.Cols != 2 || grid.Rows != 2 {
		t.Fatalf("grid = %dx%d, want 2x2", grid.Cols, grid.Rows)
	}
	for _, row := range grid.Cells {
		for _, cell := range row {
			if cell.Luminance != 21 {
				t.Errorf("Luminance = %d, want 21", cell.Luminance)
			}
			if cell.Symbol != table[21] {
				t.Errorf("Symbol = %q, want %q", cell.Symbol, table[21])
			}
			if got := cell.RGB(); got != "rgb(255, 0, 0)" {
				t.Errorf("RGB() = %q, want %q", got, "rgb(255, 0, 0)")
			}
		}
	}
}

func TestSmallImageAverage(t *testing.T) {
	buf := NewBuffer(2, 2)
	copy(buf.Pix, []uint8{
		0, 0, 0, 255, 255, 0, 0, 255,
		0, 255, 0, 255, 0, 0, 255, 255,
	})

	grid, err := Symbolize(buf, 16, testTable())
	if err != nil {
		t.Fatalf("Symbolize: %v", err)
	}
	if grid.Cols != 1 || grid.Rows != 1 {
		t.Fatalf("grid = %dx%d, want 1x1", grid.Cols, grid.Rows)
	}
	// 255/4 = 63.75 rounds to 64 on every channel.
	cell := grid.At(0, 0)
	if cell.R != 64 || cell.G != 64 || cell.B != 64 {
		t.Errorf("cell = (%d,%d,%d), want (64,64,64)", cell.R, cell.G, cell.B)
	}
}

func TestAverageRounding(t *testing.T) {
	tests := []struct {
		name   string
		values []uint8
		want   uint8
	}{
		{"exact", []uint8{10, 20}, 15},
		{"half rounds up", []uint8{0, 1}, 1},
		{"below half rounds down", []uint8{0, 0, 1}, 0},
		{"above half rounds up", []uint8{0, 1, 1}, 1},
		{"max", []uint8{255, 255, 255}, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewBuffer(len(tt.values), 1)
			for i, v := range tt.values {
				buf.Pix[i*4] = v
			}
			r, _, _, n := AverageBlock(buf, 0, 0, len(tt.values))
			if n != len(tt.values) {
				t.Errorf("count = %d, want %d", n, len(tt.values))
			}
			if r != tt.want {
				t.Errorf("average = %d, want %d", r, tt.want)
			}
		})
	}
}

func TestAverageBlockClipping(t *testing.T) {
	buf := solid(5, 5, 100, 100, 100, 255)
	// Paint the clipped corner block's only pixel differently.
	i := (4*5 + 4) * 4
	buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2] = 0, 50, 250

	r, g, b, n := AverageBlock(buf, 4, 4, 4)
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
	if r != 0 || g != 50 || b != 250 {
		t.Errorf("average = (%d,%d,%d), want (0,50,250)", r, g, b)
	}

	if _, _, _, n := AverageBlock(buf, 10, 10, 4); n != 0 {
		t.Errorf("out-of-range block count = %d, want 0", n)
	}
}

func TestLuminance(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    int
	}{
		{"black", 0, 0, 0, 0},
		{"white clamps", 255, 255, 255, 99},
		{"red", 255, 0, 0, 21},
		{"green", 0, 255, 0, 71},
		{"blue", 0, 0, 255, 7},
		{"mid gray", 128, 128, 128, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Luminance(tt.r, tt.g, tt.b); got != tt.want {
				t.Errorf("Luminance(%d,%d,%d) = %d, want %d", tt.r, tt.g, tt.b, got, tt.want)
			}
		})
	}
}

func TestLuminanceRange(t *testing.T) {
	for v := 0; v < 256; v += 5 {
		for _, c := range [][3]uint8{{uint8(v), 0, 0}, {0, uint8(v), 0}, {0, 0, uint8(v)}, {uint8(v), uint8(v), uint8(v)}} {
			l := Luminance(c[0], c[1], c[2])
			if l < 0 || l > MaxLuminance {
				t.Fatalf("Luminance(%v) = %d out of range", c, l)
			}
		}
	}
}

func TestExtremeSymbols(t *testing.T) {
	table := testTable()

	white, err := Symbolize(solid(4, 4, 255, 255, 255, 255), 4, table)
	if err != nil {
		t.Fatal(err)
	}
	if got := white.At(0, 0).Symbol; got != table[99] {
		t.Errorf("white symbol = %q, want table[99] %q", got, table[99])
	}

	black, err := Symbolize(solid(4, 4, 0, 0, 0, 255), 4, table)
	if err != nil {
		t.Fatal(err)
	}
	if got := black.At(0, 0).Symbol; got != table[0] {
		t.Errorf("black symbol = %q, want table[0] %q", got, table[0])
	}
}

func TestFlattenPreservesAlpha(t *testing.T) {
	src := noise(37, 23)
	out, err := FlattenBuffer(src, 8)
	if err != nil {
		t.Fatalf("FlattenBuffer: %v", err)
	}
	if out.Width != src.Width || out.Height != src.Height {
		t.Fatalf("size = %dx%d, want %dx%d", out.Width, out.Height, src.Width, src.Height)
	}
	for i := 3; i < len(src.Pix); i += 4 {
		if out.Pix[i] != src.Pix[i] {
			t.Fatalf("alpha at byte %d = %d, want %d", i, out.Pix[i], src.Pix[i])
		}
	}
}

func TestFlattenBlockColors(t *testing.T) {
	src := noise(20, 10)
	out, err := FlattenBuffer(src, 6)
	if err != nil {
		t.Fatal(err)
	}
	for by := 0; by < src.Height; by += 6 {
		for bx := 0; bx < src.Width; bx += 6 {
			r, g, b, _ := AverageBlock(src, bx, by, 6)
			for y := by; y < min(by+6, src.Height); y++ {
				for x := bx; x < min(bx+6, src.Width); x++ {
					pr, pg, pb, _ := out.At(x, y)
					if pr != r || pg != g || pb != b {
						t.Fatalf("pixel (%d,%d) = (%d,%d,%d), want block average (%d,%d,%d)",
							x, y, pr, pg, pb, r, g, b)
					}
				}
			}
		}
	}
}

func TestFlattenIdempotent(t *testing.T) {
	for _, size := range []int{1, 3, 8, 16, 64} {
		once, err := FlattenBuffer(noise(33, 19), size)
		if err != nil {
			t.Fatal(err)
		}
		twice, err := FlattenBuffer(once, size)
		if err != nil {
			t.Fatal(err)
		}
		if once.Hash() != twice.Hash() {
			t.Errorf("size %d: Flatten(Flatten(b)) != Flatten(b)", size)
		}
	}
}

func TestInputNotModified(t *testing.T) {
	src := noise(17, 17)
	before := src.Hash()

	if _, err := FlattenBuffer(src, 4); err != nil {
		t.Fatal(err)
	}
	if _, err := Symbolize(src, 4, testTable()); err != nil {
		t.Fatal(err)
	}
	if src.Hash() != before {
		t.Error("input buffer was modified")
	}
}

func TestInvalidBlockSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		for _, mode := range []Mode{Symbolic(testTable()), Flatten()} {
			res, err := Transform(solid(4, 4, 1, 2, 3, 4), size, mode)
			if !errs.Is(err, errs.ErrCodeInvalidArgument) {
				t.Errorf("size %d, %s: err = %v, want INVALID_ARGUMENT", size, mode.Kind(), err)
			}
			if res != nil {
				t.Errorf("size %d, %s: got partial result", size, mode.Kind())
			}
		}
	}
}

func TestMalformedBuffer(t *testing.T) {
	tests := []struct {
		name string
		buf  *Buffer
	}{
		{"nil", nil},
		{"short", &Buffer{Width: 2, Height: 2, Pix: make([]uint8, 15)}},
		{"long", &Buffer{Width: 2, Height: 2, Pix: make([]uint8, 17)}},
		{"negative", &Buffer{Width: -1, Height: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Transform(tt.buf, 16, Flatten())
			if !errs.Is(err, errs.ErrCodeInvalidArgument) {
				t.Errorf("err = %v, want INVALID_ARGUMENT", err)
			}
		})
	}
}

func TestInvalidSymbolTable(t *testing.T) {
	buf := solid(8, 8, 1, 2, 3, 255)
	for _, n := range []int{0, 99, 101} {
		table := make(SymbolTable, n)
		_, err := Transform(buf, 4, Symbolic(table))
		if !errs.Is(err, errs.ErrCodeInvalidSymbolTable) {
			t.Errorf("len %d: err = %v, want INVALID_SYMBOL_TABLE", n, err)
		}
	}

	// Flatten never looks at a table.
	if _, err := Transform(buf, 4, Mode{kind: ModeFlatten, table: make(SymbolTable, 3)}); err != nil {
		t.Errorf("Flatten with bad table: %v", err)
	}
}

func TestBlockSizeCheckedFirst(t *testing.T) {
	_, err := Transform(nil, 0, Symbolic(nil))
	if errs.GetCode(err) != errs.ErrCodeInvalidArgument {
		t.Errorf("code = %v, want INVALID_ARGUMENT", errs.GetCode(err))
	}
}

func TestTransformResultShape(t *testing.T) {
	buf := noise(9, 9)

	sym, err := Transform(buf, 4, Symbolic(testTable()))
	if err != nil {
		t.Fatal(err)
	}
	if sym.Grid == nil || sym.Image != nil || sym.Mode != ModeSymbolic || sym.BlockSize != 4 {
		t.Errorf("symbolic result = %+v", sym)
	}

	flat, err := Transform(buf, 4, Flatten())
	if err != nil {
		t.Fatal(err)
	}
	if flat.Grid != nil || flat.Image == nil || flat.Mode != ModeFlatten {
		t.Errorf("flatten result = %+v", flat)
	}
}

func TestDeterministic(t *testing.T) {
	buf := noise(31, 29)
	a, _ := Symbolize(buf, 5, testTable())
	b, _ := Symbolize(buf, 5, testTable())
	for r := range a.Cells {
		for c := range a.Cells[r] {
			if a.Cells[r][c] != b.Cells[r][c] {
				t.Fatalf("cell (%d,%d) differs between runs", r, c)
			}
		}
	}
}

func TestBlockSizeOne(t *testing.T) {
	buf := noise(6, 4)
	out, err := FlattenBuffer(buf, 1)
	if err != nil {
		t.Fatal(err)
	}
	if out.Hash() != buf.Hash() {
		t.Error("block size 1 flatten should reproduce the input")
	}
}

func TestHistogram(t *testing.T) {
	grid, err := Symbolize(solid(32, 16, 255, 0, 0, 255), 8, testTable())
	if err != nil {
		t.Fatal(err)
	}
	h := grid.Histogram()
	if h[21] != 8 {
		t.Errorf("histogram[21] = %d, want 8", h[21])
	}
	total := 0
	for _, n := range h {
		total += n
	}
	if total != grid.Rows*grid.Cols {
		t.Errorf("histogram total = %d, want %d", total, grid.Rows*grid.Cols)
	}
}

func TestBufferImageRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 10, 13, 12))
	img.Set(10, 10, color.RGBA{255, 0, 0, 255})
	img.Set(12, 11, color.RGBA{0, 0, 255, 255})

	buf := BufferFromImage(img)
	if buf.Width != 3 || buf.Height != 2 {
		t.Fatalf("size = %dx%d, want 3x2", buf.Width, buf.Height)
	}
	if r, _, _, a := buf.At(0, 0); r != 255 || a != 255 {
		t.Errorf("At(0,0) = r%d a%d, want r255 a255", r, a)
	}
	if _, _, b, _ := buf.At(2, 1); b != 255 {
		t.Errorf("At(2,1) blue = %d, want 255", b)
	}

	back := BufferFromImage(buf.ToImage())
	if back.Hash() != buf.Hash() {
		t.Error("ToImage/BufferFromImage changed the pixels")
	}
}

func TestHashDistinguishesDimensions(t *testing.T) {
	a := NewBuffer(2, 3)
	b := NewBuffer(3, 2)
	if a.Hash() == b.Hash() {
		t.Error("buffers with different dimensions hashed equal")
	}
}

func TestCellFormatting(t *testing.T) {
	c := Cell{R: 255, G: 16, B: 0}
	if got := c.RGB(); got != "rgb(255, 16, 0)" {
		t.Errorf("RGB() = %q", got)
	}
	if got := c.Hex(); got != "#ff1000" {
		t.Errorf("Hex() = %q", got)
	}
}

func TestGridLines(t *testing.T) {
	grid, err := Symbolize(solid(3, 2, 0, 0, 0, 255), 1, testTable())
	if err != nil {
		t.Fatal(err)
	}
	lines := grid.Lines()
	if len(lines) != 2 || lines[0] != "AAA" || lines[1] != "AAA" {
		t.Errorf("Lines() = %q", lines)
	}
}
