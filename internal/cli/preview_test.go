package cli

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/blockglyph/pkg/cache"
	"github.com/matzehuels/blockglyph/pkg/pipeline"
	"github.com/matzehuels/blockglyph/pkg/symbols"
	"github.com/matzehuels/blockglyph/pkg/transcode"
)

func testPreviewModel(t *testing.T, opts pipeline.Options) previewModel {
	t.Helper()
	src := transcode.NewBuffer(16, 8)
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 255
	}
	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
	m, err := newPreviewModel(context.Background(), runner, src, "test.png", opts)
	if err != nil {
		t.Fatalf("newPreviewModel: %v", err)
	}
	return m
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewPreviewModel(t *testing.T) {
	m := testPreviewModel(t, pipeline.Options{})
	if m.blockSize != pipeline.DefaultBlockSize {
		t.Errorf("blockSize = %d, want %d", m.blockSize, pipeline.DefaultBlockSize)
	}
	if m.tables[m.tableIdx] != symbols.Default {
		t.Errorf("table = %q, want %q", m.tables[m.tableIdx], symbols.Default)
	}

	path := filepath.Join(t.TempDir(), "missing.txt")
	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
	if _, err := newPreviewModel(context.Background(), runner, transcode.NewBuffer(1, 1), "x", pipeline.Options{Table: path}); err == nil {
		t.Error("expected error for missing table file")
	}
	if _, err := newPreviewModel(context.Background(), runner, &transcode.Buffer{Width: 2, Height: 2}, "x", pipeline.Options{}); err == nil {
		t.Error("expected error for short pixel buffer")
	}
}

func TestPreviewKeys(t *testing.T) {
	m := testPreviewModel(t, pipeline.Options{BlockSize: 4, Table: "ascii"})
	start := m.tableIdx

	next, cmd := m.Update(runeKey("+"))
	m = next.(previewModel)
	if m.blockSize != 5 || cmd == nil || m.gen != 1 {
		t.Errorf("after +: blockSize=%d gen=%d cmd=%v", m.blockSize, m.gen, cmd != nil)
	}

	next, _ = m.Update(runeKey("-"))
	m = next.(previewModel)
	if m.blockSize != 4 {
		t.Errorf("after -: blockSize=%d, want 4", m.blockSize)
	}

	next, _ = m.Update(runeKey("]"))
	m = next.(previewModel)
	if m.tableIdx != (start+1)%len(m.tables) {
		t.Errorf("after ]: tableIdx=%d", m.tableIdx)
	}
	next, _ = m.Update(runeKey("["))
	m = next.(previewModel)
	if m.tableIdx != start {
		t.Errorf("after [: tableIdx=%d, want %d", m.tableIdx, start)
	}

	next, cmd = m.Update(runeKey("b"))
	m = next.(previewModel)
	if !m.blocks || cmd != nil {
		t.Errorf("after b: blocks=%v cmd=%v", m.blocks, cmd != nil)
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("esc did not quit")
	}
}

func TestPreviewShrinkStopsAtOne(t *testing.T) {
	m := testPreviewModel(t, pipeline.Options{BlockSize: 1})
	next, cmd := m.Update(runeKey("-"))
	if got := next.(previewModel).blockSize; got != 1 || cmd != nil {
		t.Errorf("blockSize = %d, cmd = %v; want 1 and no command", got, cmd != nil)
	}
}

func TestPreviewTransform(t *testing.T) {
	m := testPreviewModel(t, pipeline.Options{BlockSize: 4, Table: "ascii"})

	msg, ok := m.Init()().(gridMsg)
	if !ok {
		t.Fatal("Init command did not produce a gridMsg")
	}
	if msg.err != nil {
		t.Fatalf("transform: %v", msg.err)
	}

	next, _ := m.Update(msg)
	m = next.(previewModel)
	if m.grid == nil || m.grid.Cols != 4 || m.grid.Rows != 2 {
		t.Fatalf("grid = %+v, want 4x2", m.grid)
	}
	if view := m.View(); !strings.Contains(view, "4x2") || !strings.Contains(view, "test.png") {
		t.Errorf("view missing status:\n%s", view)
	}

	// A result from an older request is dropped.
	stale := gridMsg{gen: m.gen - 1, err: context.Canceled}
	next, _ = m.Update(stale)
	if next.(previewModel).err != nil {
		t.Error("stale gridMsg was applied")
	}
}

func TestPreviewWindowSize(t *testing.T) {
	m := testPreviewModel(t, pipeline.Options{})
	next, cmd := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(previewModel)
	if m.width != 120 || m.height != 40 || cmd == nil {
		t.Errorf("got %dx%d cmd=%v", m.width, m.height, cmd != nil)
	}
}

func TestMaxWidthFor(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		blockSize    int
		termW, termH int
		want         int
	}{
		{"fits", 100, 50, 4, 80, 24, 0},
		{"limited by columns", 1000, 500, 4, 80, 24, 160},
		{"limited by rows", 1000, 1000, 4, 200, 24, 84},
		{"empty image", 0, 0, 4, 80, 24, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &transcode.Buffer{Width: tt.w, Height: tt.h}
			if got := maxWidthFor(src, tt.blockSize, tt.termW, tt.termH); got != tt.want {
				t.Errorf("maxWidthFor = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBlockSteps(t *testing.T) {
	grow := map[int]int{1: 2, 4: 5, 16: 20, 64: 80}
	for in, want := range grow {
		if got := growBlock(in); got != want {
			t.Errorf("growBlock(%d) = %d, want %d", in, got, want)
		}
	}
	shrink := map[int]int{1: 1, 2: 1, 10: 8, 16: 13}
	for in, want := range shrink {
		if got := shrinkBlock(in); got != want {
			t.Errorf("shrinkBlock(%d) = %d, want %d", in, got, want)
		}
	}
}
