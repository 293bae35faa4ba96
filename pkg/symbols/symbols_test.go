package symbols

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	errs "github.com/matzehuels/blockglyph/pkg/errors"
	"github.com/matzehuels/blockglyph/pkg/transcode"
)

func TestBuiltinsHaveFullTables(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			table, err := Lookup(name)
			if err != nil {
				t.Fatalf("Lookup(%q): %v", name, err)
			}
			if len(table) != transcode.TableSize {
				t.Errorf("len = %d, want %d", len(table), transcode.TableSize)
			}
			if Describe(name) == "" {
				t.Errorf("Describe(%q) is empty", name)
			}
		})
	}
}

func TestKatakanaOrder(t *testing.T) {
	table, err := Lookup("katakana")
	if err != nil {
		t.Fatal(err)
	}
	if table[0] != '日' {
		t.Errorf("table[0] = %q, want '日'", table[0])
	}
	if table[21] != 'ｴ' {
		t.Errorf("table[21] = %q, want 'ｴ'", table[21])
	}
	if table[99] != '?' {
		t.Errorf("table[99] = %q, want '?'", table[99])
	}
}

func TestRampTables(t *testing.T) {
	tests := []struct {
		name        string
		first, last rune
		step        int
	}{
		{"ascii", ' ', '@', 10},
		{"blocks", ' ', '█', 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Lookup(tt.name)
			if err != nil {
				t.Fatal(err)
			}
			if table[0] != tt.first || table[99] != tt.last {
				t.Errorf("ends = %q..%q, want %q..%q", table[0], table[99], tt.first, tt.last)
			}
			for i := 1; i < len(table); i++ {
				changed := table[i] != table[i-1]
				if changed != (i%tt.step == 0) {
					t.Errorf("unexpected step boundary at %d", i)
				}
			}
		})
	}
}

func TestBrailleOrderedByDots(t *testing.T) {
	table, err := Lookup("braille")
	if err != nil {
		t.Fatal(err)
	}
	if table[0] != '⠀' || table[99] != '⣿' {
		t.Errorf("ends = %U..%U, want U+2800..U+28FF", table[0], table[99])
	}
	seen := make(map[rune]bool)
	for i, r := range table {
		if seen[r] {
			t.Errorf("duplicate pattern %U at %d", r, i)
		}
		seen[r] = true
		if i > 0 && dots(r) < dots(table[i-1]) {
			t.Errorf("dot count decreases at %d", i)
		}
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	a, _ := Lookup("ascii")
	a[0] = 'X'
	b, _ := Lookup("ascii")
	if b[0] == 'X' {
		t.Error("Lookup returned shared storage")
	}
}

func TestLookupErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown", "hieroglyphs"},
		{"empty", ""},
		{"invalid", "Bad Name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lookup(tt.input)
			if !errs.Is(err, errs.ErrCodeInvalidTableName) {
				t.Errorf("Lookup(%q) err = %v, want INVALID_TABLE_NAME", tt.input, err)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"exact", strings.Repeat("x", 100), false},
		{"wrapped lines", strings.Repeat(strings.Repeat("y", 50)+"\n", 2), false},
		{"crlf", strings.Repeat(strings.Repeat("y", 25)+"\r\n", 4), false},
		{"multibyte", strings.Repeat("░", 100), false},
		{"short", strings.Repeat("x", 99), true},
		{"long", strings.Repeat("x", 101), true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errs.Is(err, errs.ErrCodeInvalidSymbolTable) {
				t.Errorf("code = %v, want INVALID_SYMBOL_TABLE", errs.GetCode(err))
			}
			if err == nil && len(table) != transcode.TableSize {
				t.Errorf("len = %d", len(table))
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "dots.txt")
	if err := os.WriteFile(txt, []byte(strings.Repeat("·", 100)+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	toml := filepath.Join(dir, "stars.toml")
	body := "name = \"stars\"\nsymbols = \"" + strings.Repeat("*", 100) + "\"\n"
	if err := os.WriteFile(toml, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("symbols = \"abc\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	broken := filepath.Join(dir, "broken.toml")
	if err := os.WriteFile(broken, []byte("symbols = \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		wantCode errs.Code
		first    rune
	}{
		{"text file", txt, "", '·'},
		{"toml file", toml, "", '*'},
		{"wrong length", bad, errs.ErrCodeInvalidSymbolTable, 0},
		{"bad toml", broken, errs.ErrCodeInvalidSymbolTable, 0},
		{"missing", filepath.Join(dir, "nope.txt"), errs.ErrCodeFileNotFound, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := LoadFile(tt.path)
			if tt.wantCode != "" {
				if !errs.Is(err, tt.wantCode) {
					t.Errorf("err = %v, want %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			if table[0] != tt.first {
				t.Errorf("table[0] = %q, want %q", table[0], tt.first)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, "custom.txt")
	if err := os.WriteFile(custom, []byte(strings.Repeat("o", 100)), 0o644); err != nil {
		t.Fatal(err)
	}

	def, err := Resolve("")
	if err != nil {
		t.Fatal(err)
	}
	if def[0] != '日' {
		t.Errorf("default table[0] = %q", def[0])
	}

	blocks, err := Resolve("blocks")
	if err != nil {
		t.Fatal(err)
	}
	if blocks[99] != '█' {
		t.Errorf("blocks[99] = %q", blocks[99])
	}

	c, err := Resolve(custom)
	if err != nil {
		t.Fatal(err)
	}
	if c[50] != 'o' {
		t.Errorf("custom[50] = %q", c[50])
	}

	if _, err := Resolve("nosuch"); !errs.Is(err, errs.ErrCodeInvalidTableName) {
		t.Errorf("Resolve(nosuch) err = %v", err)
	}
}
