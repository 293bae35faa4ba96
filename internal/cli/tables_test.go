package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/blockglyph/pkg/symbols"
	"github.com/matzehuels/blockglyph/pkg/transcode"
)

func TestSampleRamp(t *testing.T) {
	ascii, err := symbols.Lookup("ascii")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		n    int
		want string
	}{
		{"endpoints", 2, " @"},
		{"too few", 1, ""},
		{"eleven", 11, "  .:-=+*#%@"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sampleRamp(ascii, tt.n); got != tt.want {
				t.Errorf("sampleRamp(ascii, %d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}

	if got := sampleRamp(nil, 4); got != "" {
		t.Errorf("sampleRamp(nil) = %q, want empty", got)
	}
}

func TestFormatTable(t *testing.T) {
	table := make(transcode.SymbolTable, transcode.TableSize)
	for i := range table {
		table[i] = rune('0' + i/10)
	}

	out := formatTable(table)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 10 {
		t.Fatalf("got %d rows, want 10", len(lines))
	}
	if !strings.Contains(lines[0], " 0- 9") || !strings.Contains(lines[0], "0 0 0") {
		t.Errorf("first row = %q", lines[0])
	}
	if !strings.Contains(lines[9], "90-99") || !strings.Contains(lines[9], "9 9 9") {
		t.Errorf("last row = %q", lines[9])
	}
}

func TestFormatTableList(t *testing.T) {
	out := formatTableList()
	for _, name := range symbols.Names() {
		if !strings.Contains(out, name) {
			t.Errorf("table list missing %q", name)
		}
	}
	if !strings.Contains(out, symbols.Default+" *") {
		t.Errorf("default table %q is not marked", symbols.Default)
	}
}

func TestTablesCommand(t *testing.T) {
	custom := filepath.Join(t.TempDir(), "ramp.txt")
	body := strings.Repeat("ab", transcode.TableSize/2)
	if err := os.WriteFile(custom, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{"list", nil, "braille", false},
		{"builtin", []string{"blocks"}, "█", false},
		{"file", []string{custom}, "a b a b", false},
		{"unknown", []string{"nope"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			root := New(io.Discard, LogInfo).RootCommand()
			root.SetOut(&out)
			root.SetErr(io.Discard)
			root.SetArgs(append([]string{"tables"}, tt.args...))

			err := root.Execute()
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out.String())
			}
		})
	}
}
