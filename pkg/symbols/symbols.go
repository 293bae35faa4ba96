// Package symbols provides the 100-entry symbol tables used by symbolic
// rendering.
//
// Built-in tables are looked up by name with [Lookup]. Custom tables are
// read with [LoadFile], either from a plain text file whose runes (minus
// line breaks) form the table, or from a TOML file with a symbols key:
//
//	name = "dots"
//	symbols = "..."
//
// [Resolve] accepts either form and is what the CLI and HTTP API use.
// Every table returned by this package holds exactly transcode.TableSize
// entries, darkest first.
package symbols

import (
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/blockglyph/pkg/errors"
	"github.com/matzehuels/blockglyph/pkg/transcode"
)

// Default is the name of the table used when none is configured.
const Default = "katakana"

// katakana is the first 100 runes of the classic half-width katakana rain
// alphabet.
const katakana = "日ﾊﾐﾋｰｳｼﾅﾓﾆｻﾜﾂｵﾘｱﾎﾃﾏｹﾒｴｶｷﾑﾕﾗｾﾈｽﾀﾇﾍｦｲｸｺｿﾁﾄﾉﾌﾔﾖﾙﾚﾛﾝ012345789\":・.=*+-<>¦｜&çﾘｸ/\\_@#WMB8%$QAXPSEFCGZVJLTI?"

type builtin struct {
	description string
	build       func() transcode.SymbolTable
}

var builtins = map[string]builtin{
	"katakana": {"half-width katakana, digits and punctuation", func() transcode.SymbolTable {
		return transcode.SymbolTable(katakana)
	}},
	"ascii": {"10-step ASCII ramp", func() transcode.SymbolTable {
		return ramp(" .:-=+*#%@")
	}},
	"blocks": {"Unicode shade blocks", func() transcode.SymbolTable {
		return ramp(" ░▒▓█")
	}},
	"braille": {"Braille patterns ordered by dot count", braille},
}

// ramp stretches a short dark-to-light ramp over all luminance levels,
// giving each step an equal share.
func ramp(steps string) transcode.SymbolTable {
	runes := []rune(steps)
	table := make(transcode.SymbolTable, transcode.TableSize)
	for i := range table {
		table[i] = runes[i*len(runes)/transcode.TableSize]
	}
	return table
}

func braille() transcode.SymbolTable {
	patterns := make([]rune, 256)
	for i := range patterns {
		patterns[i] = rune(0x2800 + i)
	}
	sort.SliceStable(patterns, func(a, b int) bool {
		return dots(patterns[a]) < dots(patterns[b])
	})

	table := make(transcode.SymbolTable, transcode.TableSize)
	for i := range table {
		table[i] = patterns[(i*(len(patterns)-1)+transcode.MaxLuminance/2)/transcode.MaxLuminance]
	}
	return table
}

func dots(r rune) int {
	n := 0
	for v := r - 0x2800; v != 0; v &= v - 1 {
		n++
	}
	return n
}

// Names returns the built-in table names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Describe returns a one-line description of a built-in table, or "" if
// the name is unknown.
func Describe(name string) string {
	return builtins[name].description
}

// Lookup returns a fresh copy of the named built-in table.
func Lookup(name string) (transcode.SymbolTable, error) {
	if err := errs.ValidateTableName(name); err != nil {
		return nil, err
	}
	b, ok := builtins[name]
	if !ok {
		return nil, errs.New(errs.ErrCodeInvalidTableName,
			"unknown symbol table %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return b.build(), nil
}

// Parse builds a table from the runes of s. Line breaks are ignored so a
// table can be wrapped across lines.
func Parse(s string) (transcode.SymbolTable, error) {
	s = strings.NewReplacer("\r", "", "\n", "").Replace(s)
	table := transcode.SymbolTable(s)
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// tableFile is the TOML form of a custom table.
type tableFile struct {
	Name    string `toml:"name"`
	Symbols string `toml:"symbols"`
}

// LoadFile reads a custom table from path. Files ending in .toml are
// decoded as TOML; anything else is read as plain text.
func LoadFile(path string) (transcode.SymbolTable, error) {
	if err := errs.ValidatePath(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "symbol table %s", path)
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidPath, err, "read symbol table %s", path)
	}

	src := string(data)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var tf tableFile
		if _, err := toml.Decode(src, &tf); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidSymbolTable, err, "parse %s", path)
		}
		src = tf.Symbols
	} else {
		src = strings.TrimSuffix(strings.TrimSuffix(src, "\n"), "\r")
	}

	table, err := Parse(src)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidSymbolTable, err, "symbol table %s", path)
	}
	return table, nil
}

// Resolve returns a built-in table by name, or loads a custom one when the
// argument looks like a path. An empty argument selects [Default].
func Resolve(nameOrPath string) (transcode.SymbolTable, error) {
	if nameOrPath == "" {
		return Lookup(Default)
	}
	if _, ok := builtins[nameOrPath]; ok {
		return Lookup(nameOrPath)
	}
	if IsPath(nameOrPath) {
		return LoadFile(nameOrPath)
	}
	return Lookup(nameOrPath)
}

// IsPath reports whether s should be treated as a table file path rather
// than a built-in name.
func IsPath(s string) bool {
	return strings.ContainsRune(s, filepath.Separator) || strings.ContainsRune(s, '/') || filepath.Ext(s) != ""
}
