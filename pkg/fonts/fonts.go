// Package fonts provides the faces used to rasterise symbol grids.
//
// The Go Mono fonts are embedded through golang.org/x/image/font/gofont,
// so rendering works without any system fonts. Custom TrueType files can
// be loaded with [Load].
package fonts

import (
	"encoding/base64"
	"os"
	"slices"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"

	errs "github.com/matzehuels/blockglyph/pkg/errors"
)

// Embedded font names.
const (
	Mono     = "gomono"
	MonoBold = "gomono-bold"
)

// Default is the font used when none is configured.
const Default = Mono

// FontFamily is the CSS font-family name used for embedded fonts in SVG.
const FontFamily = "Go Mono"

// FallbackFontFamily is the CSS font stack used when no font is embedded.
const FallbackFontFamily = `'Go Mono', 'DejaVu Sans Mono', 'Noto Sans Mono CJK JP', monospace`

type embedded struct {
	ttf []byte

	once   sync.Once
	font   *truetype.Font
	err    error
	b64    string
	b64Set sync.Once
}

var registry = map[string]*embedded{
	Mono:     {ttf: gomono.TTF},
	MonoBold: {ttf: gomonobold.TTF},
}

// Names returns the embedded font names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// TTF returns the raw TrueType data of an embedded font.
func TTF(name string) ([]byte, bool) {
	e, ok := registry[name]
	if !ok {
		return nil, false
	}
	return e.ttf, true
}

// TTFBase64 returns the embedded font as a base64 string for inlining in
// SVG @font-face rules. The result is cached after first computation.
func TTFBase64(name string) string {
	e, ok := registry[name]
	if !ok {
		return ""
	}
	e.b64Set.Do(func() {
		e.b64 = base64.StdEncoding.EncodeToString(e.ttf)
	})
	return e.b64
}

// Embedded returns the parsed embedded font. Parsing happens once per font.
func Embedded(name string) (*truetype.Font, error) {
	e, ok := registry[name]
	if !ok {
		return nil, errs.New(errs.ErrCodeNotFound, "unknown font %q", name)
	}
	e.once.Do(func() {
		e.font, e.err = truetype.Parse(e.ttf)
	})
	return e.font, e.err
}

// Load parses a TrueType font from disk.
func Load(path string) (*truetype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "font %s", path)
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidPath, err, "read font %s", path)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "parse font %s", path)
	}
	return f, nil
}

// Resolve returns an embedded font by name or loads one from a path.
// An empty argument selects [Default].
func Resolve(nameOrPath string) (*truetype.Font, error) {
	if nameOrPath == "" {
		nameOrPath = Default
	}
	if _, ok := registry[nameOrPath]; ok {
		return Embedded(nameOrPath)
	}
	return Load(nameOrPath)
}

// Face returns a face rendering f at size pixels per em.
func Face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// HasGlyph reports whether f can draw r. Index 0 is the missing-glyph box.
func HasGlyph(f *truetype.Font, r rune) bool {
	return f.Index(r) != 0
}
