package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxGlyphSize bounds the rendered cell pitch so a single request cannot ask
// for an unbounded canvas.
const MaxGlyphSize = 256

// ValidateBlockSize checks that a block edge length is usable by the transform.
func ValidateBlockSize(size int) error {
	if size < 1 {
		return New(ErrCodeInvalidArgument, "block size must be >= 1, got %d", size)
	}
	return nil
}

// ValidateGlyphSize checks the cell pitch used when rendering symbols.
// Glyph size only affects rendering, never the transform.
func ValidateGlyphSize(size int) error {
	if size < 1 {
		return New(ErrCodeInvalidArgument, "glyph size must be >= 1, got %d", size)
	}
	if size > MaxGlyphSize {
		return New(ErrCodeInvalidArgument, "glyph size too large (max %d), got %d", MaxGlyphSize, size)
	}
	return nil
}

// MaxCanvasPixels bounds the raster a grid is drawn onto (cols*glyph by
// rows*glyph). 8192x8192 RGBA is 256 MiB.
const MaxCanvasPixels = 1 << 26

// MaxMarkupCells bounds the number of cells written as one element each by
// markup outputs (HTML, SVG, PDF).
const MaxMarkupCells = 1 << 21

// ValidateCanvasSize checks that a cols x rows grid drawn at glyphSize
// pixels per cell stays within [MaxCanvasPixels].
func ValidateCanvasSize(cols, rows, glyphSize int) error {
	w := int64(cols) * int64(glyphSize)
	h := int64(rows) * int64(glyphSize)
	if w*h > MaxCanvasPixels {
		return New(ErrCodeInvalidArgument,
			"canvas %dx%d exceeds %d pixels; use a larger block size or smaller glyph size", w, h, MaxCanvasPixels)
	}
	return nil
}

// ValidateMarkupCells checks a grid's cell count against [MaxMarkupCells].
func ValidateMarkupCells(cols, rows int) error {
	if n := int64(cols) * int64(rows); n > MaxMarkupCells {
		return New(ErrCodeInvalidArgument,
			"grid %dx%d has %d cells, more than %d; use a larger block size", cols, rows, n, MaxMarkupCells)
	}
	return nil
}

// ValidateBufferLength checks that a flat RGBA buffer holds exactly width*height pixels.
func ValidateBufferLength(width, height, length int) error {
	if width < 0 || height < 0 {
		return New(ErrCodeInvalidArgument, "negative dimensions %dx%d", width, height)
	}
	if expected := width * height * 4; length != expected {
		return New(ErrCodeInvalidArgument, "expected %d bytes for %dx%d RGBA, got %d", expected, width, height, length)
	}
	return nil
}

// tableNameRegex matches built-in symbol table names.
var tableNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,31}$`)

// ValidateTableName validates the name of a built-in symbol table.
// It does not check that the table exists; see symbols.Lookup.
func ValidateTableName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidTableName, "symbol table name cannot be empty")
	}
	if !tableNameRegex.MatchString(name) {
		return New(ErrCodeInvalidTableName, "invalid symbol table name: %q", name)
	}
	return nil
}

// ValidatePath validates a user-supplied file path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasSuffix(path, "/") {
		return New(ErrCodeInvalidPath, "path must name a file, not a directory")
	}

	return nil
}
