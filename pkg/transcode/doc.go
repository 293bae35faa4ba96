// Package transcode turns raster images into block-based symbolic art.
//
// # Overview
//
// The transform partitions an RGBA [Buffer] into square blocks of a fixed
// edge length, averages the color of every block, derives a perceptual
// luminance from that average, and then does one of two things:
//
//   - [Symbolic] mode maps the luminance onto a 100-entry [SymbolTable] and
//     returns a [Grid] of [Cell] values (symbol plus block color).
//   - [Flatten] mode writes the block average back over every pixel of the
//     block and returns a new [Buffer] of the same size.
//
// Both modes share one traversal; [Transform] takes a [Mode] selector rather
// than exposing two pipelines.
//
// # Blocks
//
// Blocks are laid out from the top-left corner in steps of the block size.
// An image of width W and height H produces ceil(W/S) x ceil(H/S) blocks;
// blocks on the right and bottom edges are clipped to the image, and only
// in-bounds pixels contribute to their average:
//
//	cols, rows := transcode.GridSize(w, h, 16)
//
// Channel averages are rounded half up, (sum + n/2) / n, which equals
// round-half-away-from-zero for the non-negative sums involved.
//
// # Luminance
//
// [Luminance] uses the Rec. 709 weights:
//
//	floor(((0.2126 R + 0.7152 G + 0.0722 B) / 255) * 100)
//
// clamped to [0, 99], so it always indexes a valid table entry. Pure white
// evaluates to 100 and is clamped to 99.
//
// # Errors
//
// Invalid input is reported before any output is allocated:
//
//   - block size < 1 or a malformed buffer: errors.ErrCodeInvalidArgument
//   - a symbol table whose length is not 100 (Symbolic only):
//     errors.ErrCodeInvalidSymbolTable
//
// Flatten ignores the table entirely.
//
// # Concurrency
//
// Every function is pure. The input buffer is never written, results are
// freshly allocated, and calls on independent buffers may run concurrently.
package transcode
