// Package pkg provides the core libraries for blockglyph.
//
// # Overview
//
// Blockglyph partitions an image into square blocks and either replaces each
// block with a symbol picked by its brightness (symbolic mode) or paints the
// block with its average color (flatten mode). The pkg directory is organized
// into three areas:
//
//  1. [transcode] - The block transform itself (buffers, grids, luminance)
//  2. [render] - Output encoders for grids and flattened buffers
//  3. [pipeline] - Orchestration (decode → transform → render) with caching
//
// # Architecture
//
// The typical data flow:
//
//	PNG/JPEG/GIF/BMP/TIFF/WebP
//	         ↓
//	    [imageio] package (decode into an RGBA buffer, optional downscale)
//	         ↓
//	    [transcode] package (blocks → symbol grid or flattened buffer)
//	         ↓
//	    [render/sink] package (txt, ansi, html, svg, png, json; pdf via [render])
//
// # Quick Start
//
//	buf, _, _ := imageio.DecodeFile("photo.jpg")
//	table, _ := symbols.Lookup("ascii")
//
//	res, _ := transcode.Transform(buf, 8, transcode.Symbolic(table))
//	fmt.Print(string(sink.RenderText(res.Grid)))
//
// Or run the whole pipeline with caching:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	result, _ := runner.Execute(ctx, buf, pipeline.Options{
//	    BlockSize: 8,
//	    Table:     "blocks",
//	    Formats:   []string{"svg", "png"},
//	})
//
// # Main Packages
//
// ## Core Domain Logic
//
// [transcode] - The block transform. A [transcode.Buffer] is split into a
// grid of blocks; edge blocks are clipped to the image. Symbolic mode maps
// each block's luminance (0-99) to an entry of a 100-symbol table.
//
// [symbols] - Built-in symbol tables and loaders for custom tables.
//
// [imageio] - Image decoding and encoding, plus downscaling for wide inputs.
//
// ## Rendering
//
// [render/sink] - Encoders for symbol grids and flattened buffers.
//
// [render] - Format conversion that relies on external tools (SVG to PDF).
//
// [fonts] - Embedded monospace fonts for PNG and SVG output.
//
// ## Infrastructure
//
// [pipeline] - The complete pipeline used by the CLI and the HTTP server.
// Transform results and rendered artifacts are cached separately so adding a
// format does not recompute the grid.
//
// [cache] - Cache backends: file (CLI), Redis (shared), null (disabled).
//
// [server] - HTTP API around the pipeline.
//
// [observability] - Hooks for pipeline, cache and HTTP events.
//
// [errors] - Structured error codes shared by the library, CLI and API.
//
// # Testing
//
//	go test ./pkg/...                       # All tests
//	go test ./pkg/transcode/...             # Specific package
//	go test -run Example ./pkg/transcode    # Examples only
//	BLOCKGLYPH_TEST_REDIS=localhost:6379 go test ./pkg/cache
//
// [transcode]: https://pkg.go.dev/github.com/matzehuels/blockglyph/pkg/transcode
// [symbols]: https://pkg.go.dev/github.com/matzehuels/blockglyph/pkg/symbols
// [imageio]: https://pkg.go.dev/github.com/matzehuels/blockglyph/pkg/imageio
// [render]: https://pkg.go.dev/github.com/matzehuels/blockglyph/pkg/render
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/blockglyph/pkg/render/sink
// [fonts]: https://pkg.go.dev/github.com/matzehuels/blockglyph/pkg/fonts
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/blockglyph/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/blockglyph/pkg/cache
// [server]: https://pkg.go.dev/github.com/matzehuels/blockglyph/pkg/server
// [observability]: https://pkg.go.dev/github.com/matzehuels/blockglyph/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/blockglyph/pkg/errors
package pkg
