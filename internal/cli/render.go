package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	errs "github.com/matzehuels/blockglyph/pkg/errors"
	"github.com/matzehuels/blockglyph/pkg/imageio"
	"github.com/matzehuels/blockglyph/pkg/pipeline"
	"github.com/matzehuels/blockglyph/pkg/render/sink"
	"github.com/matzehuels/blockglyph/pkg/transcode"
)

// stdioPath names standard input or output in place of a file.
const stdioPath = "-"

// renderOpts holds the command-line flags for the render command.
// Flags left unset fall back to the config file, then to pipeline defaults.
type renderOpts struct {
	output     string // output file path (or base path for multiple formats)
	formats    string // comma-separated output formats
	mode       string // symbolic or flatten
	blockSize  int    // block edge length in pixels
	glyphSize  int    // rendered cell pitch in pixels
	table      string // built-in table name or table file
	maxWidth   int    // downscale wider inputs first
	background string // canvas color for svg/png/pdf
	font       string // embedded font name or TTF path
	glow       bool   // blurred halo behind symbols
	noCache    bool   // disable caching entirely
	refresh    bool   // ignore cached results but store new ones
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <image>",
		Short: "Render an image as a symbol grid or flattened blocks",
		Long: `Render an image as a grid of symbols, one per block, or flatten every block to its average color.

The image may be PNG, JPEG, GIF, BMP, TIFF or WebP; use "-" to read from stdin.
Text formats (txt, ansi) are written to stdout unless --output is given.`,
		Example: `  blockglyph render photo.jpg -b 8 -f ansi
  blockglyph render photo.jpg -t blocks -f svg,png -o out/photo
  blockglyph render photo.png --mode flatten -b 32 -f png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), cmd.Flags(), args[0], &opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", `output file, base path for several formats, or "-" for stdout`)
	f.StringVarP(&opts.formats, "format", "f", "", "output format(s), comma-separated: txt, ansi, html, svg, png, json, pdf (flatten: png, bmp, tiff)")
	f.StringVar(&opts.mode, "mode", "", "transform mode: symbolic (default), flatten")
	f.IntVarP(&opts.blockSize, "block-size", "b", pipeline.DefaultBlockSize, "block edge length in pixels")
	f.IntVarP(&opts.glyphSize, "glyph-size", "g", pipeline.DefaultGlyphSize, "rendered cell size in pixels")
	f.StringVarP(&opts.table, "table", "t", "", "symbol table name or file (default katakana)")
	f.IntVar(&opts.maxWidth, "max-width", 0, "downscale images wider than this before transforming")
	f.StringVar(&opts.background, "background", "", "canvas color as #rrggbb (default #000000)")
	f.StringVar(&opts.font, "font", "", "embedded font name or TTF file for png/svg output")
	f.BoolVar(&opts.glow, "glow", false, "draw a blurred halo behind each symbol")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	f.BoolVar(&opts.refresh, "refresh", false, "recompute even when a cached result exists")

	return cmd
}

// buildOptions layers explicitly set flags over the config file.
func buildOptions(flags *pflag.FlagSet, cfg *Config, ro *renderOpts) pipeline.Options {
	opts := cfg.options()

	if flags.Changed("mode") {
		opts.Mode = ro.mode
	}
	if flags.Changed("block-size") {
		opts.BlockSize = ro.blockSize
	}
	if flags.Changed("glyph-size") {
		opts.GlyphSize = ro.glyphSize
	}
	if flags.Changed("table") {
		opts.Table = ro.table
	}
	if flags.Changed("max-width") {
		opts.MaxWidth = ro.maxWidth
	}
	if flags.Changed("background") {
		opts.Background = ro.background
	}
	if flags.Changed("font") {
		opts.Font = ro.font
	}
	if flags.Changed("glow") {
		opts.Glow = ro.glow
	}
	if flags.Changed("format") {
		opts.Formats = parseFormats(ro.formats)
	}
	opts.Refresh = ro.refresh

	if opts.Mode == "" {
		opts.Mode = pipeline.DefaultMode
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []string{pipeline.DefaultFormat}
	}
	if opts.Mode == pipeline.ModeFlatten {
		for i, f := range opts.Formats {
			opts.Formats[i] = imageio.NormalizeFormat(f)
		}
	}
	return opts
}

// validateSizeFlags rejects explicit sizes below one. Options treat zero as
// unset, so "-b 0" would otherwise silently select the default.
func validateSizeFlags(flags *pflag.FlagSet, blockSize, glyphSize int) error {
	if flags.Changed("block-size") {
		if err := errs.ValidateBlockSize(blockSize); err != nil {
			return err
		}
	}
	if flags.Changed("glyph-size") {
		return errs.ValidateGlyphSize(glyphSize)
	}
	return nil
}

// runRender decodes the input, runs the pipeline and writes every artifact.
func (c *CLI) runRender(ctx context.Context, flags *pflag.FlagSet, input string, ro *renderOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if err := validateSizeFlags(flags, ro.blockSize, ro.glyphSize); err != nil {
		return err
	}
	opts := buildOptions(flags, cfg, ro)
	opts.Logger = c.Logger

	// Validate before decoding so bad flags fail fast.
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	buf, format, err := decodeInput(input)
	if err != nil {
		return err
	}
	c.Logger.Debug("decoded image", "format", format, "width", buf.Width, "height", buf.Height)

	runner, err := c.newRunner(ctx, cfg, ro.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering "+displayName(input))
	spinner.Start()
	result, err := runner.Execute(ctx, buf, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	if err := ctx.Err(); err != nil {
		return err
	}

	written, toStdout, err := writeArtifacts(os.Stdout, result.Artifacts, opts.Formats, ro.output, input)
	if err != nil {
		return err
	}

	cached := result.CacheInfo.TransformHit && result.CacheInfo.RenderHit
	if toStdout {
		// Keep stdout clean for the artifact.
		prog.done(fmt.Sprintf("Rendered %s", displayName(input)))
		return nil
	}

	printSuccess("Rendered %s", displayName(input))
	printStats(result.Stats, cached)
	for _, path := range written {
		printFile(path)
	}
	if !opts.IsFlatten() && input != stdioPath {
		printNextStep("Preview interactively", appName+" preview "+input)
	}
	c.Logger.Debug("render finished", "elapsed", prog.elapsed())
	return nil
}

// decodeInput reads an image from a path or from stdin.
func decodeInput(input string) (*transcode.Buffer, string, error) {
	if input == stdioPath {
		return imageio.Decode(os.Stdin)
	}
	return imageio.DecodeFile(input)
}

// writeArtifacts writes each artifact to its output path. It returns the
// files written and whether anything went to stdout.
func writeArtifacts(stdout io.Writer, artifacts map[string][]byte, formats []string, output, input string) ([]string, bool, error) {
	var written []string
	toStdout := false

	for _, format := range formats {
		path := outputPath(output, input, format, len(formats) > 1)
		data := artifacts[format]

		if path == stdioPath {
			if _, err := stdout.Write(data); err != nil {
				return written, true, err
			}
			toStdout = true
			continue
		}

		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return written, toStdout, err
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, toStdout, err
		}
		written = append(written, path)
	}
	return written, toStdout, nil
}

// isStreamFormat reports whether a format is meant for the terminal.
func isStreamFormat(format string) bool {
	return format == sink.FormatText || format == sink.FormatANSI
}

// outputPath derives where an artifact should be written.
//
//   - no --output: text formats go to stdout, others to <input>.glyph.<format>
//   - "-": stdout
//   - one format: --output as given
//   - several formats: --output (minus a known extension) plus .<format>
func outputPath(output, input, format string, multi bool) string {
	switch {
	case output == stdioPath:
		return stdioPath
	case output == "" && isStreamFormat(format) && !multi:
		return stdioPath
	case output == "":
		return basePath(input) + ".glyph." + format
	case !multi:
		return output
	default:
		return stripKnownExt(output) + "." + format
	}
}

// basePath strips the extension from an input path.
func basePath(input string) string {
	if input == stdioPath || input == "" {
		return appName
	}
	return strings.TrimSuffix(input, filepath.Ext(input))
}

// stripKnownExt removes a trailing output-format extension.
func stripKnownExt(path string) string {
	ext := filepath.Ext(path)
	name := strings.TrimPrefix(ext, ".")
	if pipeline.ValidGridFormats[name] || pipeline.ValidFlattenFormats[imageio.NormalizeFormat(name)] {
		return strings.TrimSuffix(path, ext)
	}
	return path
}

func displayName(input string) string {
	if input == stdioPath {
		return "stdin"
	}
	return filepath.Base(input)
}
