package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/blockglyph/pkg/pipeline"
	"github.com/matzehuels/blockglyph/pkg/render/sink"
	"github.com/matzehuels/blockglyph/pkg/symbols"
	"github.com/matzehuels/blockglyph/pkg/transcode"
)

// Reserved terminal rows for the header and footer.
const previewChrome = 3

// previewCommand creates the interactive preview command.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		blockSize int
		table     string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "preview <image>",
		Short: "Explore block sizes and symbol tables in the terminal",
		Long: `Show the image as colored symbols in the terminal and adjust it live.

Keys:
  + / -    grow or shrink the block size
  [ / ]    previous or next symbol table
  b        toggle solid color blocks
  q        quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := validateSizeFlags(cmd.Flags(), blockSize, 0); err != nil {
				return err
			}
			opts := cfg.options()
			if cmd.Flags().Changed("block-size") || opts.BlockSize == 0 {
				opts.BlockSize = blockSize
			}
			if cmd.Flags().Changed("table") {
				opts.Table = table
			}

			buf, _, err := decodeInput(args[0])
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			m, err := newPreviewModel(ctx, runner, buf, displayName(args[0]), opts)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&blockSize, "block-size", "b", pipeline.DefaultBlockSize, "initial block edge length in pixels")
	cmd.Flags().StringVarP(&table, "table", "t", "", "initial symbol table name or file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// =============================================================================
// previewModel - Interactive grid preview
// =============================================================================

// gridMsg delivers a transform result. gen identifies the request so stale
// results can be dropped after further key presses.
type gridMsg struct {
	gen  int
	grid *transcode.Grid
	err  error
}

type previewModel struct {
	ctx    context.Context
	runner *pipeline.Runner
	src    *transcode.Buffer
	name   string

	tables    []string // selectable tables; a custom file is appended to the built-ins
	tableIdx  int
	blockSize int
	blocks    bool

	width  int
	height int

	gen  int
	grid *transcode.Grid
	err  error
}

func newPreviewModel(ctx context.Context, runner *pipeline.Runner, src *transcode.Buffer, name string, opts pipeline.Options) (previewModel, error) {
	if err := src.Validate(); err != nil {
		return previewModel{}, err
	}
	if opts.BlockSize < 1 {
		opts.BlockSize = pipeline.DefaultBlockSize
	}
	tables := symbols.Names()
	current := opts.Table
	if current == "" {
		current = symbols.Default
	}
	idx := slices.Index(tables, current)
	if idx < 0 {
		if _, err := symbols.Resolve(current); err != nil {
			return previewModel{}, err
		}
		tables = append(tables, current)
		idx = len(tables) - 1
	}

	return previewModel{
		ctx:       ctx,
		runner:    runner,
		src:       src,
		name:      name,
		tables:    tables,
		tableIdx:  idx,
		blockSize: opts.BlockSize,
		width:     80,
		height:    24,
	}, nil
}

func (m previewModel) Init() tea.Cmd {
	return m.transformCmd()
}

// refresh starts a new transform for the current settings.
func (m *previewModel) refresh() tea.Cmd {
	m.gen++
	return m.transformCmd()
}

func (m previewModel) transformCmd() tea.Cmd {
	gen := m.gen
	opts := pipeline.Options{
		Mode:      pipeline.ModeSymbolic,
		BlockSize: m.blockSize,
		Table:     m.tables[m.tableIdx],
		MaxWidth:  maxWidthFor(m.src, m.blockSize, m.width, m.height),
	}
	ctx, runner, src := m.ctx, m.runner, m.src
	return func() tea.Msg {
		res, err := runner.Transform(ctx, src, opts)
		if err != nil {
			return gridMsg{gen: gen, err: err}
		}
		return gridMsg{gen: gen, grid: res.Grid}
	}
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "+", "=":
			m.blockSize = growBlock(m.blockSize)
			return m, m.refresh()
		case "-", "_":
			if m.blockSize > 1 {
				m.blockSize = shrinkBlock(m.blockSize)
				return m, m.refresh()
			}
		case "]":
			m.tableIdx = (m.tableIdx + 1) % len(m.tables)
			return m, m.refresh()
		case "[":
			m.tableIdx = (m.tableIdx + len(m.tables) - 1) % len(m.tables)
			return m, m.refresh()
		case "b":
			m.blocks = !m.blocks
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, m.refresh()
	case gridMsg:
		if msg.gen == m.gen {
			m.grid, m.err = msg.grid, msg.err
		}
	}
	return m, nil
}

func (m previewModel) View() string {
	var b strings.Builder

	status := fmt.Sprintf("block %d · table %s", m.blockSize, m.tables[m.tableIdx])
	if m.grid != nil {
		status += fmt.Sprintf(" · %dx%d", m.grid.Cols, m.grid.Rows)
	}
	b.WriteString(StyleTitle.Render(m.name) + "  " + StyleDim.Render(status))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(StyleWarning.Render(m.err.Error()))
		b.WriteString("\n")
	case m.grid == nil:
		b.WriteString(StyleDim.Render("rendering…"))
		b.WriteString("\n")
	default:
		opts := []sink.ANSIOption{sink.WithDoubleWidth()}
		if m.blocks {
			opts = append(opts, sink.WithBlocks())
		}
		b.Write(sink.RenderANSI(m.grid, opts...))
	}

	b.WriteString(StyleDim.Render("+/- block size  [/] table  b blocks  q quit"))
	return b.String()
}

// maxWidthFor returns the widest source image, in pixels, whose grid fits a
// termW x termH terminal at two columns per cell. Zero means no downscaling.
func maxWidthFor(src *transcode.Buffer, blockSize, termW, termH int) int {
	if src.Width == 0 || src.Height == 0 {
		return 0
	}
	cols := max(termW/2, 1)
	rows := max(termH-previewChrome, 1)

	byCols := cols * blockSize
	byRows := rows * blockSize * src.Width / src.Height
	limit := max(min(byCols, byRows), 1)
	if limit >= src.Width {
		return 0
	}
	return limit
}

// growBlock and shrinkBlock step block sizes by about a quarter, at least by one.
func growBlock(n int) int {
	return n + max(n/4, 1)
}

func shrinkBlock(n int) int {
	return max(n-max(n/5, 1), 1)
}
