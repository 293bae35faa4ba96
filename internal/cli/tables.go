package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/blockglyph/pkg/symbols"
	"github.com/matzehuels/blockglyph/pkg/transcode"
)

// rampSamples is the number of symbols shown per table in the overview.
const rampSamples = 12

// tablesCommand creates the tables command.
func (c *CLI) tablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables [name|file]",
		Short: "List symbol tables or show one in full",
		Long: `Without arguments, list the built-in symbol tables with a sample of each ramp.
With a table name or file, print all 100 symbols by luminance level.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatTableList())
				return nil
			}
			t, err := symbols.Resolve(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatTable(t))
			return nil
		},
	}
}

// formatTableList renders the built-in tables as a bordered list.
func formatTableList() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	var rows [][]string
	for _, name := range symbols.Names() {
		t, err := symbols.Lookup(name)
		if err != nil {
			continue
		}
		label := name
		if name == symbols.Default {
			label += " *"
		}
		rows = append(rows, []string{label, symbols.Describe(name), sampleRamp(t, rampSamples)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Table", "Description", "Ramp (dark → light)").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return cellStyle.Foreground(colorCyan)
			}
			if col == 1 {
				return cellStyle.Foreground(colorGray)
			}
			return cellStyle
		})

	return t.Render() + "\n" + StyleDim.Render("* default")
}

// sampleRamp picks n evenly spaced symbols from t, darkest first.
func sampleRamp(t transcode.SymbolTable, n int) string {
	if n < 2 || len(t) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteRune(t[i*(len(t)-1)/(n-1)])
	}
	return b.String()
}

// formatTable prints a full table as ten rows of ten symbols, each row
// labelled with its luminance range.
func formatTable(t transcode.SymbolTable) string {
	var b strings.Builder
	for row := 0; row*10 < len(t); row++ {
		end := min(row*10+10, len(t))
		fmt.Fprintf(&b, "%s  ", StyleDim.Render(fmt.Sprintf("%2d-%2d", row*10, end-1)))
		for _, r := range t[row*10 : end] {
			b.WriteRune(r)
			b.WriteByte(' ')
		}
		b.WriteByte('\n')
	}
	return b.String()
}
