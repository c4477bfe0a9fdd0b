// Package diff provides the "sheetkit diff" command for comparing two
// spreadsheets.
package diff

import (
	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/app"
	"github.com/klytics/sheetkit/internal/diff"
	"github.com/klytics/sheetkit/internal/formats/tabular"
)

// NewCommand returns the diff command.
func NewCommand() *cobra.Command {
	var (
		contextRows int
		stats       bool
		sheet       string
	)

	cmd := &cobra.Command{
		Use:   "diff <original> <revised>",
		Short: "Compare two spreadsheets row by row",
		Long: `Shows a colored unified diff of row-level changes between two tables,
plus the columns added or removed. Rows are compared on the columns both
tables share.

Examples:
  sheetkit diff clientes.xlsx clientes_processado.xlsx
  sheetkit diff antes.csv depois.csv --stats`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			orig, err := tabular.Load(args[0], sheet)
			if err != nil {
				return err
			}
			rev, err := tabular.Load(args[1], sheet)
			if err != nil {
				return err
			}

			result := diff.Tables(orig, rev, args[0], args[1], contextRows)
			if a.JSON {
				return a.Out.WriteJSON(result)
			}
			if stats {
				return a.Out.WriteLn(result.Stats())
			}
			result.Write(a.Out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&contextRows, "context", "C", 3, "Unchanged rows shown around each change")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print only the summary line")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet to read from both files (xlsx; default first sheet)")
	return cmd
}
