// Package show provides the "sheetkit show" command for inspecting a
// spreadsheet without changing it.
package show

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/app"
	"github.com/klytics/sheetkit/internal/formats/tabular"
	"github.com/klytics/sheetkit/internal/formats/xlsx"
	"github.com/klytics/sheetkit/internal/output"
	"github.com/klytics/sheetkit/internal/table"
)

// Summary is the JSON form of the command's output.
type Summary struct {
	File    string       `json:"file"`
	Sheets  []string     `json:"sheets,omitempty"`
	Rows    int          `json:"rows"`
	Columns []string     `json:"columns"`
	Data    *table.Table `json:"data,omitempty"`
}

// NewCommand returns the show command.
func NewCommand() *cobra.Command {
	var (
		sheet      string
		rows       int
		format     string
		csvOut     bool
		sheetsOnly bool
	)

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Preview a spreadsheet's columns and rows",
		Long: `Reads an .xlsx, .csv or .json table and prints its size, columns and the
first rows. Pass '-' to read from stdin (see --format).

Examples:
  sheetkit show clientes.xlsx
  sheetkit show clientes.xlsx --sheet Vendas --rows 50
  sheetkit show clientes.xlsx --sheets
  cat contatos.csv | sheetkit show - --format csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			path := args[0]
			var sheets []string
			if path != "-" {
				if f, _ := tabular.Detect(path); f == tabular.XLSX {
					if sheets, err = xlsx.SheetNames(path); err != nil {
						return err
					}
				}
			}
			if sheetsOnly {
				if a.JSON {
					return a.Out.WriteJSON(sheets)
				}
				for _, s := range sheets {
					a.Out.WriteLn(s)
				}
				return nil
			}

			t, err := load(cmd.InOrStdin(), path, format, sheet)
			if err != nil {
				return err
			}

			if csvOut {
				return tabular.WriteCSV(cmd.OutOrStdout(), t, false)
			}
			if a.JSON {
				return a.Out.WriteJSON(Summary{File: path, Sheets: sheets, Rows: t.Len(), Columns: t.Columns(), Data: t})
			}

			return a.Out.Paged(func(w *output.Writer) error {
				w.Heading(fmt.Sprintf("%s — %d linhas × %d colunas", path, t.Len(), t.Width()))
				if len(sheets) > 1 {
					w.Dim(fmt.Sprintf("Abas: %v", sheets))
				}
				if err := w.WriteTable(t, rows); err != nil {
					return err
				}
				if t.Len() > rows {
					w.Dim(fmt.Sprintf("… mais %d linhas", t.Len()-rows))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet to read (xlsx; default first sheet)")
	cmd.Flags().IntVar(&rows, "rows", 20, "Rows to preview")
	cmd.Flags().StringVar(&format, "format", "csv", "Format of stdin input: xlsx, csv or json")
	cmd.Flags().BoolVar(&csvOut, "csv", false, "Print the whole table as CSV")
	cmd.Flags().BoolVar(&sheetsOnly, "sheets", false, "List the workbook's sheets and exit")
	return cmd
}

func load(stdin io.Reader, path, format, sheet string) (*table.Table, error) {
	if path != "-" {
		return tabular.Load(path, sheet)
	}
	f, err := tabular.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	t, err := tabular.Decode(stdin, f, sheet)
	if err != nil {
		return nil, fmt.Errorf("could not read stdin: %w — pass a file path or pipe %s data", err, f)
	}
	return t, nil
}
