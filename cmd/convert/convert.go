// Package convert provides the "sheetkit convert" command for moving a
// table between .xlsx, .csv, .json and Markdown.
package convert

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/app"
	"github.com/klytics/sheetkit/internal/formats/tabular"
	"github.com/klytics/sheetkit/internal/formats/xlsx"
)

// Result is the JSON form of the command's output.
type Result struct {
	Input   string   `json:"input"`
	Outputs []string `json:"outputs"`
	Sheets  int      `json:"sheets"`
	Rows    int      `json:"rows"`
}

// NewCommand returns the convert command.
func NewCommand() *cobra.Command {
	var (
		sheet     string
		allSheets bool
	)

	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a table between xlsx, csv, json and md",
		Long: `Reads the input and writes it in the format of the output's extension.

With --all-sheets every worksheet of an .xlsx input is converted: into one
workbook when the output is .xlsx, otherwise into one file per sheet named
<output>_<sheet>.<ext>.

Examples:
  sheetkit convert clientes.xlsx clientes.csv
  sheetkit convert vendas.csv vendas.xlsx
  sheetkit convert relatorio.xlsx relatorio.csv --all-sheets`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			in, out := args[0], args[1]
			if _, err := tabular.Detect(out); err != nil {
				return err
			}

			var res *Result
			if allSheets {
				res, err = convertAll(in, out)
			} else {
				res, err = convertOne(in, out, sheet)
			}
			if err != nil {
				return err
			}

			if a.JSON {
				return a.Out.WriteJSON(res)
			}
			for _, o := range res.Outputs {
				a.Out.Success("✓ " + o)
			}
			return a.Out.Dim(fmt.Sprintf("%d linhas, %d aba(s)", res.Rows, res.Sheets))
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet to read (xlsx; default first sheet)")
	cmd.Flags().BoolVar(&allSheets, "all-sheets", false, "Convert every worksheet of an .xlsx input")
	cmd.MarkFlagsMutuallyExclusive("sheet", "all-sheets")
	return cmd
}

func convertOne(in, out, sheet string) (*Result, error) {
	t, err := tabular.Load(in, sheet)
	if err != nil {
		return nil, err
	}
	if err := tabular.Save(out, t); err != nil {
		return nil, err
	}
	return &Result{Input: in, Outputs: []string{out}, Sheets: 1, Rows: t.Len()}, nil
}

func convertAll(in, out string) (*Result, error) {
	if f, err := tabular.Detect(in); err != nil {
		return nil, err
	} else if f != tabular.XLSX {
		return nil, fmt.Errorf("--all-sheets needs an .xlsx input, got %s", filepath.Base(in))
	}
	names, err := xlsx.SheetNames(in)
	if err != nil {
		return nil, err
	}

	res := &Result{Input: in, Sheets: len(names)}
	sheets := make([]xlsx.Sheet, 0, len(names))
	for _, name := range names {
		t, err := xlsx.ReadFile(in, name)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", name, err)
		}
		res.Rows += t.Len()
		sheets = append(sheets, xlsx.Sheet{Name: name, Table: t})
	}

	if f, _ := tabular.Detect(out); f == tabular.XLSX {
		if err := xlsx.WriteFile(out, sheets...); err != nil {
			return nil, err
		}
		res.Outputs = []string{out}
		return res, nil
	}

	ext := filepath.Ext(out)
	base := strings.TrimSuffix(out, ext)
	for _, s := range sheets {
		path := base + "_" + s.Name + ext
		if err := tabular.Save(path, s.Table); err != nil {
			return nil, err
		}
		res.Outputs = append(res.Outputs, path)
	}
	return res, nil
}
