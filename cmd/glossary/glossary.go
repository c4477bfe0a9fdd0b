// Package glossary provides the "sheetkit glossary" commands over the
// embedded Excel function glossary.
package glossary

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/app"
	"github.com/klytics/sheetkit/internal/formats/tabular"
	gl "github.com/klytics/sheetkit/internal/glossary"
)

// NewCommand creates the "glossary" command with its subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "glossary",
		Aliases: []string{"excel"},
		Short:   "Look up Excel functions, formulas and tips",
	}

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newExplainCmd())
	cmd.AddCommand(newTipsCmd())
	cmd.AddCommand(newFormulaCmd())
	return cmd
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query...>",
		Short: "Find functions by name or Portuguese keyword",
		Long: `Searches the glossary by function name or keyword.

Examples:
  sheetkit glossary search procv
  sheetkit glossary search somar com condição`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			found := gl.Default().Search(strings.Join(args, " "))
			if a.JSON {
				if found == nil {
					found = []gl.Function{}
				}
				return a.Out.WriteJSON(found)
			}
			if len(found) == 0 {
				a.Out.Warn("Nenhuma função encontrada")
				return nil
			}
			for _, f := range found {
				a.Out.Heading(fmt.Sprintf("%s (%s)", f.Name, f.Category))
				a.Out.WriteLn("  " + f.Description)
				a.Out.WriteLn("  " + f.Syntax)
				for _, ex := range f.Examples {
					a.Out.Dim("    " + ex)
				}
			}
			return nil
		},
	}
}

func newExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <formula>",
		Short: "Explain what a formula does",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			formula := strings.Join(args, " ")
			explanation := gl.Default().Explain(formula)
			if a.JSON {
				return a.Out.WriteJSON(map[string]string{"formula": formula, "explanation": explanation})
			}
			a.Out.WriteLn(explanation)
			return nil
		},
	}
}

func newTipsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tips",
		Short: "Show general spreadsheet tips",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			tips := gl.Default().Tips()
			if a.JSON {
				return a.Out.WriteJSON(tips)
			}
			for _, t := range tips {
				a.Out.WriteLn("• " + t)
			}
			return nil
		},
	}
}

func newFormulaCmd() *cobra.Command {
	var (
		columns []string
		file    string
	)

	cmd := &cobra.Command{
		Use:   "formula <question...>",
		Short: "Suggest a ready-to-paste formula for your columns",
		Long: `Proposes a formula for a question, pointed at one of your columns.

Examples:
  sheetkit glossary formula extrair domínio do email --columns Nome,Email
  sheetkit glossary formula pegar o ddd --file clientes.xlsx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if file != "" {
				t, err := tabular.Load(file, "")
				if err != nil {
					return err
				}
				columns = append(columns, t.Columns()...)
			}

			s, ok := gl.SuggestFormula(strings.Join(args, " "), columns)
			if !ok {
				if a.JSON {
					return a.Out.WriteJSON(map[string]any{"found": false})
				}
				a.Out.Warn("Nenhuma fórmula pronta para essa pergunta. Tente 'sheetkit glossary search'.")
				return nil
			}
			if a.JSON {
				return a.Out.WriteJSON(map[string]any{
					"found":       true,
					"description": s.Description,
					"formula":     s.Formula(),
					"column":      s.Column,
				})
			}
			a.Out.Heading(s.Description)
			a.Out.WriteLn(s.Formula())
			if s.Column == "" {
				a.Out.Dim("Nenhuma coluna correspondente; substitua {col} pela célula desejada.")
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Column names to point the formula at")
	cmd.Flags().StringVar(&file, "file", "", "Take the column names from this spreadsheet")
	return cmd
}
