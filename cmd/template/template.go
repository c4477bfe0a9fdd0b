// Package template provides the "sheetkit template" commands for the
// built-in cleanup templates.
package template

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/app"
	"github.com/klytics/sheetkit/internal/formats/tabular"
	"github.com/klytics/sheetkit/internal/output"
	"github.com/klytics/sheetkit/internal/table"
	"github.com/klytics/sheetkit/internal/templates"
)

// NewCommand creates the "template" command with all subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"tmpl"},
		Short:   "List and apply the built-in cleanup templates",
		Long:    "Templates bundle several cleanups, such as normalizing a contact list or preparing a table for Power BI.",
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newApplyCmd())

	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			all := templates.All()
			if a.JSON {
				return a.Out.WriteJSON(all)
			}
			return a.Out.WriteTable(catalogue(all), len(all))
		},
	}
}

// catalogue lays the templates out as a table for printing.
func catalogue(all []templates.Template) *table.Table {
	rows := make([][]table.Value, len(all))
	for i, tpl := range all {
		rows[i] = []table.Value{table.String(tpl.ID), table.String(tpl.Name), table.String(tpl.Description)}
	}
	return table.MustFromRows([]string{"ID", "Nome", "Descrição"}, rows)
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			tpl, ok := templates.Lookup(args[0])
			if !ok {
				return output.UserErrorf("template %q not found — run 'sheetkit template list' to see the available ids", args[0])
			}
			if a.JSON {
				return a.Out.WriteJSON(tpl)
			}
			a.Out.Heading(tpl.Name)
			a.Out.WriteLn(tpl.Description)
			a.Out.Dim("id: " + tpl.ID)
			return nil
		},
	}
}

func newApplyCmd() *cobra.Command {
	var (
		outPath string
		sheet   string
		preview int
	)

	cmd := &cobra.Command{
		Use:   "apply <id> <file>",
		Short: "Apply a template to a spreadsheet",
		Long: `Applies a template and prints the change list and a preview.

Examples:
  sheetkit template apply normalize_contacts contatos.xlsx -o contatos_limpos.xlsx
  sheetkit template apply powerbi_ready vendas.csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := tabular.Load(args[1], sheet)
			if err != nil {
				return err
			}
			res, err := templates.Apply(args[0], t)
			switch {
			case errors.Is(err, templates.ErrNotFound):
				return output.UserErrorf("template %q not found — run 'sheetkit template list' to see the available ids", args[0])
			case errors.Is(err, templates.ErrNoData):
				return output.UserErrorf("%s has no rows to clean", args[1])
			case err != nil:
				return err
			}

			if outPath != "" {
				if err := tabular.Save(outPath, res.Table); err != nil {
					return err
				}
			}

			if a.JSON {
				return a.Out.WriteJSON(map[string]any{
					"template": args[0],
					"changes":  res.Changes,
					"rows":     res.Table.Len(),
					"columns":  res.Table.Columns(),
					"output":   outPath,
				})
			}
			a.Out.Success(fmt.Sprintf("Template %s aplicado", args[0]))
			for _, c := range res.Changes {
				a.Out.WriteLn("  • " + c)
			}
			a.Out.WriteLn("")
			if err := a.Out.WriteTable(res.Table, preview); err != nil {
				return err
			}
			if outPath != "" {
				a.Out.Dim("Salvo em " + outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Save the cleaned table to this file")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet to read (xlsx; default first sheet)")
	cmd.Flags().IntVar(&preview, "preview", 10, "Rows to show")
	return cmd
}
