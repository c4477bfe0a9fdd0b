// Package suggest provides the "sheetkit suggest" command that proposes
// commands worth trying on a spreadsheet.
package suggest

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/app"
	"github.com/klytics/sheetkit/internal/formats/tabular"
	"github.com/klytics/sheetkit/internal/intent"
)

// NewCommand creates the "suggest" command.
func NewCommand() *cobra.Command {
	var (
		sheet string
		roles bool
	)

	cmd := &cobra.Command{
		Use:   "suggest <file>",
		Short: "Suggest commands for a spreadsheet",
		Long: `Looks at the column names and first rows of a spreadsheet and proposes
commands worth trying, such as splitting full names or cleaning CNPJs.
--roles adds suggestions from the inferred column roles (email, numeric).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := tabular.Load(args[0], sheet)
			if err != nil {
				return err
			}

			suggestions := intent.SmartSuggestions(t)
			if roles {
				suggestions = append(suggestions, intent.RoleSuggestions(t)...)
			}
			if suggestions == nil {
				suggestions = []string{}
			}

			if a.JSON {
				return a.Out.WriteJSON(map[string]any{
					"file":        args[0],
					"rows":        t.Len(),
					"columns":     t.Columns(),
					"suggestions": suggestions,
				})
			}
			a.Out.Heading(fmt.Sprintf("%s: %d linhas, %d colunas", args[0], t.Len(), t.Width()))
			if len(suggestions) == 0 {
				a.Out.Dim("Nenhuma sugestão para esta planilha.")
				return nil
			}
			for _, s := range suggestions {
				a.Out.WriteLn(s)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet to read (xlsx; default first sheet)")
	cmd.Flags().BoolVar(&roles, "roles", false, "Add suggestions from inferred column roles")
	return cmd
}
