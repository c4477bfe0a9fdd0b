// Package recipe provides the "sheetkit recipe" commands that run
// multi-step YAML recipes.
package recipe

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/app"
	"github.com/klytics/sheetkit/internal/formats/tabular"
	"github.com/klytics/sheetkit/internal/logging"
	"github.com/klytics/sheetkit/internal/pipeline"
	"github.com/klytics/sheetkit/internal/pipeline/actions"
	"github.com/klytics/sheetkit/internal/table"
)

// NewCommand creates the "recipe" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recipe",
		Aliases: []string{"pipeline"},
		Short:   "Run multi-step spreadsheet recipes",
		Long: `Recipes are YAML files with a list of steps: load, command, template,
split and save. Steps run in order and share one table.

Example recipe:
  name: limpar-clientes
  steps:
    - id: dedupe
      command: remover duplicatas
    - id: nomes
      command: separar nome
    - id: salvar
      action: save
      path: ${{ vars.name }}_limpo.xlsx`,
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newValidateCommand())
	return cmd
}

// JSONResult is a step result in a JSON-safe shape.
type JSONResult struct {
	StepID  string `json:"stepId"`
	Action  string `json:"action"`
	Rows    int    `json:"rows"`
	Output  string `json:"output,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Results converts step results for JSON output.
func Results(results []pipeline.StepResult) []JSONResult {
	out := make([]JSONResult, len(results))
	for i, r := range results {
		out[i] = JSONResult{StepID: r.StepID, Action: r.Action, Rows: r.Rows, Output: r.Output, Skipped: r.Skipped}
		if r.Error != nil {
			out[i].Error = r.Error.Error()
		}
	}
	return out
}

func newRunCommand() *cobra.Command {
	var (
		dryRun  bool
		outPath string
		sheet   string
		vars    []string
	)

	cmd := &cobra.Command{
		Use:   "run <recipe.yaml> [input]",
		Short: "Execute a recipe",
		Long: `Runs a recipe, optionally on an input file. The input path is available
to steps as ${{ vars.input }} and its base name as ${{ vars.name }}.

Use --dry-run to run every step except those that write files.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			r, err := pipeline.LoadRecipe(args[0])
			if err != nil {
				return err
			}
			proc, err := a.Processor()
			if err != nil {
				return err
			}

			exec := pipeline.NewExecutor(a.Log)
			exec.SetDryRun(dryRun)
			actions.RegisterAll(exec, proc)
			for _, kv := range vars {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("invalid --var %q — use name=value", kv)
				}
				exec.SetVar(k, v)
			}

			var t *table.Table
			if len(args) == 2 {
				if t, err = tabular.Load(args[1], sheet); err != nil {
					return err
				}
				exec.SetVar("input", args[1])
				exec.SetVar("name", strings.TrimSuffix(filepath.Base(args[1]), filepath.Ext(args[1])))
			}

			out, results, execErr := exec.Run(cmd.Context(), r, t)

			if execErr == nil && outPath != "" && !dryRun {
				if err := tabular.Save(outPath, out); err != nil {
					return err
				}
			}

			if a.JSON {
				if err := a.Out.WriteJSON(Results(results)); err != nil {
					return err
				}
				return execErr
			}

			for _, res := range results {
				switch {
				case res.Error != nil && res.Skipped:
					a.Out.Warn(fmt.Sprintf("Step %s: SKIPPED — %s", res.StepID, res.Error))
				case res.Error != nil:
					a.Out.Failure(fmt.Sprintf("Step %s: FAILED — %s", res.StepID, res.Error))
				case res.Skipped:
					a.Out.Dim(fmt.Sprintf("Step %s: %s", res.StepID, res.Output))
				default:
					a.Out.Success(fmt.Sprintf("Step %s: OK (%d linhas)", res.StepID, res.Rows))
					if a.Verbose && res.Output != "" {
						a.Out.Dim("  " + logging.Truncate(res.Output, 200))
					}
				}
			}
			if execErr == nil && outPath != "" && !dryRun {
				a.Out.Dim("Salvo em " + outPath)
			}
			return execErr
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run without writing any file")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Save the final table to this file")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet of the input (xlsx; default first sheet)")
	cmd.Flags().StringArrayVar(&vars, "var", nil, "Recipe variable as name=value (repeatable)")

	return cmd
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <recipe.yaml>",
		Short: "Check a recipe without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			r, err := pipeline.LoadRecipe(args[0])
			if err != nil {
				return err
			}
			if a.JSON {
				return a.Out.WriteJSON(r)
			}
			a.Out.Success(fmt.Sprintf("%s: %d passos válidos", r.Name, len(r.Steps)))
			for _, s := range r.Steps {
				detail := s.Command
				if detail == "" {
					detail = s.Template + s.Path
				}
				a.Out.WriteLn(fmt.Sprintf("  %s  %-8s %s", s.ID, s.Action, detail))
			}
			return nil
		},
	}
}
