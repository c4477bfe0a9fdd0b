// Package run provides the "sheetkit run" command: one natural-language
// command applied to one spreadsheet.
package run

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klytics/sheetkit/internal/app"
	"github.com/klytics/sheetkit/internal/assistant"
	"github.com/klytics/sheetkit/internal/formats/tabular"
	"github.com/klytics/sheetkit/internal/progress"
	"github.com/klytics/sheetkit/internal/store"
	"github.com/klytics/sheetkit/internal/table"
)

// NewCommand returns the run command.
func NewCommand() *cobra.Command {
	var (
		outPath   string
		sheet     string
		inPlace   bool
		preview   int
		projectID string
	)

	cmd := &cobra.Command{
		Use:   "run <file> <command...>",
		Short: "Apply one natural-language command to a spreadsheet",
		Long: `Loads a spreadsheet, applies the command and prints the result.

Use -o to save the transformed table (the extension picks the format) or
--in-place to overwrite the input. With --project the command is also
recorded in a saved project's history.

Examples:
  sheetkit run clientes.xlsx remover duplicatas -o limpo.xlsx
  sheetkit run contatos.csv "separar nome" --in-place
  sheetkit run vendas.xlsx "como usar PROCV?"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if inPlace && outPath != "" {
				return fmt.Errorf("use either -o or --in-place, not both")
			}
			if inPlace {
				outPath = args[0]
			}

			t, err := load(args[0], sheet)
			if err != nil {
				return err
			}

			proc, err := a.Processor()
			if err != nil {
				return err
			}
			command := strings.Join(args[1:], " ")

			start := time.Now()
			resp, err := proc.Process(cmd.Context(), command, t)
			if err != nil {
				return err
			}
			a.Log.Debug("run", zap.String("file", args[0]), zap.Duration("elapsed", time.Since(start)))

			if projectID != "" {
				if err := track(cmd, a, projectID, command, resp, time.Since(start)); err != nil {
					return err
				}
			}

			if err := app.WriteResponse(a.Out, resp, preview); err != nil {
				return err
			}

			if outPath == "" || !resp.Success || resp.Kind != assistant.KindTransform {
				return nil
			}
			if err := tabular.Save(outPath, resp.Table); err != nil {
				return err
			}
			if !a.JSON {
				a.Out.Dim(fmt.Sprintf("Salvo em %s", outPath))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Save the transformed table to this file")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet to read (xlsx; default first sheet)")
	cmd.Flags().BoolVar(&inPlace, "in-place", false, "Overwrite the input file")
	cmd.Flags().IntVar(&preview, "preview", 10, "Rows to show after a transformation")
	cmd.Flags().StringVar(&projectID, "project", "", "Record the command in this saved project")

	return cmd
}

func load(path, sheet string) (*table.Table, error) {
	spin := progress.NewSpinner("Carregando " + filepath.Base(path))
	spin.Start()
	t, err := tabular.Load(path, sheet)
	spin.Stop("")
	if err != nil {
		return nil, fmt.Errorf("%w — check that the path is correct and the file is .xlsx, .csv or .json", err)
	}
	return t, nil
}

func track(cmd *cobra.Command, a *app.App, projectID, command string, resp *assistant.Response, elapsed time.Duration) error {
	st, err := a.Store()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := st.SaveTransformation(ctx, store.Transformation{
		ProjectID: projectID,
		Command:   command,
		Intent:    string(resp.Intent),
		Success:   resp.Success,
		Message:   resp.Message,
		Duration:  elapsed,
	}); err != nil {
		return err
	}
	if resp.Success && resp.Kind == assistant.KindTransform {
		return st.UpdateProject(ctx, projectID, resp.Table)
	}
	return nil
}
