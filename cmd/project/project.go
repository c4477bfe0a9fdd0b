// Package project provides the "sheetkit project" commands that manage
// spreadsheets saved in the history store.
package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/app"
	"github.com/klytics/sheetkit/internal/diff"
	"github.com/klytics/sheetkit/internal/formats/tabular"
	"github.com/klytics/sheetkit/internal/output"
	"github.com/klytics/sheetkit/internal/store"
	"github.com/klytics/sheetkit/internal/table"
)

// NewCommand creates the "project" command with its subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage spreadsheets saved in the history store",
		Long: `Projects keep a spreadsheet's original and current data plus the history
of commands applied to it. Apply commands to a project with
'sheetkit run <file> <command> --project <id>' or the HTTP API.`,
	}

	cmd.AddCommand(newSaveCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newDiffCmd())
	cmd.AddCommand(newDeleteCmd())
	return cmd
}

// open loads the app and its store for a subcommand.
func open(cmd *cobra.Command) (*app.App, *store.Store, error) {
	a, err := app.FromCommand(cmd)
	if err != nil {
		return nil, nil, err
	}
	st, err := a.Store()
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	return a, st, nil
}

func notFound(id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return output.UserErrorf("project %s not found — run 'sheetkit project list' to see saved projects", id)
	}
	return err
}

func newSaveCmd() *cobra.Command {
	var (
		name  string
		sheet string
	)

	cmd := &cobra.Command{
		Use:   "save <file>",
		Short: "Save a spreadsheet as a new project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, st, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := tabular.Load(args[0], sheet)
			if err != nil {
				return err
			}
			if name == "" {
				name = filepath.Base(args[0])
			}
			p, err := st.CreateProject(cmd.Context(), name, filepath.Base(args[0]), t)
			if err != nil {
				return err
			}
			if a.JSON {
				return a.Out.WriteJSON(p)
			}
			a.Out.Success(fmt.Sprintf("Projeto %s criado: %d linhas, %d colunas", p.ID, p.Rows, p.Width))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name (default: the file name)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet to read (xlsx; default first sheet)")
	return cmd
}

func newListCmd() *cobra.Command {
	var skip, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved projects, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, st, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			projects, err := st.Projects(cmd.Context(), skip, limit)
			if err != nil {
				return err
			}
			if a.JSON {
				if projects == nil {
					projects = []store.Project{}
				}
				return a.Out.WriteJSON(projects)
			}
			if len(projects) == 0 {
				a.Out.Dim("Nenhum projeto salvo. Use 'sheetkit project save <arquivo>'.")
				return nil
			}
			rows := make([][]table.Value, len(projects))
			for i, p := range projects {
				rows[i] = []table.Value{
					table.String(p.ID),
					table.String(p.Name),
					table.String(strconv.Itoa(p.Rows)),
					table.String(p.UpdatedAt.Format("2006-01-02 15:04")),
				}
			}
			return a.Out.WriteTable(table.MustFromRows([]string{"ID", "Nome", "Linhas", "Atualizado"}, rows), len(rows))
		},
	}

	cmd.Flags().IntVar(&skip, "skip", 0, "Projects to skip")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum projects to list")
	return cmd
}

func newShowCmd() *cobra.Command {
	var (
		preview  int
		original bool
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project's data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, st, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := st.Project(cmd.Context(), args[0])
			if err != nil {
				return notFound(args[0], err)
			}
			if a.JSON {
				return a.Out.WriteJSON(p)
			}
			a.Out.Heading(fmt.Sprintf("%s (%s)", p.Name, p.FileName))
			data := p.Current
			if original {
				data = p.Original
			}
			return a.Out.WriteTable(data, preview)
		},
	}

	cmd.Flags().IntVar(&preview, "preview", 10, "Rows to show")
	cmd.Flags().BoolVar(&original, "original", false, "Show the data as first saved")
	return cmd
}

func newDiffCmd() *cobra.Command {
	var contextRows int

	cmd := &cobra.Command{
		Use:   "diff <id>",
		Short: "Compare a project's original data with its current data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, st, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := st.Project(cmd.Context(), args[0])
			if err != nil {
				return notFound(args[0], err)
			}
			result := diff.Tables(p.Original, p.Current, p.FileName+" (original)", p.FileName+" (atual)", contextRows)
			if a.JSON {
				return a.Out.WriteJSON(result)
			}
			result.Write(a.Out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&contextRows, "context", "C", 3, "Unchanged rows shown around each change")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "List the commands applied to a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, st, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := st.Project(cmd.Context(), args[0]); err != nil {
				return notFound(args[0], err)
			}
			history, err := st.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.JSON {
				if history == nil {
					history = []store.Transformation{}
				}
				return a.Out.WriteJSON(history)
			}
			if len(history) == 0 {
				a.Out.Dim("Nenhum comando aplicado ainda.")
				return nil
			}
			return a.Out.Paged(func(w *output.Writer) error {
				for _, h := range history {
					line := fmt.Sprintf("%s  %s → %s", h.CreatedAt.Format("2006-01-02 15:04"), h.Command, h.Message)
					if h.Success {
						w.WriteLn(line)
					} else {
						w.Warn(line)
					}
				}
				return nil
			})
		},
	}
}

func newExportCmd() *cobra.Command {
	var (
		outPath  string
		original bool
	)

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a project's data to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, st, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if outPath == "" {
				return fmt.Errorf("-o is required — the extension picks the format\n\nExample: sheetkit project export %s -o resultado.xlsx", args[0])
			}
			p, err := st.Project(cmd.Context(), args[0])
			if err != nil {
				return notFound(args[0], err)
			}
			data := p.Current
			if original {
				data = p.Original
			}
			if err := tabular.Save(outPath, data); err != nil {
				return err
			}
			if a.JSON {
				return a.Out.WriteJSON(map[string]any{"id": p.ID, "output": outPath, "rows": data.Len()})
			}
			a.Out.Success(fmt.Sprintf("%d linhas salvas em %s", data.Len(), outPath))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Destination file (.xlsx, .csv or .json)")
	cmd.Flags().BoolVar(&original, "original", false, "Export the data as first saved")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, st, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := st.DeleteProject(cmd.Context(), args[0]); err != nil {
				return notFound(args[0], err)
			}
			if a.JSON {
				return a.Out.WriteJSON(map[string]any{"deleted": true, "id": args[0]})
			}
			a.Out.Success("Projeto deletado")
			return nil
		},
	}
}
