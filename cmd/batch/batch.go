// Package batch provides the "sheetkit batch" command that processes many
// spreadsheets with one command or recipe.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/klytics/sheetkit/internal/app"
	"github.com/klytics/sheetkit/internal/assistant"
	"github.com/klytics/sheetkit/internal/formats/tabular"
	"github.com/klytics/sheetkit/internal/progress"
	"github.com/klytics/sheetkit/internal/watch"
)

// Result is the outcome for one file.
type Result struct {
	File   string `json:"file"`
	Status string `json:"status"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// NewCommand returns the batch subcommand.
func NewCommand() *cobra.Command {
	var (
		command     string
		recipePath  string
		outDir      string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch <glob-pattern>",
		Short: "Apply a command or recipe to many spreadsheets",
		Long: `Applies one natural-language command, or one recipe, to every file
matching a glob pattern. Results are saved as <name>_processado.<ext> in
--out-dir (default: a "processados" folder next to each file).

On error, the batch records the failure and continues with the next file.

Examples:
  sheetkit batch 'entrada/*.xlsx' --command "remover duplicatas"
  sheetkit batch 'clientes_*.csv' --recipe limpar.yaml --concurrency 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if (command == "") == (recipePath == "") {
				return fmt.Errorf("set exactly one of --command or --recipe\n\nExample: sheetkit batch '*.xlsx' --command \"remover duplicatas\"")
			}

			pattern := args[0]
			files, err := filepath.Glob(pattern)
			if err != nil {
				return fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
			}
			if len(files) == 0 {
				return fmt.Errorf("no files matched pattern %q", pattern)
			}
			sort.Strings(files)

			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("could not create output directory %s: %w", outDir, err)
				}
			}

			proc, err := a.Processor()
			if err != nil {
				return err
			}
			handle := watch.RecipeHandler(proc, outDir, a.Log)
			rule := watch.Rule{ID: "batch", Recipe: recipePath, Enabled: true}
			if command != "" {
				handle = CommandHandler(proc, command, outDir)
			}

			results := Process(cmd.Context(), files, concurrency, a.Log, func(ctx context.Context, file string) (string, error) {
				return handle(ctx, file, rule)
			})

			if a.JSON {
				return a.Out.WriteJSON(results)
			}
			failed := 0
			for _, r := range results {
				if r.Status == "ok" {
					a.Out.WriteLn(fmt.Sprintf("  %s → %s", r.File, r.Output))
				} else {
					failed++
					a.Out.Failure(fmt.Sprintf("  %s: %s", r.File, r.Error))
				}
			}
			a.Out.WriteLn(fmt.Sprintf("\nProcessed %d files. %d succeeded, %d failed.", len(files), len(files)-failed, failed))
			return nil
		},
	}

	cmd.Flags().StringVar(&command, "command", "", "Natural-language command to apply")
	cmd.Flags().StringVar(&recipePath, "recipe", "", "Recipe YAML to run on each file")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Output directory for results")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "Number of parallel workers")

	return cmd
}

// Process runs fn on every file with at most concurrency files in flight.
// Failures are collected per file and never stop the batch; results keep
// the order of files.
func Process(ctx context.Context, files []string, concurrency int, log *zap.Logger, fn func(ctx context.Context, file string) (string, error)) []Result {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]Result, len(files))
	bar := progress.New("Processando", len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			res := Result{File: file, Status: "ok"}
			out, err := fn(gctx, file)
			if err != nil {
				res.Status, res.Error = "error", err.Error()
				log.Warn("batch file failed", zap.String("file", file), zap.Error(err))
				bar.Fail(filepath.Base(file))
			} else {
				res.Output = out
				bar.Done(filepath.Base(file))
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	bar.Finish()
	return results
}

// CommandHandler applies command to each file and saves the result in
// outDir under watch.OutputName. A command that is not applied as a
// transformation is an error for that file.
func CommandHandler(proc *assistant.Processor, command, outDir string) watch.EventHandler {
	return func(ctx context.Context, path string, _ watch.Rule) (string, error) {
		t, err := tabular.Load(path, "")
		if err != nil {
			return "", err
		}
		resp, err := proc.Process(ctx, command, t)
		if err != nil {
			return "", err
		}
		if !resp.Success || resp.Kind != assistant.KindTransform {
			return "", fmt.Errorf("command not applied: %s", resp.Message)
		}
		dir := outDir
		if dir == "" {
			dir = filepath.Join(filepath.Dir(path), "processados")
		}
		dest := filepath.Join(dir, watch.OutputName(path))
		if err := tabular.Save(dest, resp.Table); err != nil {
			return "", err
		}
		return dest, nil
	}
}
