// Package watch provides the "sheetkit watch" commands that process
// spreadsheets as they land in a folder.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klytics/sheetkit/internal/app"
	"github.com/klytics/sheetkit/internal/config"
	w "github.com/klytics/sheetkit/internal/watch"
)

// activeConfig is where "watch start" records the configuration it runs
// with, for "watch status" and "watch config".
func activeConfig() string {
	return filepath.Join(config.Dir(), "watch.yaml")
}

// NewCommand creates the "watch" command with subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Process spreadsheets as they appear in a folder",
		Long: `Watch directories for new or modified spreadsheets and run a recipe on
each one. Results are saved as <name>_processado.<ext>.

Example:
  sheetkit watch start ./entrada --recipe limpar.yaml --out-dir ./saida
  sheetkit watch start --config watch.yaml
  sheetkit watch status
  sheetkit watch stop`,
	}

	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func newStartCmd() *cobra.Command {
	var (
		watchConfig string
		extensions  []string
		pattern     string
		recipe      string
		recursive   bool
		outDir      string
		debounce    int
	)

	cmd := &cobra.Command{
		Use:   "start [directory...]",
		Short: "Start watching directories",
		Long: `Starts the watcher in the foreground until Ctrl+C.

Either pass directories with --recipe, or a watch config file with
--watch-config holding directories and rules:

  directories: [./entrada]
  output_dir: ./saida
  rules:
    - id: clientes
      pattern: "clientes_*.xlsx"
      recipe: limpar.yaml
      enabled: true`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var cfg w.Config
			switch {
			case watchConfig != "":
				loaded, err := w.LoadConfig(watchConfig)
				if err != nil {
					return err
				}
				cfg = *loaded
			case len(args) == 0:
				return fmt.Errorf("pass at least one directory or --watch-config\n\nExample: sheetkit watch start ./entrada --recipe limpar.yaml")
			case recipe == "":
				return fmt.Errorf("--recipe is required when watching directories given as arguments")
			default:
				cfg = w.Config{
					Directories: args,
					Rules: []w.Rule{{
						ID:         "default",
						Pattern:    pattern,
						Extensions: extensions,
						Recipe:     recipe,
						Enabled:    true,
					}},
					Recursive: recursive,
					Debounce:  debounce,
					OutputDir: outDir,
				}
			}

			proc, err := a.Processor()
			if err != nil {
				return err
			}
			watcher, err := w.New(cfg, a.Log)
			if err != nil {
				return err
			}
			watcher.Handler = w.RecipeHandler(proc, cfg.OutputDir, a.Log)

			dir := config.Dir()
			if err := w.WritePIDFile(dir); err != nil {
				a.Log.Warn("could not write PID file", zap.Error(err))
			}
			defer w.RemovePIDFile(dir)
			if err := w.SaveConfig(activeConfig(), cfg); err != nil {
				a.Log.Warn("could not save watch config", zap.Error(err))
			}

			if !a.JSON {
				fmt.Printf("Watching %s (%d rule(s))\n", strings.Join(cfg.Directories, ", "), len(cfg.Rules))
				fmt.Println("Press Ctrl+C to stop")
			}

			if err := watcher.Start(cmd.Context()); err != nil {
				return err
			}
			if a.JSON {
				return a.Out.WriteJSON(map[string]any{
					"status": watcher.GetStatus(),
					"events": watcher.Events(),
				})
			}
			fmt.Printf("\nStopped after %d event(s)\n", len(watcher.Events()))
			return nil
		},
	}

	cmd.Flags().StringVar(&watchConfig, "watch-config", "", "Watch config YAML with directories and rules")
	cmd.Flags().StringSliceVar(&extensions, "ext", nil, "File extensions to match (default: .xlsx,.xlsm,.csv,.json)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Glob on the file name, e.g. 'clientes_*.xlsx'")
	cmd.Flags().StringVar(&recipe, "recipe", "", "Recipe YAML to run on each file")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Watch directories recursively")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Where results go (default: 'processados' next to each file)")
	cmd.Flags().IntVar(&debounce, "debounce", w.DefaultDebounce, "Debounce interval in milliseconds")

	return cmd
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			dir := config.Dir()
			pid, err := w.ReadPIDFile(dir)
			if err != nil {
				return fmt.Errorf("no watcher running (PID file not found)")
			}

			process, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("could not find process %d: %w", pid, err)
			}
			if err := process.Signal(syscall.SIGTERM); err != nil {
				w.RemovePIDFile(dir)
				return fmt.Errorf("could not stop watcher (PID %d): %w", pid, err)
			}
			w.RemovePIDFile(dir)

			if a.JSON {
				return a.Out.WriteJSON(map[string]any{"stopped": true, "pid": pid})
			}
			fmt.Printf("Stopped watcher (PID %d)\n", pid)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current watcher status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			dir := config.Dir()
			pid, err := w.ReadPIDFile(dir)
			running := err == nil
			if running {
				process, err := os.FindProcess(pid)
				if err != nil || process.Signal(syscall.Signal(0)) != nil {
					running = false
					w.RemovePIDFile(dir)
				}
			}

			if !running {
				if a.JSON {
					return a.Out.WriteJSON(map[string]any{"running": false})
				}
				fmt.Println("Watcher is not running")
				return nil
			}

			cfg, _ := w.LoadConfig(activeConfig())
			status := map[string]any{"running": true, "pid": pid}
			if cfg != nil {
				status["directories"] = cfg.Directories
				status["rules"] = len(cfg.Rules)
				status["recursive"] = cfg.Recursive
			}
			if a.JSON {
				return a.Out.WriteJSON(status)
			}

			fmt.Printf("Watcher is running (PID %d)\n", pid)
			if cfg != nil {
				fmt.Printf("  Directories: %s\n", strings.Join(cfg.Directories, ", "))
				fmt.Printf("  Rules:       %d\n", len(cfg.Rules))
				fmt.Printf("  Recursive:   %v\n", cfg.Recursive)
			}
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the configuration of the last started watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			cfg, err := w.LoadConfig(activeConfig())
			if err != nil {
				return fmt.Errorf("no watcher configuration found (run 'sheetkit watch start' first)")
			}
			if a.JSON {
				return a.Out.WriteJSON(cfg)
			}

			fmt.Printf("Directories: %s\n", strings.Join(cfg.Directories, ", "))
			fmt.Printf("Recursive:   %v\n", cfg.Recursive)
			fmt.Printf("Debounce:    %dms\n", cfg.Debounce)
			fmt.Printf("Output dir:  %s\n", cfg.OutputDir)
			fmt.Printf("Rules:       %d\n", len(cfg.Rules))
			for _, r := range cfg.Rules {
				fmt.Printf("  [%s] pattern=%q ext=%v recipe=%s enabled=%v\n",
					r.ID, r.Pattern, r.Extensions, r.Recipe, r.Enabled)
			}
			return nil
		},
	}
}
