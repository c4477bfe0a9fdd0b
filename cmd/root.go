// Package cmd contains all CLI commands for the sheetkit binary.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cmdaudit "github.com/klytics/sheetkit/cmd/audit"
	"github.com/klytics/sheetkit/cmd/batch"
	"github.com/klytics/sheetkit/cmd/completion"
	cmdconfig "github.com/klytics/sheetkit/cmd/config"
	"github.com/klytics/sheetkit/cmd/convert"
	"github.com/klytics/sheetkit/cmd/diff"
	"github.com/klytics/sheetkit/cmd/doctor"
	"github.com/klytics/sheetkit/cmd/glossary"
	"github.com/klytics/sheetkit/cmd/learn"
	"github.com/klytics/sheetkit/cmd/project"
	"github.com/klytics/sheetkit/cmd/recipe"
	"github.com/klytics/sheetkit/cmd/run"
	"github.com/klytics/sheetkit/cmd/serve"
	"github.com/klytics/sheetkit/cmd/shell"
	"github.com/klytics/sheetkit/cmd/show"
	"github.com/klytics/sheetkit/cmd/split"
	"github.com/klytics/sheetkit/cmd/suggest"
	cmdtemplate "github.com/klytics/sheetkit/cmd/template"
	"github.com/klytics/sheetkit/cmd/version"
	cmdwatch "github.com/klytics/sheetkit/cmd/watch"
	"github.com/klytics/sheetkit/internal/output"
)

var (
	jsonOutput bool
	verbose    bool
	mode       string
	configPath string
	noColor    bool
)

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetkit",
		Short: "Clean and reshape spreadsheets with plain Portuguese commands",
		Long: `sheetkit — planilhas em linguagem natural.

Load an .xlsx, .csv or .json table and transform it with commands such as
"remover duplicatas", "separar nome" or "limpar cnpj". Run one command,
chat in the shell, automate with recipes, or serve the HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	// Global persistent flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&mode, "mode", "", "Classification mode: baseline | advanced (default from config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.sheetkit/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")

	// Register subcommands
	rootCmd.AddCommand(run.NewCommand())
	rootCmd.AddCommand(show.NewCommand())
	rootCmd.AddCommand(convert.NewCommand())
	rootCmd.AddCommand(shell.NewCommand())
	rootCmd.AddCommand(serve.NewCommand())
	rootCmd.AddCommand(cmdtemplate.NewCommand())
	rootCmd.AddCommand(recipe.NewCommand())
	rootCmd.AddCommand(batch.NewCommand())
	rootCmd.AddCommand(cmdwatch.NewCommand())
	rootCmd.AddCommand(split.NewCommand())
	rootCmd.AddCommand(diff.NewCommand())
	rootCmd.AddCommand(glossary.NewCommand())
	rootCmd.AddCommand(suggest.NewCommand())
	rootCmd.AddCommand(learn.NewCommand())
	rootCmd.AddCommand(project.NewCommand())
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(cmdaudit.NewCommand())
	rootCmd.AddCommand(doctor.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// Execute runs the root command, records it in the audit log and handles
// any returned errors. Ctrl+C cancels the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	rootCmd := NewRootCommand()
	called, err := rootCmd.ExecuteContextC(ctx)
	record(context.WithoutCancel(ctx), called, start, output.ExitCode(err))
	if err == nil {
		return
	}
	if jsonOutput {
		_ = output.PrintJSONError(called.CommandPath(), err, output.ExitCode(err))
	} else {
		output.WriteError("%s", err)
	}
	stop()
	os.Exit(output.ExitCode(err))
}
