package cmd

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/audit"
	"github.com/klytics/sheetkit/internal/config"
)

// unaudited commands never touch spreadsheets.
var unaudited = map[string]bool{
	"audit": true, "completion": true, "help": true, "version": true,
	cobra.ShellCompRequestCmd: true, cobra.ShellCompNoDescRequestCmd: true,
}

// record appends the finished command to the audit log when audit.enabled
// is set. Failures to log never change the command's outcome.
func record(ctx context.Context, called *cobra.Command, start time.Time, code int) {
	if called == nil || !called.HasParent() {
		return
	}
	path := strings.Fields(called.CommandPath())
	if len(path) < 2 || unaudited[path[1]] {
		return
	}

	cfg, err := config.LoadFile(configPath)
	if err != nil || !cfg.Audit.Enabled {
		return
	}

	args := called.Flags().Args()
	entry := audit.Entry{
		Command:    strings.Join(path[1:], " "),
		Args:       audit.Redact(os.Args[1:]),
		ExitCode:   code,
		DurationMs: time.Since(start).Milliseconds(),
		InputFile:  inputFile(args),
		OutputFile: outputFile(called, args),
	}
	_ = audit.NewLogger(cfg.Audit.Path, true).Log(ctx, entry)
}

func inputFile(args []string) string {
	for _, a := range args {
		if info, err := os.Stat(a); err == nil && info.Mode().IsRegular() {
			return a
		}
	}
	return ""
}

func outputFile(called *cobra.Command, args []string) string {
	flags := called.Flags()
	if f := flags.Lookup("output"); f != nil && f.Value.String() != "" {
		return f.Value.String()
	}
	if inPlace, err := flags.GetBool("in-place"); err == nil && inPlace {
		return inputFile(args)
	}
	if f := flags.Lookup("out-dir"); f != nil && f.Changed {
		return f.Value.String()
	}
	return ""
}
