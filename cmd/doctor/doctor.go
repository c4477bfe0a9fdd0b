// Package doctor provides the "sheetkit doctor" command for checking
// installation health.
package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/app"
	"github.com/klytics/sheetkit/internal/assistant"
	"github.com/klytics/sheetkit/internal/audit"
	"github.com/klytics/sheetkit/internal/config"
	"github.com/klytics/sheetkit/internal/glossary"
	"github.com/klytics/sheetkit/internal/watch"
)

// Check represents a single health check result.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message"`
}

// NewCommand creates the "doctor" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, store and glossary health",
		Long:  "Run diagnostic checks to verify sheetkit is properly configured.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			checks := RunChecks(cmd.Context(), a)
			if a.JSON {
				return a.Out.WriteJSON(checks)
			}

			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			fmt.Println("sheetkit doctor")
			fmt.Println("===============")
			fmt.Println()

			okCount, warnCount, errCount := 0, 0, 0
			for _, c := range checks {
				var icon string
				switch c.Status {
				case "ok":
					icon = green("✓")
					okCount++
				case "warning":
					icon = yellow("!")
					warnCount++
				case "error":
					icon = red("✗")
					errCount++
				}
				fmt.Printf("  %s %s: %s\n", icon, c.Name, c.Message)
			}

			fmt.Println()
			fmt.Printf("  %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

			if errCount > 0 {
				return fmt.Errorf("%d check(s) failed", errCount)
			}
			return nil
		},
	}
}

// RunChecks inspects the configuration, command engine, glossary, history
// store and watcher of a.
func RunChecks(ctx context.Context, a *app.App) []Check {
	checks := []Check{{
		Name:    "Go Runtime",
		Status:  "ok",
		Message: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	}}

	dir := config.Dir()
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		checks = append(checks, Check{Name: "Config Directory", Status: "ok", Message: dir})
	} else {
		checks = append(checks, Check{
			Name:    "Config Directory",
			Status:  "warning",
			Message: fmt.Sprintf("%s not found — run 'sheetkit config init'", dir),
		})
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err == nil {
		checks = append(checks, Check{Name: "Config File", Status: "ok", Message: filepath.Join(dir, "config.yaml")})
	} else {
		checks = append(checks, Check{
			Name:    "Config File",
			Status:  "warning",
			Message: "Not found, using defaults — run 'sheetkit config init'",
		})
	}

	for _, issue := range config.Validate() {
		if issue.Severity != "error" {
			continue
		}
		checks = append(checks, Check{Name: "Config " + issue.Key, Status: "error", Message: issue.Message})
	}

	if mode, err := assistant.ParseMode(a.Config.Engine.Mode); err == nil {
		checks = append(checks, Check{Name: "Command Engine", Status: "ok", Message: string(mode) + " mode"})
	} else {
		checks = append(checks, Check{Name: "Command Engine", Status: "error", Message: err.Error()})
	}

	checks = append(checks, Check{
		Name:    "Excel Glossary",
		Status:  "ok",
		Message: fmt.Sprintf("%d functions", glossary.Default().Len()),
	})

	checks = append(checks, storeCheck(ctx, a))

	if a.Config.Audit.Enabled {
		checks = append(checks, Check{
			Name:    "Command Log",
			Status:  "ok",
			Message: fmt.Sprintf("%s (%d bytes)", a.Config.Audit.Path, audit.LogSize(a.Config.Audit.Path)),
		})
	}

	if pid, err := watch.ReadPIDFile(dir); err == nil {
		checks = append(checks, Check{Name: "Watcher", Status: "ok", Message: fmt.Sprintf("PID file for process %d", pid)})
	}
	return checks
}

func storeCheck(ctx context.Context, a *app.App) Check {
	if !a.Config.Store.Enabled {
		return Check{
			Name:    "History Store",
			Status:  "warning",
			Message: "Disabled — projects, conversations and learning are not kept",
		}
	}
	st, err := a.Store()
	if err != nil {
		return Check{Name: "History Store", Status: "error", Message: err.Error()}
	}
	stats, err := st.Stats(ctx)
	if err != nil {
		return Check{Name: "History Store", Status: "error", Message: err.Error()}
	}
	return Check{
		Name:    "History Store",
		Status:  "ok",
		Message: fmt.Sprintf("%s (%d interactions, %d patterns)", a.Config.Store.Path, stats.Interactions, stats.Patterns),
	}
}
