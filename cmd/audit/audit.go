// Package audit provides the "sheetkit audit" commands for the local
// command log.
package audit

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/app"
	auditpkg "github.com/klytics/sheetkit/internal/audit"
	"github.com/klytics/sheetkit/internal/output"
	"github.com/klytics/sheetkit/internal/table"
)

// NewCommand creates the "audit" command with all subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "View and manage the command log",
		Long: `With audit.enabled set, every sheetkit command is appended to a local
JSONL log (audit.path) with its duration, exit code and files. E-mail
addresses and CPF, CNPJ and phone numbers are masked in the arguments.

  sheetkit config set audit.enabled true`,
	}

	cmd.AddCommand(newLogCmd())
	cmd.AddCommand(newClearCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newStatsCmd())
	return cmd
}

func newLogCmd() *cobra.Command {
	var (
		last    int
		command string
		since   string
		user    string
		failed  bool
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent command log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			path := a.Config.Audit.Path
			entries, err := auditpkg.ReadEntries(path)
			if err != nil {
				return err
			}

			f := auditpkg.Filter{Command: command, User: user, Failed: failed}
			if since != "" {
				f.Since, err = time.ParseInLocation("2006-01-02", since, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --since date: %w (use YYYY-MM-DD)", err)
				}
			}
			entries = auditpkg.Last(auditpkg.FilterEntries(entries, f), last)

			if a.JSON {
				if entries == nil {
					entries = []auditpkg.Entry{}
				}
				return a.Out.WriteJSON(entries)
			}
			if len(entries) == 0 {
				if !a.Config.Audit.Enabled {
					a.Out.Warn("Audit log is disabled — run 'sheetkit config set audit.enabled true'")
				}
				return a.Out.WriteLn("No log entries found.")
			}

			rows := make([][]table.Value, len(entries))
			for i, e := range entries {
				rows[i] = []table.Value{
					table.String(e.Timestamp.Local().Format("2006-01-02 15:04:05")),
					table.String(orDash(e.User)),
					table.String(e.Command),
					table.String(orDash(e.InputFile)),
					table.String(formatDuration(e.DurationMs)),
					table.String(strconv.Itoa(e.ExitCode)),
				}
			}
			t := table.MustFromRows([]string{"Data", "Usuário", "Comando", "Arquivo", "Duração", "Saída"}, rows)
			return a.Out.Paged(func(w *output.Writer) error {
				w.Heading(fmt.Sprintf("Command log — %d entries", len(entries)))
				w.Dim(path)
				return w.WriteTable(t, len(entries))
			})
		},
	}

	cmd.Flags().IntVar(&last, "last", 20, "Show the last N entries (0 for all)")
	cmd.Flags().StringVar(&command, "command", "", "Filter by command name")
	cmd.Flags().StringVar(&since, "since", "", "Only entries since this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&user, "user", "", "Filter by user")
	cmd.Flags().BoolVar(&failed, "failed", false, "Only commands that exited with an error")
	return cmd
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the command log",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			path := a.Config.Audit.Path
			if err := auditpkg.Clear(path); err != nil {
				return err
			}
			if a.JSON {
				return a.Out.WriteJSON(map[string]string{"cleared": path})
			}
			return a.Out.Success("Command log cleared: " + path)
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the command log path, size and entry count",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			path := a.Config.Audit.Path
			size := auditpkg.LogSize(path)
			entries, err := auditpkg.ReadEntries(path)
			if err != nil {
				return err
			}

			if a.JSON {
				return a.Out.WriteJSON(map[string]any{
					"enabled": a.Config.Audit.Enabled,
					"path":    path,
					"size":    size,
					"entries": len(entries),
				})
			}
			state := "disabled"
			if a.Config.Audit.Enabled {
				state = "enabled"
			}
			a.Out.WriteLn(fmt.Sprintf("Command log: %s (%s)", path, state))
			if size == 0 {
				a.Out.WriteLn("Size:        empty (no entries)")
			} else {
				a.Out.WriteLn("Size:        " + formatSize(size))
			}
			return a.Out.WriteLn(fmt.Sprintf("Entries:     %d", len(entries)))
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the command log per command",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := auditpkg.ReadEntries(a.Config.Audit.Path)
			if err != nil {
				return err
			}
			st := auditpkg.Summarize(entries)
			if a.JSON {
				return a.Out.WriteJSON(st)
			}
			if st.Total == 0 {
				return a.Out.WriteLn("No log entries found.")
			}

			a.Out.Heading(fmt.Sprintf("%d commands, %d failed, %s on average",
				st.Total, st.Errors, formatDuration(int64(st.AvgDuration))))
			a.Out.Dim(fmt.Sprintf("%s → %s", st.First.Local().Format("2006-01-02"), st.Last.Local().Format("2006-01-02")))

			names := make([]string, 0, len(st.ByCommand))
			for name := range st.ByCommand {
				names = append(names, name)
			}
			sort.Slice(names, func(i, j int) bool {
				if st.ByCommand[names[i]] != st.ByCommand[names[j]] {
					return st.ByCommand[names[i]] > st.ByCommand[names[j]]
				}
				return names[i] < names[j]
			})
			rows := make([][]table.Value, len(names))
			for i, name := range names {
				rows[i] = []table.Value{table.String(name), table.Number(float64(st.ByCommand[name]))}
			}
			return a.Out.WriteTable(table.MustFromRows([]string{"Comando", "Execuções"}, rows), len(rows))
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatDuration(ms int64) string {
	if ms >= 1000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	return fmt.Sprintf("%dms", ms)
}

func formatSize(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}
	if bytes < 1024*1024 {
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	}
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
}
