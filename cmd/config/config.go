// Package config provides CLI commands for configuration management.
package config

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/app"
	"github.com/klytics/sheetkit/internal/config"
	"github.com/klytics/sheetkit/internal/output"
)

// NewCommand returns the config command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sheetkit configuration",
		Long: `Interactive setup, view, and modify sheetkit settings.

Settings live in ~/.sheetkit/config.yaml (SHEETKIT_HOME moves the folder)
and can be overridden with SHEETKIT_* environment variables, for example
SHEETKIT_ENGINE_MODE=baseline.`,
	}

	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newSetCommand())
	cmd.AddCommand(newGetCommand())
	cmd.AddCommand(newResetCommand())
	cmd.AddCommand(newPathCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newEnvCommand())

	return cmd
}

// load reads the configuration without building the rest of the app, so
// that a broken value can still be inspected and fixed.
func load(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	_, err := config.LoadFile(path)
	return err
}

func newInitCommand() *cobra.Command {
	var noInteractive bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactive setup wizard",
		RunE: func(cmd *cobra.Command, args []string) error {
			if noInteractive {
				return config.WizardNonInteractive()
			}
			return config.Wizard(nil)
		},
	}
	cmd.Flags().BoolVar(&noInteractive, "no-interactive", false, "Skip prompts, use defaults")
	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.JSON {
				return a.Out.WriteJSON(a.Config)
			}
			return a.Out.WriteText(config.ShowConfig())
		},
	}
}

func newSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Sets one key and saves the config file.

Examples:
  sheetkit config set engine.mode baseline
  sheetkit config set store.enabled false
  sheetkit config set export.chunk_size 100`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := load(cmd); err != nil {
				return err
			}
			if err := config.Set(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Set %s = %s\n", args[0], args[1])
			return nil
		},
	}
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := load(cmd); err != nil {
				return err
			}
			val := config.Get(args[0])
			if val == "" {
				fmt.Printf("%s: (not set)\n", args[0])
			} else {
				fmt.Printf("%s: %s\n", args[0], val)
			}
			return nil
		},
	}
}

func newResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset configuration to defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ResetConfig(); err != nil {
				return err
			}
			fmt.Println("Configuration reset to defaults")
			return nil
		},
	}
}

func newPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.ConfigPath())
		},
	}
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := load(cmd); err != nil {
				return err
			}
			jsonFlag, _ := cmd.Flags().GetBool("json")
			format := output.FormatText
			if jsonFlag {
				format = output.FormatJSON
			}
			out := output.NewWriter(format)

			issues := config.Validate()
			if jsonFlag {
				if issues == nil {
					issues = []config.ConfigIssue{}
				}
				return out.WriteJSON(issues)
			}

			errCount, warnCount := 0, 0
			for _, issue := range issues {
				switch issue.Severity {
				case "error":
					errCount++
				case "warning":
					warnCount++
				}
			}
			if errCount == 0 && warnCount == 0 {
				out.Success("Configuration is valid")
				return nil
			}

			out.WriteLn(fmt.Sprintf("Config validation: %d errors, %d warnings\n", errCount, warnCount))
			for _, issue := range issues {
				msg := fmt.Sprintf("  %s: %s", issue.Key, issue.Message)
				switch issue.Severity {
				case "error":
					out.Failure(msg)
				case "warning":
					out.Warn(msg)
				default:
					out.Success(msg)
				}
				if issue.Fix != "" {
					out.WriteLn("   Fix: " + issue.Fix)
				}
			}
			return nil
		},
	}
}

func newEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Export configuration as environment variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			env := config.ToEnv()
			if a.JSON {
				return a.Out.WriteJSON(env)
			}

			keys := make([]string, 0, len(env))
			for k := range env {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			for _, k := range keys {
				fmt.Printf("export %s=%q\n", k, env[k])
			}
			fmt.Println("# Add these to your ~/.zshrc or ~/.bashrc")
			return nil
		},
	}
}
