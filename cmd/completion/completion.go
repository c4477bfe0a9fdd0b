// Package completion provides shell completion generation commands.
package completion

import (
	"fmt"

	"github.com/spf13/cobra"
)

// installHints are printed as comments above each generated script.
var installHints = map[string][]string{
	"bash": {
		"sheetkit completion bash > /etc/bash_completion.d/sheetkit",
		"echo 'source <(sheetkit completion bash)' >> ~/.bashrc",
	},
	"zsh":        {"sheetkit completion zsh > ~/.zsh/completions/_sheetkit"},
	"fish":       {"sheetkit completion fish > ~/.config/fish/completions/sheetkit.fish"},
	"powershell": {"sheetkit completion powershell >> $PROFILE"},
}

// NewCommand returns the completion command for rootCmd.
func NewCommand(rootCmd *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completions",
		Long: `Generate shell completion scripts for sheetkit.

Install instructions:
  Bash:       sheetkit completion bash > /etc/bash_completion.d/sheetkit
              echo 'source <(sheetkit completion bash)' >> ~/.bashrc
  Zsh:        sheetkit completion zsh > ~/.zsh/completions/_sheetkit
  Fish:       sheetkit completion fish > ~/.config/fish/completions/sheetkit.fish
  PowerShell: sheetkit completion powershell >> $PROFILE`,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hints, ok := installHints[args[0]]
			if !ok {
				return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish, powershell)", args[0])
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# sheetkit %s completion\n", args[0])
			for i, h := range hints {
				prefix := "# Install: "
				if i > 0 {
					prefix = "# Or:      "
				}
				fmt.Fprintln(out, prefix+h)
			}
			fmt.Fprintln(out)

			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(out)
			case "zsh":
				return rootCmd.GenZshCompletion(out)
			case "fish":
				return rootCmd.GenFishCompletion(out, true)
			default:
				return rootCmd.GenPowerShellCompletionWithDesc(out)
			}
		},
	}
	return cmd
}
