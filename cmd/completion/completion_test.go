package completion

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func testRootCmd() *cobra.Command {
	root := &cobra.Command{Use: "sheetkit"}
	root.AddCommand(&cobra.Command{Use: "run", Short: "Apply one command"})
	root.AddCommand(&cobra.Command{Use: "split", Short: "Split a spreadsheet"})
	root.AddCommand(NewCommand(root))
	return root
}

func generate(t *testing.T, shell string) string {
	t.Helper()
	root := testRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"completion", shell})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestBashCompletion(t *testing.T) {
	output := generate(t, "bash")
	if !strings.HasPrefix(output, "# sheetkit bash completion\n") {
		t.Errorf("missing header, got %q", output[:40])
	}
	if !strings.Contains(output, "# Or:      echo 'source <(sheetkit completion bash)'") {
		t.Error("bash header should carry the second install hint")
	}
	if !strings.Contains(output, "_sheetkit") {
		t.Error("bash completion should contain _sheetkit function")
	}
}

func TestZshCompletion(t *testing.T) {
	output := generate(t, "zsh")
	if !strings.Contains(output, "compdef") {
		t.Error("zsh completion should contain compdef")
	}
}

func TestFishCompletion(t *testing.T) {
	output := generate(t, "fish")
	if !strings.Contains(output, "complete -c sheetkit") {
		t.Error("fish completion should contain 'complete -c sheetkit'")
	}
}

func TestPowerShellCompletion(t *testing.T) {
	output := generate(t, "powershell")
	if !strings.Contains(output, "sheetkit") {
		t.Error("PowerShell completion should contain sheetkit")
	}
}

func TestUnsupportedShell(t *testing.T) {
	root := testRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"completion", "tcsh"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected an error for an unsupported shell")
	}
}
