// Package tests provides smoke tests that validate every sheetkit command
// exists, runs, and exits cleanly without panicking.
// These tests run the compiled binary; build it first with
// 'go build -o bin/sheetkit .'.
package tests

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// binary returns the path to the compiled sheetkit binary.
func binary(t *testing.T) string {
	t.Helper()
	_, filename, _, _ := runtime.Caller(0)
	root := filepath.Join(filepath.Dir(filename), "..")
	bin := filepath.Join(root, "bin", "sheetkit")
	if runtime.GOOS == "windows" {
		bin += ".exe"
	}
	if _, err := os.Stat(bin); os.IsNotExist(err) {
		t.Skipf("sheetkit binary not found at %s — run 'go build -o bin/sheetkit .' first", bin)
	}
	return bin
}

// home is a private SHEETKIT_HOME shared by one test.
func home(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SHEETKIT_HOME", dir)
	return dir
}

// run executes sheetkit with args and returns stdout, stderr, and exit code.
func run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	cmd := exec.Command(binary(t), args...)
	cmd.Env = append(os.Environ(), "SHEETKIT_NO_PROGRESS=1")
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	code := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		}
	}
	return stdout.String(), stderr.String(), code
}

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clientes.csv")
	content := "Nome,Email\nAna Souza,ana@exemplo.com\nBruno Lima,bruno@exemplo.com\nAna Souza,ana@exemplo.com\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestAllCommandsExist validates that every command appears in --help.
func TestAllCommandsExist(t *testing.T) {
	commands := []string{
		"run", "show", "convert", "diff", "shell", "serve", "template", "recipe", "batch",
		"watch", "split", "glossary", "suggest", "learn", "project",
		"config", "audit", "completion", "doctor", "version",
	}

	stdout, _, code := run(t, "--help")
	if code != 0 {
		t.Fatalf("sheetkit --help exited with code %d", code)
	}
	for _, cmd := range commands {
		if !strings.Contains(stdout, cmd) {
			t.Errorf("command %q not found in sheetkit --help output", cmd)
		}
	}
}

// TestRunJSON validates the response shape of a transformation.
func TestRunJSON(t *testing.T) {
	home(t)
	in := writeCSV(t)

	stdout, _, code := run(t, "run", in, "remover duplicatas", "--json")
	if code != 0 {
		t.Fatalf("sheetkit run should exit 0, got %d", code)
	}
	var resp struct {
		Success bool   `json:"success"`
		Type    string `json:"type"`
		Intent  string `json:"intent"`
	}
	if err := json.Unmarshal([]byte(stdout), &resp); err != nil {
		t.Fatalf("--json output is not valid JSON: %v\nOutput: %s", err, stdout)
	}
	if !resp.Success || resp.Type != "transform" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

// TestShellEval validates a one-shot shell line.
func TestShellEval(t *testing.T) {
	home(t)
	in := writeCSV(t)

	stdout, _, code := run(t, "shell", in, "--eval", "colunas")
	if code != 0 {
		t.Fatal("sheetkit shell --eval should exit 0")
	}
	if !strings.Contains(stdout, "Email") {
		t.Errorf("colunas should list the columns, got: %s", stdout)
	}
}

// TestProjectRoundTrip validates saving and listing a project.
func TestProjectRoundTrip(t *testing.T) {
	home(t)
	in := writeCSV(t)

	stdout, _, code := run(t, "project", "save", in, "--name", "Clientes", "--json")
	if code != 0 {
		t.Fatalf("sheetkit project save should exit 0, got %d", code)
	}
	var p struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(stdout), &p); err != nil || p.ID == "" {
		t.Fatalf("project save --json should return an id: %v\nOutput: %s", err, stdout)
	}

	stdout, _, code = run(t, "project", "list", "--json")
	if code != 0 || !strings.Contains(stdout, p.ID) {
		t.Errorf("project list should contain %s, got: %s", p.ID, stdout)
	}
}

// TestGlossarySearch validates the embedded glossary.
func TestGlossarySearch(t *testing.T) {
	stdout, _, code := run(t, "glossary", "search", "procv")
	if code != 0 {
		t.Fatal("sheetkit glossary search should exit 0")
	}
	if !strings.Contains(strings.ToUpper(stdout), "PROCV") {
		t.Errorf("search output should contain PROCV, got: %s", stdout)
	}
}

// TestVersionOutput validates version command format.
func TestVersionOutput(t *testing.T) {
	stdout, _, code := run(t, "version")
	if code != 0 {
		t.Fatal("sheetkit version should exit 0")
	}
	if !strings.HasPrefix(stdout, "sheetkit ") {
		t.Errorf("version output should start with 'sheetkit', got: %s", stdout)
	}
}

// TestDoctorRuns validates doctor command runs without panic.
func TestDoctorRuns(t *testing.T) {
	home(t)
	_, _, code := run(t, "doctor")
	if code > 2 {
		t.Errorf("doctor should exit 0, 1, or 2, got: %d", code)
	}
}

// TestWatchStatusNotRunning validates watch status when no watcher runs.
func TestWatchStatusNotRunning(t *testing.T) {
	home(t)
	stdout, _, code := run(t, "watch", "status")
	if code != 0 || !strings.Contains(stdout, "not running") {
		t.Errorf("watch status should report not running, got %d: %s", code, stdout)
	}
}

// TestConfigShowRuns validates config show does not panic.
func TestConfigShowRuns(t *testing.T) {
	home(t)
	_, _, code := run(t, "config", "show")
	if code > 1 {
		t.Errorf("config show should exit 0 or 1, got %d", code)
	}
}

// TestAllCommandsHaveHelp validates every command accepts --help.
func TestAllCommandsHaveHelp(t *testing.T) {
	commandPaths := [][]string{
		{"run"}, {"show"}, {"convert"}, {"diff"}, {"shell"}, {"serve"},
		{"template", "list"}, {"template", "show"}, {"template", "apply"},
		{"recipe", "run"}, {"recipe", "validate"},
		{"batch"},
		{"watch", "start"}, {"watch", "status"}, {"watch", "stop"}, {"watch", "config"},
		{"split"}, {"suggest"},
		{"glossary", "search"}, {"glossary", "explain"}, {"glossary", "tips"}, {"glossary", "formula"},
		{"learn", "chat"}, {"learn", "feedback"}, {"learn", "stats"},
		{"project", "save"}, {"project", "list"}, {"project", "show"},
		{"project", "history"}, {"project", "export"}, {"project", "diff"}, {"project", "delete"},
		{"audit", "log"}, {"audit", "status"}, {"audit", "stats"}, {"audit", "clear"},
		{"config", "init"}, {"config", "show"}, {"config", "validate"},
		{"completion", "bash"}, {"completion", "zsh"},
		{"doctor"}, {"version"},
	}

	for _, path := range commandPaths {
		args := append(path, "--help")
		t.Run(strings.Join(path, "_"), func(t *testing.T) {
			_, _, code := run(t, args...)
			if code != 0 {
				t.Errorf("sheetkit %s --help should exit 0", strings.Join(path, " "))
			}
		})
	}
}
