package watch

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klytics/sheetkit/internal/assistant"
	"github.com/klytics/sheetkit/internal/formats/tabular"
	"github.com/klytics/sheetkit/internal/table"
)

func TestNewWatcher(t *testing.T) {
	w, err := New(Config{Directories: []string{t.TempDir()}, Debounce: 100}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if w == nil {
		t.Fatal("expected non-nil watcher")
	}
	w.Close()
}

func TestMatchesRule(t *testing.T) {
	tests := []struct {
		name string
		path string
		rule Rule
		want bool
	}{
		{"extension", "/tmp/data.xlsx", Rule{Extensions: []string{".xlsx", "csv"}}, true},
		{"extension without dot", "/tmp/data.csv", Rule{Extensions: []string{".xlsx", "csv"}}, true},
		{"other extension", "/tmp/image.png", Rule{Extensions: []string{".xlsx"}}, false},
		{"pattern", "/tmp/clientes_2024.xlsx", Rule{Pattern: "clientes_*.xlsx"}, true},
		{"pattern miss", "/tmp/vendas.xlsx", Rule{Pattern: "clientes_*.xlsx"}, false},
		{"both", "/tmp/clientes_1.csv", Rule{Pattern: "clientes_*", Extensions: []string{".xlsx"}}, false},
		{"no filters", "/tmp/any.json", Rule{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchesRule(tt.path, tt.rule); got != tt.want {
				t.Errorf("matchesRule(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsOutput(t *testing.T) {
	dir := t.TempDir()
	w, _ := New(Config{OutputDir: filepath.Join(dir, "out")}, nil)
	defer w.Close()

	if !w.isOutput(filepath.Join(dir, "out", "a_processado.xlsx")) {
		t.Error("file inside the output dir should be ignored")
	}
	if w.isOutput(filepath.Join(dir, "a.xlsx")) {
		t.Error("file outside the output dir should be processed")
	}
	if w.isOutput(filepath.Join(dir, "outro", "a.xlsx")) {
		t.Error("sibling dir sharing a prefix is not the output dir")
	}
}

func TestWatcherEvents(t *testing.T) {
	dir := t.TempDir()

	w, err := New(Config{
		Directories: []string{dir},
		Rules:       []Rule{{ID: "test-rule", Extensions: []string{".csv"}, Enabled: true}},
		Debounce:    50,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	handlerCalled := make(chan string, 4)
	w.Handler = func(_ context.Context, path string, rule Rule) (string, error) {
		handlerCalled <- path
		return "", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	// Give the watcher time to start
	time.Sleep(100 * time.Millisecond)

	testFile := filepath.Join(dir, "clientes.csv")
	os.WriteFile(testFile, []byte("nome\nana\n"), 0644)

	select {
	case path := <-handlerCalled:
		if path != testFile {
			t.Errorf("expected %q, got %q", testFile, path)
		}
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for handler call")
	}
}

func TestWatcherSkipsOtherFiles(t *testing.T) {
	dir := t.TempDir()

	w, err := New(Config{
		Directories: []string{dir},
		Rules:       []Rule{{ID: "r1", Enabled: true}},
		Debounce:    50,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	handlerCalled := make(chan struct{}, 2)
	w.Handler = func(context.Context, string, Rule) (string, error) {
		handlerCalled <- struct{}{}
		return "", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)
	time.Sleep(100 * time.Millisecond)

	os.WriteFile(filepath.Join(dir, "readme.md"), []byte("test"), 0644)
	os.WriteFile(filepath.Join(dir, "~$lock.xlsx"), []byte("test"), 0644)
	time.Sleep(300 * time.Millisecond)

	select {
	case <-handlerCalled:
		t.Error("handler should not be called for non-spreadsheets or lock files")
	default:
	}
}

func TestRecipeHandler(t *testing.T) {
	dir := t.TempDir()
	recipe := filepath.Join(dir, "recipe.yaml")
	os.WriteFile(recipe, []byte("name: dedupe\nsteps:\n  - command: remover duplicatas\n"), 0644)

	in := filepath.Join(dir, "clientes.csv")
	tb := table.MustFromRows([]string{"nome"}, [][]table.Value{
		{table.String("ana")}, {table.String("ana")}, {table.String("bia")},
	})
	if err := tabular.Save(in, tb); err != nil {
		t.Fatal(err)
	}

	h := RecipeHandler(assistant.New(), filepath.Join(dir, "out"), nil)
	out, err := h(context.Background(), in, Rule{ID: "r", Recipe: recipe})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if out != filepath.Join(dir, "out", "clientes_processado.csv") {
		t.Errorf("unexpected output path %q", out)
	}
	got, err := tabular.Load(out, "")
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 2 {
		t.Errorf("expected 2 rows after dedupe, got %d", got.Len())
	}

	if _, err := h(context.Background(), in, Rule{ID: "none"}); err == nil {
		t.Error("expected error for a rule without recipe")
	}
}

func TestPIDFile(t *testing.T) {
	dir := t.TempDir()

	if err := WritePIDFile(dir); err != nil {
		t.Fatal(err)
	}
	pid, err := ReadPIDFile(dir)
	if err != nil {
		t.Fatal(err)
	}
	if pid != os.Getpid() {
		t.Errorf("expected PID %d, got %d", os.Getpid(), pid)
	}
	if err := RemovePIDFile(dir); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPIDFile(dir); err == nil {
		t.Error("expected error after removing PID file")
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watch.yaml")

	config := Config{
		Directories: []string{"/tmp/entrada"},
		Rules:       []Rule{{ID: "r1", Extensions: []string{".xlsx"}, Recipe: "limpeza.yaml", Enabled: true}},
		Recursive:   true,
		Debounce:    500,
		OutputDir:   "/tmp/saida",
	}
	if err := SaveConfig(path, config); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Directories) != 1 || loaded.Directories[0] != "/tmp/entrada" {
		t.Errorf("directories mismatch: %v", loaded.Directories)
	}
	if !loaded.Recursive || loaded.OutputDir != "/tmp/saida" {
		t.Errorf("unexpected config %+v", loaded)
	}
	if len(loaded.Rules) != 1 || loaded.Rules[0].Recipe != "limpeza.yaml" {
		t.Errorf("rules mismatch: %+v", loaded.Rules)
	}

	os.WriteFile(path, []byte("rules: []\n"), 0644)
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for config without directories")
	}
}

func TestGetStatus(t *testing.T) {
	w, _ := New(Config{
		Directories: []string{"/tmp/a", "/tmp/b"},
		Rules:       []Rule{{ID: "r1"}, {ID: "r2"}},
	}, nil)
	defer w.Close()

	status := w.GetStatus()
	if status.Running {
		t.Error("watcher that was never started should not report running")
	}
	if len(status.Directories) != 2 || status.Rules != 2 {
		t.Errorf("unexpected status %+v", status)
	}
}

func TestEventJSON(t *testing.T) {
	evt := Event{Time: time.Now(), Path: "/tmp/a.xlsx", Operation: "CREATE", RuleID: "r1", Status: "processed"}

	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Event
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Path != "/tmp/a.xlsx" || decoded.Status != "processed" {
		t.Errorf("unexpected event %+v", decoded)
	}
}

func TestDefaultDebounce(t *testing.T) {
	w, _ := New(Config{}, nil)
	defer w.Close()

	if w.Config.Debounce != DefaultDebounce {
		t.Errorf("expected default debounce %d, got %d", DefaultDebounce, w.Config.Debounce)
	}
}

func TestLoadSampleConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "testdata", "watch.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Rules) != 1 || cfg.Rules[0].Pattern != "clientes_*" || !cfg.Rules[0].Enabled {
		t.Fatalf("unexpected rules: %+v", cfg.Rules)
	}
	if cfg.OutputDir != "./saida" || cfg.Debounce != 500 {
		t.Errorf("got output_dir=%q debounce=%d", cfg.OutputDir, cfg.Debounce)
	}
}
