package shell

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/klytics/sheetkit/internal/assistant"
	"github.com/klytics/sheetkit/internal/formats/tabular"
	"github.com/klytics/sheetkit/internal/learning"
	"github.com/klytics/sheetkit/internal/table"
)

func init() { color.NoColor = true }

type recordingTranscript struct {
	roles []string
}

func (r *recordingTranscript) Log(_ context.Context, role, _ string) error {
	r.roles = append(r.roles, role)
	return nil
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(assistant.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Table = table.MustFromRows([]string{"nome", "cidade"}, [][]table.Value{
		{table.String("bia"), table.String("Recife")},
		{table.String("ana"), table.String("Olinda")},
		{table.String("ana"), table.String("Olinda")},
	})
	return s
}

func TestNewSession(t *testing.T) {
	s, err := NewSession(assistant.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.History) != 0 {
		t.Errorf("expected empty history, got %d entries", len(s.History))
	}
	if s.HistoryFile == "" {
		t.Error("expected history file path to be set")
	}
	if _, err := NewSession(nil); err == nil {
		t.Error("expected error without a processor")
	}
}

func TestEvalTransformAndUndo(t *testing.T) {
	s := newTestSession(t)
	tr := &recordingTranscript{}
	s.Transcript = tr

	out, err := s.Eval(context.Background(), "remover duplicatas")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Table.Len() != 2 {
		t.Errorf("expected 2 rows after dedupe, got %d", s.Table.Len())
	}
	if !strings.Contains(out, "ana") {
		t.Errorf("expected a preview in the output, got %q", out)
	}
	if len(tr.roles) != 2 || tr.roles[0] != "user" || tr.roles[1] != "assistant" {
		t.Errorf("unexpected transcript %v", tr.roles)
	}

	if _, err := s.Eval(context.Background(), "desfazer"); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if s.Table.Len() != 3 {
		t.Errorf("expected 3 rows after undo, got %d", s.Table.Len())
	}
	if _, err := s.Eval(context.Background(), "desfazer"); err == nil {
		t.Error("expected error with an empty undo stack")
	}
}

func TestEvalUnknownCommandKeepsTable(t *testing.T) {
	s := newTestSession(t)
	before := s.Table

	if _, err := s.Eval(context.Background(), "faça algo estranho"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Table != before {
		t.Error("an unrecognized command must not replace the table")
	}
	if _, err := s.Eval(context.Background(), "desfazer"); err == nil {
		t.Error("nothing should have been pushed on the undo stack")
	}
}

func TestEvalBuiltins(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	out, _ := s.Eval(ctx, "colunas")
	if out != "nome, cidade\n" {
		t.Errorf("colunas = %q", out)
	}

	out, _ = s.Eval(ctx, "ajuda")
	if !strings.Contains(out, "abrir") {
		t.Error("help should list the shell commands")
	}

	if _, err := s.Eval(ctx, "mostrar abc"); err == nil {
		t.Error("expected error for a bad row count")
	}
	out, err := s.Eval(ctx, "mostrar 1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "bia") || strings.Contains(out, "Olinda") {
		t.Errorf("mostrar 1 should show only the first row, got %q", out)
	}

	out, _ = s.Eval(ctx, "template")
	if !strings.Contains(out, "normalize_contacts") {
		t.Error("template without args should list templates")
	}

	if _, err := s.Eval(ctx, "sair"); !errors.Is(err, errExit) {
		t.Errorf("expected errExit, got %v", err)
	}
}

func TestEvalTemplate(t *testing.T) {
	s := newTestSession(t)
	out, err := s.Eval(context.Background(), "template clean_all")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Table.Len() != 2 {
		t.Errorf("expected dedupe by clean_all, got %d rows", s.Table.Len())
	}
	if out == "" {
		t.Error("expected the list of changes")
	}
	if _, err := s.Eval(context.Background(), "template nao_existe"); err == nil {
		t.Error("expected error for an unknown template")
	}
}

func TestEvalWithoutTable(t *testing.T) {
	s, _ := NewSession(assistant.New())
	for _, cmd := range []string{"colunas", "mostrar", "salvar x.csv", "sugestoes"} {
		if _, err := s.Eval(context.Background(), cmd); err == nil {
			t.Errorf("%s: expected error without a table", cmd)
		}
	}
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "clientes.csv")
	if err := tabular.Save(in, newTestSession(t).Table); err != nil {
		t.Fatal(err)
	}

	s, _ := NewSession(assistant.New())
	if _, err := s.Eval(context.Background(), "abrir "+in); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.Table.Len() != 3 || s.Path != in {
		t.Errorf("unexpected session state: %d rows, path %q", s.Table.Len(), s.Path)
	}

	out := filepath.Join(dir, "saida.xlsx")
	if _, err := s.Eval(context.Background(), "salvar "+out); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := tabular.Load(out, "")
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 3 {
		t.Errorf("expected 3 saved rows, got %d", got.Len())
	}
}

func TestUndoStackIsBounded(t *testing.T) {
	s := newTestSession(t)
	for i := 0; i < MaxUndo+5; i++ {
		s.pushUndo()
	}
	if len(s.undo) != MaxUndo {
		t.Errorf("expected %d undo entries, got %d", MaxUndo, len(s.undo))
	}
}

func TestHistoryGrows(t *testing.T) {
	s := newTestSession(t)
	s.Eval(context.Background(), "colunas")
	s.Eval(context.Background(), "ordenar por nome")
	s.Eval(context.Background(), "historico")

	if len(s.History) != 2 {
		t.Errorf("expected 2 history entries, got %d", len(s.History))
	}
}

func TestHistoryShowsWorkingCommands(t *testing.T) {
	mem := learning.NewContext(0)
	s := newTestSession(t)
	s.Processor = assistant.New(assistant.WithRecorder(mem))
	s.Memory = mem

	ctx := context.Background()
	s.Eval(ctx, "ordenar por nome")
	s.Eval(ctx, "remover duplicatas")
	s.Eval(ctx, "zzzz wwww")

	out, err := s.Eval(ctx, "historico")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "\nComandos que funcionaram:\n" +
		"  REMOVE_DUPLICATES: remover duplicatas\n" +
		"  SORT: ordenar por nome\n"
	if !strings.HasSuffix(out, want) {
		t.Errorf("historico output = %q, want suffix %q", out, want)
	}
	if len(mem.History()) != 3 {
		t.Errorf("expected 3 remembered commands, got %d", len(mem.History()))
	}
}

func TestComplete(t *testing.T) {
	s := newTestSession(t)

	got := s.Complete("des")
	if len(got) != 1 || got[0] != "desfazer" {
		t.Errorf("Complete(des) = %v", got)
	}
	got = s.Complete("template power")
	if len(got) != 1 || got[0] != "powerbi_ready" {
		t.Errorf("Complete(template power) = %v", got)
	}
	if len(s.Complete("")) != len(builtins) {
		t.Error("empty input should offer every builtin")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{5 * time.Second, "5s"},
		{30 * time.Second, "30s"},
		{90 * time.Second, "1m 30s"},
		{5*time.Minute + 15*time.Second, "5m 15s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
