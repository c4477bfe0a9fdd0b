package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klytics/sheetkit/internal/audit"
	"github.com/klytics/sheetkit/internal/formats/tabular"
	"github.com/klytics/sheetkit/internal/formats/xlsx"
	"github.com/klytics/sheetkit/internal/table"
)

// execute runs the CLI with a private config home and the history store
// disabled.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("SHEETKIT_HOME", t.TempDir())
	t.Setenv("SHEETKIT_STORE_ENABLED", "false")
	t.Setenv("SHEETKIT_NO_PROGRESS", "1")

	root := NewRootCommand()
	root.SetArgs(append(args, "--no-color"))
	return root.Execute()
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const clientes = `Nome,Email,Cidade
Ana Souza,ana@exemplo.com,Recife
Bruno Lima,bruno@exemplo.com,Natal
Ana Souza,ana@exemplo.com,Recife
`

func TestRootRegistersCommands(t *testing.T) {
	root := NewRootCommand()
	for _, name := range []string{
		"run", "show", "convert", "shell", "serve", "template", "recipe", "batch", "watch", "split", "diff", "audit",
		"glossary", "suggest", "learn", "project", "config", "doctor", "completion", "version",
	} {
		found, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, found.Name())
	}
}

func TestRunSavesTransformedTable(t *testing.T) {
	in := writeFile(t, "clientes.csv", clientes)
	out := filepath.Join(t.TempDir(), "limpo.csv")

	require.NoError(t, execute(t, "run", in, "remover", "duplicatas", "-o", out, "--json"))

	got, err := tabular.Load(out, "")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
	assert.Equal(t, []string{"Nome", "Email", "Cidade"}, got.Columns())
}

func TestRunRejectsOutputAndInPlace(t *testing.T) {
	in := writeFile(t, "clientes.csv", clientes)
	err := execute(t, "run", in, "remover duplicatas", "-o", "x.csv", "--in-place", "--json")
	require.Error(t, err)
}

func TestRunMissingFile(t *testing.T) {
	err := execute(t, "run", filepath.Join(t.TempDir(), "nada.csv"), "remover duplicatas", "--json")
	require.Error(t, err)
}

func TestRunUnknownCommandWritesNothing(t *testing.T) {
	in := writeFile(t, "clientes.csv", clientes)
	out := filepath.Join(t.TempDir(), "limpo.csv")

	require.NoError(t, execute(t, "run", in, "xyzzy abracadabra", "-o", out, "--json"))

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err), "an unapplied command must not write the output file")
}

func TestSplitWritesParts(t *testing.T) {
	in := writeFile(t, "clientes.csv", clientes)
	dir := t.TempDir()

	require.NoError(t, execute(t, "split", in, "--parts", "2", "--out-dir", dir, "--json"))

	for _, name := range []string{"clientes_parte_1.csv", "clientes_parte_2.csv"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestSplitRejectsPartsAndChunkSize(t *testing.T) {
	in := writeFile(t, "clientes.csv", clientes)
	require.Error(t, execute(t, "split", in, "--parts", "2", "--chunk-size", "10", "--json"))
}

func TestTemplateApply(t *testing.T) {
	in := writeFile(t, "clientes.csv", clientes)
	out := filepath.Join(t.TempDir(), "contatos.csv")

	require.NoError(t, execute(t, "template", "apply", "clean_all", in, "-o", out, "--json"))

	got, err := tabular.Load(out, "")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
}

func TestTemplateApplyUnknown(t *testing.T) {
	in := writeFile(t, "clientes.csv", clientes)
	require.Error(t, execute(t, "template", "apply", "nao_existe", in, "--json"))
}

func TestRecipeRun(t *testing.T) {
	in := writeFile(t, "clientes.csv", clientes)
	recipe := writeFile(t, "limpar.yaml", `name: limpar
steps:
  - id: dedupe
    command: remover duplicatas
`)
	out := filepath.Join(t.TempDir(), "final.csv")

	require.NoError(t, execute(t, "recipe", "run", recipe, in, "-o", out, "--json"))

	got, err := tabular.Load(out, "")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
}

func TestRecipeDryRunWritesNothing(t *testing.T) {
	in := writeFile(t, "clientes.csv", clientes)
	recipe := writeFile(t, "limpar.yaml", "name: limpar\nsteps:\n  - command: remover duplicatas\n")
	out := filepath.Join(t.TempDir(), "final.csv")

	require.NoError(t, execute(t, "recipe", "run", recipe, in, "-o", out, "--dry-run", "--json"))

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.csv", "b.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(clientes), 0o644))
	}
	outDir := t.TempDir()

	require.NoError(t, execute(t, "batch", filepath.Join(dir, "*.csv"),
		"--command", "remover duplicatas", "--out-dir", outDir, "--concurrency", "2", "--json"))

	for _, name := range []string{"a_processado.csv", "b_processado.csv"} {
		got, err := tabular.Load(filepath.Join(outDir, name), "")
		require.NoError(t, err, name)
		assert.Equal(t, 2, got.Len())
	}
}

func TestBatchNeedsOneAction(t *testing.T) {
	require.Error(t, execute(t, "batch", "*.csv", "--json"))
}

func TestBadModeIsRejected(t *testing.T) {
	in := writeFile(t, "clientes.csv", clientes)
	require.Error(t, execute(t, "run", in, "remover duplicatas", "--mode", "turbo", "--json"))
}

func TestDiffStats(t *testing.T) {
	a := writeFile(t, "antes.csv", clientes)
	b := writeFile(t, "depois.csv", "Nome,Email,Cidade\nAna Souza,ana@exemplo.com,Recife\nBruno Lima,bruno@exemplo.com,Natal\n")
	require.NoError(t, execute(t, "diff", a, b, "--stats"))
}

func TestDiffMissingFile(t *testing.T) {
	a := writeFile(t, "antes.csv", clientes)
	assert.Error(t, execute(t, "diff", a, filepath.Join(t.TempDir(), "nada.csv")))
}

func TestRecordWritesAuditEntry(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SHEETKIT_HOME", home)
	t.Setenv("SHEETKIT_STORE_ENABLED", "false")
	t.Setenv("SHEETKIT_NO_PROGRESS", "1")
	t.Setenv("SHEETKIT_AUDIT_ENABLED", "true")

	in := writeFile(t, "clientes.csv", clientes)
	out := filepath.Join(t.TempDir(), "limpo.csv")

	root := NewRootCommand()
	root.SetArgs([]string{"run", in, "remover", "duplicatas", "-o", out, "--json", "--no-color"})
	called, err := root.ExecuteC()
	require.NoError(t, err)
	record(context.Background(), called, time.Now(), 0)

	entries, err := audit.ReadEntries(filepath.Join(home, "audit.log"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run", entries[0].Command)
	assert.Equal(t, in, entries[0].InputFile)
	assert.Equal(t, out, entries[0].OutputFile)
	assert.Zero(t, entries[0].ExitCode)
}

func TestRecordSkipsVersion(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SHEETKIT_HOME", home)
	t.Setenv("SHEETKIT_AUDIT_ENABLED", "true")

	root := NewRootCommand()
	root.SetArgs([]string{"version"})
	called, err := root.ExecuteC()
	require.NoError(t, err)
	record(context.Background(), called, time.Now(), 0)

	_, err = os.Stat(filepath.Join(home, "audit.log"))
	assert.True(t, os.IsNotExist(err))
}

func TestAuditStatus(t *testing.T) {
	require.NoError(t, execute(t, "audit", "status", "--json"))
}

func TestShowSheets(t *testing.T) {
	in := filepath.Join(t.TempDir(), "vendas.xlsx")
	require.NoError(t, xlsx.WriteFile(in,
		xlsx.Sheet{Name: "Janeiro", Table: table.MustFromRows([]string{"Valor"}, [][]table.Value{{table.Number(1)}})},
		xlsx.Sheet{Name: "Fevereiro", Table: table.MustFromRows([]string{"Valor"}, [][]table.Value{{table.Number(2)}})},
	))
	require.NoError(t, execute(t, "show", in, "--sheets"))
	require.NoError(t, execute(t, "show", in, "--sheet", "Fevereiro", "--json"))
	assert.Error(t, execute(t, "show", in, "--sheet", "Março"))
}

func TestConvertCSVToXLSX(t *testing.T) {
	in := writeFile(t, "clientes.csv", clientes)
	out := filepath.Join(t.TempDir(), "clientes.xlsx")

	require.NoError(t, execute(t, "convert", in, out))

	got, err := tabular.Load(out, "")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Len())
	assert.Equal(t, []string{"Nome", "Email", "Cidade"}, got.Columns())
}

func TestConvertAllSheetsToCSV(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "vendas.xlsx")
	require.NoError(t, xlsx.WriteFile(in,
		xlsx.Sheet{Name: "Janeiro", Table: table.MustFromRows([]string{"Valor"}, [][]table.Value{{table.Number(1)}})},
		xlsx.Sheet{Name: "Fevereiro", Table: table.MustFromRows([]string{"Valor"}, [][]table.Value{{table.Number(2)}, {table.Number(3)}})},
	))

	require.NoError(t, execute(t, "convert", in, filepath.Join(dir, "vendas.csv"), "--all-sheets"))

	feb, err := tabular.Load(filepath.Join(dir, "vendas_Fevereiro.csv"), "")
	require.NoError(t, err)
	assert.Equal(t, 2, feb.Len())
	assert.FileExists(t, filepath.Join(dir, "vendas_Janeiro.csv"))
}

func TestConvertAllSheetsNeedsXLSX(t *testing.T) {
	in := writeFile(t, "clientes.csv", clientes)
	assert.Error(t, execute(t, "convert", in, filepath.Join(t.TempDir(), "x.json"), "--all-sheets"))
}
