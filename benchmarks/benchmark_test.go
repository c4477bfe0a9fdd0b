package benchmarks

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/klytics/sheetkit/internal/assistant"
	"github.com/klytics/sheetkit/internal/formats/tabular"
	"github.com/klytics/sheetkit/internal/formats/xlsx"
	"github.com/klytics/sheetkit/internal/intent"
	"github.com/klytics/sheetkit/internal/learning"
	"github.com/klytics/sheetkit/internal/reshape"
	"github.com/klytics/sheetkit/internal/table"
)

var sampleXlsx = filepath.Join("..", "testdata", "sample.xlsx")

// contacts builds n rows where every tenth row repeats an earlier one.
func contacts(n int) *table.Table {
	rows := make([][]table.Value, n)
	for i := range rows {
		k := i
		if i%10 == 9 {
			k = i - 9
		}
		rows[i] = []table.Value{
			table.String(fmt.Sprintf("Cliente %d da Silva", k)),
			table.String(fmt.Sprintf("cliente%d@exemplo.com.br", k)),
			table.String(fmt.Sprintf("(81) 9%04d-%04d", k%10000, k%7919)),
			table.String(fmt.Sprintf("%02d.%03d.%03d/0001-%02d", k%100, k%1000, k%997, k%97)),
			table.Number(float64(k%500) * 1.5),
		}
	}
	return table.MustFromRows([]string{"Nome Completo", "Email", "Telefone", "CNPJ", "Valor"}, rows)
}

// --- Classification ---

func BenchmarkClassify(b *testing.B) {
	commands := []string{
		"remover duplicatas",
		"separar nome completo",
		"ordenar por valor decrescente",
		"adicionar coluna com domínio do email",
		"limpar cnpj",
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		intent.Classify(commands[i%len(commands)])
	}
}

func BenchmarkClassifyPatterns(b *testing.B) {
	sample := contacts(20)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		intent.ClassifyPatterns("quais são os duplicados no email?", sample)
	}
}

// --- Processing ---

func benchmarkProcess(b *testing.B, command string, rows int) {
	proc := assistant.New()
	t := contacts(rows)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := proc.Process(ctx, command, t); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkProcessDedupe1k(b *testing.B)  { benchmarkProcess(b, "remover duplicatas", 1000) }
func BenchmarkProcessDedupe10k(b *testing.B) { benchmarkProcess(b, "remover duplicatas", 10000) }
func BenchmarkProcessSplitName(b *testing.B) { benchmarkProcess(b, "separar nome", 1000) }
func BenchmarkProcessSort(b *testing.B)      { benchmarkProcess(b, "ordenar por valor", 10000) }

func BenchmarkContacts(b *testing.B) {
	t := contacts(5000)
	opts := reshape.DefaultContactOptions()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reshape.Contacts(t, opts)
	}
}

func BenchmarkSimilarity(b *testing.B) {
	for i := 0; i < b.N; i++ {
		learning.Similarity("como faço para somar uma coluna?", "como eu somo os valores da coluna")
	}
}

// --- XLSX / CSV ---

func BenchmarkXlsxRead(b *testing.B) {
	if _, err := os.Stat(sampleXlsx); os.IsNotExist(err) {
		b.Skip("sample.xlsx not found — run 'go run testdata/generate_fixtures.go'")
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := xlsx.ReadFile(sampleXlsx, ""); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkXlsxWrite(b *testing.B) {
	t := contacts(1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		if err := xlsx.Write(&buf, xlsx.Sheet{Name: "Clientes", Table: t}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCSVRoundTrip(b *testing.B) {
	t := contacts(1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		if err := tabular.WriteCSV(&buf, t, false); err != nil {
			b.Fatal(err)
		}
		if _, err := tabular.ReadCSV(&buf); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExportPartsZip(b *testing.B) {
	parts := reshape.Chunks(contacts(1000), tabular.ContactChunkSize)
	dir := b.TempDir()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := tabular.ExportParts(parts, tabular.PartOptions{
			Dir: dir, Base: "contatos", Format: tabular.CSV, BlankFirstRow: true, Zip: true,
		})
		if err != nil {
			b.Fatal(err)
		}
	}
}
