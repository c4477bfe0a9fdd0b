package xlsx

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetkit/internal/table"
)

func sample() *table.Table {
	return table.MustFromRows([]string{"Nome", "Idade", "Ativo", "Obs"}, [][]table.Value{
		{table.String("Alice"), table.Number(30), table.Bool(true), table.Null()},
		{table.String("Bob"), table.Number(25.5), table.Bool(false), table.String("vip")},
	})
}

func TestWriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.xlsx")

	if err := WriteFile(path, Sheet{Name: "Clientes", Table: sample()}); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("WriteFile did not create the file")
	}

	got, err := ReadFile(path, "")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !got.Equal(sample()) {
		t.Errorf("round trip mismatch:\n got %v\nwant %v", got.Rows(), sample().Rows())
	}
}

func TestWriteMultipleSheets(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf,
		Sheet{Name: "Parte 1", Table: sample().Slice(0, 1)},
		Sheet{Name: "Parte 2", Table: sample().Slice(1, 2)},
	)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(bytes.NewReader(buf.Bytes()), "Parte 2")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.Len() != 1 || got.Cell(0, "Nome").Text() != "Bob" {
		t.Errorf("unexpected sheet content: %v", got.Rows())
	}

	if _, err := Read(bytes.NewReader(buf.Bytes()), "Missing"); err == nil {
		t.Error("expected error for missing sheet")
	}
}

func TestBlankFirstRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "multione.xlsx")
	if err := WriteFile(path, Sheet{Table: sample(), BlankFirstRow: true}); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer f.Close()

	a1, _ := f.GetCellValue("Sheet1", "A1")
	a2, _ := f.GetCellValue("Sheet1", "A2")
	if a1 != "" || a2 != "Nome" {
		t.Errorf("expected blank A1 and header in A2, got %q and %q", a1, a2)
	}
}

func TestReadKeepsFormattedText(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_ = f.SetSheetRow("Sheet1", "A1", &[]any{"Codigo", "Codigo"})
	_ = f.SetCellStr("Sheet1", "A2", "00123")
	_ = f.SetCellValue("Sheet1", "B2", 7)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(&buf, "")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if cols := got.Columns(); len(cols) != 2 || cols[0] != "Codigo" || cols[1] != "Codigo_2" {
		t.Errorf("unexpected headers %v", cols)
	}
	if v := got.Cell(0, "Codigo"); v.Kind() != table.KindString || v.Text() != "00123" {
		t.Errorf("expected text 00123, got %v", v)
	}
	if v := got.Cell(0, "Codigo_2"); v.Kind() != table.KindNumber {
		t.Errorf("expected number, got %v", v)
	}
}

func TestReadFileNotFound(t *testing.T) {
	if _, err := ReadFile("/nonexistent/file.xlsx", ""); err == nil {
		t.Error("expected error for missing file")
	}
}
