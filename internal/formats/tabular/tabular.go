// Package tabular loads and saves tables in every file format sheetkit
// understands. The format is picked from the file extension.
package tabular

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klytics/sheetkit/internal/formats/xlsx"
	"github.com/klytics/sheetkit/internal/table"
)

// Format is a supported file format.
type Format string

const (
	XLSX     Format = "xlsx"
	CSV      Format = "csv"
	JSON     Format = "json"
	Markdown Format = "md"
)

// Readable lists the formats Load accepts; every format can be written.
var Readable = []Format{XLSX, CSV, JSON}

// Detect maps a file name to its format.
func Detect(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		return XLSX, nil
	case ".csv", ".txt":
		return CSV, nil
	case ".json":
		return JSON, nil
	case ".md", ".markdown":
		return Markdown, nil
	default:
		return "", fmt.Errorf("unsupported file type %q — use .xlsx, .csv or .json", ext)
	}
}

// ParseFormat validates a format name given on the command line.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.TrimPrefix(strings.ToLower(s), ".")); f {
	case XLSX, CSV, JSON, Markdown:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (use xlsx, csv, json or md)", s)
	}
}

// Load reads a table from path. sheet selects an .xlsx worksheet and is
// ignored by other formats.
func Load(path, sheet string) (*table.Table, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, err
	}
	if format == XLSX {
		return xlsx.ReadFile(path, sheet)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Decode(f, format, sheet)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	return t, nil
}

// Decode reads a table in the given format.
func Decode(r io.Reader, format Format, sheet string) (*table.Table, error) {
	switch format {
	case XLSX:
		return xlsx.Read(r, sheet)
	case CSV:
		return ReadCSV(r)
	case JSON:
		return readJSON(r)
	default:
		return nil, fmt.Errorf("%s files cannot be read", format)
	}
}

// Save writes t to path, creating parent directories.
func Save(path string, t *table.Table) error {
	format, err := Detect(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create %s: %w", filepath.Dir(path), err)
	}
	if format == XLSX {
		return xlsx.WriteFile(path, xlsx.Sheet{Table: t})
	}

	var buf bytes.Buffer
	if err := Encode(&buf, format, t); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return nil
}

// Encode writes t in the given format.
func Encode(w io.Writer, format Format, t *table.Table) error {
	switch format {
	case XLSX:
		return xlsx.Write(w, xlsx.Sheet{Table: t})
	case CSV:
		return WriteCSV(w, t, false)
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	case Markdown:
		_, err := io.WriteString(w, ToMarkdown(t))
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// readJSON accepts either the {"columns": [...], "data": [...]} payload or
// a bare array of records.
func readJSON(r io.Reader) (*table.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []map[string]any
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("invalid JSON records: %w", err)
		}
		return table.FromRecords(nil, records)
	}
	t := &table.Table{}
	if err := json.Unmarshal(trimmed, t); err != nil {
		return nil, fmt.Errorf("invalid JSON table: %w", err)
	}
	return t, nil
}

// ToMarkdown renders t as a GFM table. Pipes inside cells are escaped.
func ToMarkdown(t *table.Table) string {
	headers := t.Columns()
	if len(headers) == 0 {
		return ""
	}
	var b strings.Builder

	// Header row
	b.WriteString("| ")
	b.WriteString(strings.Join(escapePipes(headers), " | "))
	b.WriteString(" |\n")

	// Separator row
	b.WriteString("|")
	for range headers {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")

	// Data rows
	for r := 0; r < t.Len(); r++ {
		cells := make([]string, len(headers))
		for i, v := range t.Row(r) {
			cells[i] = v.Text()
		}
		b.WriteString("| ")
		b.WriteString(strings.Join(escapePipes(cells), " | "))
		b.WriteString(" |\n")
	}
	return b.String()
}

func escapePipes(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ReplaceAll(strings.ReplaceAll(c, "|", `\|`), "\n", " ")
	}
	return out
}
