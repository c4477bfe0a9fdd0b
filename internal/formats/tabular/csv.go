package tabular

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/klytics/sheetkit/internal/table"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV reads a CSV whose first line holds the headers. Both "," and the
// ";" used by Brazilian Excel exports are accepted: whichever occurs more
// often in the header line wins. Empty cells are null; all others are
// text.
func ReadCSV(r io.Reader) (*table.Table, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(3)
	if err == nil && bytes.Equal(head, bom) {
		_, _ = br.Discard(3)
	}

	first, _ := br.Peek(4096)
	if i := bytes.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		cr.Comma = ';'
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %w", err)
	}
	if len(records) == 0 {
		return &table.Table{}, nil
	}

	headers := table.Headers(records[0])
	rows := make([][]table.Value, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) > len(headers) {
			rec = rec[:len(headers)]
		}
		row := make([]table.Value, len(rec))
		for i, cell := range rec {
			row[i] = table.StringOrNull(cell)
		}
		rows = append(rows, row)
	}
	return table.FromRows(headers, rows)
}

// WriteCSV writes t with a header line. blankFirstRow prepends an empty
// line, as the contact import format requires.
func WriteCSV(w io.Writer, t *table.Table, blankFirstRow bool) error {
	cw := csv.NewWriter(w)
	if blankFirstRow {
		if err := cw.Write(make([]string, t.Width())); err != nil {
			return err
		}
	}
	if err := cw.Write(t.Columns()); err != nil {
		return err
	}
	for r := 0; r < t.Len(); r++ {
		cells := t.Row(r)
		rec := make([]string, len(cells))
		for i, v := range cells {
			rec[i] = v.Text()
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
