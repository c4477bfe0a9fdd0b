// Package output provides formatting utilities for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/klytics/sheetkit/internal/formats/tabular"
	"github.com/klytics/sheetkit/internal/table"
)

// Format represents an output format.
type Format int

const (
	// FormatText is plain text output.
	FormatText Format = iota
	// FormatJSON is JSON output.
	FormatJSON
	// FormatMarkdown is Markdown output.
	FormatMarkdown
)

// ParseFormat maps the output.format config value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return FormatText, fmt.Errorf("unknown output format %q (use text, json or markdown)", s)
	}
}

// DefaultPreviewRows is how many rows WriteTable shows when no limit is given.
const DefaultPreviewRows = 20

// Writer handles formatted output to a destination.
type Writer struct {
	dest   io.Writer
	format Format
}

// NewWriter creates a new output writer with the given format.
func NewWriter(format Format) *Writer {
	return NewWriterTo(os.Stdout, format)
}

// NewWriterTo creates a writer on an arbitrary destination.
func NewWriterTo(dest io.Writer, format Format) *Writer {
	return &Writer{dest: dest, format: format}
}

// Format reports the writer's format.
func (w *Writer) Format() Format { return w.format }

// WriteJSON encodes a value as pretty-printed JSON.
func (w *Writer) WriteJSON(v any) error {
	enc := json.NewEncoder(w.dest)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteText writes plain text.
func (w *Writer) WriteText(s string) error {
	_, err := fmt.Fprint(w.dest, s)
	return err
}

// WriteLn writes a line of text.
func (w *Writer) WriteLn(s string) error {
	_, err := fmt.Fprintln(w.dest, s)
	return err
}

// WriteTable renders the first limit rows of t in the writer's format. A
// limit <= 0 shows DefaultPreviewRows; JSON output always holds every row.
func (w *Writer) WriteTable(t *table.Table, limit int) error {
	if w.format == FormatJSON {
		return w.WriteJSON(t)
	}
	if limit <= 0 {
		limit = DefaultPreviewRows
	}
	shown := t
	if t.Len() > limit {
		shown = t.Slice(0, limit)
	}

	if w.format == FormatMarkdown {
		if err := w.WriteText(tabular.ToMarkdown(shown)); err != nil {
			return err
		}
	} else {
		if t.Width() == 0 {
			return w.WriteLn(dim.Sprint("(tabela vazia)"))
		}
		pt := prettytable.NewWriter()
		pt.SetOutputMirror(w.dest)
		pt.SetStyle(prettytable.StyleLight)
		// Column names are shown as they are, never upper-cased.
		pt.Style().Format.Header = text.FormatDefault

		header := make(prettytable.Row, t.Width())
		for i, c := range t.Columns() {
			header[i] = c
		}
		pt.AppendHeader(header)
		for r := 0; r < shown.Len(); r++ {
			cells := shown.Row(r)
			row := make(prettytable.Row, len(cells))
			for i, v := range cells {
				row[i] = formatCell(v)
			}
			pt.AppendRow(row)
		}
		pt.Render()
	}

	if t.Len() > shown.Len() {
		return w.WriteLn(dim.Sprintf("(%d de %d linhas)", shown.Len(), t.Len()))
	}
	if t.Len() == 1 {
		return w.WriteLn(dim.Sprint("(1 linha)"))
	}
	return w.WriteLn(dim.Sprintf("(%d linhas)", t.Len()))
}

func formatCell(v table.Value) string {
	if v.IsNull() {
		return "∅"
	}
	s := v.Text()
	if len([]rune(s)) > 40 {
		s = string([]rune(s)[:37]) + "..."
	}
	return s
}

var (
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	dim    = color.New(color.FgHiBlack)
	bold   = color.New(color.Bold, color.FgCyan)
)

// Success writes a green message line.
func (w *Writer) Success(msg string) error { return w.WriteLn(green.Sprint(msg)) }

// Failure writes a red message line.
func (w *Writer) Failure(msg string) error { return w.WriteLn(red.Sprint(msg)) }

// Warn writes a yellow message line.
func (w *Writer) Warn(msg string) error { return w.WriteLn(yellow.Sprint(msg)) }

// Heading writes a bold cyan line.
func (w *Writer) Heading(msg string) error { return w.WriteLn(bold.Sprint(msg)) }

// Dim writes a grey line.
func (w *Writer) Dim(msg string) error { return w.WriteLn(dim.Sprint(msg)) }

// WriteError writes an error message to stderr.
func WriteError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
