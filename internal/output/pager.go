package output

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"strings"
)

// PagerHeight is the line count above which interactive output is paged.
const PagerHeight = 40

// ShouldPage returns true if output should be piped through a pager.
// This checks if stdout is a terminal and the content exceeds termHeight.
func ShouldPage(content string, termHeight int) bool {
	if !isTerminal() {
		return false
	}
	return strings.Count(content, "\n") > termHeight
}

// Page pipes content through the user's preferred pager (SHEETKIT_PAGER,
// PAGER, or "less -R" so colors survive).
func Page(content string) error {
	pager := os.Getenv("SHEETKIT_PAGER")
	if pager == "" {
		pager = os.Getenv("PAGER")
	}
	args := []string{}
	if pager == "" {
		pager, args = "less", []string{"-R"}
	}

	cmd := exec.Command(pager, args...)
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// PageOrWrite pages long content on a terminal and otherwise writes it to
// w unchanged. A failing pager falls back to w.
func PageOrWrite(w io.Writer, content string) error {
	if ShouldPage(content, PagerHeight) {
		if err := Page(content); err == nil {
			return nil
		}
	}
	_, err := io.WriteString(w, content)
	return err
}

// Paged renders fn into a buffer and pages the result when the writer is
// stdout. JSON output and other destinations are written directly.
func (w *Writer) Paged(fn func(*Writer) error) error {
	if w.format == FormatJSON || w.dest != io.Writer(os.Stdout) {
		return fn(w)
	}
	var buf bytes.Buffer
	if err := fn(NewWriterTo(&buf, w.format)); err != nil {
		return err
	}
	return PageOrWrite(w.dest, buf.String())
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
