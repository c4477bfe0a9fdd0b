package app

import (
	"fmt"

	"github.com/klytics/sheetkit/internal/assistant"
	"github.com/klytics/sheetkit/internal/output"
)

// WriteResponse prints a processor response in the writer's format: the
// full response as JSON, or the message, a table preview, references and
// hints as text.
func WriteResponse(w *output.Writer, resp *assistant.Response, preview int) error {
	if w.Format() == output.FormatJSON {
		return w.WriteJSON(resp)
	}

	switch {
	case resp.Success && resp.Kind == assistant.KindTransform:
		w.Success(resp.Message)
	case resp.Success:
		w.WriteLn(resp.Message)
	default:
		w.Warn(resp.Message)
	}

	if resp.Kind == assistant.KindTransform && resp.Success && resp.Table.Width() > 0 {
		w.WriteLn("")
		if err := w.WriteTable(resp.Table, preview); err != nil {
			return err
		}
	}
	for _, f := range resp.References {
		w.Dim(fmt.Sprintf("  %s — %s", f.Syntax, f.Description))
	}
	for _, s := range resp.Suggestions {
		w.WriteLn("  " + s)
	}
	return nil
}
