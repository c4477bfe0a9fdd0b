// Package actions provides built-in recipe step implementations.
package actions

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klytics/sheetkit/internal/assistant"
	"github.com/klytics/sheetkit/internal/formats/tabular"
	"github.com/klytics/sheetkit/internal/pipeline"
	"github.com/klytics/sheetkit/internal/reshape"
	"github.com/klytics/sheetkit/internal/table"
	"github.com/klytics/sheetkit/internal/templates"
)

// Processor runs natural-language commands; *assistant.Processor
// satisfies it.
type Processor interface {
	Process(ctx context.Context, command string, t *table.Table) (*assistant.Response, error)
}

// RegisterAll registers all built-in actions with the given executor.
func RegisterAll(exec *pipeline.Executor, proc Processor) {
	exec.RegisterAction("command", CommandAction(proc))
	exec.RegisterAction("template", TemplateAction)
	exec.RegisterAction("load", LoadAction)
	exec.RegisterAction("save", SaveAction)
	exec.RegisterAction("split", SplitAction)
}

// CommandAction runs step.Command through proc. A command that is not
// understood, or that fails, is a step error.
func CommandAction(proc Processor) pipeline.ActionFunc {
	return func(ctx context.Context, step pipeline.Step, t *table.Table) (*table.Table, string, error) {
		if strings.TrimSpace(step.Command) == "" {
			return nil, "", fmt.Errorf("command step %q has an empty command", step.ID)
		}
		if t.Empty() {
			return nil, "", fmt.Errorf("no table loaded — add a load step or pass an input file")
		}
		resp, err := proc.Process(ctx, step.Command, t)
		if err != nil {
			return nil, "", err
		}
		if !resp.Success || resp.Kind != assistant.KindTransform {
			return nil, "", fmt.Errorf("command %q was not applied: %s", step.Command, resp.Message)
		}
		return resp.Table, resp.Message, nil
	}
}

// TemplateAction applies the cleanup template named by step.Template.
func TemplateAction(_ context.Context, step pipeline.Step, t *table.Table) (*table.Table, string, error) {
	if step.Template == "" {
		return nil, "", fmt.Errorf("template step %q needs a 'template' field", step.ID)
	}
	res, err := templates.Apply(step.Template, t)
	if err != nil {
		return nil, "", err
	}
	return res.Table, strings.Join(res.Changes, "; "), nil
}

// LoadAction replaces the current table with the file at step.Path.
func LoadAction(_ context.Context, step pipeline.Step, _ *table.Table) (*table.Table, string, error) {
	if step.Path == "" {
		return nil, "", fmt.Errorf("load requires a 'path'")
	}
	t, err := tabular.Load(step.Path, step.Sheet)
	if err != nil {
		return nil, "", err
	}
	return t, fmt.Sprintf("loaded %d rows from %s", t.Len(), step.Path), nil
}

// SaveAction writes the current table to step.Path; the extension picks
// the format.
func SaveAction(_ context.Context, step pipeline.Step, t *table.Table) (*table.Table, string, error) {
	if step.Path == "" {
		return nil, "", fmt.Errorf("save requires a 'path'")
	}
	if err := tabular.Save(step.Path, t); err != nil {
		return nil, "", err
	}
	return nil, step.Path, nil
}

// SplitAction exports the current table in parts. Options:
//
//	parts: number of parts (default 8), or
//	chunk_size: fixed rows per part (takes precedence)
//	format: xlsx | csv (default xlsx)
//	zip: "true" to bundle the parts
//	blank_first_row: "true" for the contact import layout
//
// step.Path is the output directory. The table is passed on unchanged and
// the output lists the files written, one per line.
func SplitAction(_ context.Context, step pipeline.Step, t *table.Table) (*table.Table, string, error) {
	opts := tabular.PartOptions{
		Dir:           step.Path,
		Base:          step.Options["base"],
		Format:        tabular.XLSX,
		Zip:           isTrue(step.Options["zip"]),
		BlankFirstRow: isTrue(step.Options["blank_first_row"]),
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if f := step.Options["format"]; f != "" {
		format, err := tabular.ParseFormat(f)
		if err != nil {
			return nil, "", err
		}
		opts.Format = format
	}

	var parts []*table.Table
	if s := step.Options["chunk_size"]; s != "" {
		size, err := strconv.Atoi(s)
		if err != nil || size <= 0 {
			return nil, "", fmt.Errorf("chunk_size must be a positive integer, got %q", s)
		}
		parts = reshape.Chunks(t, size)
	} else {
		n := reshape.DefaultParts
		if s := step.Options["parts"]; s != "" {
			v, err := strconv.Atoi(s)
			if err != nil || v <= 0 {
				return nil, "", fmt.Errorf("parts must be a positive integer, got %q", s)
			}
			n = v
		}
		parts = reshape.Parts(t, n)
	}
	if len(parts) == 0 {
		return nil, "", fmt.Errorf("nothing to split — the table has no rows")
	}

	paths, err := tabular.ExportParts(parts, opts)
	if err != nil {
		return nil, "", err
	}
	for i, p := range paths {
		paths[i] = filepath.ToSlash(p)
	}
	return nil, strings.Join(paths, "\n"), nil
}

func isTrue(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}
