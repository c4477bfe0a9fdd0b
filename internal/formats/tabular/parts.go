package tabular

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klytics/sheetkit/internal/formats/xlsx"
	"github.com/klytics/sheetkit/internal/table"
)

// ContactChunkSize is the row count per file of the contact import format.
const ContactChunkSize = 49

// PartOptions controls how split parts are written.
type PartOptions struct {
	// Dir receives the files; it is created when missing.
	Dir string
	// Base names the files: <Base>_parte_<n>.<ext>.
	Base string
	// Format is XLSX or CSV.
	Format Format
	// BlankFirstRow leaves an empty first line in every file.
	BlankFirstRow bool
	// Zip bundles all parts into <Base>_<n>_partes.zip instead of loose files.
	Zip bool
}

// PartName is the file name of the n-th part, counting from 1.
func PartName(base string, n int, format Format) string {
	return fmt.Sprintf("%s_parte_%d.%s", base, n, format)
}

// ExportParts writes one file per part, or a single zip of them, and
// returns the paths written.
func ExportParts(parts []*table.Table, opts PartOptions) ([]string, error) {
	if opts.Format != XLSX && opts.Format != CSV {
		return nil, fmt.Errorf("parts can be exported as xlsx or csv, not %q", opts.Format)
	}
	if opts.Base == "" {
		opts.Base = "planilha"
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create %s: %w", opts.Dir, err)
	}

	if opts.Zip {
		path := filepath.Join(opts.Dir, fmt.Sprintf("%s_%d_partes.zip", opts.Base, len(parts)))
		if err := writeZip(path, parts, opts); err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	paths := make([]string, 0, len(parts))
	for i, p := range parts {
		data, err := encodePart(p, opts)
		if err != nil {
			return paths, fmt.Errorf("part %d: %w", i+1, err)
		}
		path := filepath.Join(opts.Dir, PartName(opts.Base, i+1, opts.Format))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("could not write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func encodePart(t *table.Table, opts PartOptions) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if opts.Format == XLSX {
		err = xlsx.Write(&buf, xlsx.Sheet{Table: t, BlankFirstRow: opts.BlankFirstRow})
	} else {
		err = WriteCSV(&buf, t, opts.BlankFirstRow)
	}
	return buf.Bytes(), err
}

func writeZip(path string, parts []*table.Table, opts PartOptions) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(f)
	for i, p := range parts {
		data, err := encodePart(p, opts)
		if err != nil {
			return fmt.Errorf("part %d: %w", i+1, err)
		}
		w, err := zw.Create(PartName(opts.Base, i+1, opts.Format))
		if err != nil {
			return fmt.Errorf("could not add part %d to zip: %w", i+1, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("could not add part %d to zip: %w", i+1, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("could not finish %s: %w", path, err)
	}
	return nil
}
