// Package split provides the "sheetkit split" command that exports a
// spreadsheet in several files.
package split

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/app"
	"github.com/klytics/sheetkit/internal/formats/tabular"
	"github.com/klytics/sheetkit/internal/output"
	"github.com/klytics/sheetkit/internal/reshape"
	"github.com/klytics/sheetkit/internal/table"
)

// NewCommand creates the "split" command.
func NewCommand() *cobra.Command {
	var (
		parts     int
		chunkSize int
		contacts  bool
		format    string
		zipped    bool
		outDir    string
		base      string
		sheet     string
	)

	cmd := &cobra.Command{
		Use:   "split <file>",
		Short: "Export a spreadsheet in several files",
		Long: `Splits a spreadsheet into --parts files of equal size, or into files of
--chunk-size rows. Files are named <base>_parte_<n>.<ext>; --zip bundles
them in one archive.

--contacts first rebuilds the table as a NOME/TELEFONE contact list and
writes chunks of export.chunk_size rows with a blank first line, the
layout phone contact importers expect.

Examples:
  sheetkit split clientes.xlsx --parts 4
  sheetkit split contatos.csv --contacts --zip --out-dir ./importar`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if parts > 0 && chunkSize > 0 {
				return output.UserErrorf("use either --parts or --chunk-size, not both")
			}

			t, err := tabular.Load(args[0], sheet)
			if err != nil {
				return err
			}
			if t.Empty() {
				return output.UserErrorf("%s has no rows to split", args[0])
			}

			blankFirst := false
			if contacts {
				contactsOpts := reshape.DefaultContactOptions()
				if a.Config.Engine.CountryCode != "" {
					contactsOpts.CountryCode = a.Config.Engine.CountryCode
				}
				if a.Config.Engine.ContactPlaceholder != "" {
					contactsOpts.Placeholder = a.Config.Engine.ContactPlaceholder
				}
				out, stats, ok := reshape.Contacts(t, contactsOpts)
				if !ok {
					return output.UserErrorf("no phone column found in %s — name one 'telefone', 'celular' or 'whatsapp'", args[0])
				}
				t = out
				blankFirst = true
				if parts == 0 && chunkSize == 0 {
					chunkSize = a.Config.Export.ChunkSize
				}
				if !a.JSON {
					a.Out.Dim(fmt.Sprintf("%d contatos válidos de %d (%d telefones inválidos, %d duplicados)",
						stats.Kept, stats.Input, stats.InvalidPhones, stats.DuplicatesRemoved))
				}
			}

			var pieces []*table.Table
			switch {
			case chunkSize > 0:
				pieces = reshape.Chunks(t, chunkSize)
			case parts > 0:
				pieces = reshape.Parts(t, parts)
			default:
				pieces = reshape.Parts(t, reshape.DefaultParts)
			}

			fmtName := format
			if fmtName == "" {
				fmtName = strings.TrimPrefix(strings.ToLower(filepath.Ext(args[0])), ".")
				if fmtName != string(tabular.CSV) {
					fmtName = string(tabular.XLSX)
				}
			}
			f, err := tabular.ParseFormat(fmtName)
			if err != nil {
				return err
			}
			if base == "" {
				base = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			if outDir == "" {
				outDir = "."
			}

			paths, err := tabular.ExportParts(pieces, tabular.PartOptions{
				Dir:           outDir,
				Base:          base,
				Format:        f,
				BlankFirstRow: blankFirst,
				Zip:           zipped,
			})
			if err != nil {
				return err
			}

			if a.JSON {
				return a.Out.WriteJSON(map[string]any{
					"rows":  t.Len(),
					"parts": len(pieces),
					"files": paths,
				})
			}
			a.Out.Success(fmt.Sprintf("%d linhas divididas em %d partes", t.Len(), len(pieces)))
			for _, p := range paths {
				a.Out.WriteLn("  " + p)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&parts, "parts", 0, "Number of files (default 8)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Rows per file")
	cmd.Flags().BoolVar(&contacts, "contacts", false, "Export as a phone contact list")
	cmd.Flags().StringVar(&format, "format", "", "xlsx or csv (default: the input's format, xlsx for json)")
	cmd.Flags().BoolVar(&zipped, "zip", false, "Bundle the files in one zip archive")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Output directory (default: current directory)")
	cmd.Flags().StringVar(&base, "base", "", "File name prefix (default: the input's name)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet to read (xlsx; default first sheet)")

	return cmd
}
