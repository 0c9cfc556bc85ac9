package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/pubdash/internal/export"
	"github.com/matsen/pubdash/internal/source"
)

var (
	exportSel    selection
	exportCSV    bool
	exportXLSX   bool
	exportBibTeX bool
	exportOut    string
	exportAppend string
	exportByDate bool
)

func init() {
	exportSel.register(exportCmd, false)
	exportCmd.Flags().BoolVar(&exportCSV, "csv", false, "Export as CSV (default)")
	exportCmd.Flags().BoolVar(&exportXLSX, "xlsx", false, "Export as an Excel workbook (requires --out)")
	exportCmd.Flags().BoolVar(&exportBibTeX, "bibtex", false, "Export as BibTeX")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output path or gs:// URL (default: stdout)")
	exportCmd.Flags().StringVar(&exportAppend, "append", "", "Append BibTeX to this .bib file, skipping entries already in it")
	exportCmd.Flags().BoolVar(&exportByDate, "by-date", false, "Order rows by date instead of by publisher")
	exportCmd.MarkFlagsMutuallyExclusive("csv", "xlsx", "bibtex")
	exportCmd.MarkFlagsMutuallyExclusive("out", "append")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the selected publications",
	Long: `Export the publications attributed to the selected publishers within the
window, one row per (publisher, publication), with columns
Author, Print Date Published, DOI, Citation.

Examples:
  pubdash export -a Smith --from 2019-01-01 --to 2021-12-31 > smith.csv
  pubdash export --group active --xlsx -o gs://dept-reports/active.xlsx
  pubdash export -a Smith --bibtex --append refs.bib`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

// ExportResult is printed when the export is written to a file.
type ExportResult struct {
	Status string `json:"status"`
	Path   string `json:"path"`
	Format string `json:"format"`
	Rows   int    `json:"rows"`
}

func runExport(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	d, _ := mustLoadDirectory(root)

	ids, err := exportSel.identities(d)
	if err != nil {
		exitForError(ExportResult{Status: "empty"}, err, "selecting publishers")
	}
	start, end, err := exportSel.window(d)
	if err != nil {
		exitForError(ExportResult{Status: "empty"}, err, "resolving window")
	}

	rows := export.Rows(ids, start, end)
	if exportByDate {
		export.SortByDate(rows)
	}

	format := "csv"
	contentType := "text/csv"
	switch {
	case exportXLSX:
		format = "xlsx"
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		if exportOut == "" {
			exitWithError(ExitError, "--xlsx requires --out")
		}
	case exportBibTeX || exportAppend != "":
		format = "bibtex"
		contentType = "application/x-bibtex"
	}

	if exportAppend != "" {
		idx, err := export.ParseBibTeXFile(exportAppend)
		if err != nil {
			exitWithError(ExitError, "reading %s: %v", exportAppend, err)
		}
		content := export.ToBibTeXList(rows, idx)
		if content != "" {
			if err := export.AppendToBibFile(exportAppend, content); err != nil {
				exitWithError(ExitError, "appending to %s: %v", exportAppend, err)
			}
		}
		reportExport(ExportResult{Status: "appended", Path: exportAppend, Format: format, Rows: len(rows)})
		return nil
	}

	write := func(w io.Writer) error {
		switch format {
		case "xlsx":
			return export.WriteXLSX(w, rows)
		case "bibtex":
			_, err := io.WriteString(w, export.ToBibTeXList(rows, nil))
			return err
		default:
			return export.WriteCSV(w, rows)
		}
	}

	if exportOut == "" {
		if err := write(os.Stdout); err != nil {
			exitWithError(ExitError, "writing export: %v", err)
		}
		return nil
	}

	if err := writeTo(commandContext(cmd), exportOut, contentType, write); err != nil {
		exitWithError(ExitError, "writing %s: %v", exportOut, err)
	}
	reportExport(ExportResult{Status: "exported", Path: exportOut, Format: format, Rows: len(rows)})
	return nil
}

// writeTo creates location, runs write and closes it, keeping the first error.
func writeTo(ctx context.Context, location, contentType string, write func(io.Writer) error) error {
	w, err := source.Create(ctx, location, contentType)
	if err != nil {
		return err
	}
	if err := write(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func reportExport(r ExportResult) {
	if humanOutput {
		fmt.Printf("Wrote %d rows as %s to %s\n", r.Rows, r.Format, r.Path)
	} else {
		outputJSON(r)
	}
}
