// Package export writes the attributed publications of a selection as a flat
// table (CSV or XLSX) or as BibTeX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/matsen/pubdash/internal/directory"
	"github.com/matsen/pubdash/internal/reference"
)

// Header is the column row of CSV and XLSX exports.
var Header = []string{"Author", "Print Date Published", "DOI", "Citation"}

// SheetName is the single sheet of an XLSX export.
const SheetName = "Publications"

// Row is one attributed publication. A publication attributed to two
// selected publishers yields two rows.
type Row struct {
	Key    string `json:"key"`
	Author string `json:"author"` // "Last, First"
	reference.Publication
}

// Rows returns the publications of ids dated within [start, end], grouped
// by identity in selection order and sorted by date within each.
func Rows(ids []*directory.Identity, start, end time.Time) []Row {
	var rows []Row
	for _, id := range ids {
		for _, p := range id.Publications {
			if p.Published.Before(start) || p.Published.After(end) {
				continue
			}
			rows = append(rows, Row{Key: id.Key, Author: id.DisplayName, Publication: p})
		}
	}
	return rows
}

// SortByDate orders rows by publication date, keeping selection order for
// rows on the same day.
func SortByDate(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Published.Before(rows[j].Published)
	})
}

func (r Row) record() []string {
	return []string{r.Author, r.Date(), r.DOI, r.Citation}
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes rows to a single-sheet workbook. Dates are written as
// text in the canonical layout.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing xlsx header: %w", err)
	}
	for i, r := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{r.Author, r.Date(), r.DOI, r.Citation}
		if err := f.SetSheetRow(SheetName, cellName, &values); err != nil {
			return fmt.Errorf("writing xlsx row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing xlsx: %w", err)
	}
	return nil
}
