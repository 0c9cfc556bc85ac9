// Package importer reads the publication and publisher sheets of a master
// workbook into the rows the directory is built from.
package importer

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/matsen/pubdash/internal/reference"
)

// Column headers of the publication sheet, matched case-insensitively.
const (
	HeaderPublished = "Print Published"
	HeaderDOI       = "DOI"
	HeaderCitation  = "Citation"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing column")

// Options names the sheets to read.
type Options struct {
	PublicationsSheet string
	PublishersSheet   string
}

// Workbook is the tabular content of a master workbook.
type Workbook struct {
	Publications []reference.Publication
	Publishers   []reference.PublisherRow
	Years        []int   // Research percent columns, in sheet order
	RowErrors    []error // Rows skipped because a cell could not be parsed
}

// ReadWorkbook reads both sheets of an .xlsx workbook. Cell values are read
// raw, so dates arrive as Excel serial numbers unless they were typed as
// text. Malformed rows are skipped and reported in RowErrors; a missing
// sheet or header fails the whole read.
func ReadWorkbook(r io.Reader, opts Options) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	wb := &Workbook{}
	if err := readPublications(f, opts.PublicationsSheet, wb); err != nil {
		return nil, err
	}
	if err := readPublishers(f, opts.PublishersSheet, wb); err != nil {
		return nil, err
	}
	return wb, nil
}

// sheetRows returns every row of a sheet as raw cell strings.
func sheetRows(f *excelize.File, sheet string) ([][]string, error) {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("workbook has no sheet %q", sheet)
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
		}
		out = append(out, cols)
	}
	return out, rows.Error()
}

func readPublications(f *excelize.File, sheet string, wb *Workbook) error {
	rows, err := sheetRows(f, sheet)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	header := rows[0]
	cols := make(map[string]int, 3)
	for _, name := range []string{HeaderPublished, HeaderDOI, HeaderCitation} {
		i := findHeader(header, func(h string) bool { return strings.EqualFold(h, name) })
		if i < 0 {
			return fmt.Errorf("%w: sheet %q has no %q header", ErrMissingColumn, sheet, name)
		}
		cols[name] = i
	}

	for n, row := range rows[1:] {
		if blank(row) {
			continue
		}
		line := n + 2
		published, err := ParseDate(cell(row, cols[HeaderPublished]))
		if err != nil {
			wb.RowErrors = append(wb.RowErrors, fmt.Errorf("%s row %d: %w", sheet, line, err))
			continue
		}
		citation := cell(row, cols[HeaderCitation])
		if citation == "" {
			wb.RowErrors = append(wb.RowErrors, fmt.Errorf("%s row %d: empty citation", sheet, line))
			continue
		}
		wb.Publications = append(wb.Publications, reference.Publication{
			Published: published,
			DOI:       cell(row, cols[HeaderDOI]),
			Citation:  citation,
		})
	}
	return nil
}

// readPublishers reads the publisher sheet. Its first row names the columns;
// the research percent columns share one merged super header, and the
// second row holds each percent column's fall-semester year. The first two
// columns hold the names, in the order the workspace's name order states.
func readPublishers(f *excelize.File, sheet string, wb *Workbook) error {
	rows, err := sheetRows(f, sheet)
	if err != nil {
		return err
	}
	if len(rows) < 2 {
		return nil
	}

	header, years := rows[0], rows[1]
	positionCol := findHeader(header, func(h string) bool { return strings.Contains(strings.ToLower(h), "position") })
	activeCol := findHeader(header, func(h string) bool { return strings.HasPrefix(strings.ToLower(h), "currently") })
	if activeCol < 0 {
		return fmt.Errorf("%w: sheet %q has no \"Currently at ...\" header", ErrMissingColumn, sheet)
	}

	yearCols := make(map[int]int)
	for i := range years {
		if y, ok := parseYear(cell(years, i)); ok {
			yearCols[i] = y
			wb.Years = append(wb.Years, y)
		}
	}

	for n, row := range rows[2:] {
		if blank(row) {
			continue
		}
		line := n + 3
		p := reference.PublisherRow{
			First:    cell(row, 0),
			Last:     cell(row, 1),
			Position: cell(row, positionCol),
			Active:   parseFlag(cell(row, activeCol)),
		}
		if p.First == "" && p.Last == "" {
			wb.RowErrors = append(wb.RowErrors, fmt.Errorf("%s row %d: no name", sheet, line))
			continue
		}
		for col, year := range yearCols {
			if v, ok := parsePercent(cell(row, col)); ok {
				if p.Percents == nil {
					p.Percents = make(map[int]float64, len(yearCols))
				}
				p.Percents[year] = v
			}
		}
		wb.Publishers = append(wb.Publishers, p)
	}
	return nil
}

// dateLayouts are the text date forms accepted besides Excel serials.
var dateLayouts = []string{
	reference.DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"1/2/2006",
	"1/2/06",
}

// ParseDate parses a publication date cell: an Excel serial number or one
// of the accepted text layouts. The time of day is dropped.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(v, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("date serial %q: %w", s, err)
		}
		return midnight(t), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return midnight(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// parseYear accepts a four-digit year, also in the "2019.0" form numeric
// cells sometimes produce.
func parseYear(s string) (int, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v != math.Trunc(v) || v < 1000 || v > 9999 {
		return 0, false
	}
	return int(v), true
}

// parsePercent reads a percent cell. Empty and non-numeric cells are
// absent. Text such as "50%" is read as 0.5, the value Excel stores.
func parsePercent(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	scale := 1.0
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		scale = 100
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v / scale, true
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "x":
		return true
	}
	return false
}

func findHeader(header []string, match func(string) bool) int {
	for i, h := range header {
		if match(strings.TrimSpace(h)) {
			return i
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
