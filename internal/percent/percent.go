// Package percent builds per-publisher research percentage tables.
//
// A research percent is the declared fraction of a publisher's effort spent
// on research in the academic year that starts in a given fall semester
// (the 2003/2004 academic year is stored under 2003). Values are kept in
// whatever unit the source supplies; nothing is rescaled.
package percent

import (
	"math"
	"sort"

	"github.com/matsen/pubdash/internal/reference"
)

// Table maps fall-semester year to research percent.
type Table map[int]float64

// NameMatcher reports whether a metadata row's last name belongs to a publisher.
type NameMatcher interface {
	MatchesLastName(s string) bool
}

// Years returns the table's years in ascending order.
func (t Table) Years() []int {
	years := make([]int, 0, len(t))
	for y := range t {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Lookup returns the percent for a year and whether the year is present.
func (t Table) Lookup(year int) (float64, bool) {
	v, ok := t[year]
	return v, ok
}

// YearRange returns the inclusive sequence of years from first to last.
// It is empty when last < first.
func YearRange(first, last int) []int {
	if last < first {
		return nil
	}
	years := make([]int, 0, last-first+1)
	for y := first; y <= last; y++ {
		years = append(years, y)
	}
	return years
}

// RecordedYears returns the minimum and maximum year present in any row's
// percent columns. ok is false when no row has a percent column.
func RecordedYears(rows []reference.PublisherRow) (minYear, maxYear int, ok bool) {
	for _, row := range rows {
		for y := range row.Percents {
			if !ok {
				minYear, maxYear, ok = y, y, true
				continue
			}
			if y < minYear {
				minYear = y
			}
			if y > maxYear {
				maxYear = y
			}
		}
	}
	return minYear, maxYear, ok
}

// Load builds a publisher's table from the metadata rows whose last name
// matches. For every year in years the cell value is stored, or 0 when the
// cell is absent or not a number. When several rows match, the last one
// wins. A publisher with no matching row gets an empty table.
func Load(m NameMatcher, rows []reference.PublisherRow, years []int) Table {
	table := Table{}
	for _, row := range rows {
		if !m.MatchesLastName(row.Last) {
			continue
		}
		for _, y := range years {
			v, ok := row.Percents[y]
			if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			table[y] = v
		}
	}
	return table
}
