// Package reference defines the core domain types for publication records
// and the raw publisher rows they are attributed to.
package reference

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical date format used in output and exports.
const DateLayout = "2006-01-02"

// Publication is one row of the publication corpus.
// Records are immutable once loaded and shared by every matcher.
type Publication struct {
	Published time.Time `json:"published"` // Print publication date
	DOI       string    `json:"doi"`
	Citation  string    `json:"citation"` // Free-text citation, e.g. "Smith, J., Doe, A. (2020) ..."
}

// Date returns the publication date formatted as YYYY-MM-DD.
func (p Publication) Date() string {
	return p.Published.Format(DateLayout)
}

// PublisherRow is one row of the publisher metadata sheet.
type PublisherRow struct {
	First    string          `json:"first"`
	Last     string          `json:"last"`
	Position string          `json:"position,omitempty"`
	Active   bool            `json:"active"`             // Currently at the institution
	Percents map[int]float64 `json:"percents,omitempty"` // Fall-semester year -> research percent; absent = not a number
}

// NameOrder tells which of the two leading name columns holds the first name.
type NameOrder string

const (
	FirstLast NameOrder = "first_last" // Column 1 is the first name, column 2 the last name
	LastFirst NameOrder = "last_first" // Column 1 is the last name, column 2 the first name
)

// ParseNameOrder validates a name order selector.
func ParseNameOrder(s string) (NameOrder, error) {
	switch NameOrder(strings.ToLower(strings.TrimSpace(s))) {
	case FirstLast, "":
		return FirstLast, nil
	case LastFirst:
		return LastFirst, nil
	default:
		return "", fmt.Errorf("%w: name order %q (valid: %s, %s)", ErrInvalidArgument, s, FirstLast, LastFirst)
	}
}

// Names returns (first, last) for a row given the column order the
// loader read them in. Loaders always fill First from column 1 and Last
// from column 2, so LastFirst swaps them.
func (o NameOrder) Names(row PublisherRow) (first, last string, err error) {
	switch o {
	case FirstLast:
		return row.First, row.Last, nil
	case LastFirst:
		return row.Last, row.First, nil
	default:
		return "", "", fmt.Errorf("%w: name order %q", ErrInvalidArgument, string(o))
	}
}

// DisplayName formats a publisher as "Last, First".
func DisplayName(first, last string) string {
	return last + ", " + first
}
