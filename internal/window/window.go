// Package window turns a date range and a calendar convention into the
// ordered buckets that publications are counted in.
package window

import (
	"fmt"
	"strings"
	"time"

	"github.com/matsen/pubdash/internal/reference"
)

// Convention selects where a year starts.
type Convention string

const (
	CalendarYear Convention = "calendar" // January 1 - December 31
	AcademicYear Convention = "academic" // August 1 - July 31
	FiscalYear   Convention = "fiscal"   // July 1 - June 30
)

// Conventions lists the supported conventions in display order.
var Conventions = []Convention{CalendarYear, AcademicYear, FiscalYear}

// yearBounds holds [start month, start day] and [end month, end day].
type yearBounds struct {
	startMonth time.Month
	startDay   int
	endMonth   time.Month
	endDay     int
}

var bounds = map[Convention]yearBounds{
	CalendarYear: {time.January, 1, time.December, 31},
	AcademicYear: {time.August, 1, time.July, 31},
	FiscalYear:   {time.July, 1, time.June, 30},
}

// ParseConvention parses a convention selector. Besides the names it accepts
// the dashboard's radio values "1", "2" and "3".
func ParseConvention(s string) (Convention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "calendar", "calendar_year", "1":
		return CalendarYear, nil
	case "academic", "academic_year", "2":
		return AcademicYear, nil
	case "fiscal", "fiscal_year", "3":
		return FiscalYear, nil
	default:
		return "", fmt.Errorf("%w: calendar convention %q (valid: calendar, academic, fiscal)", reference.ErrInvalidArgument, s)
	}
}

// Start returns the month and day the convention's year begins on.
func (c Convention) Start() (time.Month, int, error) {
	b, ok := bounds[c]
	if !ok {
		return 0, 0, fmt.Errorf("%w: calendar convention %q", reference.ErrInvalidArgument, string(c))
	}
	return b.startMonth, b.startDay, nil
}

// End returns the month and day the convention's year ends on.
func (c Convention) End() (time.Month, int, error) {
	b, ok := bounds[c]
	if !ok {
		return 0, 0, fmt.Errorf("%w: calendar convention %q", reference.ErrInvalidArgument, string(c))
	}
	return b.endMonth, b.endDay, nil
}

// Describe returns a human label such as "Academic Year (August 1 - July 31)".
func (c Convention) Describe() string {
	b, ok := bounds[c]
	if !ok {
		return string(c)
	}
	name := strings.ToUpper(string(c[:1])) + string(c[1:])
	return fmt.Sprintf("%s Year (%s %d - %s %d)", name, b.startMonth, b.startDay, b.endMonth, b.endDay)
}

// Period is a query window: a date range and how to cut it into years.
type Period struct {
	Start      time.Time
	End        time.Time
	Convention Convention
}

// Validate checks the range order and the convention.
func (p Period) Validate() error {
	if p.End.Before(p.Start) {
		return fmt.Errorf("%w: window end %s is before start %s", reference.ErrInvalidArgument,
			p.End.Format(reference.DateLayout), p.Start.Format(reference.DateLayout))
	}
	_, _, err := p.Convention.Start()
	return err
}

// EndOfMonth returns midnight on the last day of t's month.
func EndOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location())
}

// firstOfMonth returns midnight on the first day of t's month.
func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthStarts returns the first day of every calendar month touched by
// [start, end], in order. It is empty when end is before start.
func MonthStarts(start, end time.Time) []time.Time {
	if end.Before(start) {
		return nil
	}
	var months []time.Time
	last := firstOfMonth(end)
	for m := firstOfMonth(start); !m.After(last); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
	}
	return months
}

// YearStarts returns the convention's year-start dates that fall inside
// [start, end], without clamping.
func YearStarts(start, end time.Time, conv Convention) ([]time.Time, error) {
	month, day, err := conv.Start()
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, nil
	}

	b := time.Date(start.Year(), month, day, 0, 0, 0, 0, start.Location())
	if b.Before(start) {
		b = b.AddDate(1, 0, 0)
	}
	var starts []time.Time
	for ; !b.After(end); b = b.AddDate(1, 0, 0) {
		starts = append(starts, b)
	}
	return starts, nil
}

// YearBins returns the year boundaries for [start, end] under a convention,
// clamped so the first boundary is exactly start and the last is exactly
// end. Partial convention years at either edge become short bins.
// The result always has at least two entries.
func YearBins(start, end time.Time, conv Convention) ([]time.Time, error) {
	if err := (Period{Start: start, End: end, Convention: conv}).Validate(); err != nil {
		return nil, err
	}
	bins, err := YearStarts(start, end, conv)
	if err != nil {
		return nil, err
	}
	if len(bins) == 0 {
		return []time.Time{start, end}, nil
	}

	if bins[0].After(start) {
		bins = append([]time.Time{start}, bins...)
	} else if bins[0].Before(start) {
		bins[0] = start
	}

	last := len(bins) - 1
	if bins[last].Before(end) {
		bins = append(bins, end)
	} else if bins[last].After(end) {
		bins[last] = end
	}

	if len(bins) == 1 {
		bins = append(bins, end)
	}
	return bins, nil
}
