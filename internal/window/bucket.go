package window

import (
	"fmt"
	"time"
)

// MonthLabelLayout formats monthly bucket labels.
const MonthLabelLayout = "2006-01"

// Bucket is a half-open date interval [Start, End). The final bucket of a
// sequence is closed, [Start, End], so publications dated on the last day
// of the query's final month are counted.
type Bucket struct {
	Label     string    `json:"label"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Inclusive bool      `json:"inclusive,omitempty"`
}

// Contains reports whether t falls in the bucket.
func (b Bucket) Contains(t time.Time) bool {
	if t.Before(b.Start) {
		return false
	}
	if b.Inclusive {
		return !t.After(b.End)
	}
	return t.Before(b.End)
}

// StartYear returns the year the bucket starts in.
func (b Bucket) StartYear() int {
	return b.Start.Year()
}

// Labels returns the bucket labels in order.
func Labels(buckets []Bucket) []string {
	labels := make([]string, len(buckets))
	for i, b := range buckets {
		labels[i] = b.Label
	}
	return labels
}

// Index returns the index of the bucket containing t, or -1.
func Index(buckets []Bucket, t time.Time) int {
	for i, b := range buckets {
		if b.Contains(t) {
			return i
		}
	}
	return -1
}

// MonthlyBuckets returns one bucket per calendar month touched by
// [start, end]. The final bucket ends, inclusively, on the last day of
// end's month.
func MonthlyBuckets(start, end time.Time) []Bucket {
	months := MonthStarts(start, end)
	buckets := make([]Bucket, len(months))
	for i, m := range months {
		b := Bucket{Label: m.Format(MonthLabelLayout), Start: m}
		if i == len(months)-1 {
			b.End = EndOfMonth(end)
			b.Inclusive = true
		} else {
			b.End = months[i+1]
		}
		buckets[i] = b
	}
	return buckets
}

// YearBuckets pairs consecutive YearBins into buckets labelled
// "<start year> - <end year>". The final bucket ends, inclusively, on the
// last day of end's month rather than at end itself.
func YearBuckets(start, end time.Time, conv Convention) ([]Bucket, error) {
	bins, err := YearBins(start, end, conv)
	if err != nil {
		return nil, err
	}
	buckets := make([]Bucket, 0, len(bins)-1)
	for i := 0; i < len(bins)-1; i++ {
		b := Bucket{
			Label: fmt.Sprintf("%d - %d", bins[i].Year(), bins[i+1].Year()),
			Start: bins[i],
			End:   bins[i+1],
		}
		if i == len(bins)-2 {
			b.End = EndOfMonth(end)
			b.Inclusive = true
		}
		buckets = append(buckets, b)
	}
	return buckets, nil
}
