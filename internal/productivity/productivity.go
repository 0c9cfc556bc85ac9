// Package productivity normalizes publication counts by research percent
// into "potential productivity" ratios and summarizes them across
// publishers.
package productivity

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/matsen/pubdash/internal/directory"
	"github.com/matsen/pubdash/internal/percent"
	"github.com/matsen/pubdash/internal/reference"
	"github.com/matsen/pubdash/internal/window"
)

// LabelYear parses the start year from a year bucket label such as
// "2019 - 2020".
func LabelYear(label string) (int, bool) {
	if len(label) < 4 {
		return 0, false
	}
	y, err := strconv.Atoi(label[:4])
	if err != nil {
		return 0, false
	}
	return y, true
}

// Ratio returns count divided by the research percent of the label's start
// year. It is 0 when the year is missing from the table, the percent is 0,
// or the label carries no year. The result is always finite.
func Ratio(label string, count int, table percent.Table) float64 {
	year, ok := LabelYear(label)
	if !ok {
		return 0
	}
	p, ok := table.Lookup(year)
	if !ok || p == 0 {
		return 0
	}
	r := float64(count) / p
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// Series returns one ratio per bucket.
func Series(buckets []window.Bucket, counts []int, table percent.Table) []float64 {
	out := make([]float64, len(buckets))
	for i, b := range buckets {
		if i < len(counts) {
			out[i] = Ratio(b.Label, counts[i], table)
		}
	}
	return out
}

// Kind selects a cross-publisher statistic.
type Kind string

const (
	Median  Kind = "median"
	Maximum Kind = "maximum"
	Minimum Kind = "minimum" // Accepted; not implemented
)

// ParseKind validates a statistic selector.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Median:
		return Median, nil
	case Maximum:
		return Maximum, nil
	case Minimum:
		return Minimum, nil
	default:
		return "", fmt.Errorf("%w: statistic %q (valid: median, maximum, minimum)", reference.ErrInvalidArgument, s)
	}
}

// CrossIdentity combines per-publisher ratio series into one series.
//
// Publishers whose whole series is zero are dropped from the pool first.
// Median takes, at each bucket, the median of the pool's non-zero ratios,
// or 0 when there are none. Maximum takes the plain maximum over the pool,
// or 0 when the pool is empty. Minimum is recognized but returns an empty
// series.
func CrossIdentity(kind Kind, series map[string][]float64) ([]float64, error) {
	switch kind {
	case Median, Maximum:
	case Minimum:
		return []float64{}, nil
	default:
		return nil, fmt.Errorf("%w: statistic %q", reference.ErrInvalidArgument, string(kind))
	}

	n := 0
	var pool [][]float64
	for _, s := range series {
		if len(s) > n {
			n = len(s)
		}
		if !allZero(s) {
			pool = append(pool, s)
		}
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		switch kind {
		case Median:
			var vals []float64
			for _, s := range pool {
				if i < len(s) && s[i] != 0 {
					vals = append(vals, s[i])
				}
			}
			if len(vals) == 0 {
				vals = []float64{0}
			}
			out[i] = medianFloat(vals)
		case Maximum:
			for j, s := range pool {
				v := 0.0
				if i < len(s) {
					v = s[i]
				}
				if j == 0 || v > out[i] {
					out[i] = v
				}
			}
		}
	}
	return out, nil
}

// Report is the potential-productivity view over a set of year buckets.
type Report struct {
	Labels  []string             `json:"labels"`
	Ratios  map[string][]float64 `json:"ratios"` // Identity key -> one ratio per bucket
	Median  []float64            `json:"median,omitempty"`
	Maximum []float64            `json:"maximum,omitempty"`
}

// Analyze computes each identity's ratio series from its per-bucket counts.
func Analyze(buckets []window.Bucket, counts map[string][]int, ids []*directory.Identity) Report {
	r := Report{
		Labels: window.Labels(buckets),
		Ratios: make(map[string][]float64, len(ids)),
	}
	for _, id := range ids {
		r.Ratios[id.Key] = Series(buckets, counts[id.Key], id.ResearchPercent)
	}
	return r
}

// Compare adds the Median and Maximum series computed over pool, which is
// usually every identity in the directory rather than only the selected
// ones.
func (r *Report) Compare(pool map[string][]float64) error {
	var err error
	if r.Median, err = CrossIdentity(Median, pool); err != nil {
		return err
	}
	r.Maximum, err = CrossIdentity(Maximum, pool)
	return err
}

func allZero(s []float64) bool {
	for _, v := range s {
		if v != 0 {
			return false
		}
	}
	return true
}

// medianFloat returns the median of a float64 slice, or 0 if empty.
func medianFloat(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
