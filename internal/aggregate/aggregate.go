// Package aggregate tallies attributed publications into date buckets,
// overall and per publisher.
package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/matsen/pubdash/internal/directory"
	"github.com/matsen/pubdash/internal/reference"
	"github.com/matsen/pubdash/internal/window"
)

// FilterToWindow concatenates the publications of the selected identities,
// sorts them by date and drops those dated outside [start, end].
// A record attributed to two selected identities appears twice.
func FilterToWindow(ids []*directory.Identity, start, end time.Time) []reference.Publication {
	all := lo.FlatMap(ids, func(id *directory.Identity, _ int) []reference.Publication {
		return id.Publications
	})
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Published.Before(all[j].Published)
	})
	return lo.Filter(all, func(p reference.Publication, _ int) bool {
		return !p.Published.Before(start) && !p.Published.After(end)
	})
}

// CountsPerBucket returns the number of records in each bucket.
// Records outside every bucket are not counted.
func CountsPerBucket(buckets []window.Bucket, records []reference.Publication) []int {
	counts := make([]int, len(buckets))
	for _, r := range records {
		if i := window.Index(buckets, r.Published); i >= 0 {
			counts[i]++
		}
	}
	return counts
}

// CountsPerBucketPerIdentity partitions records like CountsPerBucket but
// tallies each identity separately. A record counts once for an identity
// when the identity's citation pattern matches it, however many selected
// co-authors brought it into records. Collision identities always count
// zero.
func CountsPerBucketPerIdentity(buckets []window.Bucket, records []reference.Publication, ids []*directory.Identity) map[string][]int {
	out := make(map[string][]int, len(ids))
	for _, id := range ids {
		out[id.Key] = CountsPerBucket(buckets, matching(id, records))
	}
	return out
}

// TotalsPerIdentity counts the distinct records each identity's citation
// pattern matches.
func TotalsPerIdentity(records []reference.Publication, ids []*directory.Identity) map[string]int {
	out := make(map[string]int, len(ids))
	for _, id := range ids {
		out[id.Key] = len(matching(id, records))
	}
	return out
}

// Share is one identity's slice of a proportional breakdown.
type Share struct {
	Key      string  `json:"key"`
	Name     string  `json:"name"`
	Count    int     `json:"count"`
	Fraction float64 `json:"fraction"` // Count / len(records); 0 when there are no records
}

// Proportions returns each identity's count and fraction of the filtered
// records, in identity order. Fractions need not sum to 1: a record can
// match several identities or none.
func Proportions(records []reference.Publication, ids []*directory.Identity) []Share {
	totals := TotalsPerIdentity(records, ids)
	return lo.Map(ids, func(id *directory.Identity, _ int) Share {
		s := Share{Key: id.Key, Name: id.DisplayName, Count: totals[id.Key]}
		if len(records) > 0 {
			s.Fraction = float64(s.Count) / float64(len(records))
		}
		return s
	})
}

// Cumulative returns the running totals of counts.
func Cumulative(counts []int) []int {
	out := make([]int, len(counts))
	sum := 0
	for i, c := range counts {
		sum += c
		out[i] = sum
	}
	return out
}

// DatesPerIdentity returns, for each identity, the dates of the records its
// citation pattern matches, in record order.
func DatesPerIdentity(records []reference.Publication, ids []*directory.Identity) map[string][]time.Time {
	out := make(map[string][]time.Time, len(ids))
	for _, id := range ids {
		out[id.Key] = lo.Map(matching(id, records), func(p reference.Publication, _ int) time.Time {
			return p.Published
		})
	}
	return out
}

// MostActive returns the bucket with the highest count, or the lowest when
// least is set. Ties go to the earliest bucket.
func MostActive(buckets []window.Bucket, counts []int, least bool) (window.Bucket, int, error) {
	if len(buckets) == 0 {
		return window.Bucket{}, 0, fmt.Errorf("%w: no buckets", reference.ErrNoData)
	}
	if len(counts) != len(buckets) {
		return window.Bucket{}, 0, fmt.Errorf("%w: %d counts for %d buckets", reference.ErrInvalidArgument, len(counts), len(buckets))
	}
	best := 0
	for i := 1; i < len(counts); i++ {
		if (!least && counts[i] > counts[best]) || (least && counts[i] < counts[best]) {
			best = i
		}
	}
	return buckets[best], counts[best], nil
}

// recordKey identifies a publication independent of which selected
// identity contributed it to the filtered records.
type recordKey struct {
	published int64
	doi       string
	citation  string
}

// matching returns the distinct records id's citation pattern matches. A
// co-authored record repeated once per selected author counts once.
func matching(id *directory.Identity, records []reference.Publication) []reference.Publication {
	distinct := lo.UniqBy(records, func(p reference.Publication) recordKey {
		return recordKey{published: p.Published.UnixNano(), doi: p.DOI, citation: p.Citation}
	})
	return lo.Filter(distinct, func(p reference.Publication, _ int) bool {
		return id.MatchesCitation(p.Citation)
	})
}
