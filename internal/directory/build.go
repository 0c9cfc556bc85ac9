package directory

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/matsen/pubdash/internal/author"
	"github.com/matsen/pubdash/internal/percent"
	"github.com/matsen/pubdash/internal/reference"
)

// BuildOptions configures Build.
type BuildOptions struct {
	Order  reference.NameOrder // Which name column is the first name; "" means FirstLast
	Logger *slog.Logger        // nil discards
	// Years lists the percent year columns of the publisher sheet. A column
	// blank in every row still belongs to the range. When empty, the years
	// present in the rows are used.
	Years []int
}

// ownRow matches every row; collision identities read their own row only.
type ownRow struct{}

func (ownRow) MatchesLastName(string) bool { return true }

// Build creates the directory from the publisher sheet and the publication
// corpus.
//
// Last names that occur more than once form a collision group. Each member
// gets the key "<Last>_<n>" (n from 1, in row order) and is not matched
// against citations, so its publication list stays empty. Every other
// publisher is attributed the corpus rows its citation pattern matches, and
// reads its active flag and research percents from the metadata rows its
// last-name pattern matches. Zero rows yield an empty directory.
func Build(rows []reference.PublisherRow, corpus []reference.Publication, opts BuildOptions) (*Directory, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	order := opts.Order
	if order == "" {
		order = reference.FirstLast
	}

	normalized := make([]reference.PublisherRow, len(rows))
	lastCount := make(map[string]int)
	for i, row := range rows {
		first, last, err := order.Names(row)
		if err != nil {
			return nil, err
		}
		row.First = strings.TrimSpace(first)
		row.Last = strings.TrimSpace(last)
		normalized[i] = row
		lastCount[row.Last]++
	}

	identities := make([]*Identity, 0, len(normalized))
	used := make(map[string]bool, len(normalized))
	suffix := make(map[string]int)
	for _, row := range normalized {
		id := &Identity{
			LastName:    row.Last,
			FirstName:   row.First,
			DisplayName: reference.DisplayName(row.First, row.Last),
			Position:    row.Position,
		}

		if lastCount[row.Last] > 1 {
			id.Collision = true
			id.CurrentlyActive = row.Active
			for {
				suffix[row.Last]++
				id.Key = fmt.Sprintf("%s_%d", row.Last, suffix[row.Last])
				if !used[id.Key] {
					break
				}
			}
			if suffix[row.Last] == 1 {
				logger.Debug("last name collision", "last", row.Last, "count", lastCount[row.Last])
			}
		} else {
			id.Key = row.Last
			for n := 1; used[id.Key]; n++ {
				id.Key = fmt.Sprintf("%s_%d", row.Last, n)
			}
			m := author.NewMatcher(row.First, row.Last)
			id.matcher = m
			id.Publications = m.Attribute(corpus)
			if active, found := m.ActiveFlag(normalized); found {
				id.CurrentlyActive = active
			}
		}
		used[id.Key] = true

		sort.SliceStable(id.Publications, func(i, j int) bool {
			return id.Publications[i].Published.Before(id.Publications[j].Published)
		})
		id.PublicationCount = len(id.Publications)
		logger.Debug("attributed publications", "key", id.Key, "count", id.PublicationCount)
		identities = append(identities, id)
	}

	d, err := New(identities)
	if err != nil {
		return nil, err
	}

	years := d.percentYears(normalized, opts.Years)
	for i, id := range d.identities {
		if id.Collision {
			id.ResearchPercent = percent.Load(ownRow{}, normalized[i:i+1], years)
			continue
		}
		id.ResearchPercent = percent.Load(id.matcher, normalized, years)
	}

	logger.Info("built publisher directory",
		"publishers", len(d.identities),
		"corpus", len(corpus),
		"collisions", d.collisionCount())
	return d, nil
}

// percentYears returns the years research percents are filled for: the
// earliest year column through the year of the newest publication in the
// whole directory. Without publications the range ends at the latest year
// column.
func (d *Directory) percentYears(rows []reference.PublisherRow, columns []int) []int {
	minYear, maxYear, ok := percent.RecordedYears(rows)
	if len(columns) > 0 {
		minYear, maxYear, ok = lo.Min(columns), lo.Max(columns), true
	}
	if !ok {
		return nil
	}
	if newest, err := d.Extreme(Newest); err == nil {
		maxYear = newest.Year()
	}
	return percent.YearRange(minYear, maxYear)
}

func (d *Directory) collisionCount() int {
	n := 0
	for _, id := range d.identities {
		if id.Collision {
			n++
		}
	}
	return n
}
