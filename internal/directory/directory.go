package directory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/matsen/pubdash/internal/author"
	"github.com/matsen/pubdash/internal/reference"
)

// Directory is an immutable, ordered set of publisher identities.
// Identities keep the order of the publisher sheet.
type Directory struct {
	identities []*Identity
	byKey      map[string]*Identity
}

// New assembles a directory from already-built identities, such as those
// read back from a snapshot. Keys must be unique. Citation patterns are
// compiled for every non-collision identity.
func New(identities []*Identity) (*Directory, error) {
	d := &Directory{
		identities: identities,
		byKey:      make(map[string]*Identity, len(identities)),
	}
	for _, id := range identities {
		if _, dup := d.byKey[id.Key]; dup {
			return nil, fmt.Errorf("duplicate publisher key %q", id.Key)
		}
		if id.matcher == nil && !id.Collision {
			id.matcher = author.NewMatcher(id.FirstName, id.LastName)
		}
		d.byKey[id.Key] = id
	}
	return d, nil
}

// Len returns the number of identities.
func (d *Directory) Len() int {
	return len(d.identities)
}

// Identities returns every identity in sheet order.
func (d *Directory) Identities() []*Identity {
	return d.identities
}

// Keys returns every identity key in sheet order.
func (d *Directory) Keys() []string {
	return lo.Map(d.identities, func(id *Identity, _ int) string { return id.Key })
}

// Get returns the identity with the given key.
func (d *Directory) Get(key string) (*Identity, bool) {
	id, ok := d.byKey[key]
	return id, ok
}

// Select returns the identities for the given keys, in the order given.
// An empty key list is ErrNoData; an unknown key is ErrInvalidArgument.
func (d *Directory) Select(keys []string) ([]*Identity, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no publishers selected", reference.ErrNoData)
	}
	out := make([]*Identity, 0, len(keys))
	for _, k := range lo.Uniq(keys) {
		id, ok := d.byKey[k]
		if !ok {
			return nil, fmt.Errorf("%w: unknown publisher %q", reference.ErrInvalidArgument, k)
		}
		out = append(out, id)
	}
	return out, nil
}

// Resolve maps user-typed selectors to identities. A selector is either an
// exact key or a name in any form author.ParseQuery accepts ("Smith",
// "John Smith", "Smith, John"). A name may resolve to several identities,
// such as every member of a collision group. Duplicates are dropped and
// first-seen order kept.
func (d *Directory) Resolve(selectors []string) ([]*Identity, error) {
	if len(selectors) == 0 {
		return nil, fmt.Errorf("%w: no publishers selected", reference.ErrNoData)
	}
	var out []*Identity
	for _, sel := range selectors {
		if id, ok := d.byKey[strings.TrimSpace(sel)]; ok {
			out = append(out, id)
			continue
		}
		q := author.ParseQuery(sel)
		matched := lo.Filter(d.identities, func(id *Identity, _ int) bool {
			return q.Matches(id.FirstName, id.LastName)
		})
		if len(matched) == 0 {
			return nil, fmt.Errorf("%w: no publisher matches %q", reference.ErrInvalidArgument, sel)
		}
		out = append(out, matched...)
	}
	return lo.Uniq(out), nil
}

// Direction selects the end of the date range Extreme scans for.
type Direction string

const (
	Newest Direction = "newest"
	Oldest Direction = "oldest"
)

// ParseDirection validates an extreme direction selector.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Newest:
		return Newest, nil
	case Oldest:
		return Oldest, nil
	default:
		return "", fmt.Errorf("%w: direction %q (valid: newest, oldest)", reference.ErrInvalidArgument, s)
	}
}

// Extreme returns the newest or oldest publication date across the given
// identities, or across the whole directory when no keys are given.
// Identities without publications are skipped; if none of the scanned
// identities has a publication the result is ErrNoData.
func (d *Directory) Extreme(dir Direction, keys ...string) (time.Time, error) {
	if dir != Newest && dir != Oldest {
		return time.Time{}, fmt.Errorf("%w: direction %q", reference.ErrInvalidArgument, string(dir))
	}

	scan := d.identities
	if len(keys) > 0 {
		var err error
		if scan, err = d.Select(keys); err != nil {
			return time.Time{}, err
		}
	}
	return ExtremeOf(dir, scan)
}

// ExtremeOf is Extreme over an explicit identity list.
func ExtremeOf(dir Direction, identities []*Identity) (time.Time, error) {
	var (
		best  time.Time
		found bool
	)
	for _, id := range identities {
		var (
			t  time.Time
			ok bool
		)
		switch dir {
		case Newest:
			t, ok = id.Newest()
		case Oldest:
			t, ok = id.Oldest()
		default:
			return time.Time{}, fmt.Errorf("%w: direction %q", reference.ErrInvalidArgument, string(dir))
		}
		if !ok {
			continue
		}
		if !found || (dir == Newest && t.After(best)) || (dir == Oldest && t.Before(best)) {
			best, found = t, true
		}
	}
	if !found {
		return time.Time{}, fmt.Errorf("%w: selected publishers have no publications", reference.ErrNoData)
	}
	return best, nil
}

// Top returns up to n identities with the most attributed publications,
// most first. Ties keep sheet order. n <= 0 returns every identity.
func (d *Directory) Top(n int) []*Identity {
	ranked := make([]*Identity, len(d.identities))
	copy(ranked, d.identities)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PublicationCount > ranked[j].PublicationCount
	})
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// Group is a preset publisher selection.
type Group string

const (
	GroupAll    Group = "all"    // Every publisher in the sheet
	GroupActive Group = "active" // Publishers still at the institution
	GroupNone   Group = "none"   // Nobody; the caller picks individually
)

// ParseGroup validates a group selector.
func ParseGroup(s string) (Group, error) {
	switch Group(strings.ToLower(strings.TrimSpace(s))) {
	case GroupAll:
		return GroupAll, nil
	case GroupActive:
		return GroupActive, nil
	case GroupNone, "":
		return GroupNone, nil
	default:
		return "", fmt.Errorf("%w: group %q (valid: all, active, none)", reference.ErrInvalidArgument, s)
	}
}

// SelectGroup returns the identities in a preset group, in sheet order.
func (d *Directory) SelectGroup(g Group) ([]*Identity, error) {
	switch g {
	case GroupAll:
		return d.identities, nil
	case GroupActive:
		return lo.Filter(d.identities, func(id *Identity, _ int) bool { return id.CurrentlyActive }), nil
	case GroupNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: group %q", reference.ErrInvalidArgument, string(g))
	}
}
