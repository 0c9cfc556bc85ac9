package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matsen/pubdash/internal/directory"
	"github.com/matsen/pubdash/internal/reference"
	"github.com/matsen/pubdash/internal/window"
)

// selection holds the filter flags shared by the statistics commands.
type selection struct {
	authors    []string
	group      string
	from       string
	to         string
	allTime    bool
	convention string
}

// register adds the filter flags to cmd. withConvention adds --convention
// for commands that cut years.
func (s *selection) register(cmd *cobra.Command, withConvention bool) {
	cmd.Flags().StringArrayVarP(&s.authors, "author", "a", nil, "Publisher key or \"Last, First\" (repeatable)")
	cmd.Flags().StringVarP(&s.group, "group", "g", "", "Preset selection when no --author is given: all, active")
	cmd.Flags().StringVar(&s.from, "from", "", "Window start, YYYY-MM-DD (default: oldest recorded publication)")
	cmd.Flags().StringVar(&s.to, "to", "", "Window end, YYYY-MM-DD (default: newest recorded publication)")
	cmd.Flags().BoolVar(&s.allTime, "all-time", false, "Use the full recorded range, ignoring --from/--to")
	if withConvention {
		cmd.Flags().StringVarP(&s.convention, "convention", "c", "", "Year convention: calendar, academic, fiscal (default from config)")
	}
}

// identities resolves the selection. --author wins over --group; with
// neither, every publisher is selected.
func (s *selection) identities(d *directory.Directory) ([]*directory.Identity, error) {
	if len(s.authors) > 0 {
		return d.Resolve(s.authors)
	}
	group := directory.GroupAll
	if s.group != "" {
		var err error
		if group, err = directory.ParseGroup(s.group); err != nil {
			return nil, err
		}
	}
	ids, err := d.SelectGroup(group)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no publishers selected", reference.ErrNoData)
	}
	return ids, nil
}

// window returns the date range. Open ends default to the directory's
// recorded extremes across every publisher, the "all recorded time" range.
func (s *selection) window(d *directory.Directory) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if !s.allTime && s.from != "" {
		if start, err = parseDay(s.from); err != nil {
			return start, end, err
		}
	} else if start, err = d.Extreme(directory.Oldest); err != nil {
		return start, end, err
	}
	if !s.allTime && s.to != "" {
		if end, err = parseDay(s.to); err != nil {
			return start, end, err
		}
	} else if end, err = d.Extreme(directory.Newest); err != nil {
		return start, end, err
	}
	return start, end, nil
}

// period returns the window with the convention from the flag or defaultConv.
func (s *selection) period(d *directory.Directory, defaultConv string) (window.Period, error) {
	start, end, err := s.window(d)
	if err != nil {
		return window.Period{}, err
	}
	name := s.convention
	if name == "" {
		name = defaultConv
	}
	conv, err := window.ParseConvention(name)
	if err != nil {
		return window.Period{}, err
	}
	period := window.Period{Start: start, End: end, Convention: conv}
	return period, period.Validate()
}

func parseDay(s string) (time.Time, error) {
	t, err := time.Parse(reference.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", reference.ErrInvalidArgument, s)
	}
	return t, nil
}

// keys returns the identity keys in order.
func keys(ids []*directory.Identity) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Key
	}
	return out
}
