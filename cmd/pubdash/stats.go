package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matsen/pubdash/internal/aggregate"
	"github.com/matsen/pubdash/internal/directory"
	"github.com/matsen/pubdash/internal/reference"
	"github.com/matsen/pubdash/internal/window"
)

var statsSel selection

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Publication counts over time",
	Long: `Publication counts for the selected publishers.

Subcommands:
  monthly  - counts per month, cumulative totals, most/least active month
  yearly   - counts per year under a calendar, academic or fiscal convention
  share    - each publisher's share of the selected publications

Selection flags are shared: --author (repeatable) or --group, and a
window given by --from/--to or --all-time.`,
}

var statsMonthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Counts per calendar month",
	Args:  cobra.NoArgs,
	RunE:  runStatsMonthly,
}

var statsYearlyCmd = &cobra.Command{
	Use:   "yearly",
	Short: "Counts per year under a year convention",
	Long: `Counts per year. Year edges follow the convention: calendar years start
January 1, academic years August 1, fiscal years July 1. The first and last
bins are clipped to the window.

Example:
  pubdash stats yearly --convention academic --from 2019-01-01 --to 2021-12-31`,
	Args: cobra.NoArgs,
	RunE: runStatsYearly,
}

var statsShareCmd = &cobra.Command{
	Use:   "share",
	Short: "Each publisher's share of the selected publications",
	Args:  cobra.NoArgs,
	RunE:  runStatsShare,
}

func init() {
	statsSel.register(statsMonthlyCmd, false)
	statsSel.register(statsYearlyCmd, true)
	statsSel.register(statsShareCmd, false)
	statsCmd.AddCommand(statsMonthlyCmd, statsYearlyCmd, statsShareCmd)
	rootCmd.AddCommand(statsCmd)
}

// Activity names the busiest or quietest bucket.
type Activity struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// SeriesResult is the response for stats monthly and stats yearly.
type SeriesResult struct {
	Convention  string           `json:"convention,omitempty"`
	From        string           `json:"from"`
	To          string           `json:"to"`
	Publishers  []string         `json:"publishers"`
	Labels      []string         `json:"labels"`
	Total       []int            `json:"total"`
	Cumulative  []int            `json:"cumulative"`
	PerIdentity map[string][]int `json:"per_publisher"`
	MostActive  *Activity        `json:"most_active,omitempty"`
	LeastActive *Activity        `json:"least_active,omitempty"`
}

// ShareResult is the response for stats share.
type ShareResult struct {
	From    string            `json:"from"`
	To      string            `json:"to"`
	Records int               `json:"records"`
	Shares  []aggregate.Share `json:"shares"`
}

func runStatsMonthly(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	d, _ := mustLoadDirectory(root)

	ids, err := statsSel.identities(d)
	if err != nil {
		exitForError(SeriesResult{}, err, "selecting publishers")
	}
	start, end, err := statsSel.window(d)
	if err != nil {
		exitForError(SeriesResult{}, err, "resolving window")
	}
	if end.Before(start) {
		exitWithError(ExitError, "window end %s is before start %s", end.Format(reference.DateLayout), start.Format(reference.DateLayout))
	}

	buckets := window.MonthlyBuckets(start, end)
	records := aggregate.FilterToWindow(ids, start, end)
	result := seriesResult(buckets, records, ids)
	result.From = start.Format(reference.DateLayout)
	result.To = end.Format(reference.DateLayout)

	printSeries(result)
	return nil
}

func runStatsYearly(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)
	d, _ := mustLoadDirectory(root)

	ids, err := statsSel.identities(d)
	if err != nil {
		exitForError(SeriesResult{}, err, "selecting publishers")
	}
	period, err := statsSel.period(d, cfg.Convention)
	if err != nil {
		exitForError(SeriesResult{}, err, "resolving window")
	}

	buckets, err := window.YearBuckets(period.Start, period.End, period.Convention)
	if err != nil {
		exitForError(SeriesResult{}, err, "cutting years")
	}
	records := aggregate.FilterToWindow(ids, period.Start, period.End)
	result := seriesResult(buckets, records, ids)
	result.Convention = period.Convention.Describe()
	result.From = period.Start.Format(reference.DateLayout)
	result.To = period.End.Format(reference.DateLayout)

	printSeries(result)
	return nil
}

func runStatsShare(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	d, _ := mustLoadDirectory(root)

	ids, err := statsSel.identities(d)
	if err != nil {
		exitForError(ShareResult{Shares: []aggregate.Share{}}, err, "selecting publishers")
	}
	start, end, err := statsSel.window(d)
	if err != nil {
		exitForError(ShareResult{Shares: []aggregate.Share{}}, err, "resolving window")
	}

	records := aggregate.FilterToWindow(ids, start, end)
	result := ShareResult{
		From:    start.Format(reference.DateLayout),
		To:      end.Format(reference.DateLayout),
		Records: len(records),
		Shares:  aggregate.Proportions(records, ids),
	}

	if !humanOutput {
		outputJSON(result)
		return nil
	}
	fmt.Printf("%d publications, %s to %s\n\n", result.Records, result.From, result.To)
	for _, s := range result.Shares {
		fmt.Printf("  %-28s %5d  %5.1f%%\n", s.Name, s.Count, 100*s.Fraction)
	}
	return nil
}

// seriesResult tallies records into buckets, overall and per identity.
func seriesResult(buckets []window.Bucket, records []reference.Publication, ids []*directory.Identity) SeriesResult {
	total := aggregate.CountsPerBucket(buckets, records)
	result := SeriesResult{
		Publishers:  keys(ids),
		Labels:      window.Labels(buckets),
		Total:       total,
		Cumulative:  aggregate.Cumulative(total),
		PerIdentity: aggregate.CountsPerBucketPerIdentity(buckets, records, ids),
	}
	if b, n, err := aggregate.MostActive(buckets, total, false); err == nil {
		result.MostActive = &Activity{Label: b.Label, Count: n}
	}
	if b, n, err := aggregate.MostActive(buckets, total, true); err == nil {
		result.LeastActive = &Activity{Label: b.Label, Count: n}
	}
	return result
}

func printSeries(r SeriesResult) {
	if !humanOutput {
		outputJSON(r)
		return
	}

	if r.Convention != "" {
		fmt.Println(r.Convention)
	}
	fmt.Printf("%s to %s, %d publishers\n\n", r.From, r.To, len(r.Publishers))
	fmt.Printf("%-*s %6s %6s\n", LabelWidth, "", "total", "cumul")
	for i, label := range r.Labels {
		fmt.Printf("%-*s %6d %6d\n", LabelWidth, label, r.Total[i], r.Cumulative[i])
	}

	if len(r.PerIdentity) > 1 {
		fmt.Println()
		names := make([]string, 0, len(r.PerIdentity))
		for k := range r.PerIdentity {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			fmt.Printf("%-*s %s\n", LabelWidth, truncateString(k, LabelWidth), formatIntRow(r.PerIdentity[k]))
		}
	}

	if r.MostActive != nil && r.LeastActive != nil {
		fmt.Printf("\nMost active:  %s (%d)\nLeast active: %s (%d)\n",
			r.MostActive.Label, r.MostActive.Count,
			r.LeastActive.Label, r.LeastActive.Count)
	}
}
