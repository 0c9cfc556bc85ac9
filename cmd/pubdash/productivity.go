package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matsen/pubdash/internal/aggregate"
	"github.com/matsen/pubdash/internal/directory"
	"github.com/matsen/pubdash/internal/productivity"
	"github.com/matsen/pubdash/internal/reference"
	"github.com/matsen/pubdash/internal/window"
)

var (
	productivitySel     selection
	productivityCompare bool
	productivityStat    string
)

func init() {
	productivitySel.register(productivityCmd, true)
	productivityCmd.Flags().BoolVar(&productivityCompare, "compare", true, "Add Median and Maximum series across every publisher")
	productivityCmd.Flags().StringVar(&productivityStat, "stat", "", "Also reduce the selected series: median, maximum, minimum")
	rootCmd.AddCommand(productivityCmd)
}

var productivityCmd = &cobra.Command{
	Use:   "productivity",
	Short: "Publications per research percent, per year",
	Long: `Potential productivity: each year's publication count divided by the
research percent recorded for that year's fall semester. Years with no
recorded percent, or a percent of zero, give 0.

With --compare (the default) the Median and Maximum series are computed
over every publisher in the directory, ignoring publishers whose series is
all zero.

Example:
  pubdash productivity -a Smith --convention academic`,
	Args: cobra.NoArgs,
	RunE: runProductivity,
}

// ProductivityResult is the response for the productivity command.
type ProductivityResult struct {
	Convention string    `json:"convention"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Publishers []string  `json:"publishers"`
	Stat       string    `json:"stat,omitempty"`
	StatSeries []float64 `json:"stat_series,omitempty"`
	productivity.Report
}

func runProductivity(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)
	d, _ := mustLoadDirectory(root)

	empty := ProductivityResult{Report: productivity.Report{Labels: []string{}, Ratios: map[string][]float64{}}}
	ids, err := productivitySel.identities(d)
	if err != nil {
		exitForError(empty, err, "selecting publishers")
	}
	period, err := productivitySel.period(d, cfg.Convention)
	if err != nil {
		exitForError(empty, err, "resolving window")
	}

	buckets, _, report, err := yearlyProductivity(d, ids, period, productivityCompare)
	if err != nil {
		exitForError(empty, err, "computing productivity")
	}

	result := ProductivityResult{
		Convention: period.Convention.Describe(),
		From:       period.Start.Format(reference.DateLayout),
		To:         period.End.Format(reference.DateLayout),
		Publishers: keys(ids),
		Report:     report,
	}
	if productivityStat != "" {
		kind, err := productivity.ParseKind(productivityStat)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		result.Stat = string(kind)
		if result.StatSeries, err = productivity.CrossIdentity(kind, report.Ratios); err != nil {
			exitForError(empty, err, "reducing series")
		}
	}

	if !humanOutput {
		outputJSON(result)
		return nil
	}

	fmt.Println(result.Convention)
	fmt.Printf("%s to %s\n\n", result.From, result.To)
	fmt.Printf("%-*s %s\n", LabelWidth, "", joinLabels(window.Labels(buckets)))
	names := make([]string, 0, len(result.Ratios))
	for k := range result.Ratios {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Printf("%-*s %s\n", LabelWidth, truncateString(k, LabelWidth), formatFloatRow(result.Ratios[k]))
	}
	if len(result.Median) > 0 {
		fmt.Printf("%-*s %s\n", LabelWidth, "Median", formatFloatRow(result.Median))
		fmt.Printf("%-*s %s\n", LabelWidth, "Maximum", formatFloatRow(result.Maximum))
	}
	if result.Stat != "" && len(result.StatSeries) > 0 {
		fmt.Printf("%-*s %s\n", LabelWidth, result.Stat, formatFloatRow(result.StatSeries))
	}
	return nil
}

// yearlyProductivity cuts the window into years, counts the selection per
// year and computes its ratio series. With compare set the Median and
// Maximum series are computed over the whole directory.
func yearlyProductivity(d *directory.Directory, ids []*directory.Identity, period window.Period, compare bool) ([]window.Bucket, map[string][]int, productivity.Report, error) {
	buckets, err := window.YearBuckets(period.Start, period.End, period.Convention)
	if err != nil {
		return nil, nil, productivity.Report{}, err
	}

	records := aggregate.FilterToWindow(ids, period.Start, period.End)
	counts := aggregate.CountsPerBucketPerIdentity(buckets, records, ids)
	report := productivity.Analyze(buckets, counts, ids)

	if compare {
		all := d.Identities()
		poolRecords := aggregate.FilterToWindow(all, period.Start, period.End)
		pool := productivity.Analyze(buckets, aggregate.CountsPerBucketPerIdentity(buckets, poolRecords, all), all)
		if err := report.Compare(pool.Ratios); err != nil {
			return nil, nil, productivity.Report{}, err
		}
	}
	return buckets, counts, report, nil
}

// joinLabels right-aligns year labels to the ratio columns. Labels wider
// than a column are shortened to their start year.
func joinLabels(labels []string) string {
	out := ""
	for i, l := range labels {
		if len(l) > 6 {
			if y, ok := productivity.LabelYear(l); ok {
				l = fmt.Sprint(y)
			}
		}
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%6s", l)
	}
	return out
}
