package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/pubdash/internal/storage"
)

var (
	searchLimit   int
	searchAuthors []string
	searchFrom    string
	searchTo      string
)

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultSearchLimit, "Maximum results to return")
	searchCmd.Flags().StringArrayVarP(&searchAuthors, "author", "a", nil, "Publisher key or \"Last, First\" (repeatable, OR logic)")
	searchCmd.Flags().StringVar(&searchFrom, "from", "", "Earliest publication date, YYYY-MM-DD")
	searchCmd.Flags().StringVar(&searchTo, "to", "", "Latest publication date, YYYY-MM-DD")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search attributed publications",
	Long: `Search attributed publications in the cache by citation text or DOI.

A publication attributed to two publishers is listed once for each.

Examples:
  pubdash search "phylogenetics"
  pubdash search -a Smith --from 2020-01-01
  pubdash search "10.1093/molbev"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()

	filters := storage.SearchFilters{}
	if len(args) > 0 {
		filters.Keyword = args[0]
	}
	if len(searchAuthors) > 0 {
		d, _ := mustLoadDirectory(root)
		ids, err := d.Resolve(searchAuthors)
		if err != nil {
			exitForError([]storage.Hit{}, err, "selecting publishers")
		}
		filters.Publishers = keys(ids)
	}
	var err error
	if searchFrom != "" {
		if filters.From, err = parseDay(searchFrom); err != nil {
			exitWithError(ExitError, "%v", err)
		}
	}
	if searchTo != "" {
		if filters.To, err = parseDay(searchTo); err != nil {
			exitWithError(ExitError, "%v", err)
		}
	}
	if filters.Keyword == "" && len(filters.Publishers) == 0 && filters.From.IsZero() && filters.To.IsZero() {
		exitWithError(ExitError, "must specify a query or at least one filter (--author, --from, --to)")
	}

	db := mustOpenDatabase(root)
	defer db.Close()

	hits, err := db.SearchWithFilters(filters, searchLimit)
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}

	// Empty result is not an error
	if hits == nil {
		hits = []storage.Hit{}
	}

	if !humanOutput {
		outputJSON(hits)
		return nil
	}
	if len(hits) == 0 {
		fmt.Println("No publications found")
		return nil
	}
	fmt.Printf("Found %d publications:\n\n", len(hits))
	for i, h := range hits {
		fmt.Printf("%d. %s  %s\n", i+1, h.Date(), h.PublisherKey)
		fmt.Printf("   %s\n", truncateString(h.Citation, CitationMaxLen))
		if h.DOI != "" {
			fmt.Printf("   doi:%s\n", h.DOI)
		}
		fmt.Println()
	}
	return nil
}
