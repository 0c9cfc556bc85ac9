package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/matsen/pubdash/internal/config"
	"github.com/matsen/pubdash/internal/directory"
	"github.com/matsen/pubdash/internal/importer"
	"github.com/matsen/pubdash/internal/reference"
	"github.com/matsen/pubdash/internal/source"
	"github.com/matsen/pubdash/internal/storage"
)

var loadDryRun bool

func init() {
	loadCmd.Flags().BoolVar(&loadDryRun, "dry-run", false, "Build the directory and report without writing the snapshot")
	rootCmd.AddCommand(loadCmd)
}

var loadCmd = &cobra.Command{
	Use:   "load [workbook]",
	Short: "Load a master workbook and build the publisher directory",
	Long: `Load a master workbook and build the publisher directory.

The workbook may be a local .xlsx path or a gs://bucket/object URL. Without
an argument the last loaded source is read again.

The publication sheet needs "Print Published", "DOI" and "Citation"
columns. The publisher sheet has two header rows: names, position and the
"Currently at ..." flag in row 1, research percent years in row 2.

Publishers sharing a last name are kept as separate entries (Smith_1,
Smith_2) with no publications attributed.

Examples:
  pubdash load master.xlsx
  pubdash load gs://dept-reports/master.xlsx`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLoad,
}

// LoadResult is the response for the load command.
type LoadResult struct {
	Status       string   `json:"status"`
	RunID        string   `json:"run_id,omitempty"`
	Source       string   `json:"source"`
	Publishers   int      `json:"publishers"`
	Collisions   int      `json:"collisions"`
	Corpus       int      `json:"corpus"`
	Attributions int      `json:"attributions"`
	PercentYears []int    `json:"percent_years"`
	Errors       []string `json:"errors"`
}

func runLoad(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	location := cfg.Source
	if len(args) > 0 {
		location = config.ExpandPath(args[0])
	}
	if location == "" {
		exitWithError(ExitError, "no workbook given and none loaded before")
	}

	wb := mustReadWorkbook(commandContext(cmd), location, cfg)

	order, err := reference.ParseNameOrder(cfg.NameOrder)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	d, err := directory.Build(wb.Publishers, wb.Publications, directory.BuildOptions{
		Order:  order,
		Logger: slog.Default(),
		Years:  wb.Years,
	})
	if err != nil {
		exitWithError(ExitDataError, "building directory: %v", err)
	}
	dirStore.Replace(d)

	result := LoadResult{
		Status:       "loaded",
		Source:       location,
		Publishers:   d.Len(),
		Collisions:   lo.CountBy(d.Identities(), func(id *directory.Identity) bool { return id.Collision }),
		Corpus:       len(wb.Publications),
		Attributions: lo.SumBy(d.Identities(), func(id *directory.Identity) int { return id.PublicationCount }),
		PercentYears: wb.Years,
		Errors:       lo.Map(wb.RowErrors, func(err error, _ int) string { return err.Error() }),
	}

	if loadDryRun {
		result.Status = "dry-run"
		reportLoad(result)
		return nil
	}

	header := storage.SnapshotHeader{
		RunID:      uuid.NewString(),
		LoadedAt:   time.Now().UTC(),
		Source:     location,
		Publishers: d.Len(),
		Corpus:     len(wb.Publications),
	}
	if err := storage.WriteSnapshot(config.DirectoryPath(root), header, d.Identities()); err != nil {
		exitWithError(ExitError, "writing snapshot: %v", err)
	}
	result.RunID = header.RunID

	db := mustOpenDatabase(root)
	defer db.Close()
	if _, err := db.RebuildFromSnapshot(config.DirectoryPath(root)); err != nil {
		exitWithError(ExitDataError, "rebuilding cache: %v", err)
	}

	cfg.Source = location
	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	slog.Info("loaded workbook", "source", location, "run_id", header.RunID, "publishers", d.Len())
	reportLoad(result)
	return nil
}

// mustReadWorkbook opens and parses the workbook, exits on error.
func mustReadWorkbook(ctx context.Context, location string, cfg *config.Config) *importer.Workbook {
	r, err := source.Open(ctx, location)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	defer r.Close()

	wb, err := importer.ReadWorkbook(r, importer.Options{
		PublicationsSheet: cfg.PublicationsTab,
		PublishersSheet:   cfg.PublishersTab,
	})
	if err != nil {
		exitWithError(ExitDataError, "reading workbook: %v", err)
	}
	for _, rowErr := range wb.RowErrors {
		slog.Warn("skipped row", "error", rowErr)
	}
	return wb
}

func reportLoad(r LoadResult) {
	if r.Errors == nil {
		r.Errors = []string{}
	}
	if !humanOutput {
		outputJSON(r)
		return
	}

	verb := "Loaded"
	if r.Status == "dry-run" {
		verb = "Would load"
	}
	fmt.Printf("%s %s: %d publishers (%d sharing a last name), %d publications, %d attributions\n",
		verb, r.Source, r.Publishers, r.Collisions, r.Corpus, r.Attributions)
	if len(r.PercentYears) > 0 {
		fmt.Printf("Research percent years: %d - %d\n", r.PercentYears[0], r.PercentYears[len(r.PercentYears)-1])
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(os.Stderr, "\nSkipped %d rows:\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(os.Stderr, "  - %s\n", e)
		}
	}
}
