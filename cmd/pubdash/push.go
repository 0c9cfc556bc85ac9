package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/matsen/pubdash/internal/config"
	"github.com/matsen/pubdash/internal/reference"
	"github.com/matsen/pubdash/internal/warehouse"
)

var (
	pushSel    selection
	pushSchema string
	pushTag    string
	pushLatest bool
)

func init() {
	pushSel.register(pushCmd, true)
	pushCmd.Flags().StringVar(&pushSchema, "schema", "", "Warehouse schema (default from global config, else \"pubdash\")")
	pushCmd.Flags().StringVar(&pushTag, "tag", "", "Label stored with the run")
	pushCmd.Flags().BoolVar(&pushLatest, "latest", false, "Show the most recent stored run instead of pushing")
	rootCmd.AddCommand(pushCmd)
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Store a yearly statistics run in the Postgres warehouse",
	Long: `Compute yearly counts and productivity ratios for the selection and
store them, with the directory-wide Median and Maximum series, as one run
in the Postgres warehouse.

The connection string comes from PUBDASH_DATABASE_URL (a .env file in the
working directory is read) or database_url in the global config.

Example:
  pubdash push --group active --convention academic --tag fall-review`,
	Args: cobra.NoArgs,
	RunE: runPush,
}

// PushResult is the response for the push command.
type PushResult struct {
	Status     string `json:"status"`
	RunID      string `json:"run_id"`
	Schema     string `json:"schema"`
	Buckets    int    `json:"buckets"`
	Publishers int    `json:"publishers"`
}

func runPush(cmd *cobra.Command, args []string) error {
	if pushLatest {
		return runPushLatest(cmd)
	}

	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)
	d, header := mustLoadDirectory(root)

	ids, err := pushSel.identities(d)
	if err != nil {
		exitForError(PushResult{Status: "empty"}, err, "selecting publishers")
	}
	period, err := pushSel.period(d, cfg.Convention)
	if err != nil {
		exitForError(PushResult{Status: "empty"}, err, "resolving window")
	}
	buckets, counts, report, err := yearlyProductivity(d, ids, period, true)
	if err != nil {
		exitForError(PushResult{Status: "empty"}, err, "computing statistics")
	}

	ctx := commandContext(cmd)
	db, schema := mustOpenWarehouse(ctx)
	defer db.Close()

	runID, err := warehouse.Push(ctx, db, schema, warehouse.Run{
		SnapshotRunID: header.RunID,
		Convention:    period.Convention,
		From:          period.Start,
		To:            period.End,
		Tag:           pushTag,
		Buckets:       buckets,
		Counts:        counts,
		Report:        report,
	})
	if err != nil {
		exitWithError(ExitWarehouseError, "storing run: %v", err)
	}
	slog.Info("pushed stats run", "run_id", runID, "schema", schema, "buckets", len(buckets))

	result := PushResult{
		Status:     "pushed",
		RunID:      runID,
		Schema:     schema,
		Buckets:    len(buckets),
		Publishers: len(ids),
	}
	if humanOutput {
		fmt.Printf("Stored run %s in %s (%d years x %d publishers)\n", result.RunID, result.Schema, result.Buckets, result.Publishers)
	} else {
		outputJSON(result)
	}
	return nil
}

func runPushLatest(cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	db, schema := mustOpenWarehouse(ctx)
	defer db.Close()

	info, err := warehouse.LatestRun(ctx, db, schema)
	if err != nil {
		if errors.Is(err, warehouse.ErrNoRuns) {
			exitNoData(struct{}{}, err)
		}
		exitWithError(ExitWarehouseError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Run %s (%s), %s to %s, stored %s\n", info.ID, info.Convention,
			info.WindowStart.Format(reference.DateLayout), info.WindowEnd.Format(reference.DateLayout),
			info.CreatedAt.Format("2006-01-02 15:04"))
		if info.Tag != "" {
			fmt.Printf("Tag: %s\n", info.Tag)
		}
	} else {
		outputJSON(info)
	}
	return nil
}

// mustOpenWarehouse connects to the configured warehouse and returns the
// schema to use. Exits on error.
func mustOpenWarehouse(ctx context.Context) (*sql.DB, string) {
	url, err := config.DatabaseURL()
	if err != nil {
		if errors.Is(err, config.ErrDatabaseNotConfigured) {
			exitWithError(ExitConfigError, "%v", err)
		}
		exitWithError(ExitConfigError, "loading global config: %v", err)
	}
	schema := pushSchema
	if schema == "" {
		schema = config.WarehouseSchema()
	}

	db, err := warehouse.Open(ctx, url)
	if err != nil {
		exitWithError(ExitWarehouseError, "%v", err)
	}
	return db, schema
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
