package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/pubdash/internal/config"
	"github.com/matsen/pubdash/internal/storage"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the search cache from the directory snapshot",
	Long: `Rebuild the SQLite search cache from .pubdash/directory.jsonl.

Use this if the cache is deleted or corrupted. It does not re-read the
workbook; run "pubdash load" for that.`,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status       string `json:"status"`
	RunID        string `json:"run_id"`
	Attributions int    `json:"attributions"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()

	db := mustOpenDatabase(root)
	defer db.Close()

	count, err := db.RebuildFromSnapshot(config.DirectoryPath(root))
	if err != nil {
		if errors.Is(err, storage.ErrNoSnapshot) {
			exitWithError(ExitConfigError, "%v", err)
		}
		exitWithError(ExitDataError, "rebuilding cache: %v", err)
	}
	runID, err := db.RunID()
	if err != nil {
		exitWithError(ExitError, "reading run id: %v", err)
	}

	if humanOutput {
		fmt.Printf("Rebuilt search cache with %d attributions (snapshot %s)\n", count, runID)
	} else {
		outputJSON(RebuildResult{
			Status:       "rebuilt",
			RunID:        runID,
			Attributions: count,
		})
	}
	return nil
}
