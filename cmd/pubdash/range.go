package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/pubdash/internal/directory"
	"github.com/matsen/pubdash/internal/reference"
)

var rangeAuthors []string

func init() {
	rangeCmd.Flags().StringArrayVarP(&rangeAuthors, "author", "a", nil, "Publisher key or \"Last, First\" (repeatable)")
	rootCmd.AddCommand(rangeCmd)
}

var rangeCmd = &cobra.Command{
	Use:   "range",
	Short: "Show the oldest and newest publication dates",
	Long: `Show the oldest and newest publication dates, across every publisher or
across the selected ones. Publishers without publications are skipped.

Examples:
  pubdash range
  pubdash range -a Smith -a "Doe, Alice"`,
	Args: cobra.NoArgs,
	RunE: runRange,
}

// RangeResult is the response for the range command.
type RangeResult struct {
	Publishers []string `json:"publishers,omitempty"`
	Oldest     string   `json:"oldest,omitempty"`
	Newest     string   `json:"newest,omitempty"`
}

func runRange(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	d, _ := mustLoadDirectory(root)

	scan := d.Identities()
	var result RangeResult
	if len(rangeAuthors) > 0 {
		ids, err := d.Resolve(rangeAuthors)
		if err != nil {
			exitForError(RangeResult{}, err, "selecting publishers")
		}
		scan = ids
		result.Publishers = keys(ids)
	}

	oldest, err := directory.ExtremeOf(directory.Oldest, scan)
	if err != nil {
		exitForError(result, err, "finding oldest publication")
	}
	newest, err := directory.ExtremeOf(directory.Newest, scan)
	if err != nil {
		exitForError(result, err, "finding newest publication")
	}
	result.Oldest = oldest.Format(reference.DateLayout)
	result.Newest = newest.Format(reference.DateLayout)

	if humanOutput {
		fmt.Printf("%s to %s\n", result.Oldest, result.Newest)
	} else {
		outputJSON(result)
	}
	return nil
}
