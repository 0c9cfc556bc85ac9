package main

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/matsen/pubdash/internal/directory"
	"github.com/matsen/pubdash/internal/percent"
)

var (
	publishersGroup string
	publishersTop   int
)

func init() {
	publishersCmd.Flags().StringVarP(&publishersGroup, "group", "g", "all", "Which publishers: all, active")
	publishersCmd.Flags().IntVar(&publishersTop, "top", 0, "Only the N publishers with the most publications")
	rootCmd.AddCommand(publishersCmd)
}

var publishersCmd = &cobra.Command{
	Use:   "publishers",
	Short: "List publishers in the directory",
	Long: `List publishers in the directory with their attribution counts.

Examples:
  pubdash publishers
  pubdash publishers --group active
  pubdash publishers --top 5`,
	Args: cobra.NoArgs,
	RunE: runPublishers,
}

// PublisherSummary is one publisher in the listing.
type PublisherSummary struct {
	Key              string        `json:"key"`
	DisplayName      string        `json:"display_name"`
	Position         string        `json:"position,omitempty"`
	CurrentlyActive  bool          `json:"currently_active"`
	Collision        bool          `json:"collision,omitempty"`
	PublicationCount int           `json:"publication_count"`
	Pattern          string        `json:"pattern,omitempty"`
	ResearchPercent  percent.Table `json:"research_percent,omitempty"`
}

func runPublishers(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	d, _ := mustLoadDirectory(root)

	ids := d.Identities()
	if publishersTop > 0 {
		ids = d.Top(publishersTop)
	}
	group, err := directory.ParseGroup(publishersGroup)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	switch group {
	case directory.GroupActive:
		ids = lo.Filter(ids, func(id *directory.Identity, _ int) bool { return id.CurrentlyActive })
	case directory.GroupNone:
		ids = nil
	}

	out := make([]PublisherSummary, len(ids))
	for i, id := range ids {
		out[i] = PublisherSummary{
			Key:              id.Key,
			DisplayName:      id.DisplayName,
			Position:         id.Position,
			CurrentlyActive:  id.CurrentlyActive,
			Collision:        id.Collision,
			PublicationCount: id.PublicationCount,
			Pattern:          id.CitationPattern(),
			ResearchPercent:  id.ResearchPercent,
		}
	}

	if !humanOutput {
		outputJSON(out)
		return nil
	}
	if len(out) == 0 {
		fmt.Println("No publishers")
		return nil
	}
	for _, p := range out {
		marker := " "
		if p.CurrentlyActive {
			marker = "*"
		}
		note := ""
		if p.Collision {
			note = "  (shared last name, not attributed)"
		}
		fmt.Printf("%s %-14s %-28s %4d%s\n", marker, p.Key, p.DisplayName, p.PublicationCount, note)
	}
	fmt.Println("\n* currently at the institution")
	return nil
}
