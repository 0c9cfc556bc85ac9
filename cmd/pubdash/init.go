package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/pubdash/internal/config"
)

var (
	initInstitution string
	initNameOrder   string
	initConvention  string
)

func init() {
	initCmd.Flags().StringVar(&initInstitution, "institution", "", "Institution named in the \"Currently at ...\" column")
	initCmd.Flags().StringVar(&initNameOrder, "name-order", "", "Publisher name columns: first_last or last_first")
	initCmd.Flags().StringVar(&initConvention, "convention", "", "Default year convention: calendar, academic, fiscal")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new pubdash workspace",
	Long: `Initialize a new pubdash workspace in the current directory.

Creates:
  .pubdash/
  ├── config.json     # Sheet names, name order, default convention
  └── cache/          # SQLite search cache (rebuildable)

Run "pubdash load <workbook>" next to build the publisher directory.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	if config.IsWorkspace(root) {
		exitWithError(ExitError, "directory already contains a pubdash workspace")
	}

	cfg := config.Default()
	cfg.Institution = initInstitution
	if initNameOrder != "" {
		cfg.NameOrder = initNameOrder
	}
	if initConvention != "" {
		cfg.Convention = initConvention
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		exitWithError(ExitError, "creating workspace: %v", err)
	}
	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "creating config.json: %v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized pubdash workspace in %s\n", root)
	} else {
		outputJSON(StatusResponse{
			Status: "initialized",
			Path:   root,
		})
	}
	return nil
}
