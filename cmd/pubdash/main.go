// Package main provides the pubdash CLI entry point.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/pubdash/internal/config"
	"github.com/matsen/pubdash/internal/directory"
	"github.com/matsen/pubdash/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	// verbose enables debug logging on stderr
	verbose bool
)

// dirStore holds the directory the current command works on.
var dirStore = directory.NewStore()

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pubdash",
	Short: "Departmental publication analytics",
	Long: `pubdash answers publication questions about a department's faculty.

It loads a master workbook (publication corpus plus publisher sheet),
attributes publications to publishers by matching citations, and reports
counts per month and per year under calendar, academic or fiscal year
conventions, proportional breakdowns, and research-percent adjusted
productivity.

The built directory is stored as a JSONL snapshot with an ephemeral SQLite
cache for search. All commands output JSON by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func init() {
	// Load .env file if present (for PUBDASH_DATABASE_URL, GOOGLE_APPLICATION_CREDENTIALS)
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug detail to stderr")
	rootCmd.Version = Version
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// getStartingDirectory returns the directory to start searching for a workspace.
func getStartingDirectory() (string, int) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", outputError(ExitError, "getting current directory: %v", err)
	}
	return cwd, 0
}

// mustFindWorkspace finds the workspace above the working directory, then
// falls back to workspace_path from the global config. Exits on failure.
func mustFindWorkspace() string {
	start, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	root, err := config.FindWorkspace(start)
	if err == nil {
		return root
	}
	if fallback := config.DefaultWorkspace(); fallback != "" && config.IsWorkspace(fallback) {
		return fallback
	}

	fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
	os.Exit(ExitConfigError)
	return ""
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig(root string) *config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid config: %v", err)
	}
	return cfg
}

// mustOpenDatabase opens the SQLite cache, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(root string) *storage.DB {
	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	db, err := storage.OpenDB(config.DBPath(root))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// mustLoadDirectory reads the snapshot into dirStore and returns it.
func mustLoadDirectory(root string) (*directory.Directory, storage.SnapshotHeader) {
	d, header, err := storage.LoadDirectory(config.DirectoryPath(root))
	if err != nil {
		if errors.Is(err, storage.ErrNoSnapshot) {
			exitWithError(ExitConfigError, "%v", err)
		}
		exitWithError(ExitDataError, "loading directory: %v", err)
	}
	dirStore.Replace(d)
	slog.Debug("loaded directory snapshot", "run_id", header.RunID, "publishers", d.Len())
	return dirStore.Load(), header
}
