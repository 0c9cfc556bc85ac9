package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/pubdash/internal/reference"
)

// Constants for output formatting.
const (
	DefaultSearchLimit = 50 // Default limit for search

	CitationMaxLen = 90 // Citation truncation in human listings
	LabelWidth     = 12 // Bucket label column in human tables
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError writes an error message to stderr and returns the exit code.
func outputError(code int, format string, args ...interface{}) int {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	return code
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// exitNoData prints an empty result and exits with ExitNoData.
func exitNoData(empty interface{}, err error) {
	if humanOutput {
		fmt.Fprintf(os.Stderr, "no data: %v\n", err)
	} else {
		outputJSON(empty)
	}
	os.Exit(ExitNoData)
}

// exitForError maps an engine error to an exit code. ErrNoData prints the
// empty result; everything else is an error response.
func exitForError(empty interface{}, err error, context string) {
	switch {
	case errors.Is(err, reference.ErrNoData):
		exitNoData(empty, err)
	case errors.Is(err, reference.ErrInvalidArgument):
		exitWithError(ExitError, "%s: %v", context, err)
	default:
		exitWithError(ExitDataError, "%s: %v", context, err)
	}
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatIntRow formats counts as right-aligned columns.
func formatIntRow(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%6d", v)
	}
	return strings.Join(parts, " ")
}

// formatFloatRow formats ratios as right-aligned columns.
func formatFloatRow(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%6.2f", v)
	}
	return strings.Join(parts, " ")
}
