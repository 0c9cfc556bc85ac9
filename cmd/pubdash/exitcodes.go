package main

// Exit codes
const (
	ExitSuccess        = 0 // Success
	ExitError          = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError    = 2 // Configuration error (no workspace, no snapshot, no database_url)
	ExitDataError      = 3 // Data error (unreadable workbook, missing sheet or column)
	ExitNoData         = 4 // Selection is empty or has no publications in range
	ExitWarehouseError = 5 // Postgres warehouse unreachable or rejected the run
)
