package reference

import "errors"

// Error conditions shared by the analytics packages.
var (
	// ErrInvalidArgument indicates an unrecognized selector (extreme direction,
	// calendar convention, statistic kind, name order, group).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoData indicates a query ran over an empty selection or over
	// publishers that have no attributed publications.
	ErrNoData = errors.New("no data")
)
