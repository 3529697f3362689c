package analysis

import "errors"

var (
	// ErrNoColumns is returned when a request selects no columns. It is
	// informational: callers show a hint instead of failing.
	ErrNoColumns = errors.New("no columns selected")
	// ErrTooManyColumns is returned when more than two columns are selected.
	ErrTooManyColumns = errors.New("combined analysis supports at most two columns")
	// ErrUnknownColumn indicates a requested column is not present in the table.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrUnsupportedChart indicates the chart kind does not apply to the analysis.
	ErrUnsupportedChart = errors.New("unsupported chart type")
	// ErrEmptyTable indicates the sheet has no usable columns after sanitizing.
	ErrEmptyTable = errors.New("table has no columns")
)
