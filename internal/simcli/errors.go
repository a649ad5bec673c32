package simcli

import "errors"

// Sentinel errors for the command line runner.
var (
	ErrTooManyGroups = errors.New("too many groups")
	ErrGroupSize     = errors.New("a group needs exactly 4 teams")
	ErrInvalidRuns   = errors.New("runs must be at least 1")
)
