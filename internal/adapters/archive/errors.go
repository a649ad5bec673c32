package archive

import "errors"

// Sentinel kinds for archive errors.
var (
	ErrDisabled = errors.New("archive disabled")
	ErrNotFound = errors.New("simulation not archived")
)
