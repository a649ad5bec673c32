package dataset

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrMalformedDataset = errors.New("malformed dataset")
	ErrDuplicateTeam    = errors.New("duplicate team")
	ErrUnknownTeam      = errors.New("unknown team")
)
