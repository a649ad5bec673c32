package knockout

import "errors"

var (
	// ErrFieldTooSmall is returned when fewer than two teams enter the knockout.
	ErrFieldTooSmall = errors.New("knockout needs at least two teams")
	// ErrComplete is returned when stepping a finished reducer.
	ErrComplete = errors.New("knockout already complete")
)
