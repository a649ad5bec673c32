package tournament

import "errors"

// ErrGroupCount is returned when the draw does not hold eight groups of four.
var ErrGroupCount = errors.New("expected 8 groups of 4 teams")
