package groups

import "errors"

// IncompleteGroupsMessage is shown to users who start a tournament before
// every slot is filled.
const IncompleteGroupsMessage = "Some group slots are still empty! Please complete all groups before starting the tournament."

// Sentinel kinds for board errors.
var (
	ErrIncompleteGroups = errors.New("incomplete groups")
	ErrSlotFilled       = errors.New("slot already filled")
	ErrTeamPlaced       = errors.New("team already placed")
	ErrOutOfRange       = errors.New("group or slot out of range")
	ErrNothingPicked    = errors.New("no team picked")
	ErrBoardNotFound    = errors.New("board not found")
)
