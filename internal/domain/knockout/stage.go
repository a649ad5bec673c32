package knockout

import "fmt"

// Stage is a step of the knockout state machine.
type Stage int

// Knockout stages in play order.
const (
	RoundOf32 Stage = iota
	NextRound
	RoundOf16
	Quarterfinal
	Semifinal
	ThirdPlace
	Final
	Complete
)

func (s Stage) String() string {
	switch s {
	case RoundOf32:
		return "round_of_32"
	case NextRound:
		return "next_round"
	case RoundOf16:
		return "round_of_16"
	case Quarterfinal:
		return "quarterfinal"
	case Semifinal:
		return "semifinal"
	case ThirdPlace:
		return "third_place"
	case Final:
		return "final"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// MarshalText renders the stage by name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a stage name.
func (s *Stage) UnmarshalText(b []byte) error {
	for st := RoundOf32; st <= Complete; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", b)
}

// Label names a round by how many teams play in it.
func Label(count int) string {
	switch count {
	case 16:
		return "Round of 16"
	case 8:
		return "Quarterfinals"
	case 4:
		return "Semifinals"
	default:
		return "Next Round"
	}
}

// stageFor returns the elimination stage played by count teams. A round of
// three or four teams is two matches and leads to the third-place match.
func stageFor(count int) Stage {
	switch {
	case count <= 2:
		return Final
	case count <= 4:
		return Semifinal
	case count == 8:
		return Quarterfinal
	case count == 16:
		return RoundOf16
	case count == 32:
		return RoundOf32
	default:
		return NextRound
	}
}

// title is the display name of a round. Rounds other than the opening one,
// the third-place match and the final are named by their team count.
func title(stage Stage, count int) string {
	switch {
	case stage == ThirdPlace:
		return "Third Place Match"
	case stage == Final:
		return "Final"
	case stage == RoundOf32:
		return "Round of 32"
	default:
		return Label(count)
	}
}
