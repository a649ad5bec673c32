// Package bracket draws the opening knockout pairings from the qualifiers.
package bracket

import (
	"math/rand"

	"github.com/okian/copa/internal/domain/qualification"
)

// Pairing is one drawn match.
type Pairing struct {
	Home qualification.Entry `json:"home"`
	Away qualification.Entry `json:"away"`
}

// SameGroup reports whether both sides come from the same group.
func (p Pairing) SameGroup() bool {
	return !p.Bye() && p.Home.Group == p.Away.Group
}

// Bye reports whether the home side has no opponent.
func (p Pairing) Bye() bool {
	return p.Away.Team == ""
}

// Pair takes the first remaining entry and draws its opponent at random from
// the remaining entries of other groups. When only same-group entries remain
// the draw falls back to the whole pool. An odd trailing entry gets a bye.
func Pair(entries []qualification.Entry, rng *rand.Rand) []Pairing {
	pool := append([]qualification.Entry(nil), entries...)
	out := make([]Pairing, 0, (len(pool)+1)/2)

	candidates := make([]int, 0, len(pool))
	for len(pool) >= 2 {
		home := pool[0]
		pool = pool[1:]

		candidates = candidates[:0]
		for i, e := range pool {
			if e.Group != home.Group {
				candidates = append(candidates, i)
			}
		}
		var pick int
		if len(candidates) > 0 {
			pick = candidates[rng.Intn(len(candidates))]
		} else {
			pick = rng.Intn(len(pool))
		}

		away := pool[pick]
		pool = append(pool[:pick], pool[pick+1:]...)
		out = append(out, Pairing{Home: home, Away: away})
	}
	if len(pool) == 1 {
		out = append(out, Pairing{Home: pool[0]})
	}
	return out
}

// Teams flattens pairings into the knockout order: home, away, home, away.
// A bye leaves an empty away slot, which the knockout plays as a walkover.
func Teams(pairings []Pairing) []string {
	out := make([]string, 0, 2*len(pairings))
	for _, p := range pairings {
		out = append(out, p.Home.Team, p.Away.Team)
	}
	return out
}
