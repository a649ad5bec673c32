// Package qualification ranks each group by performance score and selects
// the knockout qualifiers: the top two of every group plus the best
// third-placed teams, 24 in all for eight groups.
package qualification

import "sort"

// BestThirdCount is how many third-placed teams advance.
const BestThirdCount = 8

// ScoreFunc returns the performance score of a team.
type ScoreFunc func(team string) float64

// Entry is a team in the standings of its group.
type Entry struct {
	Team     string  `json:"team"`
	Group    int     `json:"group"`
	Position int     `json:"position"`
	Score    float64 `json:"score"`
}

// Result is the outcome of the group stage.
type Result struct {
	// Standings holds every group sorted best first.
	Standings [][]Entry `json:"standings"`
	// Top holds the first two of every group, group by group.
	Top []Entry `json:"top"`
	// BestThird holds the best third-placed teams, best first.
	BestThird []Entry `json:"best_third"`
}

// Qualified returns the top finishers followed by the best thirds.
func (r Result) Qualified() []Entry {
	out := make([]Entry, 0, len(r.Top)+len(r.BestThird))
	out = append(out, r.Top...)
	return append(out, r.BestThird...)
}

// Rank orders every group by descending score and picks the qualifiers.
// Ties keep slot order. Groups are expected to hold four teams each.
func Rank(groups [][]string, score ScoreFunc) Result {
	res := Result{
		Standings: make([][]Entry, len(groups)),
		Top:       make([]Entry, 0, 2*len(groups)),
	}
	thirds := make([]Entry, 0, len(groups))

	for g, teams := range groups {
		standing := make([]Entry, len(teams))
		for i, t := range teams {
			standing[i] = Entry{Team: t, Group: g, Score: score(t)}
		}
		sort.SliceStable(standing, func(i, j int) bool {
			return standing[i].Score > standing[j].Score
		})
		for i := range standing {
			standing[i].Position = i + 1
		}
		res.Standings[g] = standing

		for i := 0; i < 2 && i < len(standing); i++ {
			res.Top = append(res.Top, standing[i])
		}
		if len(standing) > 2 {
			thirds = append(thirds, standing[2])
		}
	}

	sort.SliceStable(thirds, func(i, j int) bool {
		return thirds[i].Score > thirds[j].Score
	})
	if len(thirds) > BestThirdCount {
		thirds = thirds[:BestThirdCount]
	}
	res.BestThird = thirds
	return res
}
