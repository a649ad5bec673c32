package loadcheck

import (
	"fmt"
)

// verifyResults checks the leaderboard is ordered and accounts for at least
// the titles this run produced. Other clients may add titles of their own.
func verifyResults(leaderboard []Entry, topN int, stats *Stats) error {
	if stats.SimulationsFailed > 0 {
		return fmt.Errorf("%d simulations failed", stats.SimulationsFailed)
	}
	if stats.SimulationsCreated == 0 {
		return fmt.Errorf("no simulations were created")
	}
	if len(leaderboard) == 0 {
		return fmt.Errorf("empty leaderboard")
	}
	for i := 1; i < len(leaderboard); i++ {
		prev, cur := leaderboard[i-1], leaderboard[i]
		if cur.Titles > prev.Titles {
			return fmt.Errorf("leaderboard not sorted: %s (%d titles) below %s (%d titles)",
				cur.Team, cur.Titles, prev.Team, prev.Titles)
		}
		if cur.Rank < prev.Rank {
			return fmt.Errorf("leaderboard ranks decrease at %s", cur.Team)
		}
	}
	byTeam := make(map[string]int, len(leaderboard))
	for _, e := range leaderboard {
		byTeam[e.Team] = e.Titles
	}
	for team, titles := range stats.Champions {
		got, ok := byTeam[team]
		if !ok {
			if len(leaderboard) >= topN {
				continue
			}
			return fmt.Errorf("champion %s missing from leaderboard", team)
		}
		if got < titles {
			return fmt.Errorf("%s has %d titles on the leaderboard, %d were won in this run", team, got, titles)
		}
	}
	return nil
}
