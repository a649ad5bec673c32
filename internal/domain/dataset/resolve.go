package dataset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Resolve maps user input to a known team name: exact, then
// case-insensitive, then the closest fuzzy match.
func (d *Dataset) Resolve(query string) (string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", fmt.Errorf("%w: empty name", ErrUnknownTeam)
	}
	if d.Has(q) {
		return q, nil
	}
	lower := strings.ToLower(q)
	if name, ok := d.byLower[lower]; ok {
		return name, nil
	}

	ranks := fuzzy.RankFindNormalizedFold(lower, d.lowerNames)
	if len(ranks) == 0 {
		return "", fmt.Errorf("%w: %s", ErrUnknownTeam, q)
	}
	sort.Sort(ranks)
	return d.byLower[ranks[0].Target], nil
}

// Suggest returns up to limit team names matching query, best first.
func (d *Dataset) Suggest(query string, limit int) []string {
	lower := strings.ToLower(strings.TrimSpace(query))
	if lower == "" || limit < 1 {
		return nil
	}
	ranks := fuzzy.RankFindNormalizedFold(lower, d.lowerNames)
	sort.Sort(ranks)
	out := make([]string, 0, limit)
	for _, r := range ranks {
		if len(out) == limit {
			break
		}
		out = append(out, d.byLower[r.Target])
	}
	return out
}
