// Package simcli runs tournaments from the command line and prints them as
// plain text tables.
package simcli

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-andiamo/splitter"

	"github.com/okian/copa/internal/domain/dataset"
	"github.com/okian/copa/internal/domain/groups"
	"github.com/okian/copa/internal/domain/prediction"
	"github.com/okian/copa/internal/domain/tournament"
	"github.com/okian/copa/pkg/logger"
)

// Options selects what to simulate.
type Options struct {
	// Groups holds one raw -group value per group, in group order.
	Groups []string
	// Random fills every slot the groups leave empty.
	Random bool
	// Seed seeds every run; run i uses Seed+i. Zero seeds from the clock.
	Seed int64
	// Runs above one print title odds instead of a single bracket.
	Runs int
}

// GroupFlag collects repeated -group flags.
type GroupFlag []string

func (g *GroupFlag) String() string { return strings.Join(*g, " | ") }

// Set appends one group.
func (g *GroupFlag) Set(v string) error {
	*g = append(*g, v)
	return nil
}

var groupSplitter = func() splitter.Splitter {
	s, err := splitter.NewSplitter(',', splitter.DoubleQuotes)
	if err != nil {
		panic(err)
	}
	return s
}()

// ParseGroup splits a comma separated group. Names may be quoted to keep
// commas, e.g. `"Korea, Republic of",Brazil,Chile,Ghana`.
func ParseGroup(raw string) ([]string, error) {
	parts, err := groupSplitter.Split(raw)
	if err != nil {
		return nil, fmt.Errorf("parse group %q: %w", raw, err)
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `"`)
		if p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// Runner plays tournaments against one dataset.
type Runner struct {
	ds        *dataset.Dataset
	simulator *tournament.Simulator
	out       io.Writer
	heading   lipgloss.Style
	logger    logger.Logger
}

// NewRunner creates a Runner printing to out.
func NewRunner(ds *dataset.Dataset, out io.Writer) *Runner {
	r := &Runner{
		ds:      ds,
		out:     out,
		heading: lipgloss.NewRenderer(out).NewStyle().Bold(true).Underline(true),
		logger:  logger.Get().Named("simcli"),
	}
	p := prediction.New(ds, prediction.WithMissingHook(func(team1, team2 string) {
		r.logger.Warn(context.Background(), "no prediction for match; falling back to performance score",
			logger.String("team1", team1),
			logger.String("team2", team2),
		)
	}))
	r.simulator = tournament.NewSimulator(ds, p)
	return r
}

// Draw builds the groups from opts: named teams first, then a random fill of
// the rest when opts.Random is set.
func (r *Runner) Draw(opts Options, rng *rand.Rand) ([][]string, error) {
	if len(opts.Groups) > groups.GroupCount {
		return nil, fmt.Errorf("%w: %d given, %d allowed", ErrTooManyGroups, len(opts.Groups), groups.GroupCount)
	}
	b := groups.NewBoard()
	for g, raw := range opts.Groups {
		names, err := ParseGroup(raw)
		if err != nil {
			return nil, err
		}
		if len(names) > groups.SlotsPerGroup || (!opts.Random && len(names) != groups.SlotsPerGroup) {
			return nil, fmt.Errorf("%w: %s has %d", ErrGroupSize, groups.Label(g), len(names))
		}
		for s, name := range names {
			team, err := r.ds.Resolve(name)
			if err != nil {
				return nil, err
			}
			if err := b.Assign(team, g, s); err != nil {
				return nil, fmt.Errorf("%s: %w", team, err)
			}
		}
	}
	if opts.Random {
		b.RandomFill(r.ds.Names(), rng)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b.Groups(), nil
}

// Run draws the groups and plays opts.Runs tournaments.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	if opts.Runs < 1 {
		return ErrInvalidRuns
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	draw, err := r.Draw(opts, rand.New(rand.NewSource(seed))) //nolint:gosec // simulation randomness
	if err != nil {
		return err
	}

	if opts.Runs == 1 {
		res, err := r.simulator.Simulate(draw, rand.New(rand.NewSource(seed))) //nolint:gosec // simulation randomness
		if err != nil {
			return err
		}
		res.Seed = seed
		r.PrintResult(res)
		return nil
	}

	champions := make(map[string]int)
	for i := 0; i < opts.Runs; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := r.simulator.Simulate(draw, rand.New(rand.NewSource(seed+int64(i)))) //nolint:gosec // simulation randomness
		if err != nil {
			return err
		}
		champions[res.Standings.Champion]++
	}
	r.printGroups(draw)
	r.PrintOdds(champions, opts.Runs, seed)
	return nil
}

func (r *Runner) title(s string) {
	fmt.Fprintf(r.out, "\n%s\n", r.heading.Render(s))
}

func (r *Runner) printGroups(draw [][]string) {
	r.title("Groups")
	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	for g, teams := range draw {
		fmt.Fprintf(tw, "%s\t%s\n", groups.Label(g), strings.Join(teams, "\t"))
	}
	_ = tw.Flush()
}

// PrintResult prints the group tables, the best thirds, every knockout round
// and the podium.
func (r *Runner) PrintResult(res *tournament.Result) {
	fmt.Fprintf(r.out, "Simulation %s (seed %d)\n", res.ID, res.Seed)

	r.title("Group stage")
	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	for g, table := range res.Qualification.Standings {
		fmt.Fprintf(tw, "%s\tPos\tScore\t\n", groups.Label(g))
		for _, e := range table {
			fmt.Fprintf(tw, "  %s\t%d\t%.3f\t\n", e.Team, e.Position, e.Score)
		}
	}
	_ = tw.Flush()

	r.title("Best third-placed teams")
	tw = tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	for i, e := range res.Qualification.BestThird {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.3f\t\n", i+1, e.Team, groups.Label(e.Group), e.Score)
	}
	_ = tw.Flush()

	for _, round := range res.Rounds {
		r.title(round.Name)
		tw = tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
		for _, m := range round.Matches {
			if m.Source == prediction.SourceWalkover {
				fmt.Fprintf(tw, "%s\tbye\t\t->\t%s\t\t(%s)\n", m.Winner, m.Winner, m.Source)
				continue
			}
			fmt.Fprintf(tw, "%s\tvs\t%s\t->\t%s\t%s Win: %.1f%% | %s Win: %.1f%%\t(confidence %.1f%%, %s)\n",
				m.Team1, m.Team2, m.Winner,
				m.Team1, m.Probabilities.Team1Win*100, m.Team2, m.Probabilities.Team2Win*100,
				m.Confidence*100, m.Source)
		}
		_ = tw.Flush()
	}

	r.title("Podium")
	tw = tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Champion\t%s\n", res.Standings.Champion)
	fmt.Fprintf(tw, "Runner-up\t%s\n", res.Standings.RunnerUp)
	if res.Standings.Third != "" {
		fmt.Fprintf(tw, "Third\t%s\n", res.Standings.Third)
	}
	_ = tw.Flush()
}

// PrintOdds prints every champion with its share of runs, best first.
func (r *Runner) PrintOdds(champions map[string]int, runs int, seed int64) {
	type row struct {
		team   string
		titles int
	}
	rows := make([]row, 0, len(champions))
	for team, n := range champions {
		rows = append(rows, row{team, n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].titles != rows[j].titles {
			return rows[i].titles > rows[j].titles
		}
		return rows[i].team < rows[j].team
	})

	r.title(fmt.Sprintf("Title odds over %d runs (seed %d)", runs, seed))
	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Team\tTitles\tOdds")
	for _, rw := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\n", rw.team, rw.titles, float64(rw.titles)*100/float64(runs))
	}
	_ = tw.Flush()
}
