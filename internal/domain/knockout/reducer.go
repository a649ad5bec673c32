// Package knockout plays the elimination rounds as an explicit state
// machine. Each round pairs neighbours and halves the field, rounding up
// when an odd team out advances on a walkover. The round of three or four
// teams is the semifinal, followed by the third-place match and the final.
package knockout

import (
	"github.com/okian/copa/internal/domain/dataset"
	"github.com/okian/copa/internal/domain/prediction"
)

// Predictor resolves a single match.
type Predictor interface {
	Predict(team1, team2 string) prediction.Outcome
}

// Match is a resolved fixture.
type Match struct {
	Team1         string                `json:"team1"`
	Team2         string                `json:"team2"`
	Winner        string                `json:"winner"`
	Loser         string                `json:"loser"`
	Confidence    float64               `json:"confidence"`
	Probabilities dataset.Probabilities `json:"probabilities"`
	Source        prediction.Source     `json:"source"`
}

// Round is every match played at one stage.
type Round struct {
	Stage   Stage   `json:"stage"`
	Name    string  `json:"name"`
	Teams   int     `json:"teams"`
	Matches []Match `json:"matches"`
}

// Standings is the podium. Third is empty when no semifinal was played.
type Standings struct {
	Champion string `json:"champion"`
	RunnerUp string `json:"runner_up"`
	Third    string `json:"third,omitempty"`
}

// MatchHook is told about every resolved match.
type MatchHook func(stage Stage, m Match)

// Option configures a Reducer.
type Option func(*Reducer)

// WithMatchHook registers a hook called after each match.
func WithMatchHook(h MatchHook) Option {
	return func(r *Reducer) { r.onMatch = h }
}

// WithOpeningRound plays the first round of a field larger than sixteen
// teams as the Round of 32, whatever its exact size.
func WithOpeningRound() Option {
	return func(r *Reducer) { r.opening = true }
}

// Reducer walks the knockout stages. It is not safe for concurrent use.
type Reducer struct {
	predictor  Predictor
	onMatch    MatchHook
	opening    bool
	stage      Stage
	alive      []string
	semiLosers []string
	rounds     []Round
	standings  Standings
}

// NewReducer prepares a knockout over teams in bracket order. Adjacent teams
// meet in the first round.
func NewReducer(p Predictor, teams []string, opts ...Option) (*Reducer, error) {
	n := len(teams)
	if n < 2 {
		return nil, ErrFieldTooSmall
	}
	r := &Reducer{
		predictor: p,
		alive:     append([]string(nil), teams...),
		stage:     stageFor(n),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.opening && n > 16 {
		r.stage = RoundOf32
	}
	return r, nil
}

// Stage returns the stage the next Step will play.
func (r *Reducer) Stage() Stage { return r.stage }

// Alive returns the teams still in the elimination rounds.
func (r *Reducer) Alive() []string { return append([]string(nil), r.alive...) }

// Rounds returns every round played so far.
func (r *Reducer) Rounds() []Round { return append([]Round(nil), r.rounds...) }

// Standings returns the podium once the reducer is complete.
func (r *Reducer) Standings() Standings { return r.standings }

// Step plays the current stage and advances the machine.
func (r *Reducer) Step() (Round, error) {
	var round Round
	switch r.stage {
	case Complete:
		return Round{}, ErrComplete

	case ThirdPlace:
		round = r.play(r.stage, r.semiLosers)
		r.standings.Third = round.Matches[0].Winner
		r.stage = Final

	case Final:
		round = r.play(r.stage, r.alive)
		m := round.Matches[0]
		r.standings.Champion = m.Winner
		r.standings.RunnerUp = m.Loser
		r.alive = []string{m.Winner}
		r.stage = Complete

	default:
		round = r.play(r.stage, r.alive)
		winners := make([]string, len(round.Matches))
		losers := make([]string, len(round.Matches))
		for i, m := range round.Matches {
			winners[i] = m.Winner
			losers[i] = m.Loser
		}
		r.alive = winners
		if r.stage == Semifinal {
			r.semiLosers = losers
			r.stage = ThirdPlace
		} else {
			r.stage = stageFor(len(winners))
		}
	}

	r.rounds = append(r.rounds, round)
	return round, nil
}

// Run steps until complete and returns the podium.
func (r *Reducer) Run() (Standings, error) {
	for r.stage != Complete {
		if _, err := r.Step(); err != nil {
			return Standings{}, err
		}
	}
	return r.standings, nil
}

func (r *Reducer) play(stage Stage, teams []string) Round {
	round := Round{
		Stage:   stage,
		Name:    title(stage, len(teams)),
		Teams:   len(teams),
		Matches: make([]Match, 0, (len(teams)+1)/2),
	}
	for i := 0; i < len(teams); i += 2 {
		var m Match
		if i+1 < len(teams) && teams[i] != "" && teams[i+1] != "" {
			m = r.match(teams[i], teams[i+1])
		} else {
			m = walkover(teams[i:min(i+2, len(teams))])
		}
		round.Matches = append(round.Matches, m)
		if r.onMatch != nil {
			r.onMatch(stage, m)
		}
	}
	return round
}

func (r *Reducer) match(t1, t2 string) Match {
	out := r.predictor.Predict(t1, t2)
	return Match{
		Team1:         t1,
		Team2:         t2,
		Winner:        out.Winner,
		Loser:         out.Loser(t1, t2),
		Confidence:    out.Confidence,
		Probabilities: out.Probabilities,
		Source:        out.Source,
	}
}

// walkover advances the one present team of a pairing with no opponent.
func walkover(pair []string) Match {
	m := Match{
		Confidence: 1,
		Source:     prediction.SourceWalkover,
	}
	m.Team1 = pair[0]
	if len(pair) > 1 {
		m.Team2 = pair[1]
	}
	if m.Team1 != "" {
		m.Winner = m.Team1
		m.Probabilities = dataset.Probabilities{Team1Win: 1}
	} else {
		m.Winner = m.Team2
		m.Probabilities = dataset.Probabilities{Team2Win: 1}
	}
	return m
}
