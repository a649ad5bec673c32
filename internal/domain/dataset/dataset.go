// Package dataset holds the read-only team and prediction tables a
// simulation run consults.
package dataset

import (
	"fmt"
	"strings"
)

// DefaultPerformanceScore is the score assumed for teams missing from the table.
const DefaultPerformanceScore = 2.5

// keySeparator joins two team names into a prediction key.
const keySeparator = "_vs_"

// Team is a participant and its strength proxy.
type Team struct {
	Name             string  `json:"Team" yaml:"Team"`
	PerformanceScore float64 `json:"Performance_Score" yaml:"Performance_Score"`
}

// Probabilities are win chances aligned to the two teams of a key.
type Probabilities struct {
	Team1Win float64 `json:"team1_win" yaml:"team1_win"`
	Team2Win float64 `json:"team2_win" yaml:"team2_win"`
}

// Swapped returns the probabilities with the two sides exchanged.
func (p Probabilities) Swapped() Probabilities {
	return Probabilities{Team1Win: p.Team2Win, Team2Win: p.Team1Win}
}

// PredictionRecord is a pre-computed match outcome.
type PredictionRecord struct {
	Winner        string        `json:"winner" yaml:"winner"`
	Confidence    float64       `json:"confidence" yaml:"confidence"`
	Probabilities Probabilities `json:"probabilities" yaml:"probabilities"`
}

// Document is the on-disk shape of a dataset.
type Document struct {
	Teams       []Team                      `json:"teams" yaml:"teams"`
	Predictions map[string]PredictionRecord `json:"predictions" yaml:"predictions"`
}

// Dataset is an immutable view over teams and predictions. It is safe for
// concurrent readers once constructed.
type Dataset struct {
	teams        []Team
	scores       map[string]float64
	predictions  map[string]PredictionRecord
	defaultScore float64
	lowerNames   []string
	byLower      map[string]string
}

// Option configures a Dataset.
type Option func(*Dataset)

// WithDefaultScore overrides the score used for unknown teams.
func WithDefaultScore(score float64) Option {
	return func(d *Dataset) {
		d.defaultScore = score
	}
}

// Key returns the prediction key for team1 playing team2.
func Key(team1, team2 string) string {
	return team1 + keySeparator + team2
}

// New builds a Dataset from teams and predictions. Inputs are copied.
func New(teams []Team, predictions map[string]PredictionRecord, opts ...Option) (*Dataset, error) {
	d := &Dataset{
		teams:        make([]Team, 0, len(teams)),
		scores:       make(map[string]float64, len(teams)),
		predictions:  make(map[string]PredictionRecord, len(predictions)),
		defaultScore: DefaultPerformanceScore,
		lowerNames:   make([]string, 0, len(teams)),
		byLower:      make(map[string]string, len(teams)),
	}
	for _, opt := range opts {
		opt(d)
	}

	for _, t := range teams {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: team with empty name", ErrMalformedDataset)
		}
		if _, ok := d.scores[name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTeam, name)
		}
		d.teams = append(d.teams, Team{Name: name, PerformanceScore: t.PerformanceScore})
		d.scores[name] = t.PerformanceScore
		lower := strings.ToLower(name)
		d.lowerNames = append(d.lowerNames, lower)
		d.byLower[lower] = name
	}
	for k, v := range predictions {
		d.predictions[k] = v
	}
	return d, nil
}

// PerformanceScore returns the team's score or the default for unknown teams.
func (d *Dataset) PerformanceScore(name string) float64 {
	if s, ok := d.scores[name]; ok {
		return s
	}
	return d.defaultScore
}

// DefaultScore returns the score assumed for unknown teams.
func (d *Dataset) DefaultScore() float64 {
	return d.defaultScore
}

// Prediction returns the stored record for an exact key.
func (d *Dataset) Prediction(key string) (PredictionRecord, bool) {
	p, ok := d.predictions[key]
	return p, ok
}

// Has reports whether name is a known team.
func (d *Dataset) Has(name string) bool {
	_, ok := d.scores[name]
	return ok
}

// Teams returns a copy of the teams in document order.
func (d *Dataset) Teams() []Team {
	out := make([]Team, len(d.teams))
	copy(out, d.teams)
	return out
}

// Names returns team names in document order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.teams))
	for i, t := range d.teams {
		out[i] = t.Name
	}
	return out
}

// PredictionCount returns the number of stored predictions.
func (d *Dataset) PredictionCount() int {
	return len(d.predictions)
}
