// Package prediction resolves match outcomes from the pre-computed table.
//
// The table is keyed by an ordered pair of team names but a match can be
// queried in either order. Lookups always return probabilities aligned to
// the caller's (team1, team2) argument order, never the stored order.
package prediction

import (
	"github.com/okian/copa/internal/domain/dataset"
)

// Fallback values used when neither key order is stored.
const (
	FallbackConfidence  = 0.5
	FallbackProbability = 0.5
)

// Source tells where an outcome came from.
type Source string

// Outcome sources.
const (
	SourceDirect   Source = "direct"
	SourceReversed Source = "reversed"
	SourceFallback Source = "fallback"
	// SourceWalkover marks a knockout pairing with no opponent.
	SourceWalkover Source = "walkover"
)

// Outcome is a resolved match prediction aligned to the query order.
type Outcome struct {
	Winner        string                `json:"winner"`
	Confidence    float64               `json:"confidence"`
	Probabilities dataset.Probabilities `json:"probabilities"`
	Source        Source                `json:"source"`
}

// MissingHook is told about pairs with no stored prediction.
type MissingHook func(team1, team2 string)

// LookupHook is told about every lookup and its source.
type LookupHook func(source Source)

// Predictor looks up outcomes. It holds no mutable state of its own and is
// safe for concurrent use when its hooks are.
type Predictor struct {
	ds        *dataset.Dataset
	onMissing MissingHook
	onLookup  LookupHook
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithMissingHook installs the data-completeness signal.
func WithMissingHook(h MissingHook) Option {
	return func(p *Predictor) {
		p.onMissing = h
	}
}

// WithLookupHook installs a per-lookup observer.
func WithLookupHook(h LookupHook) Option {
	return func(p *Predictor) {
		p.onLookup = h
	}
}

// New creates a Predictor over ds.
func New(ds *dataset.Dataset, opts ...Option) *Predictor {
	p := &Predictor{ds: ds}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Predict returns the outcome of team1 playing team2.
func (p *Predictor) Predict(team1, team2 string) Outcome {
	out := p.lookup(team1, team2)
	if p.onLookup != nil {
		p.onLookup(out.Source)
	}
	return out
}

func (p *Predictor) lookup(team1, team2 string) Outcome {
	if rec, ok := p.ds.Prediction(dataset.Key(team1, team2)); ok {
		return Outcome{
			Winner:        rec.Winner,
			Confidence:    rec.Confidence,
			Probabilities: rec.Probabilities,
			Source:        SourceDirect,
		}
	}
	if rec, ok := p.ds.Prediction(dataset.Key(team2, team1)); ok {
		return Outcome{
			Winner:        rec.Winner,
			Confidence:    rec.Confidence,
			Probabilities: rec.Probabilities.Swapped(),
			Source:        SourceReversed,
		}
	}

	if p.onMissing != nil {
		p.onMissing(team1, team2)
	}
	// Ties favour team1.
	winner := team1
	if p.ds.PerformanceScore(team2) > p.ds.PerformanceScore(team1) {
		winner = team2
	}
	return Outcome{
		Winner:     winner,
		Confidence: FallbackConfidence,
		Probabilities: dataset.Probabilities{
			Team1Win: FallbackProbability,
			Team2Win: FallbackProbability,
		},
		Source: SourceFallback,
	}
}

// Loser returns whichever of team1, team2 is not the outcome's winner.
func (o Outcome) Loser(team1, team2 string) string {
	if o.Winner == team1 {
		return team2
	}
	return team1
}
