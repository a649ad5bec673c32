package prediction_test

import (
	"testing"

	"github.com/okian/copa/internal/domain/dataset"
	"github.com/okian/copa/internal/domain/prediction"
	. "github.com/smartystreets/goconvey/convey"
)

func newDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(
		[]dataset.Team{
			{Name: "France", PerformanceScore: 8},
			{Name: "Germany", PerformanceScore: 7},
			{Name: "Peru", PerformanceScore: 4},
			{Name: "Chile", PerformanceScore: 4},
			{Name: "Ghana", PerformanceScore: 6},
		},
		map[string]dataset.PredictionRecord{
			"France_vs_Germany": {
				Winner:        "France",
				Confidence:    0.7,
				Probabilities: dataset.Probabilities{Team1Win: 0.7, Team2Win: 0.3},
			},
		},
	)
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	return ds
}

func TestPredict(t *testing.T) {
	Convey("Given a predictor with one stored prediction", t, func() {
		var missing [][2]string
		var sources []prediction.Source
		p := prediction.New(newDataset(t),
			prediction.WithMissingHook(func(a, b string) { missing = append(missing, [2]string{a, b}) }),
			prediction.WithLookupHook(func(s prediction.Source) { sources = append(sources, s) }),
		)

		Convey("When querying in stored order", func() {
			out := p.Predict("France", "Germany")

			Convey("Then the record should be returned as stored", func() {
				So(out.Winner, ShouldEqual, "France")
				So(out.Confidence, ShouldEqual, 0.7)
				So(out.Probabilities, ShouldResemble, dataset.Probabilities{Team1Win: 0.7, Team2Win: 0.3})
				So(out.Source, ShouldEqual, prediction.SourceDirect)
				So(missing, ShouldBeEmpty)
			})
		})

		Convey("When querying in reversed order", func() {
			out := p.Predict("Germany", "France")

			Convey("Then winner and confidence match and probabilities are swapped", func() {
				So(out.Winner, ShouldEqual, "France")
				So(out.Confidence, ShouldEqual, 0.7)
				So(out.Probabilities, ShouldResemble, dataset.Probabilities{Team1Win: 0.3, Team2Win: 0.7})
				So(out.Source, ShouldEqual, prediction.SourceReversed)
				So(missing, ShouldBeEmpty)
			})

			Convey("And it should mirror the direct lookup exactly", func() {
				direct := p.Predict("France", "Germany")
				So(out.Winner, ShouldEqual, direct.Winner)
				So(out.Confidence, ShouldEqual, direct.Confidence)
				So(out.Probabilities, ShouldResemble, direct.Probabilities.Swapped())
			})
		})

		Convey("When no prediction exists in either order", func() {
			out := p.Predict("Peru", "Ghana")

			Convey("Then the higher performance score should win at 50%", func() {
				So(out.Winner, ShouldEqual, "Ghana")
				So(out.Confidence, ShouldEqual, 0.5)
				So(out.Probabilities, ShouldResemble, dataset.Probabilities{Team1Win: 0.5, Team2Win: 0.5})
				So(out.Source, ShouldEqual, prediction.SourceFallback)
			})

			Convey("And the gap should be signalled", func() {
				So(missing, ShouldResemble, [][2]string{{"Peru", "Ghana"}})
			})
		})

		Convey("When scores are exactly equal", func() {
			Convey("Then team1 should win", func() {
				So(p.Predict("Peru", "Chile").Winner, ShouldEqual, "Peru")
				So(p.Predict("Chile", "Peru").Winner, ShouldEqual, "Chile")
			})
		})

		Convey("When both teams are unknown", func() {
			Convey("Then both get the default score and team1 wins", func() {
				So(p.Predict("Narnia", "Oz").Winner, ShouldEqual, "Narnia")
			})
		})

		Convey("Then every lookup should report its source", func() {
			p.Predict("France", "Germany")
			p.Predict("Germany", "France")
			p.Predict("Peru", "Ghana")
			So(sources, ShouldResemble, []prediction.Source{
				prediction.SourceDirect, prediction.SourceReversed, prediction.SourceFallback,
			})
		})
	})

	Convey("Given a predictor without hooks", t, func() {
		p := prediction.New(newDataset(t))

		Convey("Then fallback lookups should still work", func() {
			So(func() { p.Predict("Peru", "Ghana") }, ShouldNotPanic)
		})
	})

	Convey("Given an outcome", t, func() {
		out := prediction.Outcome{Winner: "France"}
		So(out.Loser("France", "Germany"), ShouldEqual, "Germany")
		So(out.Loser("Germany", "France"), ShouldEqual, "Germany")
	})
}
