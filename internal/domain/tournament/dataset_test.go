package tournament_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/okian/copa/internal/domain/dataset"
	"github.com/okian/copa/internal/domain/groups"
	"github.com/okian/copa/internal/domain/knockout"
	"github.com/okian/copa/internal/domain/prediction"
	"github.com/okian/copa/internal/domain/tournament"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSimulateShippedDataset(t *testing.T) {
	Convey("Given the shipped 2026 dataset", t, func() {
		ds, err := dataset.Load(context.Background(), "../../../data/2026_worldcup_COMPLETE.json")
		So(err, ShouldBeNil)
		sim := tournament.NewSimulator(ds, prediction.New(ds))

		Convey("When randomly filled boards are simulated", func() {
			for seed := int64(1); seed <= 20; seed++ {
				rng := rand.New(rand.NewSource(seed))
				b := groups.NewBoard()
				b.RandomFill(ds.Names(), rng)
				So(b.Validate(), ShouldBeNil)

				res, err := sim.Simulate(b.Groups(), rng)
				So(err, ShouldBeNil)

				var sizes []int
				var names []string
				for _, round := range res.Rounds {
					sizes = append(sizes, round.Teams)
					names = append(names, round.Name)
				}
				So(len(res.Qualification.Qualified()), ShouldEqual, 24)
				So(sizes, ShouldResemble, []int{24, 12, 6, 3, 2, 2})
				So(names, ShouldResemble, []string{
					"Round of 32", "Next Round", "Next Round", "Next Round", "Third Place Match", "Final",
				})
				So(res.Rounds[3].Stage, ShouldEqual, knockout.Semifinal)

				podium := []string{res.Standings.Champion, res.Standings.RunnerUp, res.Standings.Third}
				for _, team := range podium {
					So(ds.Has(team), ShouldBeTrue)
				}
				So(res.Standings.Champion, ShouldNotEqual, res.Standings.RunnerUp)
				So(res.Standings.Third, ShouldNotEqual, res.Standings.Champion)
				So(res.Standings.Third, ShouldNotEqual, res.Standings.RunnerUp)
			}
		})
	})
}
