package qualification_test

import (
	"fmt"
	"testing"

	"github.com/okian/copa/internal/domain/qualification"
	. "github.com/smartystreets/goconvey/convey"
)

func eightGroups() [][]string {
	groups := make([][]string, 8)
	for g := range groups {
		for s := 0; s < 4; s++ {
			groups[g] = append(groups[g], fmt.Sprintf("G%d-T%d", g, s))
		}
	}
	return groups
}

func TestRank(t *testing.T) {
	Convey("Given eight groups where every score is equal", t, func() {
		groups := eightGroups()
		res := qualification.Rank(groups, func(string) float64 { return 2.5 })

		Convey("Then exactly 16 top finishers and 8 thirds qualify", func() {
			So(len(res.Top), ShouldEqual, 16)
			So(len(res.BestThird), ShouldEqual, 8)
			So(len(res.Qualified()), ShouldEqual, 24)
		})

		Convey("Then ties keep slot order", func() {
			So(res.Top[0].Team, ShouldEqual, "G0-T0")
			So(res.Top[1].Team, ShouldEqual, "G0-T1")
			So(res.BestThird[0].Team, ShouldEqual, "G0-T2")
			So(res.Standings[3][3].Position, ShouldEqual, 4)
		})

		Convey("Then top finishers come group by group", func() {
			for i, e := range res.Top {
				So(e.Group, ShouldEqual, i/2)
			}
		})
	})

	Convey("Given Brazil at 9.9 in the last slot of Group A", t, func() {
		groups := eightGroups()
		groups[0][3] = "Brazil"
		score := func(team string) float64 {
			if team == "Brazil" {
				return 9.9
			}
			return 2.5
		}
		res := qualification.Rank(groups, score)

		Convey("Then Brazil tops Group A", func() {
			So(res.Top[0].Team, ShouldEqual, "Brazil")
			So(res.Top[0].Group, ShouldEqual, 0)
			So(res.Top[0].Score, ShouldEqual, 9.9)
			So(res.Top[0].Position, ShouldEqual, 1)
		})
	})

	Convey("Given distinct third-place scores", t, func() {
		groups := eightGroups()
		groups = append(groups, []string{"X0", "X1", "X2", "X3"})
		score := func(team string) float64 {
			var g, s int
			if _, err := fmt.Sscanf(team, "G%d-T%d", &g, &s); err == nil {
				return float64(10*(4-s) + g)
			}
			return 0
		}
		res := qualification.Rank(groups, score)

		Convey("Then the best eight thirds are kept in descending order", func() {
			So(len(res.BestThird), ShouldEqual, 8)
			So(res.BestThird[0].Team, ShouldEqual, "G7-T2")
			So(res.BestThird[7].Team, ShouldEqual, "G0-T2")
			for i := 1; i < len(res.BestThird); i++ {
				So(res.BestThird[i-1].Score, ShouldBeGreaterThanOrEqualTo, res.BestThird[i].Score)
			}
		})
	})
}
