package groups_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/okian/copa/internal/domain/groups"
	. "github.com/smartystreets/goconvey/convey"
)

func teamNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Team %02d", i)
	}
	return out
}

func TestBoard(t *testing.T) {
	Convey("Given an empty board", t, func() {
		b := groups.NewBoard()

		Convey("Then validation should report incomplete groups", func() {
			So(b.Validate(), ShouldEqual, groups.ErrIncompleteGroups)
			So(b.Validate().Error(), ShouldEqual, "incomplete groups")
		})

		Convey("When a team is assigned", func() {
			So(b.Assign("Brazil", 0, 0), ShouldBeNil)

			Convey("Then the slot is taken", func() {
				So(b.Groups()[0][0], ShouldEqual, "Brazil")
				So(b.Assign("Peru", 0, 0), ShouldEqual, groups.ErrSlotFilled)
			})

			Convey("Then the team cannot be placed twice", func() {
				So(b.Assign("Brazil", 1, 0), ShouldEqual, groups.ErrTeamPlaced)
			})

			Convey("Then it is no longer available", func() {
				So(b.Available([]string{"Brazil", "Peru"}), ShouldResemble, []string{"Peru"})
			})

			Convey("Then clearing the slot frees it", func() {
				So(b.Clear(0, 0), ShouldBeNil)
				So(b.Groups()[0][0], ShouldEqual, "")
				So(b.Assign("Brazil", 1, 0), ShouldBeNil)
			})
		})

		Convey("When coordinates are out of range", func() {
			So(b.Assign("Brazil", 8, 0), ShouldEqual, groups.ErrOutOfRange)
			So(b.Assign("Brazil", 0, 4), ShouldEqual, groups.ErrOutOfRange)
			So(b.Clear(-1, 0), ShouldEqual, groups.ErrOutOfRange)
		})

		Convey("When picking and dropping", func() {
			b.Pick("Japan")
			So(b.Picked(), ShouldEqual, "Japan")
			So(b.Drop(2, 3), ShouldBeNil)

			Convey("Then the pick lands and is consumed", func() {
				So(b.Groups()[2][3], ShouldEqual, "Japan")
				So(b.Picked(), ShouldEqual, "")
				So(b.Drop(2, 2), ShouldEqual, groups.ErrNothingPicked)
			})
		})

		Convey("When a pick is cancelled", func() {
			b.Pick("Japan")
			b.CancelPick()

			Convey("Then nothing is placed", func() {
				So(b.Drop(0, 0), ShouldEqual, groups.ErrNothingPicked)
				So(b.Groups()[0][0], ShouldEqual, "")
			})
		})

		Convey("When randomly filled from 48 teams", func() {
			names := teamNames(48)
			So(b.Assign(names[0], 3, 1), ShouldBeNil)
			filled := b.RandomFill(names, rand.New(rand.NewSource(7)))

			Convey("Then every slot is filled with distinct teams", func() {
				So(filled, ShouldEqual, 31)
				So(b.Validate(), ShouldBeNil)
				seen := map[string]bool{}
				for _, g := range b.Groups() {
					for _, team := range g {
						So(seen[team], ShouldBeFalse)
						seen[team] = true
					}
				}
				So(len(seen), ShouldEqual, 32)
				So(b.Groups()[3][1], ShouldEqual, names[0])
			})

			Convey("Then reset empties the board", func() {
				b.Reset()
				So(b.Validate(), ShouldEqual, groups.ErrIncompleteGroups)
				So(len(b.Available(names)), ShouldEqual, 48)
			})
		})

		Convey("When randomly filled with too few teams", func() {
			filled := b.RandomFill(teamNames(10), rand.New(rand.NewSource(1)))

			Convey("Then it stops when teams run out", func() {
				So(filled, ShouldEqual, 10)
				So(b.Validate(), ShouldEqual, groups.ErrIncompleteGroups)
			})
		})
	})
}

func TestLabel(t *testing.T) {
	Convey("Group labels run from A to H", t, func() {
		So(groups.Label(0), ShouldEqual, "Group A")
		So(groups.Label(7), ShouldEqual, "Group H")
	})
}

func TestRegistry(t *testing.T) {
	Convey("Given a registry limited to two boards", t, func() {
		r := groups.NewRegistry(2)
		first, _ := r.Create()
		second, b := r.Create()

		Convey("Then boards are addressable by id", func() {
			got, err := r.Get(second)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, b)
		})

		Convey("When a third board is created", func() {
			r.Create()

			Convey("Then the oldest is evicted", func() {
				_, err := r.Get(first)
				So(err, ShouldEqual, groups.ErrBoardNotFound)
				So(r.Len(), ShouldEqual, 2)
			})
		})
	})
}
