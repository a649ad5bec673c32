package model_test

import (
	"testing"

	model "github.com/okian/copa/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestBatch(t *testing.T) {
	convey.Convey("Given a batch of four runs", t, func() {
		b := &model.Batch{ID: "b-1", State: model.BatchRunning, Runs: 4, Champions: map[string]int{}}

		convey.Convey("When no run has finished", func() {
			convey.Convey("Then it is not finished and has no odds", func() {
				convey.So(b.Finished(), convey.ShouldBeFalse)
				convey.So(b.Odds(), convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When three runs complete and one fails", func() {
			b.Completed = 3
			b.Failed = 1
			b.Champions["Brazil"] = 2
			b.Champions["France"] = 1

			convey.Convey("Then it is finished and odds cover completed runs only", func() {
				convey.So(b.Finished(), convey.ShouldBeTrue)
				odds := b.Odds()
				convey.So(odds["Brazil"], convey.ShouldAlmostEqual, 2.0/3.0)
				convey.So(odds["France"], convey.ShouldAlmostEqual, 1.0/3.0)
			})
		})
	})
}
