package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/copa/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		Convey("When a request id is remembered", func() {
			v, seen := d.Remember(ctx, "req-1", "sim-1")

			Convey("Then it is newly bound", func() {
				So(seen, ShouldBeFalse)
				So(v, ShouldEqual, "sim-1")
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then a retry returns the original simulation", func() {
				v, seen := d.Remember(ctx, "req-1", "sim-2")
				So(seen, ShouldBeTrue)
				So(v, ShouldEqual, "sim-1")
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then lookup finds it", func() {
				v, ok := d.Lookup(ctx, "req-1")
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, "sim-1")
			})

			Convey("Then forgetting with a stale value keeps the binding", func() {
				So(d.Forget(ctx, "req-1", "sim-9"), ShouldBeFalse)
				_, ok := d.Lookup(ctx, "req-1")
				So(ok, ShouldBeTrue)
			})

			Convey("Then forgetting the bound value frees the id", func() {
				So(d.Forget(ctx, "req-1", "sim-1"), ShouldBeTrue)
				So(d.Forget(ctx, "req-1", "sim-1"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 0)
				v, seen := d.Remember(ctx, "req-1", "sim-2")
				So(seen, ShouldBeFalse)
				So(v, ShouldEqual, "sim-2")
			})
		})
	})

	Convey("Given a deduper bounded to three entries", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for i := 1; i <= 4; i++ {
			d.Remember(ctx, fmt.Sprintf("req-%d", i), fmt.Sprintf("sim-%d", i))
		}

		Convey("Then the oldest id is evicted", func() {
			So(d.Size(), ShouldEqual, 3)
			_, ok := d.Lookup(ctx, "req-1")
			So(ok, ShouldBeFalse)
			v, ok := d.Lookup(ctx, "req-4")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "sim-4")
		})

		Convey("When a fifth id is remembered", func() {
			d.Remember(ctx, "req-5", "sim-5")

			Convey("Then the next oldest goes", func() {
				So(d.Size(), ShouldEqual, 3)
				_, ok := d.Lookup(ctx, "req-2")
				So(ok, ShouldBeFalse)
				_, ok = d.Lookup(ctx, "req-3")
				So(ok, ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 20_000; i++ {
			d.Remember(ctx, fmt.Sprintf("req-%d", i), "sim")
		}

		Convey("Then nothing is evicted", func() {
			So(d.Size(), ShouldEqual, 20_000)
		})
	})

	Convey("Given concurrent callers", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					if _, seen := d.Remember(ctx, fmt.Sprintf("req-%d", i), "sim"); !seen {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each id is bound exactly once", func() {
			So(fresh, ShouldEqual, 100)
			So(d.Size(), ShouldEqual, 100)
		})
	})
}
