package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/copa/internal/adapters/archive"
	"github.com/okian/copa/internal/adapters/repository"
	service "github.com/okian/copa/internal/app"
	"github.com/okian/copa/internal/domain/dataset"
	"github.com/okian/copa/internal/domain/groups"
	"github.com/okian/copa/internal/domain/tournament"
	"github.com/okian/copa/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
}

// fixture has 40 teams; "Brazil" is far stronger than the rest.
func fixture(t *testing.T) *dataset.Dataset {
	t.Helper()
	teams := []dataset.Team{{Name: "Brazil", PerformanceScore: 9.9}}
	for i := 1; i < 40; i++ {
		teams = append(teams, dataset.Team{Name: fmt.Sprintf("Team %02d", i), PerformanceScore: 2.5})
	}
	preds := map[string]dataset.PredictionRecord{
		"Team 01_vs_Team 02": {Winner: "Team 02", Confidence: 0.6, Probabilities: dataset.Probabilities{Team1Win: 0.4, Team2Win: 0.6}},
	}
	ds, err := dataset.New(teams, preds)
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	return ds
}

func explicitDraw() [][]string {
	draw := make([][]string, 8)
	n := 0
	for g := range draw {
		for s := 0; s < 4; s++ {
			if n == 0 {
				draw[g] = append(draw[g], "brazil")
			} else {
				draw[g] = append(draw[g], fmt.Sprintf("Team %02d", n))
			}
			n++
		}
	}
	return draw
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingBroadcaster) Publish(event string, _ any) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *recordingBroadcaster) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

func started(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	svc := service.New(fixture(t), append([]service.Option{service.WithSeed(1), service.WithWorkerCount(2)}, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(fixture(t))

		Convey("When it is not started", func() {
			_, _, err := svc.Simulate(context.Background(), service.SimulateRequest{Groups: explicitDraw()})

			Convey("Then simulations are refused", func() {
				So(err, ShouldEqual, service.ErrNotStarted)
				So(svc.GetStats()["started"], ShouldBeFalse)
			})
		})

		Convey("When started twice and stopped", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Start(context.Background()), ShouldBeNil)
			stats := svc.GetStats()
			svc.Stop()
			svc.Stop()

			Convey("Then stats reflect the dataset", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats["teams"], ShouldEqual, 40)
				So(stats["predictions"], ShouldEqual, 1)
			})
		})
	})
}

func TestService_Boards(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := started(t)
		defer svc.Stop()
		ctx := context.Background()
		board := svc.CreateBoard(ctx)

		Convey("Then a new board is empty with labelled groups", func() {
			So(board.ID, ShouldNotBeEmpty)
			So(board.Complete, ShouldBeFalse)
			So(len(board.Available), ShouldEqual, 40)
			So(board.Labels[0], ShouldEqual, "Group A")
		})

		Convey("When a team is assigned by a loose name", func() {
			v, err := svc.Assign(ctx, board.ID, "BRAZIL", 0, 0)

			Convey("Then the canonical name is placed", func() {
				So(err, ShouldBeNil)
				So(v.Groups[0][0], ShouldEqual, "Brazil")
				So(len(v.Available), ShouldEqual, 39)
			})
		})

		Convey("When a team is dragged and dropped", func() {
			_, err := svc.Pick(ctx, board.ID, "Team 05")
			So(err, ShouldBeNil)
			v, err := svc.Drop(ctx, board.ID, 1, 2)

			Convey("Then it lands in the slot", func() {
				So(err, ShouldBeNil)
				So(v.Groups[1][2], ShouldEqual, "Team 05")
				So(v.Picked, ShouldBeEmpty)
			})
		})

		Convey("When simulating an incomplete board", func() {
			_, _, err := svc.Simulate(ctx, service.SimulateRequest{BoardID: board.ID})

			Convey("Then the user-visible message is returned", func() {
				So(errors.Is(err, groups.ErrIncompleteGroups), ShouldBeTrue)
				So(err.Error(), ShouldEqual, "incomplete groups")
			})
		})

		Convey("When the board is randomly filled", func() {
			seed := int64(3)
			v, err := svc.RandomFill(ctx, board.ID, &seed)
			So(err, ShouldBeNil)

			Convey("Then it is complete and can be simulated", func() {
				So(v.Complete, ShouldBeTrue)
				So(len(v.Available), ShouldEqual, 8)
				res, dup, err := svc.Simulate(ctx, service.SimulateRequest{BoardID: board.ID})
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
				So(res.Standings.Champion, ShouldNotBeEmpty)
			})

			Convey("Then clearing and resetting empties it again", func() {
				v, err := svc.ClearSlot(ctx, board.ID, 0, 0)
				So(err, ShouldBeNil)
				So(v.Complete, ShouldBeFalse)
				v, err = svc.ResetBoard(ctx, board.ID)
				So(err, ShouldBeNil)
				So(len(v.Available), ShouldEqual, 40)
			})
		})

		Convey("When the board does not exist", func() {
			_, err := svc.Board(ctx, "missing")

			Convey("Then it is reported", func() {
				So(err, ShouldEqual, groups.ErrBoardNotFound)
			})
		})
	})
}

func TestService_Simulate(t *testing.T) {
	Convey("Given a started service with a broadcaster", t, func() {
		b := &recordingBroadcaster{}
		svc := started(t, service.WithBroadcaster(b))
		defer svc.Stop()
		ctx := context.Background()

		Convey("When simulating an explicit draw", func() {
			seed := int64(99)
			res, dup, err := svc.Simulate(ctx, service.SimulateRequest{Groups: explicitDraw(), Seed: &seed, RequestID: "req-1"})
			So(err, ShouldBeNil)
			So(dup, ShouldBeFalse)

			Convey("Then Brazil wins and the run is recorded", func() {
				So(res.Seed, ShouldEqual, 99)
				So(res.Standings.Champion, ShouldEqual, "Brazil")
				got, err := svc.Simulation(ctx, res.ID)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, res)
				top, err := svc.TopN(ctx, 1)
				So(err, ShouldBeNil)
				So(top[0].Team, ShouldEqual, "Brazil")
				rank, err := svc.Rank(ctx, "brazil")
				So(err, ShouldBeNil)
				So(rank.Rank, ShouldEqual, 1)
				So(b.has("simulation"), ShouldBeTrue)
			})

			Convey("Then repeating the request id returns the same result", func() {
				again, dup, err := svc.Simulate(ctx, service.SimulateRequest{Groups: explicitDraw(), RequestID: "req-1"})
				So(err, ShouldBeNil)
				So(dup, ShouldBeTrue)
				So(again.ID, ShouldEqual, res.ID)
				runs := svc.GetStats()["tallyRuns"]
				So(runs, ShouldEqual, int64(1))
			})

			Convey("Then the same seed reproduces the draw", func() {
				other, _, err := svc.Simulate(ctx, service.SimulateRequest{Groups: explicitDraw(), Seed: &seed})
				So(err, ShouldBeNil)
				So(other.ID, ShouldNotEqual, res.ID)
				So(other.Draw, ShouldResemble, res.Draw)
			})
		})

		Convey("When the same request id arrives concurrently", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, dup, err := svc.Simulate(ctx, service.SimulateRequest{Groups: explicitDraw(), RequestID: "req-race"})
					if err == nil && !dup {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			Convey("Then exactly one run is recorded", func() {
				So(fresh, ShouldEqual, 1)
				So(svc.GetStats()["tallyRuns"], ShouldEqual, int64(1))
			})
		})

		Convey("When a request id outlives its result in history", func() {
			small := service.New(fixture(t), service.WithSeed(3), service.WithHistorySize(1))
			So(small.Start(ctx), ShouldBeNil)
			defer small.Stop()

			first, dup, err := small.Simulate(ctx, service.SimulateRequest{Groups: explicitDraw(), RequestID: "req-old"})
			So(err, ShouldBeNil)
			So(dup, ShouldBeFalse)
			_, _, err = small.Simulate(ctx, service.SimulateRequest{Groups: explicitDraw(), RequestID: "req-new"})
			So(err, ShouldBeNil)
			_, err = small.Simulation(ctx, first.ID)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

			again, dup, err := small.Simulate(ctx, service.SimulateRequest{Groups: explicitDraw(), RequestID: "req-old"})

			Convey("Then the replay runs as a new, recorded simulation", func() {
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
				So(again.ID, ShouldNotEqual, first.ID)
				stored, err := small.Simulation(ctx, again.ID)
				So(err, ShouldBeNil)
				So(stored.ID, ShouldEqual, again.ID)
				So(small.GetStats()["tallyRuns"], ShouldEqual, int64(3))
			})

			Convey("Then a further retry is a duplicate of the new run", func() {
				res, dup, err := small.Simulate(ctx, service.SimulateRequest{Groups: explicitDraw(), RequestID: "req-old"})
				So(err, ShouldBeNil)
				So(dup, ShouldBeTrue)
				So(res.ID, ShouldEqual, again.ID)
			})
		})

		Convey("When the draw names an unknown team", func() {
			draw := explicitDraw()
			draw[2][1] = "Atlantis United FC"
			_, _, err := svc.Simulate(ctx, service.SimulateRequest{Groups: draw})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, dataset.ErrUnknownTeam), ShouldBeTrue)
			})
		})

		Convey("When the draw repeats a team", func() {
			draw := explicitDraw()
			draw[7][3] = "Team 01"
			_, _, err := svc.Simulate(ctx, service.SimulateRequest{Groups: draw})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, groups.ErrTeamPlaced), ShouldBeTrue)
			})
		})

		Convey("When the draw has seven groups", func() {
			_, _, err := svc.Simulate(ctx, service.SimulateRequest{Groups: explicitDraw()[:7]})

			Convey("Then the group count is rejected", func() {
				So(errors.Is(err, tournament.ErrGroupCount), ShouldBeTrue)
			})
		})

		Convey("When no draw is given", func() {
			_, _, err := svc.Simulate(ctx, service.SimulateRequest{})

			Convey("Then it is rejected", func() {
				So(err, ShouldEqual, service.ErrNoDraw)
			})
		})

		Convey("When looking up an unknown simulation", func() {
			_, err := svc.Simulation(ctx, "missing")

			Convey("Then it is not found", func() {
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})
	})
}

func TestService_Batches(t *testing.T) {
	Convey("Given a started service", t, func() {
		b := &recordingBroadcaster{}
		svc := started(t, service.WithBroadcaster(b), service.WithMaxBatchRuns(100), service.WithQueueSize(50))
		defer svc.Stop()
		ctx := context.Background()

		Convey("When a batch is started", func() {
			seed := int64(5)
			v, err := svc.StartBatch(ctx, service.BatchRequest{Groups: explicitDraw(), Runs: 20, Seed: &seed})
			So(err, ShouldBeNil)
			So(v.Runs, ShouldEqual, 20)

			Convey("Then it completes with Brazil winning every run", func() {
				deadline := time.Now().Add(5 * time.Second)
				for {
					v, err = svc.Batch(ctx, v.ID)
					So(err, ShouldBeNil)
					if v.State == "done" || time.Now().After(deadline) {
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				So(string(v.State), ShouldEqual, "done")
				So(v.Completed, ShouldEqual, 20)
				So(v.Champions["Brazil"], ShouldEqual, 20)
				So(v.Odds["Brazil"], ShouldEqual, 1.0)
				So(b.has("batch_started"), ShouldBeTrue)
				So(b.has("batch_done"), ShouldBeTrue)
			})
		})

		Convey("When too many runs are requested", func() {
			_, err := svc.StartBatch(ctx, service.BatchRequest{Groups: explicitDraw(), Runs: 101})
			So(errors.Is(err, service.ErrInvalidRuns), ShouldBeTrue)
		})

		Convey("When the queue cannot hold the batch", func() {
			_, err := svc.StartBatch(ctx, service.BatchRequest{Groups: explicitDraw(), Runs: 60})
			So(errors.Is(err, service.ErrQueueFull), ShouldBeTrue)
		})

		Convey("When an unknown batch is requested", func() {
			_, err := svc.Batch(ctx, "missing")
			So(err, ShouldEqual, service.ErrBatchNotFound)
		})
	})
}

func waitBatch(ctx context.Context, svc *service.Service, id string) service.BatchView {
	deadline := time.Now().Add(5 * time.Second)
	for {
		v, err := svc.Batch(ctx, id)
		So(err, ShouldBeNil)
		if v.State == "done" || time.Now().After(deadline) {
			return v
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestService_BatchLimit(t *testing.T) {
	Convey("Given a service keeping two batch records", t, func() {
		svc := started(t, service.WithBatchLimit(2))
		defer svc.Stop()
		ctx := context.Background()

		var ids []string
		for i := 0; i < 3; i++ {
			v, err := svc.StartBatch(ctx, service.BatchRequest{Groups: explicitDraw(), Runs: 2})
			So(err, ShouldBeNil)
			So(string(waitBatch(ctx, svc, v.ID).State), ShouldEqual, "done")
			ids = append(ids, v.ID)
		}

		Convey("Then the oldest finished batch is dropped", func() {
			_, err := svc.Batch(ctx, ids[0])
			So(err, ShouldEqual, service.ErrBatchNotFound)
			for _, id := range ids[1:] {
				_, err := svc.Batch(ctx, id)
				So(err, ShouldBeNil)
			}
			So(svc.GetStats()["batches"], ShouldEqual, 2)
		})
	})
}

func TestService_Archive(t *testing.T) {
	Convey("Given a service without an archive", t, func() {
		svc := started(t)
		defer svc.Stop()

		Convey("Then the archive is reported disabled", func() {
			_, err := svc.Archive(context.Background(), 10)
			So(err, ShouldEqual, archive.ErrDisabled)
		})
	})

	Convey("Given a service with an in-memory sqlite archive", t, func() {
		ctx := context.Background()
		a, err := archive.Open(ctx, archive.DriverSQLite, ":memory:")
		So(err, ShouldBeNil)
		So(a.Migrate(ctx), ShouldBeNil)
		defer a.Close()

		svc := started(t, service.WithArchive(a), service.WithHistorySize(1))
		defer svc.Stop()

		first, _, err := svc.Simulate(ctx, service.SimulateRequest{Groups: explicitDraw()})
		So(err, ShouldBeNil)
		_, _, err = svc.Simulate(ctx, service.SimulateRequest{Groups: explicitDraw()})
		So(err, ShouldBeNil)

		Convey("Then evicted results are served from the archive", func() {
			got, err := svc.Simulation(ctx, first.ID)
			So(err, ShouldBeNil)
			So(got.Standings, ShouldResemble, first.Standings)
		})

		Convey("Then the summary counts both runs", func() {
			sum, err := svc.Archive(ctx, 10)
			So(err, ShouldBeNil)
			So(len(sum.Recent), ShouldEqual, 2)
			So(sum.Champions[0].Team, ShouldEqual, "Brazil")
			So(sum.Champions[0].Titles, ShouldEqual, 2)
		})
	})
}
