package loadcheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/copa/internal/adapters/http/api"
	service "github.com/okian/copa/internal/app"
	"github.com/okian/copa/internal/domain/dataset"
	"github.com/okian/copa/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
}

func newServer(t *testing.T) (*httptest.Server, *service.Service) {
	t.Helper()
	teams := make([]dataset.Team, 0, 40)
	for i := 0; i < 40; i++ {
		teams = append(teams, dataset.Team{Name: fmt.Sprintf("Team %02d", i), PerformanceScore: float64(i%7) + 1})
	}
	ds, err := dataset.New(teams, nil)
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	svc := service.New(ds, service.WithSeed(1), service.WithWorkerCount(2))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc).Register(context.Background(), mux)
	return httptest.NewServer(mux), svc
}

func testConfig(url string) *Config {
	return &Config{
		BaseURL:        url,
		Boards:         3,
		Simulations:    40,
		DuplicateEvery: 5,
		Workers:        4,
		Timeout:        5 * time.Second,
		TopN:           48,
		Seed:           11,
	}
}

func TestRun(t *testing.T) {
	Convey("Given a running simulator", t, func() {
		srv, svc := newServer(t)
		defer srv.Close()
		defer svc.Stop()

		Convey("When the load check runs", func() {
			stats, err := Run(context.Background(), testConfig(srv.URL))

			Convey("Then every request is accounted for", func() {
				So(err, ShouldBeNil)
				So(stats.BoardsReady, ShouldEqual, 3)
				So(stats.SimulationsSubmitted, ShouldEqual, 40)
				So(stats.SimulationsFailed, ShouldEqual, 0)
				So(stats.SimulationsCreated+stats.SimulationsDuplicate, ShouldEqual, 40)
				So(stats.SimulationsCreated, ShouldEqual, 33)
				So(stats.LeaderboardEntries, ShouldBeGreaterThan, 0)
			})

			Convey("Then the champions tally matches the unique runs", func() {
				total := 0
				for _, n := range stats.Champions {
					total += n
				}
				So(total, ShouldEqual, stats.SimulationsCreated)
			})
		})
	})

	Convey("Given a service that is down", t, func() {
		srv, svc := newServer(t)
		svc.Stop()
		srv.Close()

		Convey("Then the health check fails", func() {
			_, err := Run(context.Background(), testConfig(srv.URL))
			So(err, ShouldNotBeNil)
			So(errors.Is(err, ErrUnhealthy), ShouldBeTrue)
		})
	})
}

func TestRequestID(t *testing.T) {
	Convey("Given duplicates every third request", t, func() {
		cfg := &Config{DuplicateEvery: 3, Seed: 1}

		Convey("Then the third request repeats the second", func() {
			So(requestID(cfg, 0), ShouldEqual, "loadcheck-1-0")
			So(requestID(cfg, 3), ShouldEqual, requestID(cfg, 2))
			So(requestID(cfg, 4), ShouldNotEqual, requestID(cfg, 3))
		})

		Convey("Then zero disables duplicates", func() {
			cfg.DuplicateEvery = 0
			So(requestID(cfg, 3), ShouldEqual, "loadcheck-1-3")
		})
	})
}

func TestVerifyResults(t *testing.T) {
	Convey("Given a run with one title for Team 01", t, func() {
		stats := &Stats{SimulationsCreated: 1, Champions: map[string]int{"Team 01": 1}}

		Convey("Then an ordered leaderboard passes", func() {
			lb := []Entry{{Rank: 1, Team: "Team 01", Titles: 3}, {Rank: 2, Team: "Team 02", Titles: 1}}
			So(verifyResults(lb, 10, stats), ShouldBeNil)
		})

		Convey("Then an unsorted leaderboard fails", func() {
			lb := []Entry{{Rank: 1, Team: "Team 02", Titles: 1}, {Rank: 2, Team: "Team 01", Titles: 3}}
			So(verifyResults(lb, 10, stats), ShouldNotBeNil)
		})

		Convey("Then a missing champion fails unless the list was truncated", func() {
			lb := []Entry{{Rank: 1, Team: "Team 02", Titles: 4}}
			So(verifyResults(lb, 10, stats), ShouldNotBeNil)
			So(verifyResults(lb, 1, stats), ShouldBeNil)
		})

		Convey("Then failed simulations fail verification", func() {
			stats.SimulationsFailed = 2
			So(verifyResults([]Entry{{Rank: 1, Team: "Team 01", Titles: 1}}, 10, stats), ShouldNotBeNil)
		})
	})
}
