package stream_test

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/copa/internal/adapters/http/stream"
	"github.com/okian/copa/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
}

func TestBroadcaster(t *testing.T) {
	Convey("Given a broadcaster served over HTTP", t, func() {
		mux := http.NewServeMux()
		srv := httptest.NewServer(mux)
		defer srv.Close()
		b := stream.New(stream.WithRetry(500))
		defer b.Close()
		b.Register(context.Background(), mux)

		Convey("When a client subscribes and events are published", func() {
			stop := make(chan struct{})
			defer close(stop)
			go func() {
				tick := time.NewTicker(20 * time.Millisecond)
				defer tick.Stop()
				for {
					select {
					case <-stop:
						return
					case <-tick.C:
						b.Publish("batch_progress", map[string]int{"completed": 3})
					}
				}
			}()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+stream.BatchesChannel, http.NoBody)
			So(err, ShouldBeNil)
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			var event, data string
			scanner := bufio.NewScanner(resp.Body)
			for scanner.Scan() {
				line := scanner.Text()
				switch {
				case strings.HasPrefix(line, "event:"):
					event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
				case strings.HasPrefix(line, "data:"):
					data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
				}
				if event != "" && data != "" {
					break
				}
			}

			Convey("Then the client receives them as named JSON events", func() {
				So(resp.Header.Get("Content-Type"), ShouldStartWith, "text/event-stream")
				So(event, ShouldEqual, "batch_progress")
				So(data, ShouldEqual, `{"completed":3}`)
			})
		})

		Convey("When payloads cannot be encoded", func() {
			Convey("Then publishing does not panic", func() {
				So(func() { b.Publish("bad", make(chan int)) }, ShouldNotPanic)
			})
		})
	})
}

func TestRegisterWithNilMux(t *testing.T) {
	Convey("Given a broadcaster", t, func() {
		b := stream.New()
		defer b.Close()

		Convey("Then registering on a nil mux panics", func() {
			So(func() { b.Register(context.Background(), nil) }, ShouldPanic)
		})
	})
}

func TestBroadcasterCloseWithClients(t *testing.T) {
	Convey("Given a subscriber connected to a broadcaster", t, func() {
		mux := http.NewServeMux()
		srv := httptest.NewServer(mux)
		defer srv.Close()
		b := stream.New()
		b.Register(context.Background(), mux)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+stream.BatchesChannel, http.NoBody)
		So(err, ShouldBeNil)
		resp, err := http.DefaultClient.Do(req)
		So(err, ShouldBeNil)
		defer resp.Body.Close()
		So(resp.StatusCode, ShouldEqual, http.StatusOK)

		deadline := time.Now().Add(2 * time.Second)
		for b.Clients() == 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		So(b.Clients(), ShouldEqual, 1)

		Convey("When the broadcaster closes and the client then disconnects", func() {
			b.Close()
			_, _ = io.Copy(io.Discard, resp.Body)
			cancel()
			time.Sleep(50 * time.Millisecond)

			Convey("Then the stream ended and nothing is left connected", func() {
				So(b.Clients(), ShouldEqual, 0)
			})

			Convey("Then new subscribers are turned away", func() {
				again, err := http.Get(srv.URL + stream.BatchesChannel)
				So(err, ShouldBeNil)
				defer again.Body.Close()
				So(again.StatusCode, ShouldEqual, http.StatusServiceUnavailable)
			})

			Convey("Then publishing is still harmless", func() {
				So(func() { b.Publish("batch_done", map[string]int{"runs": 1}) }, ShouldNotPanic)
			})
		})
	})
}

func TestBroadcasterClose(t *testing.T) {
	Convey("Given a closed broadcaster", t, func() {
		b := stream.New()
		b.Close()

		Convey("Then closing again and publishing are harmless", func() {
			So(b.Close, ShouldNotPanic)
			So(func() { b.Publish("batch_done", map[string]int{"runs": 1}) }, ShouldNotPanic)
		})
	})
}
