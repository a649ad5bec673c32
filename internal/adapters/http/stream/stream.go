// Package stream pushes simulator events to browsers over server-sent events.
package stream

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alexandrevicenzi/go-sse"

	"github.com/okian/copa/pkg/logger"
)

// BatchesChannel is the route and channel batch events are sent on.
const BatchesChannel = "/events/batches"

// Broadcaster fans events out to every client subscribed to BatchesChannel.
type Broadcaster struct {
	srv    *sse.Server
	seq    atomic.Uint64
	closed atomic.Bool
	once   sync.Once
	logger logger.Logger
}

// Option configures a Broadcaster.
type Option func(*config)

type config struct {
	logger logger.Logger
	retry  int
}

// WithLogger sets the logger; the sse server's own log lines go to it at debug.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRetry sets the reconnect delay, in milliseconds, advertised to clients.
func WithRetry(ms int) Option {
	return func(c *config) {
		if ms > 0 {
			c.retry = ms
		}
	}
}

// New creates a Broadcaster.
func New(opts ...Option) *Broadcaster {
	cfg := config{retry: 3000}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get().Named("stream")
	}
	return &Broadcaster{
		srv: sse.NewServer(&sse.Options{
			RetryInterval: cfg.retry,
			Headers: map[string]string{
				"Cache-Control": "no-cache",
			},
			Logger: log.New(logWriter{cfg.logger}, "", 0),
		}),
		logger: cfg.logger,
	}
}

// Publish sends payload as JSON under the given event name. It is a no-op
// once the broadcaster is closed.
func (b *Broadcaster) Publish(event string, payload any) {
	if b.closed.Load() {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error(context.Background(), "failed to encode stream event",
			logger.String("event", event),
			logger.Error(err),
		)
		return
	}
	id := strconv.FormatUint(b.seq.Add(1), 10)
	b.srv.SendMessage(BatchesChannel, sse.NewMessage(id, string(data), event))
}

// Register attaches the event stream to mux.
func (b *Broadcaster) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET "+BatchesChannel, func(w http.ResponseWriter, r *http.Request) {
		if b.closed.Load() {
			http.Error(w, "event stream closed", http.StatusServiceUnavailable)
			return
		}
		// Streams outlive the server's write timeout.
		_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
		b.srv.ServeHTTP(w, r)
	})
}

// Close ends every open stream and refuses new subscribers. The sse server
// keeps dispatching so clients that disconnect afterwards are still removed
// cleanly. It is safe to call more than once.
func (b *Broadcaster) Close() {
	b.once.Do(func() {
		b.closed.Store(true)
		if b.srv.HasChannel(BatchesChannel) {
			b.srv.CloseChannel(BatchesChannel)
		}
	})
}

// Clients returns the number of connected subscribers.
func (b *Broadcaster) Clients() int {
	return b.srv.ClientCount()
}

// logWriter forwards the standard logger used by go-sse.
type logWriter struct {
	l logger.Logger
}

func (w logWriter) Write(p []byte) (int, error) {
	w.l.Debug(context.Background(), strings.TrimSpace(string(p)))
	return len(p), nil
}
