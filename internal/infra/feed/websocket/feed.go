// Package websocket implements addresswatch.Feed over a websocket address-activity
// stream. A Feed owns at most one live connection at a time: it dials,
// subscribes to the watched address, keeps the connection alive with periodic
// pings and, whenever the connection closes or a ping fails, waits a fixed retry
// interval and connects again, forever.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/gabapcia/hosewatch/internal/addresswatch"
	"github.com/gabapcia/hosewatch/internal/pkg/logger"
	"github.com/gabapcia/hosewatch/internal/pkg/resilience/retry"
	"github.com/gabapcia/hosewatch/internal/pkg/telemetry"
	"github.com/gabapcia/hosewatch/internal/pkg/x/chflow"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// ErrInvalidURL is returned by Subscribe when the feed endpoint is not a ws(s) URL.
var ErrInvalidURL = errors.New("invalid feed url")

// State is the lifecycle state of the feed connection.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribed
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const (
	writeWait = 10 * time.Second

	DefaultPingInterval  = 30 * time.Second
	DefaultRetryInterval = 5 * time.Second
)

// Config identifies the feed endpoint and the watched address.
type Config struct {
	URL           string
	Network       string
	Address       string
	PingInterval  time.Duration
	RetryInterval time.Duration
}

type controlFrame struct {
	Type    string `json:"type"`
	Network string `json:"network,omitempty"`
	Address string `json:"address,omitempty"`
}

// event is what a connection's reader hands to the owner loop. Events carry the
// generation of the connection that produced them.
type event struct {
	generation uint64
	frame      []byte
	err        error
}

type feed struct {
	cfg    Config
	dialer *websocket.Dialer
	logger *zap.SugaredLogger

	state      atomic.Int32
	generation atomic.Uint64
	reconnects metric.Int64Counter
}

var _ addresswatch.Feed = (*feed)(nil)

// State reports the current connection state.
func (f *feed) State() State {
	return State(f.state.Load())
}

// Generation reports how many connections have been opened so far.
func (f *feed) Generation() uint64 {
	return f.generation.Load()
}

func (f *feed) setState(s State) {
	f.state.Store(int32(s))
	f.logger.Debugw("feed state changed", "feed.state", s.String(), "feed.generation", f.generation.Load())
}

// Subscribe validates the endpoint and starts the connection loop. The returned
// channel delivers raw frames in transport order and is closed once ctx ends.
func (f *feed) Subscribe(ctx context.Context) (<-chan []byte, error) {
	u, err := url.Parse(f.cfg.URL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, f.cfg.URL)
	}

	out := make(chan []byte)
	go f.run(ctx, out)
	return out, nil
}

// run owns the connection. Every connection ends in exactly one reconnect,
// scheduled retryInterval after the close, until ctx is done.
func (f *feed) run(ctx context.Context, out chan<- []byte) {
	defer close(out)

	events := make(chan event)
	for {
		conn, gen, err := f.connect(ctx)
		if err != nil {
			f.setState(StateClosed)
			return
		}

		f.serve(ctx, conn, gen, events, out)
		if ctx.Err() != nil {
			f.setState(StateClosed)
			return
		}

		f.logger.Warnw("feed connection closed, reconnecting",
			"feed.generation", gen,
			"retry.interval", f.cfg.RetryInterval,
		)
		f.reconnects.Add(ctx, 1, metric.WithAttributes(attribute.String("network", f.cfg.Network)))
		f.setState(StateDisconnected)

		if !chflow.Sleep(ctx, f.cfg.RetryInterval) {
			f.setState(StateClosed)
			return
		}
	}
}

// connect dials and subscribes, retrying failed attempts every retryInterval
// until one succeeds or ctx is done.
func (f *feed) connect(ctx context.Context) (*websocket.Conn, uint64, error) {
	r := retry.New(
		retry.WithAttempts(0),
		retry.WithDelay(f.cfg.RetryInterval),
		retry.WithFixedDelay(),
		retry.WithOnRetry(func(attempt uint, err error) {
			f.logger.Warnw("error connecting to feed",
				"attempt", attempt+1,
				"retry.interval", f.cfg.RetryInterval,
				"error", err,
			)
		}),
	)

	var (
		conn *websocket.Conn
		gen  uint64
	)
	err := r.Execute(ctx, func() error {
		f.setState(StateConnecting)

		c, _, err := f.dialer.DialContext(ctx, f.cfg.URL, nil)
		if err != nil {
			f.setState(StateFailed)
			return err
		}

		subscription := controlFrame{Type: "address", Network: f.cfg.Network, Address: f.cfg.Address}
		if err := writeJSON(c, subscription); err != nil {
			c.Close()
			f.setState(StateFailed)
			return fmt.Errorf("error sending subscription: %w", err)
		}

		conn, gen = c, f.generation.Add(1)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	f.setState(StateSubscribed)
	f.logger.Infow("subscribed to address feed", "address", f.cfg.Address, "feed.generation", gen)
	return conn, gen, nil
}

// serve pumps one connection until it closes, a ping fails, or ctx is done.
// The connection is always closed on return.
func (f *feed) serve(ctx context.Context, conn *websocket.Conn, gen uint64, events chan event, out chan<- []byte) {
	stop := make(chan struct{})
	defer close(stop)
	defer conn.Close()

	go read(conn, gen, events, stop)

	ticker := time.NewTicker(f.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(writeWait)
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		case <-ticker.C:
			if err := writeJSON(conn, controlFrame{Type: "ping"}); err != nil {
				f.logger.Errorw("error sending ping", "feed.generation", gen, "error", err)
				f.setState(StateFailed)
				return
			}
		case ev := <-events:
			if ev.generation != gen {
				f.logger.Debugw("ignoring event from stale connection", "feed.generation", ev.generation)
				continue
			}

			if ev.err != nil {
				if !websocket.IsCloseError(ev.err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					f.logger.Errorw("feed transport error", "feed.generation", gen, "error", ev.err)
				}
				f.setState(StateClosed)
				return
			}

			if !chflow.Send(ctx, out, ev.frame) {
				return
			}
		}
	}
}

// read forwards every message of conn to events until the connection fails.
// It gives up as soon as stop is closed.
func read(conn *websocket.Conn, gen uint64, events chan<- event, stop <-chan struct{}) {
	for {
		_, frame, err := conn.ReadMessage()

		select {
		case events <- event{generation: gen, frame: frame, err: err}:
		case <-stop:
			return
		}

		if err != nil {
			return
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

type config struct {
	logger *zap.SugaredLogger
	dialer *websocket.Dialer
}

// Option configures optional Feed dependencies.
type Option func(*config)

// WithLogger sets the logger used for connection lifecycle events.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithDialer overrides the websocket dialer. Default: websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *config) {
		c.dialer = d
	}
}

// New builds the feed for one network/address pair. Non-positive intervals fall
// back to DefaultPingInterval and DefaultRetryInterval.
func New(cfg Config, opts ...Option) *feed {
	c := config{
		logger: logger.Nop(),
		dialer: websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(&c)
	}

	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultPingInterval
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}

	reconnects, err := otel.Meter(telemetry.ServiceName).Int64Counter("hosewatch.feed.reconnects",
		metric.WithDescription("Feed reconnections after a closed or failed connection."),
		metric.WithUnit("{reconnect}"),
	)
	if err != nil {
		otel.Handle(err)
		reconnects = noop.Int64Counter{}
	}

	return &feed{
		cfg:        cfg,
		dialer:     c.dialer,
		logger:     c.logger,
		reconnects: reconnects,
	}
}
